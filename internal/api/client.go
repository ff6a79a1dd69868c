// Package api implements the HTTP client for the Natively backend. Every
// failure leaving this package is classified into the apierr taxonomy.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/natively/natively-cli/internal/api/apierr"
	"github.com/natively/natively-cli/internal/models"
)

// Client is the Natively API client
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new Natively API client. The token may be empty for
// anonymous use (public profile and click tracking endpoints).
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken replaces the credential used for authenticated requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

// doRequest performs an HTTP request, attaching the token when authed is set.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, authed bool) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, &apierr.Error{Kind: apierr.KindSetup, Detail: "failed to marshal request body", Err: err}
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, &apierr.Error{Kind: apierr.KindSetup, Detail: "failed to create request", Err: err}
	}

	if authed {
		req.Header.Set("Authorization", "Token "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &apierr.Error{
			Kind:   apierr.KindNetwork,
			Detail: fmt.Sprintf("cannot connect to %s", c.baseURL),
			Err:    err,
		}
	}

	return resp, nil
}

// classify converts a non-2xx response into a typed error. The backend sends
// either {"detail": "..."}, {"error": "..."} or a per-field message map.
func (c *Client) classify(resp *http.Response) error {
	defer resp.Body.Close()

	apiErr := &apierr.Error{Status: resp.StatusCode}
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		apiErr.Kind = apierr.KindUnauthorized
	case http.StatusNotFound:
		apiErr.Kind = apierr.KindNotFound
	case http.StatusTooManyRequests:
		apiErr.Kind = apierr.KindRateLimited
	default:
		apiErr.Kind = apierr.KindServer
	}

	body, _ := io.ReadAll(resp.Body)
	apiErr.Detail, apiErr.Fields = parseErrorBody(body)
	return apiErr
}

// parseErrorBody extracts the detail message and any per-field messages from
// a backend error payload.
func parseErrorBody(body []byte) (string, map[string][]string) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", nil
	}

	var detail string
	fields := make(map[string][]string)
	for key, raw := range payload {
		var asString string
		var asList []string
		switch {
		case json.Unmarshal(raw, &asString) == nil:
			if key == "detail" || key == "error" {
				detail = asString
			} else {
				fields[key] = []string{asString}
			}
		case json.Unmarshal(raw, &asList) == nil:
			fields[key] = asList
		}
	}
	if len(fields) == 0 {
		fields = nil
	}
	return detail, fields
}

// decode reads a JSON response body into v.
func decode(resp *http.Response, v interface{}) error {
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &apierr.Error{Kind: apierr.KindSetup, Detail: "failed to decode response", Err: err}
	}
	return nil
}

// Login exchanges credentials for an API token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body := map[string]string{"username": username, "password": password}

	resp, err := c.doRequest(ctx, "POST", "/api/auth/token/", body, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", c.classify(resp)
	}

	var tr models.TokenResponse
	if err := decode(resp, &tr); err != nil {
		return "", err
	}
	return tr.Token, nil
}

// Register creates a new account and returns the user plus a fresh token.
func (c *Client) Register(ctx context.Context, req *models.RegisterRequest) (*models.RegisterResponse, error) {
	resp, err := c.doRequest(ctx, "POST", "/api/auth/register/", req, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, c.classify(resp)
	}

	var rr models.RegisterResponse
	if err := decode(resp, &rr); err != nil {
		return nil, err
	}
	return &rr, nil
}

// Profiles retrieves the authenticated user's profiles. The backend returns a
// collection; by contract the first element is the caller's own profile.
func (c *Client) Profiles(ctx context.Context) ([]models.Profile, error) {
	resp, err := c.doRequest(ctx, "GET", "/api/profiles/", nil, true)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.classify(resp)
	}

	var profiles []models.Profile
	if err := decode(resp, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// MyProfileSettings retrieves the richer settings view of the caller's profile.
func (c *Client) MyProfileSettings(ctx context.Context) (*models.ProfileSettings, error) {
	resp, err := c.doRequest(ctx, "GET", "/api/profiles/me/", nil, true)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.classify(resp)
	}

	var settings models.ProfileSettings
	if err := decode(resp, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// UpdateMyProfile partially updates the caller's profile settings.
func (c *Client) UpdateMyProfile(ctx context.Context, update *models.ProfileSettingsUpdate) (*models.ProfileSettings, error) {
	resp, err := c.doRequest(ctx, "PATCH", "/api/profiles/update_me/", update, true)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.classify(resp)
	}

	var settings models.ProfileSettings
	if err := decode(resp, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// UploadProfileImage uploads a profile image and returns its URL.
func (c *Client) UploadProfileImage(ctx context.Context, filename string, image io.Reader) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return "", &apierr.Error{Kind: apierr.KindSetup, Detail: "failed to build upload body", Err: err}
	}
	if _, err := io.Copy(part, image); err != nil {
		return "", &apierr.Error{Kind: apierr.KindSetup, Detail: "failed to read image", Err: err}
	}
	if err := writer.Close(); err != nil {
		return "", &apierr.Error{Kind: apierr.KindSetup, Detail: "failed to build upload body", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/profiles/upload-image/", &buf)
	if err != nil {
		return "", &apierr.Error{Kind: apierr.KindSetup, Detail: "failed to create request", Err: err}
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &apierr.Error{Kind: apierr.KindNetwork, Detail: fmt.Sprintf("cannot connect to %s", c.baseURL), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", c.classify(resp)
	}

	var result struct {
		ProfileImage string `json:"profile_image"`
	}
	if err := decode(resp, &result); err != nil {
		return "", err
	}
	return result.ProfileImage, nil
}

// CreateLink creates a new link on the caller's profile.
func (c *Client) CreateLink(ctx context.Context, create *models.LinkCreate) (*models.Link, error) {
	resp, err := c.doRequest(ctx, "POST", "/api/links/", create, true)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, c.classify(resp)
	}

	var created models.Link
	if err := decode(resp, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateLink replaces a link's title and URL.
func (c *Client) UpdateLink(ctx context.Context, id int, update *models.LinkUpdate) (*models.Link, error) {
	path := fmt.Sprintf("/api/links/%d/", id)

	resp, err := c.doRequest(ctx, "PUT", path, update, true)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.classify(resp)
	}

	var updated models.Link
	if err := decode(resp, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// SetLinkOrder partially updates a link's display order.
func (c *Client) SetLinkOrder(ctx context.Context, id, order int) (*models.Link, error) {
	path := fmt.Sprintf("/api/links/%d/", id)
	body := map[string]int{"order": order}

	resp, err := c.doRequest(ctx, "PATCH", path, body, true)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.classify(resp)
	}

	var updated models.Link
	if err := decode(resp, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteLink deletes a link.
func (c *Client) DeleteLink(ctx context.Context, id int) error {
	path := fmt.Sprintf("/api/links/%d/", id)

	resp, err := c.doRequest(ctx, "DELETE", path, nil, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return c.classify(resp)
	}

	return nil
}

// PublicProfile retrieves the read-only profile for a public slug. No
// credential is required.
func (c *Client) PublicProfile(ctx context.Context, slug string) (*models.Profile, error) {
	path := "/api/p/" + url.PathEscape(slug) + "/"

	resp, err := c.doRequest(ctx, "GET", path, nil, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.classify(resp)
	}

	var profile models.Profile
	if err := decode(resp, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// TrackClick records a click event for a link. No credential is required.
func (c *Client) TrackClick(ctx context.Context, linkID int) error {
	path := fmt.Sprintf("/api/track-click/%d/", linkID)

	resp, err := c.doRequest(ctx, "GET", path, nil, false)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.classify(resp)
	}

	return nil
}

// Clicks retrieves the click events for a link within the given time range.
func (c *Client) Clicks(ctx context.Context, linkID int, rng models.ClickRange) ([]models.ClickEvent, error) {
	params := url.Values{}
	params.Set("link", fmt.Sprintf("%d", linkID))
	if rng != "" {
		params.Set("range", string(rng))
	}

	resp, err := c.doRequest(ctx, "GET", "/api/clicks/?"+params.Encode(), nil, true)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.classify(resp)
	}

	var clicks []models.ClickEvent
	if err := decode(resp, &clicks); err != nil {
		return nil, err
	}
	return clicks, nil
}

// TestConnection verifies that the configured URL and token can reach the
// backend's authenticated surface.
func (c *Client) TestConnection(ctx context.Context) error {
	resp, err := c.doRequest(ctx, "GET", "/api/profiles/", nil, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.classify(resp)
	}

	return nil
}
