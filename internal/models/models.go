// Package models defines the data models used in the Natively application.
package models

import "time"

// User represents the account that owns a profile.
type User struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// Link represents one shareable entry on a profile. ID, order confirmation
// and click_count are server-assigned.
type Link struct {
	ID         int       `json:"id"`
	Title      string    `json:"title"`
	URL        string    `json:"url"`
	Order      int       `json:"order"`
	ClickCount int       `json:"click_count"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

// Profile represents a user's public link-in-bio page, including its ordered
// links. The same shape is returned by the authenticated profile list and the
// public slug endpoint.
type Profile struct {
	ID    int    `json:"id"`
	User  User   `json:"user"`
	Slug  string `json:"slug"`
	Links []Link `json:"links"`
}

// LinkCreate represents the request to create a link
type LinkCreate struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Order int    `json:"order"`
}

// LinkUpdate represents the full-replace request for a link's editable fields
type LinkUpdate struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ClickEvent is a server-owned record of a single link visit.
type ClickEvent struct {
	ID        int       `json:"id"`
	ClickedAt time.Time `json:"clicked_at"`
	IPAddress string    `json:"ip_address,omitempty"`
}

// ClickRange selects the time window for click queries.
type ClickRange string

const (
	RangeDay   ClickRange = "day"
	RangeWeek  ClickRange = "week"
	RangeMonth ClickRange = "month"
	RangeAll   ClickRange = "all"
)

// TokenResponse is returned by the token endpoint on successful login.
type TokenResponse struct {
	Token string `json:"token"`
}

// RegisterRequest represents the request to register a new account
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterResponse is returned on successful registration.
type RegisterResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// ProfileSettings is the richer settings view of the caller's own profile.
type ProfileSettings struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	DisplayName     string `json:"display_name"`
	Email           string `json:"email"`
	Bio             string `json:"bio"`
	Location        string `json:"location"`
	Website         string `json:"website"`
	Phone           string `json:"phone"`
	ProfileImage    string `json:"profile_image"`
	Twitter         string `json:"twitter"`
	Instagram       string `json:"instagram"`
	YouTube         string `json:"youtube"`
	ShowInDirectory bool   `json:"show_in_directory"`
	ShowStats       bool   `json:"show_stats"`
	HideEmail       bool   `json:"hide_email"`
}

// ProfileSettingsUpdate represents a partial update to the caller's profile
// settings. Only non-nil fields are sent.
type ProfileSettingsUpdate struct {
	FirstName       *string `json:"first_name,omitempty"`
	LastName        *string `json:"last_name,omitempty"`
	DisplayName     *string `json:"display_name,omitempty"`
	Bio             *string `json:"bio,omitempty"`
	Location        *string `json:"location,omitempty"`
	Website         *string `json:"website,omitempty"`
	Phone           *string `json:"phone,omitempty"`
	Twitter         *string `json:"twitter,omitempty"`
	Instagram       *string `json:"instagram,omitempty"`
	YouTube         *string `json:"youtube,omitempty"`
	ShowInDirectory *bool   `json:"show_in_directory,omitempty"`
	ShowStats       *bool   `json:"show_stats,omitempty"`
	HideEmail       *bool   `json:"hide_email,omitempty"`
}
