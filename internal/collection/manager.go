// Package collection owns the in-memory ordered list of links for the
// authenticated user's profile and keeps it synchronized with the backend.
// Local state only reflects mutations the backend has confirmed; on any
// detected drift the whole profile is re-fetched.
package collection

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/natively/natively-cli/internal/api"
	"github.com/natively/natively-cli/internal/api/apierr"
	"github.com/natively/natively-cli/internal/models"
	"github.com/natively/natively-cli/internal/notify"
	"github.com/natively/natively-cli/internal/session"
	"github.com/natively/natively-cli/internal/validation"
)

// ErrNoProfile is reported when the backend returns an empty profile
// collection. It is a non-fatal condition, distinct from a hard error.
var ErrNoProfile = errors.New("no profile found")

// Direction selects which neighbor a link is swapped with.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Manager loads the current user's profile and owns its ordered link list.
// Each mutation performs the backend call first and only commits local state
// on confirmed success.
type Manager struct {
	client   *api.Client
	session  *session.Session
	notifier *notify.Notifier
	log      *zap.Logger

	// onAuthExpired is invoked (after authDelay) when a request comes back
	// 401, once the credential has been cleared and the message surfaced.
	onAuthExpired func()
	authDelay     time.Duration

	mu         sync.Mutex
	profile    *models.Profile
	links      []models.Link
	inFlight   map[int]bool
	generation uint64
}

// NewManager creates a manager. The session, notifier and logger are required
// collaborators; there is no ambient state.
func NewManager(client *api.Client, sess *session.Session, notifier *notify.Notifier, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		client:    client,
		session:   sess,
		notifier:  notifier,
		log:       log,
		authDelay: 2 * time.Second,
		inFlight:  make(map[int]bool),
	}
}

// SetAuthExpiredHook registers the redirect-to-login behavior triggered by a
// 401. The hook runs after a short delay so the message can be read.
func (m *Manager) SetAuthExpiredHook(fn func()) {
	m.onAuthExpired = fn
}

// SetAuthExpiryDelay overrides the delay between surfacing an expiry message
// and invoking the hook. Surfaces whose messages persist (a terminal) can set
// it to zero.
func (m *Manager) SetAuthExpiryDelay(d time.Duration) {
	m.authDelay = d
}

// Load fetches the current user's profile and seeds the link list. The
// backend returns a collection of profiles; the first element is treated as
// the caller's own. An empty collection yields ErrNoProfile.
func (m *Manager) Load(ctx context.Context) error {
	m.mu.Lock()
	m.generation++
	gen := m.generation
	m.mu.Unlock()

	profiles, err := m.client.Profiles(ctx)
	if err != nil {
		m.reportFailure("load your profile", err)
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation {
		// A newer load superseded this one; discard the result.
		m.log.Debug("discarding stale profile load", zap.Uint64("generation", gen))
		return nil
	}

	if len(profiles) == 0 {
		m.profile = nil
		m.links = nil
		m.notifier.Notify("No profile found. Please contact support.", notify.SeverityWarning)
		return ErrNoProfile
	}

	profile := profiles[0]
	m.profile = &profile
	m.links = sortedByOrder(profile.Links)
	m.log.Info("profile loaded",
		zap.String("slug", profile.Slug),
		zap.Int("links", len(m.links)))
	return nil
}

// Create validates the input, creates the link at the end of the list and
// appends the server-confirmed entry.
func (m *Manager) Create(ctx context.Context, title, url string) (*models.Link, error) {
	if err := validation.CheckLink(title, url); err != nil {
		return nil, err
	}

	m.mu.Lock()
	order := len(m.links)
	m.mu.Unlock()

	created, err := m.client.CreateLink(ctx, &models.LinkCreate{Title: title, URL: url, Order: order})
	if err != nil {
		m.reportFailure("save link", err)
		return nil, err
	}

	m.mu.Lock()
	m.links = sortedByOrder(append(m.links, *created))
	m.mu.Unlock()

	m.notifier.Notify("Link added successfully", notify.SeveritySuccess)
	m.log.Info("link created", zap.Int("id", created.ID), zap.Int("order", created.Order))
	return created, nil
}

// Update validates the input and replaces the link's title and URL in place.
func (m *Manager) Update(ctx context.Context, id int, title, url string) (*models.Link, error) {
	if err := validation.CheckLink(title, url); err != nil {
		return nil, err
	}
	if err := m.begin(id); err != nil {
		return nil, err
	}
	defer m.end(id)

	updated, err := m.client.UpdateLink(ctx, id, &models.LinkUpdate{Title: title, URL: url})
	if err != nil {
		m.reportFailure("save link", err)
		return nil, err
	}

	m.mu.Lock()
	for i := range m.links {
		if m.links[i].ID == id {
			m.links[i] = *updated
			break
		}
	}
	m.mu.Unlock()

	m.notifier.Notify("Link updated successfully", notify.SeveritySuccess)
	return updated, nil
}

// Delete removes the link. A 404 means another session already deleted it;
// that is treated as a convergence signal and resolved by a full reload.
func (m *Manager) Delete(ctx context.Context, id int) error {
	if err := m.begin(id); err != nil {
		return err
	}
	defer m.end(id)

	err := m.client.DeleteLink(ctx, id)
	if err != nil {
		if apierr.IsNotFound(err) {
			m.notifier.Notify("This link has already been deleted", notify.SeverityWarning)
			return m.reload(ctx)
		}
		m.reportFailure("delete link", err)
		return err
	}

	m.mu.Lock()
	kept := m.links[:0]
	for _, l := range m.links {
		if l.ID != id {
			kept = append(kept, l)
		}
	}
	m.links = kept
	m.mu.Unlock()

	m.notifier.Notify("Link deleted successfully", notify.SeveritySuccess)
	return nil
}

// Move swaps the link with its neighbor in the given direction. Moving the
// first link up or the last link down is a no-op with no network call. The
// two order updates are not atomic on the backend; local state is only
// swapped once both succeed, and any failure triggers a full reload so local
// order always reflects server order.
func (m *Manager) Move(ctx context.Context, id int, direction Direction) error {
	if direction != Up && direction != Down {
		return &apierr.Error{Kind: apierr.KindSetup, Detail: fmt.Sprintf("invalid direction %q", direction)}
	}

	m.mu.Lock()
	idx := -1
	for i := range m.links {
		if m.links[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		m.mu.Unlock()
		return &apierr.Error{Kind: apierr.KindSetup, Detail: fmt.Sprintf("no link with ID %d", id)}
	}
	if (direction == Up && idx == 0) || (direction == Down && idx == len(m.links)-1) {
		m.mu.Unlock()
		return nil
	}

	tidx := idx - 1
	if direction == Down {
		tidx = idx + 1
	}
	target := m.links[idx]
	neighbor := m.links[tidx]
	m.mu.Unlock()

	if err := m.begin(target.ID, neighbor.ID); err != nil {
		return err
	}
	defer m.end(target.ID, neighbor.ID)

	movedTarget, err := m.client.SetLinkOrder(ctx, target.ID, neighbor.Order)
	if err != nil {
		m.reportFailure("reorder links", err)
		m.resync(ctx)
		return err
	}

	movedNeighbor, err := m.client.SetLinkOrder(ctx, neighbor.ID, target.Order)
	if err != nil {
		// First update landed, second did not: the backend's order values no
		// longer match local state. Never commit the half-swap; re-fetch.
		m.log.Warn("partial reorder, resynchronizing",
			zap.Int("moved", target.ID), zap.Int("stranded", neighbor.ID))
		m.reportFailure("reorder links", err)
		m.resync(ctx)
		return err
	}

	m.mu.Lock()
	for i := range m.links {
		switch m.links[i].ID {
		case movedTarget.ID:
			m.links[i] = *movedTarget
		case movedNeighbor.ID:
			m.links[i] = *movedNeighbor
		}
	}
	m.links = sortedByOrder(m.links)
	m.mu.Unlock()
	return nil
}

// Links returns a copy of the ordered link list.
func (m *Manager) Links() []models.Link {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Link, len(m.links))
	copy(out, m.links)
	return out
}

// Profile returns a copy of the loaded profile, or nil before a successful
// Load.
func (m *Manager) Profile() *models.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profile == nil {
		return nil
	}
	p := *m.profile
	p.Links = append([]models.Link(nil), m.links...)
	return &p
}

// begin marks the given link ids as having a mutation in flight. At most one
// mutation per link id may be active.
func (m *Manager) begin(ids ...int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if m.inFlight[id] {
			return &apierr.Error{
				Kind:   apierr.KindSetup,
				Detail: fmt.Sprintf("another change to link %d is still in progress", id),
			}
		}
	}
	for _, id := range ids {
		m.inFlight[id] = true
	}
	return nil
}

func (m *Manager) end(ids ...int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.inFlight, id)
	}
}

// reload re-fetches the profile without raising failure notifications of its
// own beyond what Load produces.
func (m *Manager) reload(ctx context.Context) error {
	if err := m.Load(ctx); err != nil && !errors.Is(err, ErrNoProfile) {
		return err
	}
	return nil
}

// resync is a best-effort reload after a failed mutation; the mutation's own
// error has already been surfaced.
func (m *Manager) resync(ctx context.Context) {
	if err := m.reload(ctx); err != nil {
		m.log.Warn("resync after failed mutation did not complete", zap.Error(err))
	}
}

// reportFailure converts an operation failure into the user-facing
// notification, and handles forced logout on expired credentials. Validation
// errors never reach this point.
func (m *Manager) reportFailure(action string, err error) {
	kind, _ := apierr.KindOf(err)
	switch kind {
	case apierr.KindUnauthorized:
		m.handleAuthExpired()
	case apierr.KindNetwork:
		m.notifier.Notify("Network error. Please check your connection.", notify.SeverityError)
	default:
		detail := "Unknown error"
		var apiErr *apierr.Error
		if errors.As(err, &apiErr) && apiErr.Detail != "" {
			detail = apiErr.Detail
		}
		m.notifier.Notify(fmt.Sprintf("Failed to %s: %s", action, detail), notify.SeverityError)
	}
	m.log.Warn("operation failed",
		zap.String("action", action),
		zap.String("kind", kind.String()),
		zap.Error(err))
}

// handleAuthExpired clears the credential and schedules the redirect hook,
// delayed so the message can be read first.
func (m *Manager) handleAuthExpired() {
	m.notifier.Notify("Your session has expired. Please log in again.", notify.SeverityError)
	if m.session != nil {
		if err := m.session.ClearCredential(); err != nil {
			m.log.Warn("failed to clear credential", zap.Error(err))
		}
	}
	if m.onAuthExpired != nil {
		if m.authDelay <= 0 {
			m.onAuthExpired()
		} else {
			time.AfterFunc(m.authDelay, m.onAuthExpired)
		}
	}
}

// sortedByOrder returns the links sorted ascending by their order field. The
// sort is stable so equal order values keep their server-given sequence.
func sortedByOrder(links []models.Link) []models.Link {
	out := append([]models.Link(nil), links...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}
