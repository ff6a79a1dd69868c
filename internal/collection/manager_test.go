package collection

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/natively/natively-cli/internal/api"
	"github.com/natively/natively-cli/internal/api/apierr"
	"github.com/natively/natively-cli/internal/models"
	"github.com/natively/natively-cli/internal/notify"
	"github.com/natively/natively-cli/internal/session"
)

// capture records every notification the manager raises.
type capture struct {
	mu    sync.Mutex
	notes []notify.Notification
}

func (c *capture) add(n notify.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n.Open {
		c.notes = append(c.notes, n)
	}
}

func (c *capture) last() (notify.Notification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.notes) == 0 {
		return notify.Notification{}, false
	}
	return c.notes[len(c.notes)-1], true
}

func (c *capture) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.notes)
}

func newTestManager(t *testing.T, handler http.Handler) (*Manager, *capture, *session.Session) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	sess, err := session.New(nil)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	if err := sess.SetCredential("test-token"); err != nil {
		t.Fatalf("failed to set credential: %v", err)
	}

	notes := &capture{}
	notifier := notify.New(time.Minute, notes.add)
	manager := NewManager(api.NewClient(server.URL, "test-token"), sess, notifier, nil)
	return manager, notes, sess
}

func writeProfiles(t *testing.T, w http.ResponseWriter, links []models.Link) {
	t.Helper()
	_ = json.NewEncoder(w).Encode([]models.Profile{
		{ID: 1, User: models.User{ID: 1, Username: "alice"}, Slug: "alice", Links: links},
	})
}

func linkIDs(links []models.Link) []int {
	ids := make([]int, len(links))
	for i, l := range links {
		ids[i] = l.ID
	}
	return ids
}

func TestLoad_SortsByOrder(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeProfiles(t, w, []models.Link{
			{ID: 3, Title: "C", URL: "https://c.dev", Order: 2},
			{ID: 1, Title: "A", URL: "https://a.dev", Order: 0},
			{ID: 2, Title: "B", URL: "https://b.dev", Order: 1},
		})
	})
	manager, _, _ := newTestManager(t, handler)

	if err := manager.Load(context.Background()); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	links := manager.Links()
	for i, link := range links {
		if link.Order != i {
			t.Errorf("position %d: expected order %d, got %d (id %d)", i, i, link.Order, link.ID)
		}
	}
	if got := linkIDs(links); got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Errorf("expected ids [1 2 3], got %v", got)
	}
}

func TestLoad_NoProfile(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	manager, notes, _ := newTestManager(t, handler)

	err := manager.Load(context.Background())
	if !errors.Is(err, ErrNoProfile) {
		t.Fatalf("expected ErrNoProfile, got %v", err)
	}

	note, ok := notes.last()
	if !ok {
		t.Fatal("expected a notification")
	}
	if note.Message != "No profile found. Please contact support." {
		t.Errorf("unexpected message: %q", note.Message)
	}
	if note.Severity != notify.SeverityWarning {
		t.Errorf("expected warning severity, got %s", note.Severity)
	}
}

func TestLoad_ExpiredCredential(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Invalid token."}`))
	})
	manager, notes, sess := newTestManager(t, handler)

	hookCalled := false
	manager.SetAuthExpiryDelay(0)
	manager.SetAuthExpiredHook(func() { hookCalled = true })

	err := manager.Load(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !apierr.IsUnauthorized(err) {
		t.Errorf("expected unauthorized kind, got %v", err)
	}

	note, ok := notes.last()
	if !ok {
		t.Fatal("expected a notification")
	}
	if note.Message != "Your session has expired. Please log in again." {
		t.Errorf("unexpected message: %q", note.Message)
	}
	if sess.Authenticated() {
		t.Error("expected credential to be cleared")
	}
	if !hookCalled {
		t.Error("expected auth-expired hook to run")
	}
}

func TestLoad_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	sess, _ := session.New(nil)
	notes := &capture{}
	notifier := notify.New(time.Minute, notes.add)
	manager := NewManager(api.NewClient(server.URL, "test-token"), sess, notifier, nil)

	if err := manager.Load(context.Background()); err == nil {
		t.Fatal("expected error, got nil")
	}

	note, ok := notes.last()
	if !ok {
		t.Fatal("expected a notification")
	}
	if note.Message != "Network error. Please check your connection." {
		t.Errorf("unexpected message: %q", note.Message)
	}
}

func TestLoad_StaleResultDiscarded(t *testing.T) {
	var reqs int32
	firstArrived := make(chan struct{})
	release := make(chan struct{})

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&reqs, 1) == 1 {
			close(firstArrived)
			<-release
			writeProfiles(t, w, []models.Link{{ID: 1, Title: "Old", URL: "https://old.dev", Order: 0}})
			return
		}
		writeProfiles(t, w, []models.Link{{ID: 2, Title: "New", URL: "https://new.dev", Order: 0}})
	})
	manager, _, _ := newTestManager(t, handler)

	done := make(chan error, 1)
	go func() { done <- manager.Load(context.Background()) }()
	<-firstArrived

	// A second load starts while the first is still on the wire.
	if err := manager.Load(context.Background()); err != nil {
		t.Fatalf("second Load() failed: %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first Load() failed: %v", err)
	}

	links := manager.Links()
	if len(links) != 1 || links[0].ID != 2 {
		t.Errorf("expected the newer load to win, got ids %v", linkIDs(links))
	}
}

func TestCreate_AppendsAtEnd(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "GET" {
			writeProfiles(t, w, []models.Link{
				{ID: 1, Title: "A", URL: "https://a.dev", Order: 0},
				{ID: 2, Title: "B", URL: "https://b.dev", Order: 1},
			})
			return
		}

		var create models.LinkCreate
		_ = json.NewDecoder(r.Body).Decode(&create)
		if create.Order != 2 {
			t.Errorf("expected new link at order 2, got %d", create.Order)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(models.Link{
			ID: 3, Title: create.Title, URL: create.URL, Order: create.Order,
		})
	})
	manager, notes, _ := newTestManager(t, handler)

	if err := manager.Load(context.Background()); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	created, err := manager.Create(context.Background(), "Portfolio", "https://x.dev")
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if created.ID != 3 {
		t.Errorf("expected ID 3, got %d", created.ID)
	}

	links := manager.Links()
	if len(links) != 3 || links[2].ID != 3 {
		t.Errorf("expected new link appended last, got ids %v", linkIDs(links))
	}

	note, _ := notes.last()
	if note.Message != "Link added successfully" || note.Severity != notify.SeveritySuccess {
		t.Errorf("unexpected notification: %+v", note)
	}
}

func TestCreate_FirstLinkOnEmptyList(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "GET" {
			writeProfiles(t, w, nil)
			return
		}
		var create models.LinkCreate
		_ = json.NewDecoder(r.Body).Decode(&create)
		if create.Order != 0 {
			t.Errorf("expected first link at order 0, got %d", create.Order)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(models.Link{ID: 1, Title: create.Title, URL: create.URL, Order: 0})
	})
	manager, _, _ := newTestManager(t, handler)

	if err := manager.Load(context.Background()); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if _, err := manager.Create(context.Background(), "First", "https://first.dev"); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	links := manager.Links()
	if len(links) != 1 || links[0].Order != 0 {
		t.Errorf("expected a single link at order 0, got %v", links)
	}
}

func TestCreate_RejectsInvalidInputWithoutRequest(t *testing.T) {
	var mutations int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" {
			atomic.AddInt32(&mutations, 1)
		}
		writeProfiles(t, w, nil)
	})
	manager, notes, _ := newTestManager(t, handler)

	_, err := manager.Create(context.Background(), "", "not a url")
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	if !apierr.IsValidation(err) {
		t.Fatalf("expected validation kind, got %v", err)
	}

	fields := apierr.FieldsOf(err)
	if _, ok := fields["title"]; !ok {
		t.Errorf("expected a title field error, got %v", fields)
	}
	if _, ok := fields["url"]; !ok {
		t.Errorf("expected a url field error, got %v", fields)
	}
	if atomic.LoadInt32(&mutations) != 0 {
		t.Error("expected no request for invalid input")
	}
	if notes.count() != 0 {
		t.Error("validation failures must not raise notifications")
	}
}

func TestUpdate_ReplacesInPlace(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "GET" {
			writeProfiles(t, w, []models.Link{
				{ID: 1, Title: "A", URL: "https://a.dev", Order: 0},
				{ID: 2, Title: "B", URL: "https://b.dev", Order: 1},
			})
			return
		}
		if r.Method != "PUT" || r.URL.Path != "/api/links/1/" {
			t.Errorf("expected PUT /api/links/1/, got %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(models.Link{ID: 1, Title: "Renamed", URL: "https://a.dev", Order: 0})
	})
	manager, notes, _ := newTestManager(t, handler)

	if err := manager.Load(context.Background()); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if _, err := manager.Update(context.Background(), 1, "Renamed", "https://a.dev"); err != nil {
		t.Fatalf("Update() failed: %v", err)
	}

	links := manager.Links()
	if links[0].Title != "Renamed" {
		t.Errorf("expected title 'Renamed', got '%s'", links[0].Title)
	}
	if links[1].Title != "B" {
		t.Errorf("expected sibling untouched, got '%s'", links[1].Title)
	}

	note, _ := notes.last()
	if note.Message != "Link updated successfully" {
		t.Errorf("unexpected notification: %q", note.Message)
	}
}

func TestUpdate_RejectsConcurrentMutation(t *testing.T) {
	var mutations int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" {
			atomic.AddInt32(&mutations, 1)
		}
		writeProfiles(t, w, []models.Link{{ID: 7, Title: "A", URL: "https://a.dev", Order: 0}})
	})
	manager, _, _ := newTestManager(t, handler)

	if err := manager.Load(context.Background()); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if err := manager.begin(7); err != nil {
		t.Fatalf("begin() failed: %v", err)
	}
	defer manager.end(7)

	_, err := manager.Update(context.Background(), 7, "New", "https://new.dev")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if err.Error() != "another change to link 7 is still in progress" {
		t.Errorf("unexpected error: %v", err)
	}
	if atomic.LoadInt32(&mutations) != 0 {
		t.Error("expected no request while a mutation is in flight")
	}
}

func TestDelete_RemovesLink(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "GET" {
			writeProfiles(t, w, []models.Link{
				{ID: 1, Title: "A", URL: "https://a.dev", Order: 0},
				{ID: 2, Title: "B", URL: "https://b.dev", Order: 1},
			})
			return
		}
		if r.Method != "DELETE" || r.URL.Path != "/api/links/1/" {
			t.Errorf("expected DELETE /api/links/1/, got %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	})
	manager, notes, _ := newTestManager(t, handler)

	if err := manager.Load(context.Background()); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if err := manager.Delete(context.Background(), 1); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}

	links := manager.Links()
	if len(links) != 1 || links[0].ID != 2 {
		t.Errorf("expected only link 2 to remain, got ids %v", linkIDs(links))
	}

	note, _ := notes.last()
	if note.Message != "Link deleted successfully" {
		t.Errorf("unexpected notification: %q", note.Message)
	}
}

func TestDelete_AlreadyGoneResynchronizes(t *testing.T) {
	var loads int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "GET" {
			if atomic.AddInt32(&loads, 1) == 1 {
				writeProfiles(t, w, []models.Link{
					{ID: 1, Title: "A", URL: "https://a.dev", Order: 0},
					{ID: 2, Title: "B", URL: "https://b.dev", Order: 1},
				})
				return
			}
			// Another session already deleted link 1.
			writeProfiles(t, w, []models.Link{{ID: 2, Title: "B", URL: "https://b.dev", Order: 0}})
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Not found."}`))
	})
	manager, notes, _ := newTestManager(t, handler)

	if err := manager.Load(context.Background()); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if err := manager.Delete(context.Background(), 1); err != nil {
		t.Fatalf("Delete() on an already-deleted link should converge, got %v", err)
	}

	note, _ := notes.last()
	if note.Message != "This link has already been deleted" || note.Severity != notify.SeverityWarning {
		t.Errorf("unexpected notification: %+v", note)
	}

	links := manager.Links()
	if len(links) != 1 || links[0].ID != 2 {
		t.Errorf("expected state to match the backend after resync, got ids %v", linkIDs(links))
	}
	if atomic.LoadInt32(&loads) != 2 {
		t.Errorf("expected a reload after the 404, got %d loads", atomic.LoadInt32(&loads))
	}
}

func TestMove_SwapsNeighbors(t *testing.T) {
	var patches []string
	var mu sync.Mutex

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "GET" {
			writeProfiles(t, w, []models.Link{
				{ID: 1, Title: "A", URL: "https://a.dev", Order: 0},
				{ID: 2, Title: "B", URL: "https://b.dev", Order: 1},
			})
			return
		}
		if r.Method != "PATCH" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}

		var body map[string]int
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		patches = append(patches, r.URL.Path)
		mu.Unlock()

		id := 1
		title := "A"
		url := "https://a.dev"
		if r.URL.Path == "/api/links/2/" {
			id, title, url = 2, "B", "https://b.dev"
		}
		_ = json.NewEncoder(w).Encode(models.Link{ID: id, Title: title, URL: url, Order: body["order"]})
	})
	manager, _, _ := newTestManager(t, handler)

	if err := manager.Load(context.Background()); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if err := manager.Move(context.Background(), 2, Up); err != nil {
		t.Fatalf("Move() failed: %v", err)
	}

	if len(patches) != 2 || patches[0] != "/api/links/2/" || patches[1] != "/api/links/1/" {
		t.Errorf("expected the moved link to be updated first, got %v", patches)
	}

	links := manager.Links()
	if got := linkIDs(links); got[0] != 2 || got[1] != 1 {
		t.Errorf("expected ids [2 1] after the swap, got %v", got)
	}
	if links[0].Order != 0 || links[1].Order != 1 {
		t.Errorf("expected orders [0 1], got [%d %d]", links[0].Order, links[1].Order)
	}
}

func TestMove_BoundaryIsNoop(t *testing.T) {
	var mutations int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" {
			atomic.AddInt32(&mutations, 1)
		}
		writeProfiles(t, w, []models.Link{
			{ID: 1, Title: "A", URL: "https://a.dev", Order: 0},
			{ID: 2, Title: "B", URL: "https://b.dev", Order: 1},
		})
	})
	manager, notes, _ := newTestManager(t, handler)

	if err := manager.Load(context.Background()); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if err := manager.Move(context.Background(), 1, Up); err != nil {
		t.Fatalf("moving the first link up should be a no-op, got %v", err)
	}
	if err := manager.Move(context.Background(), 2, Down); err != nil {
		t.Fatalf("moving the last link down should be a no-op, got %v", err)
	}

	if atomic.LoadInt32(&mutations) != 0 {
		t.Errorf("expected no network calls for boundary moves, got %d", atomic.LoadInt32(&mutations))
	}
	if notes.count() != 0 {
		t.Error("expected no notifications for boundary moves")
	}

	if got := linkIDs(manager.Links()); got[0] != 1 || got[1] != 2 {
		t.Errorf("expected order unchanged, got %v", got)
	}
}

func TestMove_PartialFailureResynchronizes(t *testing.T) {
	var loads int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == "GET":
			if atomic.AddInt32(&loads, 1) == 1 {
				writeProfiles(t, w, []models.Link{
					{ID: 1, Title: "A", URL: "https://a.dev", Order: 0},
					{ID: 2, Title: "B", URL: "https://b.dev", Order: 1},
				})
				return
			}
			// Server truth after the half-applied swap: both links claim
			// order 0; the backend's tiebreak decides the sequence.
			writeProfiles(t, w, []models.Link{
				{ID: 1, Title: "A", URL: "https://a.dev", Order: 0},
				{ID: 2, Title: "B", URL: "https://b.dev", Order: 0},
			})
		case r.URL.Path == "/api/links/2/":
			var body map[string]int
			_ = json.NewDecoder(r.Body).Decode(&body)
			_ = json.NewEncoder(w).Encode(models.Link{ID: 2, Title: "B", URL: "https://b.dev", Order: body["order"]})
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"detail":"database timeout"}`))
		}
	})
	manager, notes, _ := newTestManager(t, handler)

	if err := manager.Load(context.Background()); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	err := manager.Move(context.Background(), 2, Up)
	if err == nil {
		t.Fatal("expected error when the second order update fails")
	}

	note, _ := notes.last()
	if note.Message != "Failed to reorder links: database timeout" || note.Severity != notify.SeverityError {
		t.Errorf("unexpected notification: %+v", note)
	}

	// Local state must match what the backend reported on resync, never the
	// optimistic half-swap.
	if atomic.LoadInt32(&loads) != 2 {
		t.Errorf("expected a resync load after the failure, got %d loads", atomic.LoadInt32(&loads))
	}
	links := manager.Links()
	if len(links) != 2 || links[0].Order != 0 || links[1].Order != 0 {
		t.Errorf("expected resynced server state, got %v", links)
	}
}

func TestMove_UnknownLink(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeProfiles(t, w, []models.Link{{ID: 1, Title: "A", URL: "https://a.dev", Order: 0}})
	})
	manager, _, _ := newTestManager(t, handler)

	if err := manager.Load(context.Background()); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	err := manager.Move(context.Background(), 99, Up)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if kind, ok := apierr.KindOf(err); !ok || kind != apierr.KindSetup {
		t.Errorf("expected setup kind, got %v", err)
	}
}

func TestDelete_ExpiredCredentialClearsSession(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "GET" {
			writeProfiles(t, w, []models.Link{{ID: 1, Title: "A", URL: "https://a.dev", Order: 0}})
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Invalid token."}`))
	})
	manager, notes, sess := newTestManager(t, handler)
	manager.SetAuthExpiryDelay(0)

	hookCalled := false
	manager.SetAuthExpiredHook(func() { hookCalled = true })

	if err := manager.Load(context.Background()); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if err := manager.Delete(context.Background(), 1); err == nil {
		t.Fatal("expected error, got nil")
	}

	note, _ := notes.last()
	if note.Message != "Your session has expired. Please log in again." {
		t.Errorf("unexpected notification: %q", note.Message)
	}
	if sess.Authenticated() {
		t.Error("expected credential to be cleared")
	}
	if !hookCalled {
		t.Error("expected auth-expired hook to run")
	}
}
