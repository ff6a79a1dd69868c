// Package public implements the anonymous flow: resolving a public slug to a
// read-only profile view and recording link clicks on visit.
package public

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/natively/natively-cli/internal/api"
	"github.com/natively/natively-cli/internal/api/apierr"
	"github.com/natively/natively-cli/internal/models"
	"github.com/natively/natively-cli/internal/notify"
)

// Opener navigates to a link's destination.
type Opener interface {
	Open(url string) error
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(url string) error

// Open calls f.
func (f OpenerFunc) Open(url string) error { return f(url) }

// Resolver fetches public profiles and handles link visits. It requires no
// credential.
type Resolver struct {
	client   *api.Client
	notifier *notify.Notifier
	opener   Opener
	log      *zap.Logger
}

// NewResolver creates a resolver.
func NewResolver(client *api.Client, notifier *notify.Notifier, opener Opener, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{client: client, notifier: notifier, opener: opener, log: log}
}

// ResolveSlug fetches the read-only profile for a public slug.
func (r *Resolver) ResolveSlug(ctx context.Context, slug string) (*models.Profile, error) {
	profile, err := r.client.PublicProfile(ctx, slug)
	if err != nil {
		if apierr.IsNotFound(err) {
			return nil, &apierr.Error{
				Kind:   apierr.KindNotFound,
				Detail: "This profile does not exist or has been removed",
				Err:    err,
			}
		}
		return nil, err
	}
	return profile, nil
}

// VisitLink records a click for the link and opens its destination. Click
// tracking is best-effort: the destination opens regardless, and a tracking
// failure degrades to a warning notification. Navigation is never gated on
// telemetry.
func (r *Resolver) VisitLink(ctx context.Context, profile *models.Profile, linkID int) error {
	var link *models.Link
	for i := range profile.Links {
		if profile.Links[i].ID == linkID {
			link = &profile.Links[i]
			break
		}
	}
	if link == nil {
		return &apierr.Error{Kind: apierr.KindSetup, Detail: fmt.Sprintf("no link with ID %d on this profile", linkID)}
	}

	trackErr := r.client.TrackClick(ctx, linkID)
	openErr := r.opener.Open(link.URL)

	if trackErr != nil {
		r.log.Warn("click tracking failed", zap.Int("link", linkID), zap.Error(trackErr))
		r.notifier.Notify("Click tracking failed, but the link was opened", notify.SeverityWarning)
	}
	return openErr
}
