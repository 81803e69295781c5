// Package feed fetches the details of the selected space and merges its
// content into one chronological feed.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-ports/stride/internal/api"
	"github.com/go-ports/stride/internal/events"
	"github.com/go-ports/stride/internal/models"
)

var (
	// ErrNoSpace is returned by operations that need a selected space.
	ErrNoSpace = errors.New("no space selected")
	// ErrToggleInFlight is returned while a subscription toggle is running.
	ErrToggleInFlight = errors.New("subscription toggle already in flight")
)

// Source is the subset of the API the aggregator calls.
type Source interface {
	SpaceDetails(ctx context.Context, id string) (*models.SpaceDetails, error)
	SubscribedSpaces(ctx context.Context) ([]*models.Space, error)
	ToggleSubscription(ctx context.Context, spaceID string) (*api.MessageResponse, error)
}

// Snapshot is a read-only copy of the aggregator state.
type Snapshot struct {
	Space        *models.Space
	Details      *models.SpaceDetails
	Feed         []Item
	Loading      bool
	Fallback     bool // details fetch failed; Details is built from Space
	Err          error
	IsSubscribed bool
	Toggling     bool
}

// Aggregator owns the selected space and its feed. It is safe for
// concurrent use.
type Aggregator struct {
	src Source
	bus *events.Bus

	mu         sync.Mutex
	space      *models.Space
	details    *models.SpaceDetails
	items      []Item
	loading    bool
	fallback   bool
	err        error
	subscribed bool
	toggling   bool
	gen        uint64
}

// New builds an Aggregator. bus receives the refresh request after a
// subscription toggle and may be nil.
func New(src Source, bus *events.Bus) *Aggregator {
	return &Aggregator{src: src, bus: bus}
}

// Snapshot returns the current state.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Snapshot{
		Space:        a.space,
		Details:      a.details,
		Feed:         a.items,
		Loading:      a.loading,
		Fallback:     a.fallback,
		Err:          a.err,
		IsSubscribed: a.subscribed,
		Toggling:     a.toggling,
	}
}

// SelectSpace makes s the current space and fetches its details. Spaces with
// children cannot be opened and are ignored.
func (a *Aggregator) SelectSpace(ctx context.Context, s *models.Space) error {
	if s == nil || !s.IsLeaf() {
		return nil
	}
	a.mu.Lock()
	if a.space == nil || a.space.ID != s.ID {
		a.subscribed = false
	}
	a.space = s
	a.mu.Unlock()
	return a.fetch(ctx)
}

// Refresh re-fetches the current space. It does nothing when no space is
// selected.
func (a *Aggregator) Refresh(ctx context.Context) error {
	a.mu.Lock()
	selected := a.space != nil
	a.mu.Unlock()
	if !selected {
		return nil
	}
	return a.fetch(ctx)
}

// fetch loads details and subscription status for the current space. Read
// failures degrade to the fallback record and are reported in Snapshot().Err.
// Only the newest fetch is applied.
func (a *Aggregator) fetch(ctx context.Context) error {
	a.mu.Lock()
	space := a.space
	a.gen++
	gen := a.gen
	a.loading = true
	a.mu.Unlock()

	details, err := a.src.SpaceDetails(ctx, space.ID)
	subscribed, subErr := a.membership(ctx, space.ID)

	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.gen {
		slog.Debug("feed: dropping stale response", "space", space.ID, "gen", gen)
		return nil
	}
	a.loading = false
	if err != nil {
		slog.Warn("feed: fetch space details", "space", space.ID, "err", err)
		details = models.FallbackDetails(space)
		a.fallback = true
		a.err = fmt.Errorf("feed.fetch: %w", err)
	} else {
		a.fallback = false
		a.err = nil
	}
	if subErr == nil {
		a.subscribed = subscribed
	}
	a.details = details
	a.items = BuildFeed(details)
	return nil
}

// membership reports whether id is among the user's subscribed spaces.
func (a *Aggregator) membership(ctx context.Context, id string) (bool, error) {
	list, err := a.src.SubscribedSpaces(ctx)
	if err != nil {
		slog.Warn("feed: check subscription status", "space", id, "err", err)
		return false, err
	}
	for _, s := range list {
		if s.ID == id {
			return true, nil
		}
	}
	return false, nil
}

// ToggleSubscription flips the subscription to the current space. The local
// flag changes only after the backend accepts, then a refresh request is
// published so navigation re-fetches.
func (a *Aggregator) ToggleSubscription(ctx context.Context) error {
	a.mu.Lock()
	if a.space == nil {
		a.mu.Unlock()
		return ErrNoSpace
	}
	if a.toggling {
		a.mu.Unlock()
		return ErrToggleInFlight
	}
	id := a.space.ID
	a.toggling = true
	a.mu.Unlock()

	_, err := a.src.ToggleSubscription(ctx, id)

	a.mu.Lock()
	a.toggling = false
	if err != nil {
		a.mu.Unlock()
		slog.Warn("feed: toggle subscription", "space", id, "err", err)
		return fmt.Errorf("feed.ToggleSubscription: %w", err)
	}
	if a.space != nil && a.space.ID == id {
		a.subscribed = !a.subscribed
	}
	a.mu.Unlock()

	if a.bus != nil {
		a.bus.Publish(events.RefreshRequested, id)
	}
	return nil
}
