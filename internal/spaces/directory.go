// Package spaces holds the space hierarchy and the navigation state over it.
package spaces

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-ports/stride/internal/events"
	"github.com/go-ports/stride/internal/models"
	"github.com/go-ports/stride/internal/session"
)

// Mode selects which hierarchy the directory shows.
type Mode string

const (
	ModeAll        Mode = "all"
	ModeSubscribed Mode = "subscribed"
)

// Fetcher loads the two hierarchies.
type Fetcher interface {
	AllSpaces(ctx context.Context) ([]*models.Space, error)
	SubscribedHierarchy(ctx context.Context) ([]*models.Space, error)
}

// Gate reports whether the session is initialised and authenticated.
type Gate interface {
	Ready() <-chan struct{}
	Snapshot() session.Snapshot
}

// Snapshot is a read-only copy of the directory state for the active mode.
type Snapshot struct {
	Mode    Mode
	Spaces  []*models.Space
	Loaded  bool
	Loading bool
	Err     error
}

type modeState struct {
	spaces  []*models.Space
	loaded  bool
	loading bool
	err     error
	gen     uint64
}

// Directory fetches and holds the space tree for each mode. It is safe for
// concurrent use.
type Directory struct {
	fetcher Fetcher
	gate    Gate

	mu     sync.Mutex
	mode   Mode
	states map[Mode]*modeState
	gen    uint64
	unsub  func()

	// background refreshes started by the bus; cancelled by Close
	bgCtx    context.Context
	bgCancel context.CancelFunc
	bg       sync.WaitGroup
}

// New builds a Directory in ModeAll. When bus is non-nil the directory
// re-fetches in the background on every refresh request.
func New(fetcher Fetcher, gate Gate, bus *events.Bus) *Directory {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Directory{
		bgCtx:    ctx,
		bgCancel: cancel,
		fetcher: fetcher,
		gate:    gate,
		mode:    ModeAll,
		states: map[Mode]*modeState{
			ModeAll:        {},
			ModeSubscribed: {},
		},
	}
	if bus != nil {
		d.unsub = bus.Subscribe(d.onRefreshRequested, events.RefreshRequested)
	}
	return d
}

// Close detaches the directory from the bus, cancels background refreshes
// and waits for them to return.
func (d *Directory) Close() {
	if d.unsub != nil {
		d.unsub()
	}
	d.bgCancel()
	d.bg.Wait()
}

// Wait blocks until the background refreshes started so far have finished.
func (d *Directory) Wait() {
	d.bg.Wait()
}

// Snapshot returns the state of the active mode.
func (d *Directory) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	st := d.states[d.mode]
	return Snapshot{Mode: d.mode, Spaces: st.spaces, Loaded: st.loaded, Loading: st.loading, Err: st.err}
}

// Mode returns the active mode.
func (d *Directory) Mode() Mode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

// SetMode switches the active mode and fetches only when that mode has not
// been loaded yet.
func (d *Directory) SetMode(ctx context.Context, mode Mode) error {
	d.mu.Lock()
	st, ok := d.states[mode]
	if !ok {
		d.mu.Unlock()
		return fmt.Errorf("spaces.SetMode: unknown mode %q", mode)
	}
	d.mode = mode
	loaded := st.loaded
	d.mu.Unlock()

	if loaded {
		return nil
	}
	return d.Refresh(ctx)
}

// Refresh re-fetches the active mode. It waits for the session to finish
// initialising and does nothing but report ErrNotAuthenticated when nobody
// is logged in. A response that is overtaken by a newer fetch is dropped.
func (d *Directory) Refresh(ctx context.Context) error {
	select {
	case <-d.gate.Ready():
	case <-ctx.Done():
		return ctx.Err()
	}
	if !d.gate.Snapshot().Authenticated() {
		return session.ErrNotAuthenticated
	}

	d.mu.Lock()
	mode := d.mode
	st := d.states[mode]
	d.gen++
	gen := d.gen
	st.gen = gen
	st.loading = true
	d.mu.Unlock()

	var list []*models.Space
	var err error
	switch mode {
	case ModeSubscribed:
		list, err = d.fetcher.SubscribedHierarchy(ctx)
	default:
		list, err = d.fetcher.AllSpaces(ctx)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if st.gen != gen {
		slog.Debug("spaces: dropping stale response", "mode", mode, "gen", gen)
		return nil
	}
	st.loading = false
	if err != nil {
		slog.Warn("spaces: fetch hierarchy", "mode", mode, "err", err)
		st.err = fmt.Errorf("spaces.Refresh: %w", err)
		return st.err
	}
	st.spaces = list
	st.loaded = true
	st.err = nil
	return nil
}

// onRefreshRequested invalidates every mode and re-fetches the active one off
// the publisher's goroutine.
func (d *Directory) onRefreshRequested(events.Event) {
	d.mu.Lock()
	for _, st := range d.states {
		st.loaded = false
	}
	d.mu.Unlock()

	if d.bgCtx.Err() != nil {
		return
	}
	d.bg.Add(1)
	go func() {
		defer d.bg.Done()
		if err := d.Refresh(d.bgCtx); err != nil {
			slog.Debug("spaces: refresh after request", "err", err)
		}
	}()
}

// Find returns the space with id anywhere in the active tree.
func (d *Directory) Find(id string) *models.Space {
	return Find(d.Snapshot().Spaces, id)
}

// Find searches a forest depth-first for id.
func Find(list []*models.Space, id string) *models.Space {
	for _, s := range list {
		if s.ID == id {
			return s
		}
		if found := Find(s.Children, id); found != nil {
			return found
		}
	}
	return nil
}
