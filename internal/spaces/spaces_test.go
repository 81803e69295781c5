package spaces_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/go-ports/stride/internal/events"
	"github.com/go-ports/stride/internal/models"
	"github.com/go-ports/stride/internal/session"
	"github.com/go-ports/stride/internal/spaces"
)

type fakeGate struct {
	ready chan struct{}
	snap  session.Snapshot
}

func readyGate(authenticated bool) *fakeGate {
	g := &fakeGate{ready: make(chan struct{})}
	close(g.ready)
	if authenticated {
		g.snap = session.Snapshot{User: &models.User{ID: "u1", Username: "ann"}, Token: "t"}
	}
	return g
}

func (g *fakeGate) Ready() <-chan struct{}       { return g.ready }
func (g *fakeGate) Snapshot() session.Snapshot { return g.snap }

type fakeFetcher struct {
	mu         sync.Mutex
	allCalls   int
	subCalls   int
	all        func(call int) ([]*models.Space, error)
	subscribed []*models.Space
}

func (f *fakeFetcher) AllSpaces(context.Context) ([]*models.Space, error) {
	f.mu.Lock()
	f.allCalls++
	call := f.allCalls
	f.mu.Unlock()
	return f.all(call)
}

func (f *fakeFetcher) SubscribedHierarchy(context.Context) ([]*models.Space, error) {
	f.mu.Lock()
	f.subCalls++
	f.mu.Unlock()
	return f.subscribed, nil
}

func (f *fakeFetcher) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.allCalls, f.subCalls
}

func tree() []*models.Space {
	return []*models.Space{
		{ID: "eng", Name: "Engineering", Level: 0, Children: []*models.Space{
			{ID: "go", Name: "Go", Level: 1},
			{ID: "infra", Name: "Infra", Level: 1, Children: []*models.Space{
				{ID: "k8s", Name: "Kubernetes", Level: 2},
			}},
		}},
		{ID: "misc", Name: "Misc", Level: 0},
	}
}

func staticFetcher() *fakeFetcher {
	return &fakeFetcher{
		all:        func(int) ([]*models.Space, error) { return tree(), nil },
		subscribed: []*models.Space{{ID: "go", Name: "Go", Level: 1}},
	}
}

func TestRefresh_HappyPath(t *testing.T) {
	c := qt.New(t)

	f := staticFetcher()
	d := spaces.New(f, readyGate(true), nil)
	c.Assert(d.Snapshot().Loaded, qt.IsFalse)

	c.Assert(d.Refresh(context.Background()), qt.IsNil)
	snap := d.Snapshot()
	c.Assert(snap.Mode, qt.Equals, spaces.ModeAll)
	c.Assert(snap.Loaded, qt.IsTrue)
	c.Assert(snap.Loading, qt.IsFalse)
	c.Assert(snap.Spaces, qt.HasLen, 2)
	c.Assert(d.Find("k8s").Name, qt.Equals, "Kubernetes")
	c.Assert(d.Find("nope"), qt.IsNil)
}

func TestRefresh_RequiresAuthentication(t *testing.T) {
	c := qt.New(t)

	f := staticFetcher()
	d := spaces.New(f, readyGate(false), nil)
	err := d.Refresh(context.Background())
	c.Assert(errors.Is(err, session.ErrNotAuthenticated), qt.IsTrue)
	all, sub := f.calls()
	c.Assert(all+sub, qt.Equals, 0)
}

func TestRefresh_WaitsForSessionInit(t *testing.T) {
	c := qt.New(t)

	f := staticFetcher()
	gate := &fakeGate{ready: make(chan struct{})}
	d := spaces.New(f, gate, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := d.Refresh(ctx)
	c.Assert(errors.Is(err, context.DeadlineExceeded), qt.IsTrue)
	all, _ := f.calls()
	c.Assert(all, qt.Equals, 0)
}

func TestRefresh_FailurePath(t *testing.T) {
	c := qt.New(t)

	f := &fakeFetcher{all: func(int) ([]*models.Space, error) { return nil, errors.New("boom") }}
	d := spaces.New(f, readyGate(true), nil)

	err := d.Refresh(context.Background())
	c.Assert(err, qt.ErrorMatches, `spaces\.Refresh: boom`)
	snap := d.Snapshot()
	c.Assert(snap.Loaded, qt.IsFalse)
	c.Assert(snap.Loading, qt.IsFalse)
	c.Assert(snap.Err, qt.IsNotNil)
}

func TestRefresh_DropsStaleResponse(t *testing.T) {
	c := qt.New(t)

	release := make(chan struct{})
	started := make(chan struct{})
	f := &fakeFetcher{all: func(call int) ([]*models.Space, error) {
		if call == 1 {
			close(started)
			<-release
			return []*models.Space{{ID: "old", Name: "Old"}}, nil
		}
		return []*models.Space{{ID: "new", Name: "New"}}, nil
	}}
	d := spaces.New(f, readyGate(true), nil)

	done := make(chan error)
	go func() { done <- d.Refresh(context.Background()) }()
	<-started

	c.Assert(d.Refresh(context.Background()), qt.IsNil)
	close(release)
	c.Assert(<-done, qt.IsNil)

	snap := d.Snapshot()
	c.Assert(snap.Spaces, qt.HasLen, 1)
	c.Assert(snap.Spaces[0].ID, qt.Equals, "new")
}

func TestSetMode_FetchesOnlyWhenNotLoaded(t *testing.T) {
	c := qt.New(t)

	f := staticFetcher()
	d := spaces.New(f, readyGate(true), nil)
	ctx := context.Background()

	c.Assert(d.Refresh(ctx), qt.IsNil)
	c.Assert(d.SetMode(ctx, spaces.ModeSubscribed), qt.IsNil)
	c.Assert(d.Snapshot().Spaces, qt.HasLen, 1)

	c.Assert(d.SetMode(ctx, spaces.ModeAll), qt.IsNil)
	c.Assert(d.SetMode(ctx, spaces.ModeSubscribed), qt.IsNil)
	all, sub := f.calls()
	c.Assert(all, qt.Equals, 1)
	c.Assert(sub, qt.Equals, 1)

	c.Assert(d.SetMode(ctx, "bogus"), qt.IsNotNil)
	c.Assert(d.Mode(), qt.Equals, spaces.ModeSubscribed)
}

func TestRefreshRequested_RefetchesAndInvalidates(t *testing.T) {
	c := qt.New(t)

	f := staticFetcher()
	bus := events.New()
	d := spaces.New(f, readyGate(true), bus)
	defer d.Close()
	ctx := context.Background()

	c.Assert(d.Refresh(ctx), qt.IsNil)
	c.Assert(d.SetMode(ctx, spaces.ModeSubscribed), qt.IsNil)
	c.Assert(d.SetMode(ctx, spaces.ModeAll), qt.IsNil)

	bus.Publish(events.RefreshRequested, nil)
	d.Wait()
	all, sub := f.calls()
	c.Assert(all, qt.Equals, 2)
	c.Assert(sub, qt.Equals, 1)

	// The subscribed view was invalidated, so switching fetches again.
	c.Assert(d.SetMode(ctx, spaces.ModeSubscribed), qt.IsNil)
	_, sub = f.calls()
	c.Assert(sub, qt.Equals, 2)

	d.Close()
	bus.Publish(events.RefreshRequested, nil)
	all, sub = f.calls()
	c.Assert(all, qt.Equals, 2)
	c.Assert(sub, qt.Equals, 2)
}

func TestRefreshRequested_DoesNotBlockPublisher(t *testing.T) {
	c := qt.New(t)

	release := make(chan struct{})
	f := &fakeFetcher{all: func(call int) ([]*models.Space, error) {
		if call == 1 {
			return tree(), nil
		}
		<-release
		return tree(), nil
	}}
	bus := events.New()
	d := spaces.New(f, readyGate(true), bus)
	c.Assert(d.Refresh(context.Background()), qt.IsNil)

	published := make(chan struct{})
	go func() {
		bus.Publish(events.RefreshRequested, "go")
		close(published)
	}()
	select {
	case <-published:
	case <-time.After(time.Second):
		c.Fatal("Publish blocked on the directory refresh")
	}

	close(release)
	d.Wait()
	all, _ := f.calls()
	c.Assert(all, qt.Equals, 2)
	c.Assert(d.Snapshot().Loaded, qt.IsTrue)
	d.Close()
}

func TestClose_CancelsBackgroundRefresh(t *testing.T) {
	c := qt.New(t)

	bus := events.New()
	f := staticFetcher()
	d := spaces.New(f, &fakeGate{ready: make(chan struct{})}, bus) // never ready

	bus.Publish(events.RefreshRequested, nil)
	closed := make(chan struct{})
	go func() {
		d.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(time.Second):
		c.Fatal("Close did not cancel the pending refresh")
	}
	all, _ := f.calls()
	c.Assert(all, qt.Equals, 0)
}

// ---------------------------------------------------------------------------
// Navigator
// ---------------------------------------------------------------------------

func ids(rows []spaces.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Space.ID
	}
	return out
}

func TestNavigator_ToggleIsLocal(t *testing.T) {
	c := qt.New(t)

	list := tree()
	n := spaces.NewNavigator()
	c.Assert(ids(n.Rows(list)), qt.DeepEquals, []string{"eng", "misc"})

	n.Toggle("eng")
	c.Assert(ids(n.Rows(list)), qt.DeepEquals, []string{"eng", "go", "infra", "misc"})

	n.Toggle("infra")
	c.Assert(ids(n.Rows(list)), qt.DeepEquals, []string{"eng", "go", "infra", "k8s", "misc"})

	// Collapsing the parent hides the child but keeps its own state.
	n.Toggle("eng")
	c.Assert(ids(n.Rows(list)), qt.DeepEquals, []string{"eng", "misc"})
	c.Assert(n.IsExpanded("infra"), qt.IsTrue)

	n.Toggle("eng")
	rows := n.Rows(list)
	c.Assert(ids(rows), qt.DeepEquals, []string{"eng", "go", "infra", "k8s", "misc"})
	c.Assert(rows[3].Depth, qt.Equals, 2)
}

func TestNavigator_Select(t *testing.T) {
	c := qt.New(t)

	list := tree()
	n := spaces.NewNavigator()

	c.Assert(n.Select(list[0]), qt.IsFalse)
	c.Assert(n.IsExpanded("eng"), qt.IsTrue)
	c.Assert(n.Selected(), qt.Equals, "")

	c.Assert(n.Select(list[0].Children[0]), qt.IsTrue)
	c.Assert(n.Selected(), qt.Equals, "go")

	c.Assert(n.Select(list[1]), qt.IsTrue)
	c.Assert(n.Selected(), qt.Equals, "misc")

	rows := n.Rows(list)
	var selected []string
	for _, r := range rows {
		if r.Selected {
			selected = append(selected, r.Space.ID)
		}
	}
	c.Assert(selected, qt.DeepEquals, []string{"misc"})
	c.Assert(n.Select(nil), qt.IsFalse)
}
