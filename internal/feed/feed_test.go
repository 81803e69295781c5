package feed_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/go-ports/stride/internal/api"
	"github.com/go-ports/stride/internal/events"
	"github.com/go-ports/stride/internal/feed"
	"github.com/go-ports/stride/internal/models"
)

func details() *models.SpaceDetails {
	return &models.SpaceDetails{
		ID:   "go",
		Name: "Go",
		Flashcards: []*models.Flashcard{
			{ID: "f-old", CreatedAt: "2024-01-01T10:00:00Z", Author: models.Author{Username: "ann"}},
			{ID: "f-tie", CreatedAt: "2024-03-01T10:00:00Z"},
		},
		Articles: []*models.Article{
			{ID: "a-new", CreatedAt: "2024-05-01T10:00:00Z", Title: "Fresh"},
			{ID: "a-tie", CreatedAt: "2024-03-01T10:00:00Z"},
		},
		Alerts: []*models.Alert{
			{ID: "al-mid", CreatedAt: "2024-02-01T10:00:00Z", Message: "joined", User: &models.Author{Username: "bob"}},
			{ID: "al-bad", CreatedAt: "not a date"},
		},
	}
}

func TestBuildFeed(t *testing.T) {
	c := qt.New(t)

	items := feed.BuildFeed(details())
	var got []string
	for _, it := range items {
		got = append(got, it.ID)
	}
	c.Assert(got, qt.DeepEquals, []string{"a-new", "f-tie", "a-tie", "al-mid", "f-old", "al-bad"})

	c.Assert(items[0].Kind, qt.Equals, models.KindArticle)
	c.Assert(items[0].Title(), qt.Equals, "Fresh")
	c.Assert(items[3].Author().Username, qt.Equals, "bob")
	c.Assert(items[4].Author().Username, qt.Equals, "ann")
	c.Assert(items[3].Target(), qt.Equals, models.Target{Kind: models.KindAlert, ID: "al-mid"})

	c.Assert(feed.BuildFeed(nil), qt.IsNil)
	c.Assert(feed.BuildFeed(&models.SpaceDetails{ID: "x"}), qt.HasLen, 0)

	found, ok := feed.Find(items, "f-old")
	c.Assert(ok, qt.IsTrue)
	c.Assert(found.Flashcard, qt.IsNotNil)
	_, ok = feed.Find(items, "missing")
	c.Assert(ok, qt.IsFalse)
}

type fakeSource struct {
	mu         sync.Mutex
	details    func(call int) (*models.SpaceDetails, error)
	calls      int
	subscribed []*models.Space
	subErr     error
	toggleErr  error
	toggles    []string
}

func (f *fakeSource) SpaceDetails(_ context.Context, id string) (*models.SpaceDetails, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()
	return f.details(call)
}

func (f *fakeSource) SubscribedSpaces(context.Context) ([]*models.Space, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subscribed, f.subErr
}

func (f *fakeSource) ToggleSubscription(_ context.Context, id string) (*api.MessageResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.toggleErr != nil {
		return nil, f.toggleErr
	}
	f.toggles = append(f.toggles, id)
	return &api.MessageResponse{Message: "ok"}, nil
}

var leaf = &models.Space{ID: "go", Name: "Go", Level: 1}

func TestSelectSpace_HappyPath(t *testing.T) {
	c := qt.New(t)

	src := &fakeSource{
		details:    func(int) (*models.SpaceDetails, error) { return details(), nil },
		subscribed: []*models.Space{{ID: "go"}},
	}
	agg := feed.New(src, nil)

	c.Assert(agg.SelectSpace(context.Background(), leaf), qt.IsNil)
	snap := agg.Snapshot()
	c.Assert(snap.Space.ID, qt.Equals, "go")
	c.Assert(snap.Loading, qt.IsFalse)
	c.Assert(snap.Fallback, qt.IsFalse)
	c.Assert(snap.Err, qt.IsNil)
	c.Assert(snap.Feed, qt.HasLen, 6)
	c.Assert(snap.IsSubscribed, qt.IsTrue)
}

func TestSelectSpace_IgnoresParents(t *testing.T) {
	c := qt.New(t)

	src := &fakeSource{details: func(int) (*models.SpaceDetails, error) { return details(), nil }}
	agg := feed.New(src, nil)

	parent := &models.Space{ID: "eng", Children: []*models.Space{leaf}}
	c.Assert(agg.SelectSpace(context.Background(), parent), qt.IsNil)
	c.Assert(agg.SelectSpace(context.Background(), nil), qt.IsNil)
	c.Assert(agg.Snapshot().Space, qt.IsNil)
	c.Assert(src.calls, qt.Equals, 0)

	// Refresh with nothing selected is a no-op as well.
	c.Assert(agg.Refresh(context.Background()), qt.IsNil)
	c.Assert(src.calls, qt.Equals, 0)
}

func TestSelectSpace_FallsBackOnFailure(t *testing.T) {
	c := qt.New(t)

	src := &fakeSource{
		details: func(int) (*models.SpaceDetails, error) { return nil, errors.New("HTTP 500") },
		subErr:  errors.New("HTTP 500"),
	}
	agg := feed.New(src, nil)

	c.Assert(agg.SelectSpace(context.Background(), leaf), qt.IsNil)
	snap := agg.Snapshot()
	c.Assert(snap.Fallback, qt.IsTrue)
	c.Assert(snap.Err, qt.ErrorMatches, `feed\.fetch: HTTP 500`)
	c.Assert(snap.Details.ID, qt.Equals, "go")
	c.Assert(snap.Details.Name, qt.Equals, "Go")
	c.Assert(snap.Feed, qt.HasLen, 0)
	c.Assert(snap.IsSubscribed, qt.IsFalse)
}

func TestRefresh_DropsStaleResponse(t *testing.T) {
	c := qt.New(t)

	started := make(chan struct{})
	release := make(chan struct{})
	src := &fakeSource{details: func(call int) (*models.SpaceDetails, error) {
		if call == 1 {
			close(started)
			<-release
			return &models.SpaceDetails{ID: "go", Name: "stale"}, nil
		}
		return &models.SpaceDetails{ID: "go", Name: "fresh"}, nil
	}}
	agg := feed.New(src, nil)

	done := make(chan error)
	go func() { done <- agg.SelectSpace(context.Background(), leaf) }()
	<-started

	c.Assert(agg.Refresh(context.Background()), qt.IsNil)
	close(release)
	c.Assert(<-done, qt.IsNil)
	c.Assert(agg.Snapshot().Details.Name, qt.Equals, "fresh")
}

func TestToggleSubscription_HappyPath(t *testing.T) {
	c := qt.New(t)

	src := &fakeSource{details: func(int) (*models.SpaceDetails, error) { return details(), nil }}
	bus := events.New()
	var requested []any
	defer bus.Subscribe(func(e events.Event) { requested = append(requested, e.Payload) }, events.RefreshRequested)()

	agg := feed.New(src, bus)
	c.Assert(agg.SelectSpace(context.Background(), leaf), qt.IsNil)
	c.Assert(agg.Snapshot().IsSubscribed, qt.IsFalse)

	c.Assert(agg.ToggleSubscription(context.Background()), qt.IsNil)
	c.Assert(agg.Snapshot().IsSubscribed, qt.IsTrue)
	c.Assert(src.toggles, qt.DeepEquals, []string{"go"})
	c.Assert(requested, qt.DeepEquals, []any{"go"})

	c.Assert(agg.ToggleSubscription(context.Background()), qt.IsNil)
	c.Assert(agg.Snapshot().IsSubscribed, qt.IsFalse)
	c.Assert(agg.Snapshot().Toggling, qt.IsFalse)
}

func TestToggleSubscription_FailurePath(t *testing.T) {
	c := qt.New(t)

	src := &fakeSource{
		details:   func(int) (*models.SpaceDetails, error) { return details(), nil },
		toggleErr: errors.New("HTTP 500"),
	}
	bus := events.New()
	var requested int
	defer bus.Subscribe(func(events.Event) { requested++ }, events.RefreshRequested)()
	agg := feed.New(src, bus)

	c.Assert(agg.ToggleSubscription(context.Background()), qt.ErrorIs, feed.ErrNoSpace)

	c.Assert(agg.SelectSpace(context.Background(), leaf), qt.IsNil)
	err := agg.ToggleSubscription(context.Background())
	c.Assert(err, qt.ErrorMatches, `feed\.ToggleSubscription: HTTP 500`)
	c.Assert(agg.Snapshot().IsSubscribed, qt.IsFalse)
	c.Assert(agg.Snapshot().Toggling, qt.IsFalse)
	c.Assert(requested, qt.Equals, 0)
}
