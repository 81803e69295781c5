package tui

// White-box tests: the browser's state (cursor, entries, composer) is
// unexported and only observable through View output, so the tests drive
// Update with messages and run the returned commands synchronously.

import (
	"context"
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	qt "github.com/frankban/quicktest"

	"github.com/go-ports/stride/internal/feed"
	"github.com/go-ports/stride/internal/models"
	"github.com/go-ports/stride/internal/session"
	"github.com/go-ports/stride/internal/spaces"
	"github.com/go-ports/stride/internal/thread"
	"github.com/go-ports/stride/internal/view"
)

// ---------------------------------------------------------------------------
// Fake backend
// ---------------------------------------------------------------------------

type fakeBackend struct {
	mu        sync.Mutex
	opened    []string
	comments  []string
	reactions []string
	toggles   int
	openErr   error
	articleRx []*models.Reaction // reactions on a1
}

var tree = []*models.Space{
	{ID: "eng", Name: "Engineering", Children: []*models.Space{{ID: "go", Name: "Go", Level: 1}}},
}

func goDetails() *models.SpaceDetails {
	return &models.SpaceDetails{
		ID: "go", Name: "Go",
		Articles: []*models.Article{{
			ID: "a1", Title: "Channels", CreatedAt: "2024-05-31T09:00:00Z",
			Comments: []*models.Comment{{ID: "c1", Text: "nice", Replies: []*models.Comment{
				{ID: "c2", Replies: []*models.Comment{{ID: "c3", Replies: []*models.Comment{{ID: "c4"}}}}},
			}}},
		}},
	}
}

func (f *fakeBackend) Spaces(_ context.Context, mode spaces.Mode) ([]*models.Space, error) {
	if mode == spaces.ModeSubscribed {
		return []*models.Space{}, nil
	}
	return tree, nil
}

func (f *fakeBackend) OpenSpace(_ context.Context, id string) (feed.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = append(f.opened, id)
	if f.openErr != nil {
		return feed.Snapshot{}, f.openErr
	}
	d := goDetails()
	d.Articles[0].Reactions = f.articleRx
	return feed.Snapshot{Space: &models.Space{ID: id, Name: "Go"}, Details: d, Feed: feed.BuildFeed(d)}, nil
}

func (f *fakeBackend) ToggleSubscription(context.Context, string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toggles++
	return true, nil
}

func (f *fakeBackend) Comment(_ context.Context, _ string, target models.Target, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.comments = append(f.comments, target.ID+":"+text)
	return nil
}

func (f *fakeBackend) React(_ context.Context, _ string, target models.Target, emoji string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactions = append(f.reactions, target.ID+":"+emoji)
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// send feeds msg to the model and runs a single returned command, feeding
// its message back in.
func send(m *Model, msg tea.Msg) *Model {
	_, cmd := m.Update(msg)
	if cmd == nil {
		return m
	}
	if out := cmd(); out != nil {
		if _, isBatch := out.(tea.BatchMsg); !isBatch {
			m.Update(out)
		}
	}
	return m
}

// openGo loads the tree, expands Engineering and opens Go.
func openGo(c *qt.C) (*Model, *fakeBackend) {
	b := &fakeBackend{}
	return openGoWith(c, b, ""), b
}

func openGoWith(c *qt.C, b *fakeBackend, userID string) *Model {
	m := New(context.Background(), b, Options{Palette: []string{"🔥", "🎉", "🤘"}, MaxDepth: 4, UserID: userID})
	m.Update(m.loadSpaces(spaces.ModeAll)())
	c.Assert(m.list, qt.HasLen, 1)

	send(m, key("enter")) // expand Engineering
	c.Assert(m.nav.Rows(m.list), qt.HasLen, 2)
	send(m, key("down"))
	send(m, key("enter")) // open Go
	c.Assert(m.spaceID, qt.Equals, "go")
	c.Assert(b.opened, qt.DeepEquals, []string{"go"})
	c.Assert(m.entries, qt.HasLen, 1)
	return m
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestNavigation_HappyPath(t *testing.T) {
	c := qt.New(t)
	m, _ := openGo(c)

	c.Assert(m.busy, qt.Equals, 0)
	c.Assert(m.snap.Details.Name, qt.Equals, "Go")
	c.Assert(m.View(), qt.Contains, "Channels")

	send(m, key("t"))
	c.Assert(m.tab, qt.Equals, view.TabPeople)
}

func TestNavigation_EmptySubscribed(t *testing.T) {
	c := qt.New(t)
	m := New(context.Background(), &fakeBackend{}, Options{})

	send(m, key("m"))
	c.Assert(m.mode, qt.Equals, spaces.ModeSubscribed)
	c.Assert(m.View(), qt.Contains, view.NoSpaces)
}

func TestStaleResponsesDropped(t *testing.T) {
	c := qt.New(t)
	m, _ := openGo(c)

	m.Update(spaceLoadedMsg{id: "rust", snap: feed.Snapshot{Details: &models.SpaceDetails{ID: "rust", Name: "Rust"}}})
	c.Assert(m.snap.Details.Name, qt.Equals, "Go")

	m.Update(spacesLoadedMsg{mode: spaces.ModeSubscribed, list: nil})
	c.Assert(m.list, qt.HasLen, 1)
}

func TestOpenSpace_FailurePath(t *testing.T) {
	c := qt.New(t)
	b := &fakeBackend{openErr: errors.New("boom")}
	m := New(context.Background(), b, Options{})
	m.Update(m.loadSpaces(spaces.ModeAll)())
	send(m, key("enter"))
	send(m, key("down"))
	send(m, key("enter"))

	c.Assert(m.err, qt.ErrorMatches, "boom")
	c.Assert(m.View(), qt.Contains, "boom")
}

func TestComposer_HappyPath(t *testing.T) {
	c := qt.New(t)
	m, b := openGo(c)

	send(m, key("tab"))
	c.Assert(m.focus, qt.Equals, focusContent)

	send(m, key("c"))
	c.Assert(m.composing, qt.IsTrue)
	send(m, key("hello"))
	send(m, key("enter"))

	c.Assert(m.composing, qt.IsFalse)
	c.Assert(b.comments, qt.DeepEquals, []string{"a1:hello"})
	c.Assert(m.status, qt.Equals, "comment done")
}

func TestComposer_EscCancels(t *testing.T) {
	c := qt.New(t)
	m, b := openGo(c)

	send(m, key("tab"))
	send(m, key("c"))
	send(m, key("draft"))
	send(m, key("esc"))
	c.Assert(m.composing, qt.IsFalse)
	c.Assert(b.comments, qt.HasLen, 0)
}

func TestThreadExpansion_DepthLimit(t *testing.T) {
	c := qt.New(t)
	m, b := openGo(c)

	send(m, key("tab"))
	send(m, key("enter")) // expand the article thread
	c.Assert(m.entries, qt.HasLen, 5)
	c.Assert(m.entries[4].level, qt.Equals, 4)

	for i := 0; i < 4; i++ {
		send(m, key("down"))
	}
	send(m, key("c"))
	c.Assert(m.composing, qt.IsFalse)
	c.Assert(errors.Is(m.err, thread.ErrInteractionClosed), qt.IsTrue)
	c.Assert(b.comments, qt.HasLen, 0)
}

func TestReactionPicker_HappyPath(t *testing.T) {
	c := qt.New(t)
	m, b := openGo(c)

	send(m, key("tab"))
	send(m, key("+"))
	c.Assert(m.picking, qt.IsTrue)
	send(m, key("2"))

	c.Assert(m.picking, qt.IsFalse)
	c.Assert(b.reactions, qt.DeepEquals, []string{"a1:🎉"})
}

func TestReactionPicker_AlreadyReacted(t *testing.T) {
	c := qt.New(t)
	b := &fakeBackend{articleRx: []*models.Reaction{{ID: "r1", Emoji: "🔥", User: models.Author{ID: "u1"}}}}
	m := openGoWith(c, b, "u1")
	c.Assert(m.View(), qt.Not(qt.Contains), "[+]")

	send(m, key("tab"))
	send(m, key("+"))
	c.Assert(m.picking, qt.IsFalse)
	c.Assert(errors.Is(m.err, thread.ErrAlreadyReacted), qt.IsTrue)
	c.Assert(b.reactions, qt.HasLen, 0)

	other := openGoWith(c, &fakeBackend{articleRx: b.articleRx}, "u2")
	send(other, key("tab"))
	send(other, key("+"))
	c.Assert(other.picking, qt.IsTrue)
}

func TestSessionChanged_LoggedOut(t *testing.T) {
	c := qt.New(t)
	m, b := openGo(c)

	m.Update(sessionChangedMsg{snap: session.Snapshot{}})
	c.Assert(m.loggedOut, qt.IsTrue)
	c.Assert(m.status, qt.Equals, "logged out")
	c.Assert(m.View(), qt.Contains, "not authenticated")

	send(m, key("tab"))
	send(m, key("c"))
	c.Assert(m.composing, qt.IsFalse)
	send(m, key("+"))
	c.Assert(m.picking, qt.IsFalse)
	send(m, key("s"))
	c.Assert(errors.Is(m.err, session.ErrNotAuthenticated), qt.IsTrue)
	c.Assert(b.toggles, qt.Equals, 0)

	m.Update(sessionChangedMsg{snap: session.Snapshot{User: &models.User{ID: "u1", Username: "ada"}, Token: "t"}})
	c.Assert(m.loggedOut, qt.IsFalse)
	c.Assert(m.render.UserID, qt.Equals, "u1")
	send(m, key("+"))
	c.Assert(m.picking, qt.IsTrue)
}

func TestToggleSubscription_HappyPath(t *testing.T) {
	c := qt.New(t)
	m, b := openGo(c)

	send(m, key("s"))
	c.Assert(b.toggles, qt.Equals, 1)
	c.Assert(m.status, qt.Equals, "subscription done")
}

func TestBuildEntries(t *testing.T) {
	c := qt.New(t)

	items := feed.BuildFeed(goDetails())
	c.Assert(buildEntries(items, map[string]bool{}, 4), qt.HasLen, 1)

	got := buildEntries(items, map[string]bool{"a1": true}, 4)
	c.Assert(got, qt.HasLen, 5)
	c.Assert(got[0].label, qt.Equals, "article Channels")
	c.Assert(got[1].target, qt.Equals, models.Target{Kind: models.KindComment, ID: "c1"})
	c.Assert(got[1].label, qt.Equals, "comment by User")
}
