// Package tui is the interactive hub browser: a navigation pane on the left
// and the selected space on the right, with a composer for comments and
// reactions.
//
// The model is owned by the bubbletea event loop. Every backend call runs
// inside a tea.Cmd and reports back as a message; responses for a space or
// mode that is no longer current are dropped.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/go-ports/stride/internal/events"
	"github.com/go-ports/stride/internal/feed"
	"github.com/go-ports/stride/internal/models"
	"github.com/go-ports/stride/internal/session"
	"github.com/go-ports/stride/internal/spaces"
	"github.com/go-ports/stride/internal/thread"
	"github.com/go-ports/stride/internal/view"
)

const navWidth = 30

// Backend is what the browser needs from the service layer.
type Backend interface {
	Spaces(ctx context.Context, mode spaces.Mode) ([]*models.Space, error)
	OpenSpace(ctx context.Context, id string) (feed.Snapshot, error)
	ToggleSubscription(ctx context.Context, spaceID string) (bool, error)
	Comment(ctx context.Context, spaceID string, target models.Target, text string) error
	React(ctx context.Context, spaceID string, target models.Target, emoji string) error
}

// Options configures the browser.
type Options struct {
	Palette  []string
	MaxDepth int
	UserID   string      // logged-in user; their reactions hide the add control
	Events   *events.Bus // session changes are forwarded to the model when set
}

// =============================================================================
// Messages
// =============================================================================

type spacesLoadedMsg struct {
	mode spaces.Mode
	list []*models.Space
	err  error
}

type spaceLoadedMsg struct {
	id   string
	snap feed.Snapshot
	err  error
}

type mutationDoneMsg struct {
	what string
	err  error
}

type sessionChangedMsg struct {
	snap session.Snapshot
}

// =============================================================================
// Model
// =============================================================================

type focus int

const (
	focusNav focus = iota
	focusContent
)

// entry is one selectable line of the content pane: a feed item or, when
// its thread is expanded, one of its comments.
type entry struct {
	target    models.Target
	itemID    string
	level     int
	label     string
	reactions []*models.Reaction
}

// Model is the bubbletea model of the browser.
type Model struct {
	ctx     context.Context
	backend Backend
	render  *view.Renderer
	palette []string

	mode      spaces.Mode
	list      []*models.Space
	nav       *spaces.Navigator
	navCursor int

	spaceID  string
	snap     feed.Snapshot
	tab      view.Tab
	expanded map[string]bool
	entries  []entry
	cursor   int

	focus     focus
	input     textinput.Model
	composing bool
	picking   bool
	spin      spinner.Model
	busy      int
	status    string
	err       error
	loggedOut bool

	viewport viewport.Model
	width    int
	height   int
	ready    bool
}

// New builds the browser model.
func New(ctx context.Context, backend Backend, opts Options) *Model {
	in := textinput.New()
	in.Placeholder = "Write a comment..."
	in.CharLimit = 2000

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	r := view.NewRenderer(0)
	if opts.MaxDepth > 0 {
		r.MaxDepth = opts.MaxDepth
	}
	r.UserID = opts.UserID
	return &Model{
		ctx:      ctx,
		backend:  backend,
		render:   r,
		palette:  opts.Palette,
		mode:     spaces.ModeAll,
		nav:      spaces.NewNavigator(),
		expanded: make(map[string]bool),
		input:    in,
		spin:     sp,
		busy:     1,
	}
}

// Run starts the browser and blocks until the user quits or ctx is done.
func Run(ctx context.Context, backend Backend, opts Options) error {
	p := tea.NewProgram(New(ctx, backend, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if opts.Events != nil {
		cancel := opts.Events.Subscribe(func(ev events.Event) {
			if snap, ok := ev.Payload.(session.Snapshot); ok {
				// Send blocks until the loop reads it; bus handlers must not.
				go p.Send(sessionChangedMsg{snap: snap})
			}
		}, events.SessionChanged)
		defer cancel()
	}
	_, err := p.Run()
	return err
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.loadSpaces(m.mode))
}

// =============================================================================
// Commands
// =============================================================================

func (m *Model) loadSpaces(mode spaces.Mode) tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		list, err := backend.Spaces(ctx, mode)
		return spacesLoadedMsg{mode: mode, list: list, err: err}
	}
}

func (m *Model) loadSpace(id string) tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		snap, err := backend.OpenSpace(ctx, id)
		return spaceLoadedMsg{id: id, snap: snap, err: err}
	}
}

func (m *Model) mutate(what string, fn func(ctx context.Context) error) tea.Cmd {
	m.busy++
	ctx := m.ctx
	return func() tea.Msg {
		return mutationDoneMsg{what: what, err: fn(ctx)}
	}
}

// =============================================================================
// Update
// =============================================================================

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case spacesLoadedMsg:
		m.done()
		if msg.mode != m.mode {
			return m, nil
		}
		m.err = msg.err
		if msg.err == nil {
			m.list = msg.list
			m.clampNav()
		}
		return m, nil

	case spaceLoadedMsg:
		m.done()
		if msg.id != m.spaceID {
			return m, nil
		}
		m.err = msg.err
		if msg.err == nil {
			m.snap = msg.snap
			if msg.snap.Err != nil {
				m.err = msg.snap.Err
			}
			m.rebuild()
		}
		return m, nil

	case mutationDoneMsg:
		m.done()
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.status = msg.what + " done"
		cmds := []tea.Cmd{m.reloadSpace()}
		if msg.what == "subscription" {
			m.busy++
			cmds = append(cmds, m.loadSpaces(m.mode))
		}
		return m, tea.Batch(cmds...)

	case sessionChangedMsg:
		m.sessionChanged(msg.snap)
		return m, nil

	case tea.KeyMsg:
		if m.composing {
			return m.updateComposer(msg)
		}
		if m.picking {
			return m.pickReaction(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

// sessionChanged follows login and logout made outside the browser, such as
// the forced logout after a 401. A logged-out browser stays readable but
// refuses every mutation.
func (m *Model) sessionChanged(snap session.Snapshot) {
	if !snap.Authenticated() {
		m.loggedOut = true
		m.render.UserID = ""
		m.composing = false
		m.picking = false
		m.input.Blur()
		m.err = session.ErrNotAuthenticated
		m.status = "logged out"
		m.sync()
		return
	}
	m.loggedOut = false
	m.render.UserID = snap.User.ID
	m.err = nil
	m.status = "logged in as " + snap.User.Username
	m.sync()
}

func (m *Model) done() {
	if m.busy > 0 {
		m.busy--
	}
}

func (m *Model) reloadSpace() tea.Cmd {
	if m.spaceID == "" {
		return nil
	}
	m.busy++
	return m.loadSpace(m.spaceID)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "tab":
		if m.focus == focusNav && m.spaceID != "" {
			m.focus = focusContent
		} else {
			m.focus = focusNav
		}
	case "m":
		m.mode = otherMode(m.mode)
		m.navCursor = 0
		m.busy++
		return m, m.loadSpaces(m.mode)
	case "t":
		m.tab = m.tab.Next()
		m.sync()
	case "r":
		m.busy++
		return m, tea.Batch(m.loadSpaces(m.mode), m.reloadSpace())
	case "s":
		if m.spaceID == "" || m.snap.Toggling {
			return m, nil
		}
		if m.loggedOut {
			m.err = session.ErrNotAuthenticated
			return m, nil
		}
		id := m.spaceID
		return m, m.mutate("subscription", func(ctx context.Context) error {
			_, err := m.backend.ToggleSubscription(ctx, id)
			return err
		})
	case "up", "k":
		m.move(-1)
	case "down", "j":
		m.move(1)
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case "enter":
		return m, m.activate()
	case "c":
		return m, m.startComposer()
	case "+":
		if e, ok := m.current(); ok && m.checkInteract(e) {
			if thread.HasReacted(e.reactions, m.render.UserID) {
				m.err = thread.ErrAlreadyReacted
				return m, nil
			}
			m.picking = true
			m.status = "react with: " + m.paletteHint()
		}
	}
	return m, nil
}

func (m *Model) move(delta int) {
	if m.focus == focusNav {
		m.navCursor += delta
		m.clampNav()
		return
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= len(m.entries) {
		m.cursor = len(m.entries) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) clampNav() {
	n := len(m.nav.Rows(m.list))
	if m.navCursor >= n {
		m.navCursor = n - 1
	}
	if m.navCursor < 0 {
		m.navCursor = 0
	}
}

// activate handles enter: in the nav pane a parent toggles and a leaf opens;
// in the content pane a feed item shows or hides its thread.
func (m *Model) activate() tea.Cmd {
	if m.focus == focusNav {
		rows := m.nav.Rows(m.list)
		if m.navCursor >= len(rows) {
			return nil
		}
		space := rows[m.navCursor].Space
		if !m.nav.Select(space) {
			m.clampNav()
			return nil
		}
		m.spaceID = space.ID
		m.snap = feed.Snapshot{Space: space, Loading: true}
		m.expanded = make(map[string]bool)
		m.cursor = 0
		m.rebuild()
		m.busy++
		return m.loadSpace(space.ID)
	}

	e, ok := m.current()
	if !ok || e.level != 0 {
		return nil
	}
	m.expanded[e.itemID] = !m.expanded[e.itemID]
	m.rebuild()
	return nil
}

func (m *Model) current() (entry, bool) {
	if m.focus != focusContent || m.cursor >= len(m.entries) {
		return entry{}, false
	}
	return m.entries[m.cursor], true
}

func (m *Model) checkInteract(e entry) bool {
	if m.loggedOut {
		m.err = session.ErrNotAuthenticated
		return false
	}
	if e.level > 0 && !thread.CanInteract(e.level, m.render.MaxDepth) {
		m.err = thread.ErrInteractionClosed
		return false
	}
	return true
}

// =============================================================================
// Composer and reaction picker
// =============================================================================

func (m *Model) startComposer() tea.Cmd {
	e, ok := m.current()
	if !ok || !m.checkInteract(e) {
		return nil
	}
	m.composing = true
	m.input.Reset()
	m.status = "replying to " + e.label
	return m.input.Focus()
}

func (m *Model) updateComposer(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.composing = false
		m.input.Blur()
		m.status = ""
		return m, nil
	case tea.KeyEnter:
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			m.err = thread.ErrEmptyText
			return m, nil
		}
		e, _ := m.current()
		m.composing = false
		m.input.Blur()
		spaceID := m.spaceID
		return m, m.mutate("comment", func(ctx context.Context) error {
			return m.backend.Comment(ctx, spaceID, e.target, text)
		})
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) pickReaction(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.picking = false
	m.status = ""
	key := msg.String()
	if len(key) != 1 || key[0] < '1' || key[0] > '9' {
		return m, nil
	}
	idx := int(key[0] - '1')
	if idx >= len(m.palette) {
		return m, nil
	}
	e, ok := m.current()
	if !ok {
		return m, nil
	}
	emoji, spaceID := m.palette[idx], m.spaceID
	return m, m.mutate("reaction", func(ctx context.Context) error {
		return m.backend.React(ctx, spaceID, e.target, emoji)
	})
}

func (m *Model) paletteHint() string {
	parts := make([]string, 0, len(m.palette))
	for i, e := range m.palette {
		parts = append(parts, fmt.Sprintf("%d %s", i+1, e))
	}
	return strings.Join(parts, "  ")
}

// =============================================================================
// Layout
// =============================================================================

func (m *Model) resize(w, h int) {
	m.width, m.height = w, h
	cw := w - navWidth - 1
	if cw < 20 {
		cw = 20
	}
	vh := h - 3
	if vh < 3 {
		vh = 3
	}
	if !m.ready {
		m.viewport = viewport.New(cw, vh)
		m.ready = true
	} else {
		m.viewport.Width = cw
		m.viewport.Height = vh
	}
	m.render.Width = cw
	m.sync()
}

// rebuild recomputes the selectable entries after the feed or the expansion
// state changed.
func (m *Model) rebuild() {
	m.entries = buildEntries(m.snap.Feed, m.expanded, m.render.MaxDepth)
	if m.cursor >= len(m.entries) {
		m.cursor = len(m.entries) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.sync()
}

func (m *Model) sync() {
	if m.ready {
		m.viewport.SetContent(m.render.Space(m.snap, m.tab, m.expanded))
	}
}

func buildEntries(items []feed.Item, expanded map[string]bool, maxDepth int) []entry {
	var out []entry
	for _, it := range items {
		out = append(out, entry{
			target:    it.Target(),
			itemID:    it.ID,
			label:     string(it.Kind) + " " + itemLabel(it),
			reactions: it.Reactions(),
		})
		if !expanded[it.ID] {
			continue
		}
		for _, n := range thread.Flatten(it.Comments(), maxDepth) {
			out = append(out, entry{
				target:    models.Target{Kind: models.KindComment, ID: n.Comment.ID},
				itemID:    it.ID,
				level:     n.Level,
				label:     "comment by " + n.Comment.Author.Name("User"),
				reactions: n.Comment.Reactions,
			})
		}
	}
	return out
}

func itemLabel(it feed.Item) string {
	if t := it.Title(); t != "" {
		return view.Truncate(t, 40)
	}
	return "by " + it.Author().Name("User")
}

func otherMode(m spaces.Mode) spaces.Mode {
	if m == spaces.ModeSubscribed {
		return spaces.ModeAll
	}
	return spaces.ModeSubscribed
}

// =============================================================================
// View
// =============================================================================

// View implements tea.Model.
func (m *Model) View() string {
	cursor := -1
	if m.focus == focusNav {
		cursor = m.navCursor
	}
	nav := lipgloss.NewStyle().Width(navWidth).Render(m.render.Nav(m.mode, m.nav.Rows(m.list), cursor))

	content := m.render.Space(m.snap, m.tab, m.expanded)
	if m.ready {
		content = m.viewport.View()
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, nav, " ", content)
	return body + "\n" + m.statusLine()
}

func (m *Model) statusLine() string {
	var parts []string
	if m.busy > 0 {
		parts = append(parts, m.spin.View())
	}
	if e, ok := m.current(); ok {
		parts = append(parts, view.Muted("["+e.label+"]"))
	}
	switch {
	case m.composing:
		parts = append(parts, m.input.View())
	case m.err != nil:
		parts = append(parts, view.Error(m.err.Error()))
	case m.status != "":
		parts = append(parts, m.status)
	default:
		parts = append(parts, view.Muted("tab focus • enter open • m mode • t tab • s subscribe • c comment • + react • q quit"))
	}
	return strings.Join(parts, " ")
}
