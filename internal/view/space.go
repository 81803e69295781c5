package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/go-ports/stride/internal/feed"
	"github.com/go-ports/stride/internal/models"
)

// Placeholder counts shown when the backend omits a collection.
const (
	FallbackContributors = 1
	FallbackFlashcards   = 143
	FallbackSubscribers  = 48
)

// Empty-state messages.
const (
	NoSpaceSelected = "Select a space to view its details"
	NoContent       = "No content in this space yet"
	NoAbout         = "No description available for this space"
	PeopleSoon      = "People coming soon"
)

// Tab is one of the space view tabs.
type Tab int

const (
	TabFeed Tab = iota
	TabPeople
	TabAbout
)

// Tabs lists the tabs in display order.
var Tabs = []Tab{TabFeed, TabPeople, TabAbout}

func (t Tab) String() string {
	switch t {
	case TabPeople:
		return "People"
	case TabAbout:
		return "About"
	default:
		return "Feed"
	}
}

// Next returns the tab to the right, wrapping around.
func (t Tab) Next() Tab { return Tabs[(int(t)+1)%len(Tabs)] }

// Stats holds the counters shown under the banner.
type Stats struct {
	Contributors int
	Flashcards   int
	Subscribers  int
}

// SpaceStats counts the collections of d. An absent collection (nil) yields
// the placeholder count; an empty one yields zero.
func SpaceStats(d *models.SpaceDetails) Stats {
	s := Stats{FallbackContributors, FallbackFlashcards, FallbackSubscribers}
	if d == nil {
		return s
	}
	if d.Contributors != nil {
		s.Contributors = len(d.Contributors)
	}
	if d.Flashcards != nil {
		s.Flashcards = len(d.Flashcards)
	}
	if d.Subscribers != nil {
		s.Subscribers = len(d.Subscribers)
	}
	return s
}

// SubscribeLabel is the text of the subscription button.
func SubscribeLabel(subscribed, busy bool) string {
	switch {
	case busy:
		return "..."
	case subscribed:
		return "Unsubscribe"
	default:
		return "Subscribe"
	}
}

// Header renders the banner, the stats line and the subscription button.
func (r *Renderer) Header(d *models.SpaceDetails, subscribed, toggling bool) string {
	banner := d.Name
	if d.BannerURL != "" {
		banner += "\n" + d.BannerURL
	}
	st := SpaceStats(d)
	stats := fmt.Sprintf("%d Contributor  •  %d Flashcards  •  %d Subscribers",
		st.Contributors, st.Flashcards, st.Subscribers)
	button := chipStyle.Render(SubscribeLabel(subscribed, toggling))

	style := bannerStyle
	if r.Width > 0 {
		style = style.Width(r.Width)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		style.Render(banner),
		stats+"   "+button,
	)
}

// TabBar renders the tab strip with active highlighted.
func (r *Renderer) TabBar(active Tab) string {
	parts := make([]string, 0, len(Tabs))
	for _, t := range Tabs {
		if t == active {
			parts = append(parts, activeTabStyle.Render(t.String()))
			continue
		}
		parts = append(parts, inactiveTabStyle.Render(t.String()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// About renders the About tab.
func (r *Renderer) About(d *models.SpaceDetails) string {
	if strings.TrimSpace(d.About) == "" {
		return mutedStyle.Render(NoAbout)
	}
	return r.wrap(d.About)
}

// People renders the People tab.
func (r *Renderer) People(d *models.SpaceDetails) string {
	var b strings.Builder
	b.WriteString(mutedStyle.Render(PeopleSoon))
	if len(d.Contributors) > 0 {
		b.WriteString("\n\nContributors:")
		for _, m := range d.Contributors {
			b.WriteString("\n  " + m.User.Username)
		}
	}
	return b.String()
}

// Feed renders every item with its thread. expanded lists item ids whose
// comment threads are shown; nil shows every thread.
func (r *Renderer) Feed(items []feed.Item, expanded map[string]bool) string {
	if len(items) == 0 {
		return mutedStyle.Render(NoContent)
	}
	blocks := make([]string, 0, len(items))
	for _, it := range items {
		showThread := expanded == nil || expanded[it.ID]
		blocks = append(blocks, r.Item(it, showThread))
	}
	return strings.Join(blocks, "\n\n")
}

// Space renders the whole space view: header, tabs and the active tab body.
func (r *Renderer) Space(snap feed.Snapshot, tab Tab, expanded map[string]bool) string {
	if snap.Details == nil {
		if snap.Loading {
			return mutedStyle.Render("Loading...")
		}
		return mutedStyle.Render(NoSpaceSelected)
	}
	var body string
	switch tab {
	case TabPeople:
		body = r.People(snap.Details)
	case TabAbout:
		body = r.About(snap.Details)
	default:
		body = r.Feed(snap.Feed, expanded)
	}
	parts := []string{r.Header(snap.Details, snap.IsSubscribed, snap.Toggling)}
	if snap.Fallback {
		parts = append(parts, errorStyle.Render("Could not load this space; showing what is known."))
	}
	parts = append(parts, r.TabBar(tab), body)
	return strings.Join(parts, "\n\n")
}
