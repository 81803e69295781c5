package view

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/go-ports/stride/internal/feed"
	"github.com/go-ports/stride/internal/models"
	"github.com/go-ports/stride/internal/thread"
)

// Item renders one feed entry and its footer. The comment thread follows
// when showThread is set.
func (r *Renderer) Item(it feed.Item, showThread bool) string {
	var body string
	switch {
	case it.Flashcard != nil:
		body = r.flashcard(it.Flashcard)
	case it.Article != nil:
		body = r.article(it.Article)
	case it.Alert != nil:
		body = r.alert(it.Alert)
	}
	out := body + "\n" + r.Footer(it.Kind, it.Reactions(), it.Comments())
	if showThread && len(it.Comments()) > 0 {
		out += "\n" + r.Thread(it.Comments())
	}
	return out
}

func (r *Renderer) byline(a *models.Author, verb, createdAt string) string {
	parts := []string{
		"[" + a.Initial("U") + "]",
		titleStyle.Render(a.Name("User")),
	}
	if verb != "" {
		parts = append(parts, mutedStyle.Render(verb))
	}
	parts = append(parts, mutedStyle.Render("• "+TimeAgo(createdAt, r.now())))
	return strings.Join(parts, " ")
}

func (r *Renderer) flashcard(f *models.Flashcard) string {
	main := strings.Join([]string{
		r.byline(&f.Author, "published Flashcard", f.CreatedAt),
		titleStyle.Render(f.Title),
		Truncate(f.LongDescription, FlashcardPreviewRunes),
	}, "\n")

	side := panelStyle.Width(28).Render(f.ShortDescription)
	if r.Width > 0 && r.Width < 72 {
		return main + "\n" + side
	}
	mainWidth := 0
	if r.Width > 0 {
		mainWidth = r.Width - 34
	}
	if mainWidth > 0 {
		main = lipgloss.NewStyle().Width(mainWidth).Render(main)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, main, "  ", side)
}

func (r *Renderer) article(a *models.Article) string {
	return strings.Join([]string{
		r.byline(&a.Author, "published Article", a.CreatedAt),
		titleStyle.Render(a.Title),
		r.wrap(Truncate(a.Text, ArticlePreviewRunes)),
	}, "\n")
}

func (r *Renderer) alert(a *models.Alert) string {
	spaceName := ""
	if a.Space != nil {
		spaceName = a.Space.Name
	}
	actor := a.Actor()
	return strings.Join([]string{
		"🎉 " + titleStyle.Render("Newbie alert") + " " + mutedStyle.Render("• "+TimeAgo(a.CreatedAt, r.now())),
		"[" + actor.Initial("U") + "] " + titleStyle.Render(actor.Name("User")),
		"joined " + titleStyle.Render(spaceName),
		"Take a second to say hello...",
	}, "\n")
}

// Footer renders reaction chips, the comment count and the item controls.
// The add-reaction control is left out once UserID has reacted.
func (r *Renderer) Footer(kind models.ContentKind, reactions []*models.Reaction, comments []*models.Comment) string {
	var parts []string
	for _, rc := range thread.GroupReactions(reactions) {
		parts = append(parts, chipStyle.Render(rc.Emoji+" "+strconv.Itoa(rc.Count)))
	}
	if n := thread.TotalComments(comments); n > 0 {
		parts = append(parts, mutedStyle.Render(Plural(n, "comment")))
	}
	action := "Comment"
	if kind == models.KindComment {
		action = "Reply"
	}
	controls := "[" + action + "]"
	if !thread.HasReacted(reactions, r.UserID) {
		controls += " [+]"
	}
	parts = append(parts, mutedStyle.Render(controls))
	return strings.Join(parts, " ")
}

// Thread renders a comment tree. Each level is indented one step; controls
// are hinted only while the level can still be interacted with.
func (r *Renderer) Thread(comments []*models.Comment) string {
	var lines []string
	thread.Walk(comments, r.MaxDepth, func(n thread.Node) {
		indent := strings.Repeat("    ", n.Level-1)
		c := n.Comment
		head := indent + "[" + c.Author.Initial("U") + "] " + titleStyle.Render(c.Author.Name("User")) +
			" " + mutedStyle.Render("• "+TimeAgo(c.CreatedAt, r.now()))
		lines = append(lines, head, indent+"    "+c.Text)

		var chips []string
		for _, rc := range n.Reactions {
			chips = append(chips, rc.Emoji+" "+strconv.Itoa(rc.Count))
		}
		meta := strings.Join(chips, "  ")
		if n.Interactive {
			if meta != "" {
				meta += "  "
			}
			controls := "[Reply]"
			if !thread.HasReacted(c.Reactions, r.UserID) {
				controls += " [+]"
			}
			meta += mutedStyle.Render(controls)
		}
		if meta != "" {
			lines = append(lines, indent+"    "+meta)
		}
	})
	return strings.Join(lines, "\n")
}
