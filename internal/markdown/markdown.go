// Package markdown renders a space feed as a markdown document with YAML
// front-matter.
package markdown

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/go-ports/stride/internal/feed"
	"github.com/go-ports/stride/internal/models"
	"github.com/go-ports/stride/internal/thread"
)

// Frontmatter is the YAML header of an exported feed.
type Frontmatter struct {
	Space      string   `yaml:"space"`
	SpaceID    string   `yaml:"space_id"`
	Exported   string   `yaml:"exported"`
	Items      int      `yaml:"items"`
	Kinds      []string `yaml:"kinds"`
	Subscribed bool     `yaml:"subscribed"`
}

// RenderSection produces a single ### heading block for a feed item,
// followed by its reactions and the comment thread as a nested list.
func RenderSection(it feed.Item) string {
	var sb strings.Builder
	sb.WriteString("### ")
	sb.WriteString(sectionTitle(it))
	sb.WriteString("\n**Kind:** ")
	sb.WriteString(string(it.Kind))
	sb.WriteString("\n**Author:** ")
	sb.WriteString(it.Author().Name("User"))
	if it.CreatedAt != "" {
		sb.WriteString("\n**Created:** ")
		sb.WriteString(it.CreatedAt)
	}

	switch {
	case it.Flashcard != nil:
		if it.Flashcard.ShortDescription != "" {
			sb.WriteString("\n\n> ")
			sb.WriteString(it.Flashcard.ShortDescription)
		}
		if it.Flashcard.LongDescription != "" {
			sb.WriteString("\n\n")
			sb.WriteString(it.Flashcard.LongDescription)
		}
	case it.Article != nil:
		if it.Article.Text != "" {
			sb.WriteString("\n\n")
			sb.WriteString(it.Article.Text)
		}
	case it.Alert != nil:
		spaceName := ""
		if it.Alert.Space != nil {
			spaceName = it.Alert.Space.Name
		}
		sb.WriteString("\n\n")
		sb.WriteString(it.Alert.Actor().Name("User"))
		sb.WriteString(" joined ")
		sb.WriteString(spaceName)
	}

	if groups := thread.GroupReactions(it.Reactions()); len(groups) > 0 {
		chips := make([]string, 0, len(groups))
		for _, g := range groups {
			chips = append(chips, fmt.Sprintf("%s %d", g.Emoji, g.Count))
		}
		sb.WriteString("\n\n**Reactions:** ")
		sb.WriteString(strings.Join(chips, " "))
	}

	if comments := it.Comments(); len(comments) > 0 {
		sb.WriteString("\n\n<details>\n<summary>")
		sb.WriteString(fmt.Sprintf("%d comments", thread.DeepTotalComments(comments)))
		sb.WriteString("</summary>\n\n")
		thread.Walk(comments, 0, func(n thread.Node) {
			sb.WriteString(strings.Repeat("  ", n.Level-1))
			sb.WriteString("- **")
			sb.WriteString(n.Comment.Author.Name("User"))
			sb.WriteString(":** ")
			sb.WriteString(n.Comment.Text)
			sb.WriteString("\n")
		})
		sb.WriteString("</details>")
	}
	return sb.String()
}

func sectionTitle(it feed.Item) string {
	if t := it.Title(); t != "" {
		return t
	}
	if it.Kind == models.KindAlert {
		return "Newbie alert"
	}
	return string(it.Kind)
}

// RenderFeed builds a complete document for one space: front-matter, a
// heading, and one section per feed item in feed order.
func RenderFeed(d *models.SpaceDetails, items []feed.Item, subscribed bool, now time.Time) (string, error) {
	fm := Frontmatter{
		Space:      d.Name,
		SpaceID:    d.ID,
		Exported:   now.UTC().Format(time.RFC3339),
		Items:      len(items),
		Kinds:      kinds(items),
		Subscribed: subscribed,
	}
	header, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("markdown.RenderFeed: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	sb.Write(header)
	sb.WriteString("---\n\n# ")
	sb.WriteString(d.Name)
	sb.WriteString("\n")
	if d.About != "" {
		sb.WriteString("\n")
		sb.WriteString(d.About)
		sb.WriteString("\n")
	}
	for _, it := range items {
		sb.WriteString("\n")
		sb.WriteString(RenderSection(it))
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// ParseFrontmatter reads the YAML header back from a rendered document.
func ParseFrontmatter(content string) (*Frontmatter, error) {
	fm, _ := splitFrontmatter(content)
	if fm == "" {
		return nil, fmt.Errorf("markdown.ParseFrontmatter: no front-matter")
	}
	var out Frontmatter
	if err := yaml.Unmarshal([]byte(fm), &out); err != nil {
		return nil, fmt.Errorf("markdown.ParseFrontmatter: %w", err)
	}
	return &out, nil
}

// WriteFeed renders the feed and writes it to <dir>/<date>-<slug>.md,
// replacing any export of the same space from the same day. The directory is
// created if needed. It returns the written path.
func WriteFeed(dir string, d *models.SpaceDetails, items []feed.Item, subscribed bool, now time.Time) (string, error) {
	content, err := RenderFeed(d, items, subscribed, now)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("markdown.WriteFeed: %w", err)
	}
	path := filepath.Join(dir, now.Format("2006-01-02")+"-"+Slug(d.Name, d.ID)+".md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil { // #nosec G306 -- exported feeds hold public space content
		return "", fmt.Errorf("markdown.WriteFeed: %w", err)
	}
	return path, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// splitFrontmatter splits YAML front-matter from the body.
// Returns ("", content) when no front-matter is detected.
func splitFrontmatter(content string) (frontmatter, body string) {
	if !strings.HasPrefix(content, "---\n") {
		return "", content
	}
	parts := strings.SplitN(content, "---\n", 3)
	if len(parts) >= 3 {
		return parts[1], parts[2]
	}
	return "", content
}

var nonSlugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lower-cases name and collapses everything but letters and digits into
// dashes. An empty result falls back to id.
func Slug(name, id string) string {
	s := strings.Trim(nonSlugRe.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if s == "" {
		s = strings.Trim(nonSlugRe.ReplaceAllString(strings.ToLower(id), "-"), "-")
	}
	if s == "" {
		s = "space"
	}
	return s
}

func kinds(items []feed.Item) []string {
	seen := make(map[models.ContentKind]bool, 3)
	out := make([]string, 0, 3)
	for _, it := range items {
		if !seen[it.Kind] {
			seen[it.Kind] = true
			out = append(out, string(it.Kind))
		}
	}
	return out
}
