package view

import (
	"fmt"
	"time"

	"github.com/go-ports/stride/internal/models"
)

const (
	// FlashcardPreviewRunes is where a flashcard's long description is cut.
	FlashcardPreviewRunes = 200
	// ArticlePreviewRunes is where an article body is cut in the feed.
	ArticlePreviewRunes = 300
)

// Truncate cuts s to n runes and appends "..." when anything was removed.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// TimeAgo renders a backend timestamp relative to now. Months are 30 days
// and years 365 days. Unparseable input reads "recently".
func TimeAgo(createdAt string, now time.Time) string {
	t := models.ParseTime(createdAt)
	if t.IsZero() {
		return "recently"
	}
	secs := int64(now.Sub(t) / time.Second)
	switch {
	case secs < 60:
		return "just now"
	case secs < 3600:
		return fmt.Sprintf("%d minutes ago", secs/60)
	case secs < 86400:
		return fmt.Sprintf("%d hours ago", secs/3600)
	case secs < 2592000:
		return fmt.Sprintf("%d days ago", secs/86400)
	case secs < 31536000:
		return fmt.Sprintf("%d months ago", secs/2592000)
	default:
		return fmt.Sprintf("%d years ago", secs/31536000)
	}
}

// Plural renders "1 comment" or "n comments".
func Plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
