package feed

import (
	"sort"
	"time"

	"github.com/go-ports/stride/internal/models"
)

// Item is one entry of the merged feed. Exactly one of Flashcard, Article
// and Alert is set, matching Kind.
type Item struct {
	Kind      models.ContentKind `json:"kind"`
	ID        string             `json:"id"`
	CreatedAt string             `json:"createdAt"`
	Time      time.Time          `json:"-"`

	Flashcard *models.Flashcard `json:"flashcard,omitempty"`
	Article   *models.Article   `json:"article,omitempty"`
	Alert     *models.Alert     `json:"alert,omitempty"`
}

// Target addresses the item for comments and reactions.
func (it Item) Target() models.Target {
	return models.Target{Kind: it.Kind, ID: it.ID}
}

// Comments returns the item's top-level comments.
func (it Item) Comments() []*models.Comment {
	switch {
	case it.Flashcard != nil:
		return it.Flashcard.Comments
	case it.Article != nil:
		return it.Article.Comments
	case it.Alert != nil:
		return it.Alert.Comments
	}
	return nil
}

// Reactions returns the item's reactions.
func (it Item) Reactions() []*models.Reaction {
	switch {
	case it.Flashcard != nil:
		return it.Flashcard.Reactions
	case it.Article != nil:
		return it.Article.Reactions
	case it.Alert != nil:
		return it.Alert.Reactions
	}
	return nil
}

// Author returns who posted the item, or nil.
func (it Item) Author() *models.Author {
	switch {
	case it.Flashcard != nil:
		return &it.Flashcard.Author
	case it.Article != nil:
		return &it.Article.Author
	case it.Alert != nil:
		return it.Alert.Actor()
	}
	return nil
}

// Title returns a one-line heading for listings.
func (it Item) Title() string {
	switch {
	case it.Flashcard != nil:
		return it.Flashcard.Title
	case it.Article != nil:
		return it.Article.Title
	case it.Alert != nil:
		return it.Alert.Message
	}
	return ""
}

// BuildFeed merges flashcards, articles and alerts into one list sorted
// newest first. Items with equal timestamps keep their source order
// (flashcards, then articles, then alerts). Unparseable timestamps sort last.
func BuildFeed(d *models.SpaceDetails) []Item {
	if d == nil {
		return nil
	}
	items := make([]Item, 0, len(d.Flashcards)+len(d.Articles)+len(d.Alerts))
	for _, f := range d.Flashcards {
		items = append(items, Item{Kind: models.KindFlashcard, ID: f.ID, CreatedAt: f.CreatedAt, Time: models.ParseTime(f.CreatedAt), Flashcard: f})
	}
	for _, a := range d.Articles {
		items = append(items, Item{Kind: models.KindArticle, ID: a.ID, CreatedAt: a.CreatedAt, Time: models.ParseTime(a.CreatedAt), Article: a})
	}
	for _, a := range d.Alerts {
		items = append(items, Item{Kind: models.KindAlert, ID: a.ID, CreatedAt: a.CreatedAt, Time: models.ParseTime(a.CreatedAt), Alert: a})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Time.After(items[j].Time)
	})
	return items
}

// Find returns the feed item with id, if present.
func Find(items []Item, id string) (Item, bool) {
	for _, it := range items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}
