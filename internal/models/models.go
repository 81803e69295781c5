// Package models defines the hub entities exchanged with the REST backend.
package models

import (
	"strings"
	"time"
)

// ContentKind tags a feed item or an interaction target.
type ContentKind string

const (
	KindFlashcard ContentKind = "flashcard"
	KindArticle   ContentKind = "article"
	KindAlert     ContentKind = "alert"
	KindComment   ContentKind = "comment"
)

// ValidKinds lists every kind that can receive comments and reactions.
var ValidKinds = []ContentKind{KindFlashcard, KindArticle, KindAlert, KindComment}

// ParseKind converts a user-supplied string into a ContentKind.
func ParseKind(s string) (ContentKind, bool) {
	k := ContentKind(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range ValidKinds {
		if v == k {
			return k, true
		}
	}
	return "", false
}

// User is the authenticated account returned by the auth endpoints.
type User struct {
	ID        string `json:"id" validate:"required"`
	Username  string `json:"username" validate:"required"`
	Email     string `json:"email"`
	IsAdmin   bool   `json:"isAdmin"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// Author is the short user reference embedded in content.
type Author struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Initial returns the upper-cased first rune of the username, or fallback.
func (a *Author) Initial(fallback string) string {
	if a == nil || a.Username == "" {
		return fallback
	}
	r := []rune(a.Username)
	return strings.ToUpper(string(r[0]))
}

// Name returns the username, or fallback when the author is absent.
func (a *Author) Name(fallback string) string {
	if a == nil || a.Username == "" {
		return fallback
	}
	return a.Username
}

// Member wraps a user reference the way the spaces endpoint nests
// contributors and subscribers.
type Member struct {
	User Author `json:"user"`
}

// Space is a node in the space hierarchy. Level is the depth from the root.
type Space struct {
	ID       string   `json:"id" validate:"required"`
	Name     string   `json:"name"`
	Level    int      `json:"level" validate:"gte=0"`
	Children []*Space `json:"children,omitempty" validate:"omitempty,dive,required"`
}

// IsLeaf reports whether the space has no children and can be opened.
func (s *Space) IsLeaf() bool { return len(s.Children) == 0 }

// SpaceRef is the minimal space reference carried by alerts.
type SpaceRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Reaction is a single emoji reaction by one user.
type Reaction struct {
	ID    string `json:"id"`
	Emoji string `json:"emoji" validate:"required"`
	User  Author `json:"user"`
}

// Comment is a comment or reply. Level is 1 for top-level comments and grows
// by one per reply hop.
type Comment struct {
	ID        string      `json:"id" validate:"required"`
	Text      string      `json:"text"`
	Level     int         `json:"level"`
	CreatedAt string      `json:"createdAt"`
	Author    Author      `json:"author"`
	Replies   []*Comment  `json:"replies,omitempty"`
	Reactions []*Reaction `json:"reactions,omitempty"`
}

// Flashcard is a titled card with a short and a long description.
type Flashcard struct {
	ID               string      `json:"id" validate:"required"`
	Title            string      `json:"title"`
	ShortDescription string      `json:"shortDescription"`
	LongDescription  string      `json:"longDescription"`
	CreatedAt        string      `json:"createdAt"`
	Author           Author      `json:"author"`
	Comments         []*Comment  `json:"comments,omitempty"`
	Reactions        []*Reaction `json:"reactions,omitempty"`
}

// Article is a titled text post.
type Article struct {
	ID        string      `json:"id" validate:"required"`
	Title     string      `json:"title"`
	Text      string      `json:"text"`
	CreatedAt string      `json:"createdAt"`
	Author    Author      `json:"author"`
	Comments  []*Comment  `json:"comments,omitempty"`
	Reactions []*Reaction `json:"reactions,omitempty"`
}

// Alert is a join-style event posted into a space.
type Alert struct {
	ID        string      `json:"id" validate:"required"`
	Type      string      `json:"type"`
	Message   string      `json:"message"`
	CreatedAt string      `json:"createdAt"`
	Author    *Author     `json:"author,omitempty"`
	User      *Author     `json:"user,omitempty"`
	Space     *SpaceRef   `json:"space,omitempty"`
	Comments  []*Comment  `json:"comments,omitempty"`
	Reactions []*Reaction `json:"reactions,omitempty"`
}

// Actor returns whoever the alert is about: the author when present,
// otherwise the user field.
func (a *Alert) Actor() *Author {
	if a.Author != nil {
		return a.Author
	}
	return a.User
}

// SpaceDetails is the full record for a leaf space.
//
// A nil collection means the backend omitted the field. An empty non-nil
// collection means the backend sent []. The two render differently in the
// stats header.
type SpaceDetails struct {
	ID           string       `json:"id" validate:"required"`
	Name         string       `json:"name"`
	About        string       `json:"about,omitempty"`
	Level        int          `json:"level"`
	Children     []*Space     `json:"children,omitempty"`
	BannerURL    string       `json:"bannerURL,omitempty"`
	Contributors []Member     `json:"contributors,omitempty"`
	Subscribers  []Member     `json:"subscribers,omitempty"`
	Flashcards   []*Flashcard `json:"flashcards,omitempty"`
	Articles     []*Article   `json:"articles,omitempty"`
	Alerts       []*Alert     `json:"alerts,omitempty"`
}

// FallbackDetails builds the minimal record shown when the detail fetch fails.
func FallbackDetails(s *Space) *SpaceDetails {
	return &SpaceDetails{
		ID:       s.ID,
		Name:     s.Name,
		Level:    s.Level,
		Children: s.Children,
	}
}

// Target identifies the item a comment or reaction is attached to.
type Target struct {
	Kind ContentKind
	ID   string
}

// ParseTime parses a backend timestamp. Unparseable values yield the zero time.
func ParseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
