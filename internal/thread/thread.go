// Package thread normalises comments and reactions for any content item.
package thread

import "github.com/go-ports/stride/internal/models"

// DefaultMaxDepth is the comment level at which replying and reacting stop.
const DefaultMaxDepth = 4

// ReactionCount is one emoji and how many users chose it.
type ReactionCount struct {
	Emoji string
	Count int
}

// GroupReactions counts reactions per emoji, in first-occurrence order.
func GroupReactions(reactions []*models.Reaction) []ReactionCount {
	var out []ReactionCount
	index := make(map[string]int)
	for _, r := range reactions {
		if r == nil {
			continue
		}
		if i, ok := index[r.Emoji]; ok {
			out[i].Count++
			continue
		}
		index[r.Emoji] = len(out)
		out = append(out, ReactionCount{Emoji: r.Emoji, Count: 1})
	}
	return out
}

// TotalComments is the displayed comment count: each top-level comment plus
// its direct replies. Deeper replies are not counted.
func TotalComments(comments []*models.Comment) int {
	total := 0
	for _, c := range comments {
		if c == nil {
			continue
		}
		total += 1 + len(c.Replies)
	}
	return total
}

// DeepTotalComments counts every comment at every depth.
func DeepTotalComments(comments []*models.Comment) int {
	total := 0
	for _, c := range comments {
		if c == nil {
			continue
		}
		total += 1 + DeepTotalComments(c.Replies)
	}
	return total
}

// HasReacted reports whether userID already reacted. An anonymous user has
// never reacted.
func HasReacted(reactions []*models.Reaction, userID string) bool {
	if userID == "" {
		return false
	}
	for _, r := range reactions {
		if r != nil && r.User.ID == userID {
			return true
		}
	}
	return false
}

// CanInteract reports whether an item at level still shows reply and react
// controls. Content items sit at level 0.
func CanInteract(level, maxDepth int) bool {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return level < maxDepth
}

// Node is one comment positioned in a rendered thread.
type Node struct {
	Comment     *models.Comment
	Level       int
	Interactive bool
	Reactions   []ReactionCount
}

// Flatten walks a comment tree depth-first. Top-level comments are at level
// 1 and each reply sits one level below its parent. Replies past maxDepth
// are still returned, without controls.
func Flatten(comments []*models.Comment, maxDepth int) []Node {
	var out []Node
	walk(comments, 1, maxDepth, func(n Node) { out = append(out, n) })
	return out
}

// Walk calls visit for every comment in rendering order.
func Walk(comments []*models.Comment, maxDepth int, visit func(Node)) {
	walk(comments, 1, maxDepth, visit)
}

func walk(comments []*models.Comment, level, maxDepth int, visit func(Node)) {
	for _, c := range comments {
		if c == nil {
			continue
		}
		visit(Node{
			Comment:     c,
			Level:       level,
			Interactive: CanInteract(level, maxDepth),
			Reactions:   GroupReactions(c.Reactions),
		})
		walk(c.Replies, level+1, maxDepth, visit)
	}
}
