package mcp

// White-box testing required: targetFrom, itemJSON and commentsJSON are
// unexported helpers that validate incoming tool arguments and shape the
// outgoing tool responses. They are not reachable through the public
// NewServer API without a live backend, so direct access is required to
// cover their edge cases.

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/go-ports/stride/internal/feed"
	"github.com/go-ports/stride/internal/models"
)

// ---------------------------------------------------------------------------
// targetFrom
// ---------------------------------------------------------------------------

func TestTargetFrom(t *testing.T) {
	c := qt.New(t)

	cases := []struct {
		name    string
		args    map[string]any
		want    models.Target
		wantErr string
	}{
		{"flashcard", map[string]any{"kind": "flashcard", "id": "f1"}, models.Target{Kind: models.KindFlashcard, ID: "f1"}, ""},
		{"kind is case-insensitive", map[string]any{"kind": "Comment", "id": "c1"}, models.Target{Kind: models.KindComment, ID: "c1"}, ""},
		{"unknown kind", map[string]any{"kind": "poll", "id": "p"}, models.Target{}, "kind must be one of.*"},
		{"missing id", map[string]any{"kind": "article"}, models.Target{}, "id is required"},
	}

	for _, tc := range cases {
		c.Run(tc.name, func(c *qt.C) {
			req := mcp.CallToolRequest{}
			req.Params.Arguments = tc.args
			got, err := targetFrom(req)
			if tc.wantErr != "" {
				c.Assert(err, qt.ErrorMatches, tc.wantErr)
				return
			}
			c.Assert(err, qt.IsNil)
			c.Assert(got, qt.Equals, tc.want)
		})
	}
}

// ---------------------------------------------------------------------------
// itemJSON / commentsJSON
// ---------------------------------------------------------------------------

func TestItemJSON_HappyPath(t *testing.T) {
	c := qt.New(t)

	alert := feed.Item{
		Kind: models.KindAlert, ID: "al1",
		Alert: &models.Alert{
			ID:        "al1",
			User:      &models.Author{Username: "dan"},
			Space:     &models.SpaceRef{Name: "Go"},
			Reactions: []*models.Reaction{{Emoji: "🎉"}, {Emoji: "🎉"}},
		},
	}
	got := itemJSON(alert, 4)
	c.Assert(got["author"], qt.Equals, "dan")
	c.Assert(got["body"], qt.Equals, "dan joined Go")
	c.Assert(got["reactions"], qt.DeepEquals, map[string]int{"🎉": 2})
	c.Assert(got["comments"], qt.DeepEquals, []map[string]any{})
}

func TestCommentsJSON_DepthLimit(t *testing.T) {
	c := qt.New(t)

	comments := []*models.Comment{{ID: "c1", Text: "a", Replies: []*models.Comment{{ID: "c2", Text: "b"}}}}

	got := commentsJSON(comments, 2)
	c.Assert(got, qt.HasLen, 2)
	c.Assert(got[0]["level"], qt.Equals, 1)
	c.Assert(got[0]["can_reply"], qt.Equals, true)
	c.Assert(got[0]["reply_count"], qt.Equals, 1)
	c.Assert(got[1]["can_reply"], qt.Equals, false)
	c.Assert(got[1]["author"], qt.Equals, "User")
}
