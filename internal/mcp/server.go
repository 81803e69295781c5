// Package mcp provides the stdio MCP server exposing hub tools for agents.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/go-ports/stride/internal/buildinfo"
	"github.com/go-ports/stride/internal/feed"
	"github.com/go-ports/stride/internal/models"
	"github.com/go-ports/stride/internal/service"
	"github.com/go-ports/stride/internal/spaces"
	"github.com/go-ports/stride/internal/thread"
)

var validKinds = []string{"flashcard", "article", "alert", "comment"}

const spacesDescription = `List the learning hub spaces. mode "all" returns the full hierarchy, "subscribed" only the spaces the user follows. Only leaf spaces (no children) can be opened with space_feed.`

const feedDescription = `Get the merged feed of one leaf space: flashcards, articles and alerts, newest first, each with its reactions and comment thread. Use the returned ids with comment_post and reaction_add.` //nolint:lll

const commentDescription = `Post a comment on a feed item, or a reply when kind is "comment". Pass space_id so the target is checked against the space and the reply depth limit is enforced.` //nolint:lll

const reactionDescription = `Add an emoji reaction to a feed item or comment in space_id. Only emojis from the configured palette are accepted and a user can react once per item.`

// NewServer creates and registers all hub tools on a new MCP server.
// It is intentionally separate from Serve so that tests and other callers can
// obtain a fully configured server without committing to the stdio transport.
func NewServer(svc *service.Service) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer("stride", buildinfo.Version)
	registerTools(s, svc)
	return s
}

// Serve starts the stdio MCP server over svc, blocking until stdin closes.
// The caller owns svc.
func Serve(ctx context.Context, svc *service.Service) error {
	svc.Start(ctx)
	return mcpserver.ServeStdio(NewServer(svc))
}

// registerTools wires all hub tools into the server.
func registerTools(s *mcpserver.MCPServer, svc *service.Service) {
	s.AddTool(mcp.NewTool("whoami",
		mcp.WithDescription("Return the logged-in hub user. Fails when no session is stored; run `stride login` first."),
	), func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		user, err := svc.Whoami(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(user)
	})

	s.AddTool(mcp.NewTool("spaces_list",
		mcp.WithDescription(spacesDescription),
		mcp.WithString("mode",
			mcp.Description("all or subscribed (default all)"),
			mcp.Enum(string(spaces.ModeAll), string(spaces.ModeSubscribed)),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleSpaces(ctx, svc, req)
	})

	s.AddTool(mcp.NewTool("space_feed",
		mcp.WithDescription(feedDescription),
		mcp.WithString("space_id",
			mcp.Description("Id of a leaf space."),
			mcp.Required(),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max items (default 20)"),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleFeed(ctx, svc, req)
	})

	s.AddTool(mcp.NewTool("comment_post",
		mcp.WithDescription(commentDescription),
		mcp.WithString("kind",
			mcp.Description("Target kind."),
			mcp.Required(),
			mcp.Enum(validKinds...),
		),
		mcp.WithString("id",
			mcp.Description("Target id."),
			mcp.Required(),
		),
		mcp.WithString("text",
			mcp.Description("Comment text."),
			mcp.Required(),
		),
		mcp.WithString("space_id",
			mcp.Description("Space that holds the target."),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleComment(ctx, svc, req)
	})

	s.AddTool(mcp.NewTool("reaction_add",
		mcp.WithDescription(reactionDescription),
		mcp.WithString("kind",
			mcp.Description("Target kind."),
			mcp.Required(),
			mcp.Enum(validKinds...),
		),
		mcp.WithString("id",
			mcp.Description("Target id."),
			mcp.Required(),
		),
		mcp.WithString("emoji",
			mcp.Description("One of the palette emojis."),
			mcp.Required(),
			mcp.Enum(svc.Config.UI.ReactionPalette...),
		),
		mcp.WithString("space_id",
			mcp.Description("Space that holds the target."),
			mcp.Required(),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleReaction(ctx, svc, req)
	})

	s.AddTool(mcp.NewTool("subscription_toggle",
		mcp.WithDescription("Subscribe to a space, or unsubscribe when already subscribed. Returns the new state."),
		mcp.WithString("space_id",
			mcp.Description("Id of a leaf space."),
			mcp.Required(),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := req.GetString("space_id", "")
		on, err := svc.ToggleSubscription(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(map[string]any{"space_id": id, "subscribed": on})
	})
}

// ---------------------------------------------------------------------------
// Tool handlers
// ---------------------------------------------------------------------------

func handleSpaces(ctx context.Context, svc *service.Service, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mode := spaces.Mode(req.GetString("mode", string(spaces.ModeAll)))
	if mode != spaces.ModeSubscribed {
		mode = spaces.ModeAll
	}
	list, err := svc.Spaces(ctx, mode)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rows := spaces.ExpandedRows(list)
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, map[string]any{
			"id":    row.Space.ID,
			"name":  row.Space.Name,
			"depth": row.Depth,
			"leaf":  row.Space.IsLeaf(),
		})
	}
	return jsonResult(map[string]any{"mode": mode, "spaces": out})
}

func handleFeed(ctx context.Context, svc *service.Service, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)
	if limit <= 0 {
		limit = 20
	}
	snap, err := svc.OpenSpace(ctx, req.GetString("space_id", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	items := snap.Feed
	if len(items) > limit {
		items = items[:limit]
	}
	clean := make([]map[string]any, 0, len(items))
	for _, it := range items {
		clean = append(clean, itemJSON(it, svc.Config.UI.MaxCommentDepth))
	}

	result := map[string]any{
		"space_id":   snap.Details.ID,
		"name":       snap.Details.Name,
		"subscribed": snap.IsSubscribed,
		"total":      len(snap.Feed),
		"showing":    len(clean),
		"items":      clean,
	}
	if snap.Err != nil {
		result["warning"] = "space details could not be loaded: " + snap.Err.Error()
	}
	return jsonResult(result)
}

func handleComment(ctx context.Context, svc *service.Service, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target, err := targetFrom(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := svc.Comment(ctx, req.GetString("space_id", ""), target, req.GetString("text", "")); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"kind": target.Kind, "id": target.ID, "action": "commented"})
}

func handleReaction(ctx context.Context, svc *service.Service, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target, err := targetFrom(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	emoji := req.GetString("emoji", "")
	if err := svc.React(ctx, req.GetString("space_id", ""), target, emoji); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"kind": target.Kind, "id": target.ID, "emoji": emoji, "action": "reacted"})
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func targetFrom(req mcp.CallToolRequest) (models.Target, error) {
	kind, ok := models.ParseKind(req.GetString("kind", ""))
	if !ok {
		return models.Target{}, fmt.Errorf("kind must be one of %v", validKinds)
	}
	id := req.GetString("id", "")
	if id == "" {
		return models.Target{}, fmt.Errorf("id is required")
	}
	return models.Target{Kind: kind, ID: id}, nil
}

func itemJSON(it feed.Item, maxDepth int) map[string]any {
	reactions := make(map[string]int)
	for _, rc := range thread.GroupReactions(it.Reactions()) {
		reactions[rc.Emoji] = rc.Count
	}
	out := map[string]any{
		"kind":       it.Kind,
		"id":         it.ID,
		"title":      it.Title(),
		"author":     it.Author().Name("User"),
		"created_at": it.CreatedAt,
		"reactions":  reactions,
		"comments":   commentsJSON(it.Comments(), maxDepth),
	}
	switch {
	case it.Flashcard != nil:
		out["summary"] = it.Flashcard.ShortDescription
		out["body"] = it.Flashcard.LongDescription
	case it.Article != nil:
		out["body"] = it.Article.Text
	case it.Alert != nil && it.Alert.Space != nil:
		out["body"] = it.Author().Name("User") + " joined " + it.Alert.Space.Name
	}
	return out
}

func commentsJSON(comments []*models.Comment, maxDepth int) []map[string]any {
	out := make([]map[string]any, 0)
	thread.Walk(comments, maxDepth, func(n thread.Node) {
		out = append(out, map[string]any{
			"id":          n.Comment.ID,
			"level":       n.Level,
			"author":      n.Comment.Author.Name("User"),
			"text":        n.Comment.Text,
			"can_reply":   n.Interactive,
			"reply_count": len(n.Comment.Replies),
		})
	})
	return out
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
