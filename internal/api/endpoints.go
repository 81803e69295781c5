package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-ports/stride/internal/models"
)

// AuthResponse is returned by login and register.
type AuthResponse struct {
	User  models.User `json:"user" validate:"required"`
	Token string      `json:"token" validate:"required"`
}

type spacesResponse struct {
	Spaces []*models.Space `json:"spaces"`
}

type profileResponse struct {
	User *models.User `json:"user"`
}

// MessageResponse is the body of simple acknowledgement endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}

// ReactionRequest is the body of POST /content/reactions. Exactly one target
// id is set.
type ReactionRequest struct {
	Emoji       string `json:"emoji"`
	ArticleID   string `json:"articleId,omitempty"`
	FlashcardID string `json:"flashcardId,omitempty"`
	CommentID   string `json:"commentId,omitempty"`
	AlertID     string `json:"alertId,omitempty"`
}

// NewReactionRequest routes the target id into the field the backend expects.
func NewReactionRequest(target models.Target, emoji string) (ReactionRequest, error) {
	req := ReactionRequest{Emoji: emoji}
	switch target.Kind {
	case models.KindFlashcard:
		req.FlashcardID = target.ID
	case models.KindArticle:
		req.ArticleID = target.ID
	case models.KindAlert:
		req.AlertID = target.ID
	case models.KindComment:
		req.CommentID = target.ID
	default:
		return req, fmt.Errorf("api.NewReactionRequest: unknown kind %q", target.Kind)
	}
	return req, nil
}

// CommentRequest is the body of POST /content/comments.
type CommentRequest struct {
	Text        string `json:"text"`
	ParentID    string `json:"parentId,omitempty"`
	ArticleID   string `json:"articleId,omitempty"`
	FlashcardID string `json:"flashcardId,omitempty"`
	ContentType string `json:"contentType,omitempty"`
}

// NewCommentRequest routes the target id into the field the backend expects.
// Comments on alerts travel in articleId; replies carry only the parent id.
func NewCommentRequest(target models.Target, text string) (CommentRequest, error) {
	req := CommentRequest{Text: text, ContentType: string(target.Kind)}
	switch target.Kind {
	case models.KindFlashcard:
		req.FlashcardID = target.ID
	case models.KindArticle, models.KindAlert:
		req.ArticleID = target.ID
	case models.KindComment:
		req.ParentID = target.ID
	default:
		return req, fmt.Errorf("api.NewCommentRequest: unknown kind %q", target.Kind)
	}
	return req, nil
}

// ---------------------------------------------------------------------------
// Auth
// ---------------------------------------------------------------------------

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, usernameOrEmail, password string) (*AuthResponse, error) {
	body := map[string]string{"usernameOrEmail": usernameOrEmail, "password": password}
	return c.auth(ctx, "/auth/login", body)
}

// Register creates an account and returns its token.
func (c *Client) Register(ctx context.Context, username, email, password string) (*AuthResponse, error) {
	body := map[string]string{"username": username, "email": email, "password": password}
	return c.auth(ctx, "/auth/register", body)
}

func (c *Client) auth(ctx context.Context, path string, body any) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, path, nil, body, &out); err != nil {
		return nil, err
	}
	if err := models.Validate(&out); err != nil {
		return nil, fmt.Errorf("api.auth %s: %w", path, err)
	}
	return &out, nil
}

// Profile returns the user owning the current token.
func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var out profileResponse
	if err := c.doJSON(ctx, http.MethodGet, "/auth/profile", nil, nil, &out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, fmt.Errorf("api.Profile: %w: missing user", models.ErrInvalid)
	}
	if err := models.Validate(out.User); err != nil {
		return nil, fmt.Errorf("api.Profile: %w", err)
	}
	return out.User, nil
}

// Logout tells the backend to drop the session identified by token. Callers
// treat failure as non-fatal.
func (c *Client) Logout(ctx context.Context, token string) error {
	headers := map[string]string{"Authorization": "Bearer " + token}
	return c.doJSON(ctx, http.MethodPost, "/auth/logout", headers, struct{}{}, nil)
}

// ---------------------------------------------------------------------------
// Spaces
// ---------------------------------------------------------------------------

// SpaceTitles returns the flat list of all spaces.
func (c *Client) SpaceTitles(ctx context.Context) ([]*models.Space, error) {
	return c.spaces(ctx, "/spaces/titles")
}

// AllSpaces returns the full space hierarchy.
func (c *Client) AllSpaces(ctx context.Context) ([]*models.Space, error) {
	return c.spaces(ctx, "/spaces/all")
}

// SubscribedSpaces returns the flat list of spaces the user subscribes to.
func (c *Client) SubscribedSpaces(ctx context.Context) ([]*models.Space, error) {
	return c.spaces(ctx, "/spaces/subscribed")
}

// SubscribedHierarchy returns the subscribed spaces as a tree.
func (c *Client) SubscribedHierarchy(ctx context.Context) ([]*models.Space, error) {
	return c.spaces(ctx, "/spaces/subscribed-hierarchy")
}

func (c *Client) spaces(ctx context.Context, path string) ([]*models.Space, error) {
	var out spacesResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	if err := models.ValidateSpaces(out.Spaces); err != nil {
		return nil, fmt.Errorf("api.spaces %s: %w", path, err)
	}
	if out.Spaces == nil {
		out.Spaces = []*models.Space{}
	}
	return out.Spaces, nil
}

// SpaceDetails fetches the full record of one space. The backend may send the
// record bare or wrapped in {"space": ...}. Invalid content items are dropped.
func (c *Client) SpaceDetails(ctx context.Context, id string) (*models.SpaceDetails, error) {
	var raw json.RawMessage
	path := "/spaces/" + url.PathEscape(id)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &raw); err != nil {
		return nil, err
	}

	var envelope struct {
		Space json.RawMessage `json:"space"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Space) > 0 && !bytes.Equal(envelope.Space, []byte("null")) {
		raw = envelope.Space
	}

	var d models.SpaceDetails
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("api.SpaceDetails decode: %w", err)
	}
	dropped, err := models.NormalizeDetails(&d)
	if err != nil {
		return nil, fmt.Errorf("api.SpaceDetails: %w", err)
	}
	if dropped > 0 {
		slog.Warn("api: dropped invalid content items", "space", id, "dropped", dropped)
	}
	return &d, nil
}

// ToggleSubscription flips the user's subscription to a space.
func (c *Client) ToggleSubscription(ctx context.Context, spaceID string) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.doJSON(ctx, http.MethodPost, "/spaces/subscribe", nil, map[string]string{"spaceId": spaceID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ---------------------------------------------------------------------------
// Content
// ---------------------------------------------------------------------------

// CreateReaction adds an emoji reaction to a target.
func (c *Client) CreateReaction(ctx context.Context, req ReactionRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/content/reactions", nil, req, nil)
}

// CreateComment adds a comment or a reply.
func (c *Client) CreateComment(ctx context.Context, req CommentRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/content/comments", nil, req, nil)
}
