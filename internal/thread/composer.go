package thread

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/go-ports/stride/internal/api"
	"github.com/go-ports/stride/internal/models"
)

var (
	ErrEmptyText         = errors.New("comment text is empty")
	ErrAlreadyReacted    = errors.New("already reacted")
	ErrInteractionClosed = errors.New("thread is too deep to interact")
	ErrInFlight          = errors.New("a submission for this item is already in flight")
	errMissingEmoji      = errors.New("emoji is required")
	errUnsupportedTarget = errors.New("unsupported target")
)

// Poster sends comment and reaction mutations.
type Poster interface {
	CreateComment(ctx context.Context, req api.CommentRequest) error
	CreateReaction(ctx context.Context, req api.ReactionRequest) error
}

// RefreshFunc re-fetches whatever owns the thread after a mutation.
type RefreshFunc func(ctx context.Context) error

// Composer submits comments and reactions. Each target accepts one
// submission at a time, and every success waits for a refresh of the owner
// that started after its post. Overlapping refreshes are coalesced, but a
// mutation never settles for one that began before it landed.
type Composer struct {
	poster   Poster
	refresh  RefreshFunc
	maxDepth int

	mu       sync.Mutex
	inflight map[string]bool
	posted   uint64 // successful posts so far
	group    singleflight.Group
}

// NewComposer builds a Composer. refresh may be nil.
func NewComposer(poster Poster, refresh RefreshFunc, maxDepth int) *Composer {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Composer{
		poster:   poster,
		refresh:  refresh,
		maxDepth: maxDepth,
		inflight: make(map[string]bool),
	}
}

// Pending reports whether a submission for target is in flight.
func (c *Composer) Pending(target models.Target) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight[key(target)]
}

// Comment posts text on target. level is the target's own level: 0 for a
// content item, the comment level for a reply.
func (c *Composer) Comment(ctx context.Context, target models.Target, level int, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyText
	}
	if !CanInteract(level, c.maxDepth) {
		return ErrInteractionClosed
	}
	req, err := api.NewCommentRequest(target, text)
	if err != nil {
		return fmt.Errorf("thread.Comment: %w: %w", errUnsupportedTarget, err)
	}
	return c.submit(ctx, target, "comment", func(ctx context.Context) error {
		return c.poster.CreateComment(ctx, req)
	})
}

// React adds emoji to target on behalf of userID, unless that user already
// reacted. There is no undo.
func (c *Composer) React(ctx context.Context, target models.Target, level int, emoji string, existing []*models.Reaction, userID string) error {
	if strings.TrimSpace(emoji) == "" {
		return errMissingEmoji
	}
	if !CanInteract(level, c.maxDepth) {
		return ErrInteractionClosed
	}
	if HasReacted(existing, userID) {
		return ErrAlreadyReacted
	}
	req, err := api.NewReactionRequest(target, emoji)
	if err != nil {
		return fmt.Errorf("thread.React: %w: %w", errUnsupportedTarget, err)
	}
	return c.submit(ctx, target, "reaction", func(ctx context.Context) error {
		return c.poster.CreateReaction(ctx, req)
	})
}

func (c *Composer) submit(ctx context.Context, target models.Target, op string, post func(context.Context) error) error {
	k := key(target)
	c.mu.Lock()
	if c.inflight[k] {
		c.mu.Unlock()
		return ErrInFlight
	}
	c.inflight[k] = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.inflight, k)
		c.mu.Unlock()
	}()

	if err := post(ctx); err != nil {
		slog.Warn("thread: "+op+" failed", "kind", target.Kind, "id", target.ID, "err", err)
		return fmt.Errorf("thread.%s: %w", op, err)
	}

	c.mu.Lock()
	c.posted++
	seq := c.posted
	c.mu.Unlock()

	if c.refresh != nil {
		c.refreshSince(ctx, seq, op)
	}
	return nil
}

// refreshSince returns once a refresh that started with at least seq posts
// done has finished. Joining a flight that started earlier runs another.
func (c *Composer) refreshSince(ctx context.Context, seq uint64, op string) {
	for {
		v, err, shared := c.group.Do("refresh", func() (any, error) {
			c.mu.Lock()
			start := c.posted
			c.mu.Unlock()
			return start, c.refresh(ctx)
		})
		if start, _ := v.(uint64); start < seq {
			slog.Debug("thread: joined a refresh older than the "+op, "start", start, "seq", seq)
			continue
		}
		if err != nil {
			slog.Warn("thread: refresh after "+op, "err", err)
		}
		slog.Debug("thread: refreshed after "+op, "shared", shared)
		return
	}
}

func key(t models.Target) string { return string(t.Kind) + ":" + t.ID }
