// Package service implements the Service orchestrator that wires together
// configuration, the token store, the API client, the session and the
// directory, feed and thread layers.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-ports/stride/internal/api"
	"github.com/go-ports/stride/internal/config"
	"github.com/go-ports/stride/internal/events"
	"github.com/go-ports/stride/internal/feed"
	"github.com/go-ports/stride/internal/markdown"
	"github.com/go-ports/stride/internal/models"
	"github.com/go-ports/stride/internal/session"
	"github.com/go-ports/stride/internal/spaces"
	"github.com/go-ports/stride/internal/thread"
	"github.com/go-ports/stride/internal/tokenstore"
)

var (
	// ErrTargetNotFound is returned when a comment or reaction target is not
	// part of the named space.
	ErrTargetNotFound = errors.New("target not found in space")
	// ErrUnknownEmoji is returned for reactions outside the configured palette.
	ErrUnknownEmoji = errors.New("emoji is not in the reaction palette")
	// ErrSpaceRequired is returned when a reaction names no space, so the
	// target's existing reactions cannot be checked.
	ErrSpaceRequired = errors.New("space id is required")
)

// Service orchestrates all hub operations for one stride home.
type Service struct {
	Home   string
	Config *config.StrideConfig

	Client    *api.Client
	Session   *session.Store
	Directory *spaces.Directory
	Feed      *feed.Aggregator
	Composer  *thread.Composer

	bus    *events.Bus
	tokens *tokenstore.Store
}

// New initialises a Service rooted at home.
// If home is empty it is resolved via config.GetHome.
func New(home string) (*Service, error) {
	if home == "" {
		home = config.GetHome()
	}
	cfg, err := config.Load(filepath.Join(home, "config.yaml"))
	if err != nil {
		return nil, fmt.Errorf("service.New: load config: %w", err)
	}
	return NewWithConfig(home, cfg)
}

// NewWithConfig initialises a Service rooted at home using cfg as is.
func NewWithConfig(home string, cfg *config.StrideConfig) (*Service, error) {
	if err := os.MkdirAll(home, 0o700); err != nil {
		return nil, fmt.Errorf("service.New: create home: %w", err)
	}
	tokens, err := tokenstore.Open(filepath.Join(home, "session.db"), cfg.Session.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("service.New: open token store: %w", err)
	}

	bus := events.New()
	client := api.New(cfg.API.BaseURL, cfg.API.Timeout, bus)
	sess := session.New(client, tokens, bus)
	agg := feed.New(client, bus)

	return &Service{
		Home:      home,
		Config:    cfg,
		Client:    client,
		Session:   sess,
		Directory: spaces.New(client, sess, bus),
		Feed:      agg,
		Composer:  thread.NewComposer(client, agg.Refresh, cfg.UI.MaxCommentDepth),
		bus:       bus,
		tokens:    tokens,
	}, nil
}

// Close detaches every layer from the bus and releases the token store.
func (s *Service) Close() error {
	s.Directory.Close()
	s.Session.Close()
	return s.tokens.Close()
}

// Bus returns the event bus shared by every layer.
func (s *Service) Bus() *events.Bus { return s.bus }

// Start restores the persisted session. It is safe to call more than once.
func (s *Service) Start(ctx context.Context) session.Snapshot {
	s.Session.Init(ctx)
	return s.Session.Snapshot()
}

// ---------------------------------------------------------------------------
// Session
// ---------------------------------------------------------------------------

// Login authenticates and persists the token.
func (s *Service) Login(ctx context.Context, usernameOrEmail, password string) (*models.User, error) {
	s.Start(ctx)
	if !s.Session.Login(ctx, usernameOrEmail, password) {
		return nil, s.Session.Snapshot().Err
	}
	return s.Session.Snapshot().User, nil
}

// Register creates an account and logs it in.
func (s *Service) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	s.Start(ctx)
	if !s.Session.Register(ctx, username, email, password) {
		return nil, s.Session.Snapshot().Err
	}
	return s.Session.Snapshot().User, nil
}

// Logout clears the local session and notifies the backend.
func (s *Service) Logout(ctx context.Context) {
	s.Start(ctx)
	s.Session.Logout(ctx)
}

// Whoami returns the logged-in user.
func (s *Service) Whoami(ctx context.Context) (*models.User, error) {
	s.Start(ctx)
	return s.Session.RequireUser(ctx)
}

// TokenExpiry reports when the persisted token stops being restored.
func (s *Service) TokenExpiry() (time.Time, bool, error) {
	return s.tokens.Expiry()
}

// ---------------------------------------------------------------------------
// Spaces
// ---------------------------------------------------------------------------

// Spaces returns the hierarchy for mode.
func (s *Service) Spaces(ctx context.Context, mode spaces.Mode) ([]*models.Space, error) {
	s.Start(ctx)
	if err := s.Directory.SetMode(ctx, mode); err != nil {
		return nil, err
	}
	snap := s.Directory.Snapshot()
	if snap.Err != nil {
		return nil, snap.Err
	}
	return snap.Spaces, nil
}

// SpaceTitles returns the flat list of every space.
func (s *Service) SpaceTitles(ctx context.Context) ([]*models.Space, error) {
	if _, err := s.Whoami(ctx); err != nil {
		return nil, err
	}
	return s.Client.SpaceTitles(ctx)
}

// OpenSpace selects the space with id and returns its feed. A detail fetch
// failure still returns the fallback snapshot, with the error in
// Snapshot.Err.
func (s *Service) OpenSpace(ctx context.Context, id string) (feed.Snapshot, error) {
	if _, err := s.Whoami(ctx); err != nil {
		return feed.Snapshot{}, err
	}
	if cur := s.Feed.Snapshot(); cur.Space != nil && cur.Space.ID == id {
		if err := s.Feed.Refresh(ctx); err != nil {
			return feed.Snapshot{}, err
		}
		return s.Feed.Snapshot(), nil
	}

	space := s.lookup(ctx, id)
	if !space.IsLeaf() {
		return feed.Snapshot{}, fmt.Errorf("service.OpenSpace: %q has child spaces and cannot be opened", id)
	}
	if err := s.Feed.SelectSpace(ctx, space); err != nil {
		return feed.Snapshot{}, err
	}
	return s.Feed.Snapshot(), nil
}

// lookup finds id in the directory, loading it on first use. Unknown ids are
// opened as bare leaves so the backend decides whether they exist.
func (s *Service) lookup(ctx context.Context, id string) *models.Space {
	if found := s.Directory.Find(id); found != nil {
		return found
	}
	if !s.Directory.Snapshot().Loaded {
		if err := s.Directory.Refresh(ctx); err != nil {
			slog.Debug("service: load directory for lookup", "err", err)
		}
		if found := s.Directory.Find(id); found != nil {
			return found
		}
	}
	return &models.Space{ID: id, Name: id}
}

// ToggleSubscription flips the subscription to spaceID and returns the new
// state.
func (s *Service) ToggleSubscription(ctx context.Context, spaceID string) (bool, error) {
	if _, err := s.OpenSpace(ctx, spaceID); err != nil {
		return false, err
	}
	if err := s.Feed.ToggleSubscription(ctx); err != nil {
		return false, err
	}
	return s.Feed.Snapshot().IsSubscribed, nil
}

// ExportFeed writes the markdown export of spaceID into dir.
func (s *Service) ExportFeed(ctx context.Context, spaceID, dir string) (string, error) {
	snap, err := s.OpenSpace(ctx, spaceID)
	if err != nil {
		return "", err
	}
	return markdown.WriteFeed(dir, snap.Details, snap.Feed, snap.IsSubscribed, time.Now())
}

// ---------------------------------------------------------------------------
// Interactions
// ---------------------------------------------------------------------------

// Comment posts text on target. When spaceID is set the target must be part
// of that space's feed, and replies are checked against the depth limit.
func (s *Service) Comment(ctx context.Context, spaceID string, target models.Target, text string) error {
	if _, err := s.Whoami(ctx); err != nil {
		return err
	}
	level := defaultLevel(target)
	if spaceID != "" {
		loc, err := s.locateIn(ctx, spaceID, target)
		if err != nil {
			return err
		}
		level = loc.level
	}
	return s.Composer.Comment(ctx, target, level, text)
}

// React adds emoji to target, which must be part of spaceID's feed. A second
// reaction by the same user is refused.
func (s *Service) React(ctx context.Context, spaceID string, target models.Target, emoji string) error {
	user, err := s.Whoami(ctx)
	if err != nil {
		return err
	}
	if !s.inPalette(emoji) {
		return fmt.Errorf("service.React: %w: %q", ErrUnknownEmoji, emoji)
	}
	if spaceID == "" {
		return fmt.Errorf("service.React: %w", ErrSpaceRequired)
	}
	loc, err := s.locateIn(ctx, spaceID, target)
	if err != nil {
		return err
	}
	return s.Composer.React(ctx, target, loc.level, emoji, loc.reactions, user.ID)
}

func (s *Service) inPalette(emoji string) bool {
	for _, e := range s.Config.UI.ReactionPalette {
		if e == emoji {
			return true
		}
	}
	return false
}

func (s *Service) locateIn(ctx context.Context, spaceID string, target models.Target) (location, error) {
	snap, err := s.OpenSpace(ctx, spaceID)
	if err != nil {
		return location{}, err
	}
	loc, ok := locate(snap.Feed, target)
	if !ok {
		return location{}, fmt.Errorf("service: %w: %s %s", ErrTargetNotFound, target.Kind, target.ID)
	}
	return loc, nil
}

// Raw performs an authenticated GET on an arbitrary API path.
func (s *Service) Raw(ctx context.Context, path string) (any, error) {
	s.Start(ctx)
	return s.Client.Raw(ctx, path)
}

// ---------------------------------------------------------------------------
// Internal helpers
// ---------------------------------------------------------------------------

// location is where a target sits in a feed.
type location struct {
	level     int
	reactions []*models.Reaction
}

// defaultLevel is the level assumed for a target that cannot be located:
// content items sit at 0 and comments are treated as top-level.
func defaultLevel(t models.Target) int {
	if t.Kind == models.KindComment {
		return 1
	}
	return 0
}

// locate finds target among the items and their comment threads.
func locate(items []feed.Item, target models.Target) (location, bool) {
	for _, it := range items {
		if target.Kind != models.KindComment {
			if it.Kind == target.Kind && it.ID == target.ID {
				return location{level: 0, reactions: it.Reactions()}, true
			}
			continue
		}
		var found *location
		thread.Walk(it.Comments(), 0, func(n thread.Node) {
			if found == nil && n.Comment.ID == target.ID {
				found = &location{level: n.Level, reactions: n.Comment.Reactions}
			}
		})
		if found != nil {
			return *found, true
		}
	}
	return location{}, false
}
