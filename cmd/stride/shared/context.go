// Package shared holds the context passed to all CLI commands.
package shared

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-ports/stride/internal/config"
	"github.com/go-ports/stride/internal/models"
	"github.com/go-ports/stride/internal/service"
)

// Context carries global CLI state (flags set on the root command).
type Context struct {
	// Home overrides the stride home directory.
	// When empty, resolution falls through to STRIDE_HOME env var → persisted config → ~/.stride.
	Home string
	// APIURL overrides api.base_url and STRIDE_API_BASE_URL.
	APIURL string
	// Verbose switches logging to debug level.
	Verbose bool
}

// ResolveHome returns the home directory in effect and where it came from.
func (c *Context) ResolveHome() (string, config.HomeSource) {
	if c.Home != "" {
		return c.Home, config.HomeFromFlag
	}
	return config.ResolveHome()
}

// LoadConfig reads the per-home config and applies the --api-url flag.
func (c *Context) LoadConfig() (*config.StrideConfig, string, error) {
	home, _ := c.ResolveHome()
	cfg, err := config.Load(filepath.Join(home, "config.yaml"))
	if err != nil {
		return nil, "", err
	}
	if c.APIURL != "" {
		cfg.API.BaseURL = strings.TrimRight(c.APIURL, "/")
	}
	return cfg, home, nil
}

// OpenService builds the service for the resolved home.
func (c *Context) OpenService() (*service.Service, error) {
	cfg, home, err := c.LoadConfig()
	if err != nil {
		return nil, err
	}
	return service.NewWithConfig(home, cfg)
}

// ParseTarget converts the <kind> <id> arguments of comment and react.
func ParseTarget(kind, id string) (models.Target, error) {
	k, ok := models.ParseKind(kind)
	if !ok {
		return models.Target{}, fmt.Errorf("unknown kind %q (want flashcard, article, alert or comment)", kind)
	}
	if strings.TrimSpace(id) == "" {
		return models.Target{}, fmt.Errorf("target id is required")
	}
	return models.Target{Kind: k, ID: id}, nil
}
