package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// HomeSource says which setting picked the stride home.
type HomeSource string

const (
	HomeFromFlag    HomeSource = "flag"
	HomeFromEnv     HomeSource = "env"
	HomeFromPointer HomeSource = "pointer"
	HomeDefault     HomeSource = "default"
)

// pointerFile is the user-level file that remembers a stride home chosen
// with `stride config set-home`. It lives outside any home so it can point
// at one.
type pointerFile struct {
	StrideHome string `yaml:"stride_home"`
}

// PointerPath is where the persisted home pointer is kept:
// <user config dir>/stride/home.yaml.
func PointerPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config.PointerPath: %w", err)
	}
	return filepath.Join(dir, "stride", "home.yaml"), nil
}

// ResolveHome picks the stride home: STRIDE_HOME, then the persisted
// pointer, then ~/.stride. The --home flag is applied by the caller.
func ResolveHome() (string, HomeSource) {
	if env := strings.TrimSpace(os.Getenv(HomeEnv)); env != "" {
		if p, err := expandHome(env); err == nil {
			return p, HomeFromEnv
		}
		slog.Warn("config: ignoring unusable "+HomeEnv, "value", env)
	}

	p, ok, err := PersistedHome()
	if err != nil {
		slog.Warn("config: read home pointer", "err", err)
	}
	if ok {
		return p, HomeFromPointer
	}

	user, _ := os.UserHomeDir()
	return filepath.Join(user, ".stride"), HomeDefault
}

// GetHome returns the resolved stride home.
func GetHome() string {
	p, _ := ResolveHome()
	return p
}

// PersistedHome returns the home recorded by SetPersistedHome, if any.
func PersistedHome() (string, bool, error) {
	ptr, err := PointerPath()
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(ptr)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("config.PersistedHome: %w", err)
	}

	var pf pointerFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return "", false, fmt.Errorf("config.PersistedHome: parse %s: %w", ptr, err)
	}
	if strings.TrimSpace(pf.StrideHome) == "" {
		return "", false, nil
	}
	p, err := expandHome(pf.StrideHome)
	if err != nil {
		return "", false, err
	}
	return p, true, nil
}

// SetPersistedHome records path as the stride home and returns it expanded.
func SetPersistedHome(path string) (string, error) {
	p, err := expandHome(path)
	if err != nil {
		return "", err
	}
	ptr, err := PointerPath()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(ptr), 0o755); err != nil {
		return "", fmt.Errorf("config.SetPersistedHome: %w", err)
	}
	data, err := yaml.Marshal(pointerFile{StrideHome: p})
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(ptr, data, 0o600); err != nil {
		return "", fmt.Errorf("config.SetPersistedHome: %w", err)
	}
	return p, nil
}

// ClearPersistedHome deletes the pointer and reports whether one existed.
func ClearPersistedHome() (bool, error) {
	ptr, err := PointerPath()
	if err != nil {
		return false, err
	}
	err = os.Remove(ptr)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("config.ClearPersistedHome: %w", err)
	}
}

// expandHome resolves a leading ~ and environment references, then makes
// the result absolute.
func expandHome(path string) (string, error) {
	path = os.ExpandEnv(strings.TrimSpace(path))
	if path == "~" || strings.HasPrefix(path, "~/") {
		user, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(user, strings.TrimPrefix(path[1:], "/"))
	}
	return filepath.Abs(path)
}
