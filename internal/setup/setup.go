// Package setup registers and removes the stride MCP server in the config
// files of supported coding agents (Claude Code, Cursor, Codex, OpenCode).
package setup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ServerName is the key stride is registered under in agent configs.
const ServerName = "stride"

// Agent identifies a supported coding agent.
type Agent string

const (
	ClaudeCode Agent = "claude-code"
	Cursor     Agent = "cursor"
	Codex      Agent = "codex"
	Opencode   Agent = "opencode"
)

// Agents lists the supported agents in display order.
var Agents = []Agent{ClaudeCode, Cursor, Codex, Opencode}

// Options locates the agent config to edit.
type Options struct {
	// ConfigDir overrides the agent's config directory (e.g. ~/.cursor).
	ConfigDir string
	// Project targets the project-local config in WorkDir instead of the
	// user-wide one.
	Project bool
	// UserHome and WorkDir default to os.UserHomeDir and os.Getwd.
	UserHome string
	WorkDir  string
	// Binary is the command agents launch (default "stride").
	Binary string
}

func (o Options) withDefaults() Options {
	if o.UserHome == "" {
		o.UserHome, _ = os.UserHomeDir()
	}
	if o.WorkDir == "" {
		o.WorkDir, _ = os.Getwd()
	}
	if o.Binary == "" {
		o.Binary = "stride"
	}
	return o
}

// Result describes what Install or Uninstall changed.
type Result struct {
	Path    string
	Changed bool
	Message string
}

// ParseAgent maps a CLI name onto an Agent.
func ParseAgent(name string) (Agent, error) {
	for _, a := range Agents {
		if string(a) == strings.ToLower(name) {
			return a, nil
		}
	}
	return "", fmt.Errorf("setup: unknown agent %q (want one of %v)", name, Agents)
}

// ConfigPath returns the file that holds the MCP entry for agent.
func ConfigPath(agent Agent, o Options) string {
	o = o.withDefaults()
	dir := func(dot string) string {
		switch {
		case o.ConfigDir != "":
			return o.ConfigDir
		case o.Project:
			return filepath.Join(o.WorkDir, dot)
		default:
			return filepath.Join(o.UserHome, dot)
		}
	}
	switch agent {
	case ClaudeCode:
		if o.Project {
			return filepath.Join(o.WorkDir, ".mcp.json")
		}
		return filepath.Join(o.UserHome, ".claude.json")
	case Cursor:
		return filepath.Join(dir(".cursor"), "mcp.json")
	case Codex:
		return filepath.Join(dir(".codex"), "config.toml")
	default:
		if o.Project {
			return filepath.Join(o.WorkDir, "opencode.json")
		}
		return filepath.Join(o.UserHome, ".config", "opencode", "opencode.json")
	}
}

// Install adds the stride MCP server to agent's config. An existing entry is
// left untouched.
func Install(agent Agent, o Options) (Result, error) {
	o = o.withDefaults()
	path := ConfigPath(agent, o)

	var (
		changed bool
		err     error
	)
	switch agent {
	case Codex:
		changed, err = appendTOMLSection(path, o.Binary)
	case Opencode:
		changed, err = installJSONEntry(path, "mcp", map[string]any{
			"type":    "local",
			"command": []any{o.Binary, "mcp"},
		})
	default:
		changed, err = installJSONEntry(path, "mcpServers", map[string]any{
			"command": o.Binary,
			"args":    []any{"mcp"},
			"type":    "stdio",
		})
	}
	if err != nil {
		return Result{}, fmt.Errorf("setup.Install %s: %w", agent, err)
	}
	if !changed {
		return Result{Path: path, Message: "Already installed in " + path}, nil
	}
	return Result{Path: path, Changed: true, Message: "Installed MCP server in " + path}, nil
}

// Uninstall removes the stride MCP server from agent's config.
func Uninstall(agent Agent, o Options) (Result, error) {
	path := ConfigPath(agent, o)

	var (
		changed bool
		err     error
	)
	switch agent {
	case Codex:
		changed, err = removeTOMLSection(path)
	case Opencode:
		changed, err = removeJSONEntry(path, "mcp")
	default:
		changed, err = removeJSONEntry(path, "mcpServers")
	}
	if err != nil {
		return Result{}, fmt.Errorf("setup.Uninstall %s: %w", agent, err)
	}
	if !changed {
		return Result{Path: path, Message: "Nothing to remove"}, nil
	}
	return Result{Path: path, Changed: true, Message: "Removed MCP server from " + path}, nil
}

// ---------------------------------------------------------------------------
// JSON configs (Claude Code, Cursor, OpenCode)
// ---------------------------------------------------------------------------

func readJSON(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return make(map[string]any), nil
	}
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if m == nil {
		m = make(map[string]any)
	}
	return m, nil
}

func writeJSON(path string, data map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644) // #nosec G306 -- MCP server entries hold no secrets
}

func installJSONEntry(path, section string, entry map[string]any) (bool, error) {
	data, err := readJSON(path)
	if err != nil {
		return false, err
	}
	servers, _ := data[section].(map[string]any)
	if servers == nil {
		servers = make(map[string]any)
		data[section] = servers
	}
	if _, exists := servers[ServerName]; exists {
		return false, nil
	}
	servers[ServerName] = entry
	return true, writeJSON(path, data)
}

func removeJSONEntry(path, section string) (bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, nil
	}
	data, err := readJSON(path)
	if err != nil {
		return false, err
	}
	servers, _ := data[section].(map[string]any)
	if _, exists := servers[ServerName]; !exists {
		return false, nil
	}
	delete(servers, ServerName)
	if len(servers) == 0 {
		delete(data, section)
	}
	if len(data) == 0 {
		return true, os.Remove(path)
	}
	return true, writeJSON(path, data)
}

// ---------------------------------------------------------------------------
// TOML config (Codex); text-based, only handles the stride table
// ---------------------------------------------------------------------------

const tomlHeader = "[mcp_servers." + ServerName + "]"

func appendTOMLSection(path, binary string) (bool, error) {
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}
	if strings.Contains(string(existing), tomlHeader) {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return false, err
	}
	defer f.Close()
	_, err = fmt.Fprintf(f, "\n%s\ncommand = %q\nargs = [\"mcp\"]\n", tomlHeader, binary)
	return err == nil, err
}

func removeTOMLSection(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !strings.Contains(string(data), tomlHeader) {
		return false, nil
	}

	lines := strings.Split(string(data), "\n")
	kept := make([]string, 0, len(lines))
	inSection := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == tomlHeader {
			inSection = true
			continue
		}
		if inSection && strings.HasPrefix(trimmed, "[") {
			inSection = false
		}
		if !inSection {
			kept = append(kept, line)
		}
	}
	cleaned := strings.TrimRight(strings.Join(kept, "\n"), "\n") + "\n"
	return true, os.WriteFile(path, []byte(cleaned), 0o644) // #nosec G306 -- agent TOML config holds no secrets
}
