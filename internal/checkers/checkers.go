// Package checkers holds quicktest checkers shared by the stride tests.
package checkers

import (
	"encoding/json"
	"fmt"

	qt "github.com/frankban/quicktest"
	"github.com/yalp/jsonpath"
)

type jsonPathChecker struct {
	path string
}

// JSONPathEquals checks that the JSON document in got ([]byte or string)
// holds the wanted value at path. JSON numbers compare as float64.
//
//	c.Assert(data, checkers.JSONPathEquals("$.mcpServers.stride.command"), "stride")
func JSONPathEquals(path string) qt.Checker {
	return &jsonPathChecker{path: path}
}

func (c *jsonPathChecker) ArgNames() []string { return []string{"got", "want"} }

func (c *jsonPathChecker) Check(got any, args []any, note func(key string, value any)) error {
	var raw []byte
	switch v := got.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return qt.BadCheckf("got must be []byte or string, not %T", got)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	val, err := jsonpath.Read(doc, c.path)
	if err != nil {
		note("path", c.path)
		return fmt.Errorf("cannot read path: %w", err)
	}
	note("path", c.path)
	return qt.DeepEquals.Check(val, args, note)
}
