package spaces

import "github.com/go-ports/stride/internal/models"

// Row is one visible line of the navigation tree.
type Row struct {
	Space    *models.Space
	Depth    int
	Expanded bool
	Selected bool
}

// Navigator tracks which nodes are expanded and which leaf is selected.
// It is owned by a single UI goroutine and is not safe for concurrent use.
type Navigator struct {
	expanded map[string]bool
	selected string
}

// NewNavigator returns a navigator with everything collapsed.
func NewNavigator() *Navigator {
	return &Navigator{expanded: make(map[string]bool)}
}

// Toggle flips the expansion of one node. Siblings and ancestors keep their
// state.
func (n *Navigator) Toggle(id string) {
	if n.expanded[id] {
		delete(n.expanded, id)
		return
	}
	n.expanded[id] = true
}

// IsExpanded reports whether id is expanded.
func (n *Navigator) IsExpanded(id string) bool { return n.expanded[id] }

// Selected returns the id of the selected leaf, or "".
func (n *Navigator) Selected() string { return n.selected }

// Select handles a click on s. A node with children is toggled and nothing
// is opened. A leaf becomes the single selection and Select returns true so
// the caller fetches its details.
func (n *Navigator) Select(s *models.Space) bool {
	if s == nil {
		return false
	}
	if !s.IsLeaf() {
		n.Toggle(s.ID)
		return false
	}
	n.selected = s.ID
	return true
}

// Rows flattens the forest into the lines currently visible: roots always,
// children only under expanded nodes.
func (n *Navigator) Rows(list []*models.Space) []Row {
	var rows []Row
	var walk func([]*models.Space, int)
	walk = func(nodes []*models.Space, depth int) {
		for _, s := range nodes {
			open := n.expanded[s.ID]
			rows = append(rows, Row{Space: s, Depth: depth, Expanded: open, Selected: s.ID == n.selected})
			if open && !s.IsLeaf() {
				walk(s.Children, depth+1)
			}
		}
	}
	walk(list, 0)
	return rows
}

// ExpandedRows flattens the whole forest as if every node were expanded.
func ExpandedRows(list []*models.Space) []Row {
	var rows []Row
	var walk func([]*models.Space, int)
	walk = func(nodes []*models.Space, depth int) {
		for _, s := range nodes {
			rows = append(rows, Row{Space: s, Depth: depth, Expanded: !s.IsLeaf()})
			walk(s.Children, depth+1)
		}
	}
	walk(list, 0)
	return rows
}
