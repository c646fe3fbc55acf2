// Package tree provides read-only operations over extensive-form game trees.
// Callers pass trees that have been through the validator; the functions do
// not re-check structural invariants beyond what they need to stay safe.
package tree

import (
	"fmt"

	"github.com/helmcode/gamemodel-ai/pkg/model"
)

// Visitor is called for every node in pre-order. Returning false skips the
// node's subtree.
type Visitor func(path string, n *model.GameNode, depth int) bool

// Walk visits root and its descendants in pre-order. Paths use the same
// notation as validator violations, rooted at "game_tree".
func Walk(root *model.GameNode, fn Visitor) {
	walk(root, "game_tree", 0, fn)
}

func walk(n *model.GameNode, path string, depth int, fn Visitor) {
	if n == nil || !fn(path, n, depth) {
		return
	}
	for i := range n.Actions {
		walk(n.Actions[i].NextNode, fmt.Sprintf("%s.actions[%d].next_node", path, i), depth+1, fn)
	}
}

// Depth returns the largest number of moves from root to any leaf.
// A lone terminal has depth 0; a nil tree has depth 0.
func Depth(root *model.GameNode) int {
	deepest := 0
	Walk(root, func(_ string, _ *model.GameNode, depth int) bool {
		if depth > deepest {
			deepest = depth
		}
		return true
	})
	return deepest
}

// Size returns the number of nodes in the tree.
func Size(root *model.GameNode) int {
	n := 0
	Walk(root, func(string, *model.GameNode, int) bool {
		n++
		return true
	})
	return n
}

// Terminals returns the leaves of the tree in pre-order.
func Terminals(root *model.GameNode) []*model.GameNode {
	var out []*model.GameNode
	Walk(root, func(_ string, n *model.GameNode, _ int) bool {
		if n.IsTerminal {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Find returns the node with the given id, or nil.
func Find(root *model.GameNode, id string) *model.GameNode {
	var found *model.GameNode
	Walk(root, func(_ string, n *model.GameNode, _ int) bool {
		if found != nil {
			return false
		}
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}
