// Package tree holds the item-tree reconciliation core: queries over a flat
// snapshot of a project's items, completion propagation, and reorder/reparent
// planning. Everything here operates on in-memory copies; the store applies
// the resulting writes.
package tree

import (
	"sort"

	"nestlist/internal/model"
)

// Find returns the item with the given id from the snapshot.
func Find(items []model.Item, id string) (model.Item, bool) {
	for _, it := range items {
		if it.ID == id {
			return it, true
		}
	}
	return model.Item{}, false
}

// ChildrenOf returns the items whose parent is parentID ("" selects roots),
// sorted in sibling order.
func ChildrenOf(items []model.Item, parentID string) []model.Item {
	var out []model.Item
	for _, it := range items {
		if it.Parent() == parentID {
			out = append(out, it)
		}
	}
	SortSiblings(out)
	return out
}

// SortSiblings orders a sibling group ascending by position; ties break by
// created_at then id so the order is stable across re-reads.
func SortSiblings(items []model.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// DescendantsOf collects every item reachable downward from id. The traversal
// keeps a seen set so corrupt data with a parent cycle cannot loop forever.
func DescendantsOf(items []model.Item, id string) []model.Item {
	seen := map[string]bool{id: true}
	var out []model.Item
	frontier := []string{id}
	for len(frontier) > 0 {
		next := frontier[:0:0]
		for _, it := range items {
			if seen[it.ID] || !seen[it.Parent()] {
				continue
			}
			seen[it.ID] = true
			out = append(out, it)
			next = append(next, it.ID)
		}
		frontier = next
	}
	return out
}

// AncestorChainOf walks parent pointers upward from id, yielding ancestors
// from immediate parent to root. A seen set guards against parent cycles.
func AncestorChainOf(items []model.Item, id string) []model.Item {
	it, ok := Find(items, id)
	if !ok {
		return nil
	}
	seen := map[string]bool{id: true}
	var out []model.Item
	for it.ParentID != nil {
		p, ok := Find(items, *it.ParentID)
		if !ok || seen[p.ID] {
			break
		}
		seen[p.ID] = true
		out = append(out, p)
		it = p
	}
	return out
}
