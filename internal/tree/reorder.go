package tree

import (
	"errors"

	"nestlist/internal/model"
)

// ErrWouldCycle rejects a move whose target is the moved item itself or one
// of its descendants; either would corrupt the forest (or is a no-op).
var ErrWouldCycle = errors.New("move would create a cycle")

// PositionWrite renumbers one sibling.
type PositionWrite struct {
	ID       string
	Position int
}

// ItemWrite is the write for the moved item itself.
type ItemWrite struct {
	ID       string
	ParentID *string // nil means root
	Position int
}

// MovePlan is the full set of writes realizing one drag-and-drop gesture.
// Target renumbers the sibling group the item lands in, Source closes the gap
// in the group it left (cross-parent moves only). Writes are issued in order
// Item, Target, Source; each is an independent row write.
type MovePlan struct {
	Item   ItemWrite
	Target []PositionWrite
	Source []PositionWrite
}

// Writes returns the total number of row writes the plan will issue.
func (p MovePlan) Writes() int { return 1 + len(p.Target) + len(p.Source) }

// PlanMove translates a drag gesture into position/parent writes. activeID is
// the dragged item, overID the drop target, makeChild nests active under over.
// The descendant set is re-derived from the snapshot on every call; the
// in-memory tree is never trusted to be acyclic without this check.
func PlanMove(items []model.Item, activeID, overID string, makeChild bool) (MovePlan, error) {
	var plan MovePlan
	active, ok := Find(items, activeID)
	if !ok {
		return plan, ErrItemNotFound
	}
	over, ok := Find(items, overID)
	if !ok {
		return plan, ErrItemNotFound
	}
	if overID == activeID {
		return plan, ErrWouldCycle
	}
	for _, d := range DescendantsOf(items, activeID) {
		if d.ID == overID {
			return plan, ErrWouldCycle
		}
	}

	if makeChild {
		// Append as the last child of over.
		kids := ChildrenOf(items, over.ID)
		if i := indexOf(kids, activeID); i >= 0 {
			// Already a child of over: move to the end of the group.
			kids = append(kids[:i], kids[i+1:]...)
			plan.Item = ItemWrite{ID: activeID, ParentID: &over.ID, Position: len(kids) + 1}
			plan.Source = renumber(kids, "")
			return plan, nil
		}
		plan.Item = ItemWrite{ID: activeID, ParentID: &over.ID, Position: len(kids) + 1}
		return plan, nil
	}

	if active.Parent() == over.Parent() {
		// Same sibling group: list-move and renumber 1..n.
		sibs := ChildrenOf(items, active.Parent())
		oldIdx, newIdx := -1, -1
		for i, s := range sibs {
			if s.ID == activeID {
				oldIdx = i
			}
			if s.ID == overID {
				newIdx = i
			}
		}
		if oldIdx < 0 || newIdx < 0 {
			return plan, ErrItemNotFound
		}
		moved := sibs[oldIdx]
		sibs = append(sibs[:oldIdx], sibs[oldIdx+1:]...)
		sibs = append(sibs[:newIdx], append([]model.Item{moved}, sibs[newIdx:]...)...)
		plan.Item = ItemWrite{ID: activeID, ParentID: active.ParentID, Position: indexOf(sibs, activeID) + 1}
		plan.Target = renumber(sibs, activeID)
		return plan, nil
	}

	// Cross-parent move: splice into over's group right after over, then
	// renumber both groups.
	target := ChildrenOf(items, over.Parent())
	at := indexOf(target, overID) + 1
	target = append(target[:at], append([]model.Item{active}, target[at:]...)...)
	plan.Item = ItemWrite{ID: activeID, ParentID: over.ParentID, Position: at + 1}
	plan.Target = renumber(target, activeID)

	source := ChildrenOf(items, active.Parent())
	for i, s := range source {
		if s.ID == activeID {
			source = append(source[:i], source[i+1:]...)
			break
		}
	}
	plan.Source = renumber(source, "")
	return plan, nil
}

func indexOf(items []model.Item, id string) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// renumber assigns position = index+1 across the ordered group, skipping the
// moved item (written separately) and items already at their final position.
func renumber(ordered []model.Item, skipID string) []PositionWrite {
	var out []PositionWrite
	for i, it := range ordered {
		if it.ID == skipID || it.Position == i+1 {
			continue
		}
		out = append(out, PositionWrite{ID: it.ID, Position: i + 1})
	}
	return out
}
