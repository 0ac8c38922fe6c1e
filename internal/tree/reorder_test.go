package tree

import (
	"errors"
	"testing"

	"nestlist/internal/model"
)

// applyPlan replays a plan onto a snapshot so tests can assert on the final
// tree the store would produce.
func applyPlan(items []model.Item, plan MovePlan) []model.Item {
	out := make([]model.Item, len(items))
	copy(out, items)
	for i := range out {
		if out[i].ID == plan.Item.ID {
			out[i].ParentID = plan.Item.ParentID
			out[i].Position = plan.Item.Position
		}
	}
	apply := func(ws []PositionWrite) {
		for _, w := range ws {
			for i := range out {
				if out[i].ID == w.ID {
					out[i].Position = w.Position
				}
			}
		}
	}
	apply(plan.Target)
	apply(plan.Source)
	return out
}

func assertPositions(t *testing.T, items []model.Item, parent string, want ...string) {
	t.Helper()
	kids := ChildrenOf(items, parent)
	sameIDs(t, kids, want...)
	for i, k := range kids {
		if k.Position != i+1 {
			t.Fatalf("%s position = %d, want %d", k.ID, k.Position, i+1)
		}
	}
}

func TestPlanMoveRejectsSelfAndDescendants(t *testing.T) {
	items := []model.Item{
		itm("a", "", 1), itm("a1", "a", 1), itm("a1x", "a1", 1), itm("b", "", 2),
	}
	for _, target := range []string{"a", "a1", "a1x"} {
		_, err := PlanMove(items, "a", target, false)
		if !errors.Is(err, ErrWouldCycle) {
			t.Fatalf("target %s: err = %v, want ErrWouldCycle", target, err)
		}
	}
	// Nesting under a descendant is just as illegal.
	if _, err := PlanMove(items, "a", "a1x", true); !errors.Is(err, ErrWouldCycle) {
		t.Fatalf("err = %v, want ErrWouldCycle", err)
	}
}

func TestPlanMoveUnknownItems(t *testing.T) {
	items := []model.Item{itm("a", "", 1)}
	if _, err := PlanMove(items, "ghost", "a", false); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("err = %v", err)
	}
	if _, err := PlanMove(items, "a", "ghost", false); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestPlanMoveNestAppendsAsLastChild(t *testing.T) {
	items := []model.Item{
		itm("x", "", 1),
		itm("y", "", 2),
		itm("y1", "y", 1), itm("y2", "y", 2),
	}
	plan, err := PlanMove(items, "x", "y", true)
	if err != nil {
		t.Fatal(err)
	}
	if plan.Item.ParentID == nil || *plan.Item.ParentID != "y" {
		t.Fatalf("parent = %v, want y", plan.Item.ParentID)
	}
	if plan.Item.Position != 3 {
		t.Fatalf("position = %d, want 3", plan.Item.Position)
	}
	if len(plan.Target) != 0 || len(plan.Source) != 0 {
		t.Fatal("nest must leave existing children untouched")
	}
	assertPositions(t, applyPlan(items, plan), "y", "y1", "y2", "x")
}

func TestPlanMoveNestUnderCurrentParentMovesToEnd(t *testing.T) {
	items := []model.Item{
		itm("y", "", 1),
		itm("y1", "y", 1), itm("y2", "y", 2), itm("y3", "y", 3),
	}
	plan, err := PlanMove(items, "y1", "y", true)
	if err != nil {
		t.Fatal(err)
	}
	assertPositions(t, applyPlan(items, plan), "y", "y2", "y3", "y1")
}

func TestPlanMoveSameGroupReorder(t *testing.T) {
	items := []model.Item{
		itm("a", "", 1), itm("b", "", 2), itm("c", "", 3), itm("d", "", 4),
	}
	// Drag a onto c: a slots into c's place.
	plan, err := PlanMove(items, "a", "c", false)
	if err != nil {
		t.Fatal(err)
	}
	assertPositions(t, applyPlan(items, plan), "", "b", "c", "a", "d")
}

func TestPlanMoveSameGroupRepairsGaps(t *testing.T) {
	// Positions with gaps left by deletes: a successful reorder renumbers
	// the whole group to exactly 1..n.
	items := []model.Item{
		itm("a", "", 2), itm("b", "", 5), itm("c", "", 9),
	}
	plan, err := PlanMove(items, "c", "a", false)
	if err != nil {
		t.Fatal(err)
	}
	assertPositions(t, applyPlan(items, plan), "", "c", "a", "b")
}

func TestPlanMoveCrossParent(t *testing.T) {
	items := []model.Item{
		itm("p", "", 1),
		itm("p1", "p", 1), itm("p2", "p", 2), itm("p3", "p", 3),
		itm("q", "", 2),
		itm("q1", "q", 1), itm("q2", "q", 2),
	}
	// Drag p2 onto q1 (no nest modifier): p2 joins q's children after q1.
	plan, err := PlanMove(items, "p2", "q1", false)
	if err != nil {
		t.Fatal(err)
	}
	if plan.Item.ParentID == nil || *plan.Item.ParentID != "q" {
		t.Fatalf("parent = %v, want q", plan.Item.ParentID)
	}
	after := applyPlan(items, plan)
	assertPositions(t, after, "q", "q1", "p2", "q2")
	assertPositions(t, after, "p", "p1", "p3")
}

func TestPlanMoveCrossParentToRoot(t *testing.T) {
	items := []model.Item{
		itm("p", "", 1),
		itm("p1", "p", 1),
		itm("r", "", 2),
	}
	plan, err := PlanMove(items, "p1", "r", false)
	if err != nil {
		t.Fatal(err)
	}
	if plan.Item.ParentID != nil {
		t.Fatalf("parent = %v, want root", *plan.Item.ParentID)
	}
	after := applyPlan(items, plan)
	assertPositions(t, after, "", "p", "r", "p1")
}

func TestPlanMoveSkipsUnchangedPositions(t *testing.T) {
	items := []model.Item{
		itm("a", "", 1), itm("b", "", 2), itm("c", "", 3),
	}
	// Moving c before a displaces everyone, but a write is only planned for
	// siblings whose position actually changes.
	plan, err := PlanMove(items, "c", "a", false)
	if err != nil {
		t.Fatal(err)
	}
	for _, w := range plan.Target {
		if w.ID == "c" {
			t.Fatal("moved item must not appear in the sibling batch")
		}
	}
	if plan.Writes() != 3 { // c itself, plus a and b shifting down
		t.Fatalf("writes = %d, want 3", plan.Writes())
	}
}
