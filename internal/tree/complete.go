package tree

import (
	"context"
	"errors"

	"nestlist/internal/model"
)

var (
	ErrItemNotFound = errors.New("item not found")
	ErrNotChecklist = errors.New("item is not a checklist")
)

// CascadeChoice is the caller's answer when checking an item that still has
// incomplete checklist descendants.
type CascadeChoice string

const (
	// CascadeNone means the caller has not decided yet; a descendant conflict
	// yields NeedsConfirmation instead of writes.
	CascadeNone CascadeChoice = ""
	// CascadeSelf completes only the toggled item.
	CascadeSelf CascadeChoice = "self"
	// CascadeAll completes the toggled item and every descendant.
	CascadeAll CascadeChoice = "all"
)

// ChildReader provides a fresh read of an item's direct children. Ancestor
// propagation re-reads each level rather than trusting the snapshot, since a
// concurrent edit may have changed siblings.
type ChildReader interface {
	ChildrenOf(ctx context.Context, itemID string) ([]model.Item, error)
}

// CompletionWriter applies one batched completion update.
type CompletionWriter interface {
	SetCompleted(ctx context.Context, ids []string, completed bool) error
}

// ToggleResult reports what a toggle did. Applied lists the ids whose writes
// were confirmed, in write order; on a mid-sequence error it is the confirmed
// prefix, so callers can see exactly which rows are in the new state.
type ToggleResult struct {
	NeedsConfirmation     bool
	IncompleteDescendants int
	Applied               []string
}

// CompletionEngine maintains the checklist completion convention: checking an
// item may bubble completion up to checklist ancestors, unchecking pulls the
// contiguous completed ancestor chain back down with it.
type CompletionEngine struct {
	children ChildReader
	writes   CompletionWriter
}

func NewCompletionEngine(r ChildReader, w CompletionWriter) *CompletionEngine {
	return &CompletionEngine{children: r, writes: w}
}

// Toggle moves item itemID to the given completion state. items is the
// current snapshot of the whole project. No write sequence is transactional;
// a failed write aborts the remaining steps and the error is returned along
// with the ids already written.
func (e *CompletionEngine) Toggle(ctx context.Context, items []model.Item, itemID string, completed bool, cascade CascadeChoice) (ToggleResult, error) {
	var res ToggleResult
	it, ok := Find(items, itemID)
	if !ok {
		return res, ErrItemNotFound
	}
	if !it.IsChecklist {
		return res, ErrNotChecklist
	}

	if !completed {
		// Uncheck pulls down the maximal contiguous run of completed
		// checklist ancestors and never completes anything.
		ids := []string{itemID}
		for _, anc := range AncestorChainOf(items, itemID) {
			if !anc.IsChecklist || !anc.Completed() {
				break
			}
			ids = append(ids, anc.ID)
		}
		if err := e.writes.SetCompleted(ctx, ids, false); err != nil {
			return res, err
		}
		res.Applied = ids
		return res, nil
	}

	if cascade == CascadeNone {
		n := 0
		for _, d := range DescendantsOf(items, itemID) {
			if d.IsChecklist && !d.Completed() {
				n++
			}
		}
		if n > 0 {
			res.NeedsConfirmation = true
			res.IncompleteDescendants = n
			return res, nil
		}
	}

	ids := []string{itemID}
	if cascade == CascadeAll {
		for _, d := range DescendantsOf(items, itemID) {
			if d.IsChecklist {
				ids = append(ids, d.ID)
			}
		}
	}
	if err := e.writes.SetCompleted(ctx, ids, true); err != nil {
		return res, err
	}
	res.Applied = ids

	// Ancestor propagation: complete each parent whose checklist children are
	// now all complete, bubbling as far as the condition holds.
	for _, p := range AncestorChainOf(items, itemID) {
		if !p.IsChecklist || p.Completed() {
			break
		}
		kids, err := e.children.ChildrenOf(ctx, p.ID)
		if err != nil {
			return res, err
		}
		nChecklist := 0
		allDone := true
		for _, k := range kids {
			if !k.IsChecklist {
				continue
			}
			nChecklist++
			if !k.Completed() {
				allDone = false
			}
		}
		// A parent with zero checklist children is never auto-completed.
		if nChecklist == 0 || !allDone {
			break
		}
		if err := e.writes.SetCompleted(ctx, []string{p.ID}, true); err != nil {
			return res, err
		}
		res.Applied = append(res.Applied, p.ID)
	}
	return res, nil
}
