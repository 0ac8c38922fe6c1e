package server

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"nestlist/internal/store"
	"nestlist/internal/tree"
)

func itemFilterFrom(q url.Values) store.ItemFilter {
	if q == nil {
		return store.ItemFilter{}
	}
	return store.ItemFilter{
		Kind:   q.Get("filter"),
		State:  q.Get("state"),
		SortBy: q.Get("sort"),
		Desc:   q.Get("order") == "desc",
	}
}

func (a *API) handleListItems(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeError(w, 400, "bad id")
		return
	}
	if _, _, ok := a.projectForUser(w, r, id); !ok {
		return
	}
	items, err := a.store.ItemsByProject(r.Context(), id, itemFilterFrom(r.URL.Query()))
	if err != nil {
		a.log.Error("list items", "err", err)
		writeError(w, 500, "internal error")
		return
	}
	writeJSON(w, 200, items)
}

func (a *API) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	projectID, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeError(w, 400, "bad id")
		return
	}
	if _, _, ok := a.projectForUser(w, r, projectID); !ok {
		return
	}
	var req struct {
		Content     string  `json:"content"`
		IsChecklist bool    `json:"is_checklist"`
		ParentID    *string `json:"parent_id"`
	}
	if err := readJSON(w, r, &req); err != nil || strings.TrimSpace(req.Content) == "" {
		writeError(w, 400, "invalid payload")
		return
	}
	if req.ParentID != nil {
		parent, err := a.store.GetItem(r.Context(), *req.ParentID)
		if err != nil || parent.ProjectID != projectID {
			writeError(w, 400, "bad parent")
			return
		}
	}
	it, err := a.store.CreateItem(r.Context(), projectID, req.ParentID, strings.TrimSpace(req.Content), req.IsChecklist)
	if err != nil {
		a.log.Error("create item", "err", err)
		writeError(w, 500, "internal error")
		return
	}
	a.touchAndPublish(r, projectID, Event{Type: "item.created", Entity: "item", ProjectID: projectID, ItemID: &it.ID, Payload: it})
	writeJSON(w, 201, it)
}

func (a *API) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeError(w, 400, "bad id")
		return
	}
	_, projectID, ok := a.itemForUser(w, r, id)
	if !ok {
		return
	}
	var req struct {
		Content     *string `json:"content"`
		IsChecklist *bool   `json:"is_checklist"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, 400, "invalid payload")
		return
	}
	if req.Content != nil && strings.TrimSpace(*req.Content) == "" {
		writeError(w, 400, "content cannot be empty")
		return
	}
	if err := a.store.UpdateItem(r.Context(), id, req.Content, req.IsChecklist); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, 404, "not found")
			return
		}
		a.log.Error("update item", "err", err)
		writeError(w, 500, "internal error")
		return
	}
	a.touchAndPublish(r, projectID, Event{Type: "item.updated", Entity: "item", ProjectID: projectID, ItemID: &id})
	writeJSON(w, 200, map[string]any{"ok": true})
}

func (a *API) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeError(w, 400, "bad id")
		return
	}
	_, projectID, ok := a.itemForUser(w, r, id)
	if !ok {
		return
	}
	// Deleting an item takes its whole subtree, the subtree's attachment
	// rows, and their backing files.
	items, err := a.store.ItemsByProject(r.Context(), projectID, store.ItemFilter{})
	if err != nil {
		a.log.Error("delete item: load items", "err", err)
		writeError(w, 500, "internal error")
		return
	}
	ids := []string{id}
	for _, d := range tree.DescendantsOf(items, id) {
		ids = append(ids, d.ID)
	}
	atts, err := a.store.AttachmentsByItems(r.Context(), ids)
	if err != nil {
		a.log.Error("delete item: load attachments", "err", err)
		writeError(w, 500, "internal error")
		return
	}
	if err := a.store.DeleteItems(r.Context(), ids); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, 404, "not found")
			return
		}
		a.log.Error("delete item", "err", err)
		writeError(w, 500, "internal error")
		return
	}
	var urls []string
	for _, att := range atts {
		if att.AttachmentType == "image" {
			urls = append(urls, att.URL)
		}
	}
	if err := a.blobs.Remove(urls); err != nil {
		a.log.Error("delete item: remove files", "err", err)
	}
	a.touchAndPublish(r, projectID, Event{Type: "item.deleted", Entity: "item", ProjectID: projectID, ItemID: &id})
	writeJSON(w, 200, map[string]any{"ok": true, "deleted": len(ids)})
}

func (a *API) handleToggleItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeError(w, 400, "bad id")
		return
	}
	_, projectID, ok := a.itemForUser(w, r, id)
	if !ok {
		return
	}
	var req struct {
		Completed bool   `json:"completed"`
		Cascade   string `json:"cascade"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, 400, "invalid payload")
		return
	}
	cascade := tree.CascadeChoice(req.Cascade)
	switch cascade {
	case tree.CascadeNone, tree.CascadeSelf, tree.CascadeAll:
	default:
		writeError(w, 400, "bad cascade")
		return
	}
	items, err := a.store.ItemsByProject(r.Context(), projectID, store.ItemFilter{})
	if err != nil {
		a.log.Error("toggle: load items", "err", err)
		writeError(w, 500, "internal error")
		return
	}
	eng := tree.NewCompletionEngine(a.store, a.store)
	res, err := eng.Toggle(r.Context(), items, id, req.Completed, cascade)
	if err != nil {
		switch {
		case errors.Is(err, tree.ErrItemNotFound):
			writeError(w, 404, "not found")
		case errors.Is(err, tree.ErrNotChecklist):
			writeError(w, 400, "item is not a checklist")
		default:
			a.log.Error("toggle", "err", err)
			// A mid-sequence failure already committed some rows; tell the
			// caller which ones so the inconsistency is visible.
			writeJSON(w, 500, map[string]any{"ok": false, "error": "internal error", "applied": res.Applied})
		}
		return
	}
	if res.NeedsConfirmation {
		writeJSON(w, 409, map[string]any{
			"ok":                     false,
			"needs_confirmation":     true,
			"incomplete_descendants": res.IncompleteDescendants,
		})
		return
	}
	a.touchAndPublish(r, projectID, Event{Type: "item.toggled", Entity: "item", ProjectID: projectID, ItemID: &id, Payload: map[string]any{"applied": res.Applied, "completed": req.Completed}})
	writeJSON(w, 200, map[string]any{"ok": true, "applied": res.Applied})
}

func (a *API) handleMoveItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeError(w, 400, "bad id")
		return
	}
	_, projectID, ok := a.itemForUser(w, r, id)
	if !ok {
		return
	}
	var req struct {
		OverID    string `json:"over_id"`
		MakeChild bool   `json:"make_child"`
	}
	if err := readJSON(w, r, &req); err != nil || req.OverID == "" {
		writeError(w, 400, "invalid payload")
		return
	}
	items, err := a.store.ItemsByProject(r.Context(), projectID, store.ItemFilter{})
	if err != nil {
		a.log.Error("move: load items", "err", err)
		writeError(w, 500, "internal error")
		return
	}
	plan, err := tree.PlanMove(items, id, req.OverID, req.MakeChild)
	if err != nil {
		switch {
		case errors.Is(err, tree.ErrWouldCycle):
			writeError(w, 409, "move would create a cycle")
		case errors.Is(err, tree.ErrItemNotFound):
			writeError(w, 404, "not found")
		default:
			a.log.Error("move: plan", "err", err)
			writeError(w, 500, "internal error")
		}
		return
	}
	applied, err := a.store.ApplyMovePlan(r.Context(), plan)
	if err != nil {
		a.log.Error("move: apply", "err", err)
		writeJSON(w, 500, map[string]any{"ok": false, "error": "internal error", "applied_writes": applied, "planned_writes": plan.Writes()})
		return
	}
	a.touchAndPublish(r, projectID, Event{Type: "item.moved", Entity: "item", ProjectID: projectID, ItemID: &id, Payload: map[string]any{"over_id": req.OverID, "make_child": req.MakeChild}})
	writeJSON(w, 200, map[string]any{"ok": true})
}

// touchAndPublish bumps the project's updated_at and nudges subscribed tabs
// to re-read the item list.
func (a *API) touchAndPublish(r *http.Request, projectID string, ev Event) {
	if err := a.store.TouchProject(r.Context(), projectID); err != nil {
		a.log.Error("touch project", "err", err)
	}
	a.bus.Publish(ev)
}
