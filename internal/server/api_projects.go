package server

import (
	"net/http"
	"strings"
)

func (a *API) handleListProjects(w http.ResponseWriter, r *http.Request) {
	u, err := a.currentUser(r)
	if err != nil {
		writeError(w, 401, "unauthorized")
		return
	}
	projects, err := a.store.ProjectsByUser(r.Context(), u.ID)
	if err != nil {
		a.log.Error("list projects", "err", err)
		writeError(w, 500, "internal error")
		return
	}
	writeJSON(w, 200, projects)
}

func (a *API) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	u, err := a.currentUser(r)
	if err != nil {
		writeError(w, 401, "unauthorized")
		return
	}
	var req struct {
		Title       string  `json:"title"`
		Description *string `json:"description"`
	}
	if err := readJSON(w, r, &req); err != nil || strings.TrimSpace(req.Title) == "" {
		writeError(w, 400, "invalid payload")
		return
	}
	p, err := a.store.CreateProject(r.Context(), u.ID, strings.TrimSpace(req.Title), req.Description)
	if err != nil {
		a.log.Error("create project", "err", err)
		writeError(w, 500, "internal error")
		return
	}
	writeJSON(w, 201, p)
}

func (a *API) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeError(w, 400, "bad id")
		return
	}
	_, p, ok := a.projectForUser(w, r, id)
	if !ok {
		return
	}
	writeJSON(w, 200, p)
}

func (a *API) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeError(w, 400, "bad id")
		return
	}
	if _, _, ok := a.projectForUser(w, r, id); !ok {
		return
	}
	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, 400, "invalid payload")
		return
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		writeError(w, 400, "title cannot be empty")
		return
	}
	if err := a.store.UpdateProject(r.Context(), id, req.Title, req.Description); err != nil {
		a.log.Error("update project", "err", err)
		writeError(w, 500, "internal error")
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true})
	a.bus.Publish(Event{Type: "project.updated", Entity: "project", ProjectID: id})
}

func (a *API) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeError(w, 400, "bad id")
		return
	}
	if _, _, ok := a.projectForUser(w, r, id); !ok {
		return
	}
	// Collect uploaded file URLs before the rows cascade away.
	items, err := a.store.ItemsByProject(r.Context(), id, itemFilterFrom(nil))
	if err != nil {
		a.log.Error("delete project: load items", "err", err)
		writeError(w, 500, "internal error")
		return
	}
	var urls []string
	for _, it := range items {
		for _, att := range it.Attachments {
			if att.AttachmentType == "image" {
				urls = append(urls, att.URL)
			}
		}
	}
	if err := a.store.DeleteProject(r.Context(), id); err != nil {
		a.log.Error("delete project", "err", err)
		writeError(w, 500, "internal error")
		return
	}
	if err := a.blobs.Remove(urls); err != nil {
		a.log.Error("delete project: remove files", "err", err)
	}
	writeJSON(w, 200, map[string]any{"ok": true})
	a.bus.Publish(Event{Type: "project.deleted", Entity: "project", ProjectID: id})
}
