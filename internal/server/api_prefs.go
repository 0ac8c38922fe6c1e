package server

import (
	"net/http"

	"nestlist/internal/model"
)

func (a *API) handleGetPrefs(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeError(w, 400, "bad id")
		return
	}
	u, _, ok := a.projectForUser(w, r, id)
	if !ok {
		return
	}
	p, err := a.store.GetPrefs(r.Context(), u.ID, id)
	if err != nil {
		a.log.Error("get prefs", "err", err)
		writeError(w, 500, "internal error")
		return
	}
	writeJSON(w, 200, p)
}

func (a *API) handleSavePrefs(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeError(w, 400, "bad id")
		return
	}
	u, _, ok := a.projectForUser(w, r, id)
	if !ok {
		return
	}
	var p model.ProjectPrefs
	if err := readJSON(w, r, &p); err != nil {
		writeError(w, 400, "invalid payload")
		return
	}
	if err := a.store.SavePrefs(r.Context(), u.ID, id, p); err != nil {
		a.log.Error("save prefs", "err", err)
		writeError(w, 500, "internal error")
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true})
}
