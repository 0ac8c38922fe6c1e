package server

import (
	"errors"
	"net/http"
	"strings"

	"nestlist/internal/model"
	"nestlist/internal/store"
)

func (a *API) handleUploadAttachment(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeError(w, 400, "bad id")
		return
	}
	_, projectID, ok := a.itemForUser(w, r, id)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, a.cfg.MaxUploadBytes+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, 400, "missing file")
		return
	}
	defer func() { _ = file.Close() }()

	url, err := a.blobs.Upload(header.Filename, file)
	if err != nil {
		a.log.Error("upload", "err", err)
		writeError(w, 400, "upload failed")
		return
	}
	att, err := a.store.CreateAttachment(r.Context(), id, model.AttachmentImage, url, nil)
	if err != nil {
		a.log.Error("create attachment", "err", err)
		_ = a.blobs.Remove([]string{url})
		writeError(w, 500, "internal error")
		return
	}
	a.touchAndPublish(r, projectID, Event{Type: "attachment.created", Entity: "attachment", ProjectID: projectID, ItemID: &id, Payload: att})
	writeJSON(w, 201, att)
}

func (a *API) handleAddURLAttachment(w http.ResponseWriter, r *http.Request) {
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
		URL   string  `json:"url"`
		Label *string `json:"label"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, 400, "invalid payload")
		return
	}
	u := strings.TrimSpace(req.URL)
	if u == "" || !(strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")) {
		writeError(w, 400, "invalid url")
		return
	}
	att, err := a.store.CreateAttachment(r.Context(), id, model.AttachmentURL, u, req.Label)
	if err != nil {
		a.log.Error("create url attachment", "err", err)
		writeError(w, 500, "internal error")
		return
	}
	a.touchAndPublish(r, projectID, Event{Type: "attachment.created", Entity: "attachment", ProjectID: projectID, ItemID: &id, Payload: att})
	writeJSON(w, 201, att)
}

func (a *API) handleDeleteAttachment(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeError(w, 400, "bad id")
		return
	}
	att, err := a.store.GetAttachment(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, 404, "not found")
			return
		}
		a.log.Error("get attachment", "err", err)
		writeError(w, 500, "internal error")
		return
	}
	_, projectID, ok := a.itemForUser(w, r, att.ItemID)
	if !ok {
		return
	}
	if err := a.store.DeleteAttachment(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, 404, "not found")
			return
		}
		a.log.Error("delete attachment", "err", err)
		writeError(w, 500, "internal error")
		return
	}
	if att.AttachmentType == model.AttachmentImage {
		if err := a.blobs.Remove([]string{att.URL}); err != nil {
			a.log.Error("remove attachment file", "err", err)
		}
	}
	a.touchAndPublish(r, projectID, Event{Type: "attachment.deleted", Entity: "attachment", ProjectID: projectID, ItemID: &att.ItemID})
	writeJSON(w, 200, map[string]any{"ok": true})
}
