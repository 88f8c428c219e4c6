package http

import (
	"net/http"

	"github.com/mind-engage/mindengage-lessons/internal/slide"
)

// GET /views/{viewID}
func (a *API) getView(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "viewID")
	if !ok {
		http.Error(w, "bad view id", http.StatusBadRequest)
		return
	}
	v, err := a.Svc.View(r.Context(), learner(r), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// PUT /views/{viewID}  body: the view with its slides
func (a *API) putView(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "viewID")
	if !ok {
		http.Error(w, "bad view id", http.StatusBadRequest)
		return
	}
	var v slide.View
	if err := decode(r, &v); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if v.ID != 0 && v.ID != id {
		http.Error(w, "view id mismatch", http.StatusBadRequest)
		return
	}
	v.ID = id
	v.Progress = nil
	if err := a.Svc.PutView(r.Context(), v); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "view_id": id})
}
