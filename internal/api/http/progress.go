package http

import (
	"net/http"
	"strconv"

	"github.com/mind-engage/mindengage-lessons/internal/slide"
)

// POST /views/{viewID}/progress  {"progress":[true,false,...]}
func (a *API) postProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "viewID")
	if !ok {
		http.Error(w, "bad view id", http.StatusBadRequest)
		return
	}
	var req slide.Progress
	if err := decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := a.Svc.SaveProgress(r.Context(), learner(r), id, req.Progress); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /views/{viewID}/restart
func (a *API) postRestart(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "viewID")
	if !ok {
		http.Error(w, "bad view id", http.StatusBadRequest)
		return
	}
	if err := a.Svc.Restart(r.Context(), learner(r), id); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /events?since=0&limit=100
func (a *API) getEvents(w http.ResponseWriter, r *http.Request) {
	since, _ := strconv.ParseInt(r.URL.Query().Get("since"), 10, 64)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit > 1000 {
		limit = 1000
	}
	events, err := a.Svc.Events(r.Context(), since, limit)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	next := since
	if len(events) > 0 {
		next = events[len(events)-1].Seq
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events, "next": next})
}
