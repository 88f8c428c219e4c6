package http

import (
	"net/http"

	"github.com/mind-engage/mindengage-lessons/internal/slide"
)

// GET /views/{viewID}/submissions
func (a *API) listSubmissions(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "viewID")
	if !ok {
		http.Error(w, "bad view id", http.StatusBadRequest)
		return
	}
	subs, err := a.Svc.Submissions(r.Context(), learner(r), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

// POST /views/{viewID}/submissions
func (a *API) postSubmission(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "viewID")
	if !ok {
		http.Error(w, "bad view id", http.StatusBadRequest)
		return
	}
	var sub slide.Submission
	if err := decode(r, &sub); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	saved, err := a.Svc.Submit(r.Context(), learner(r), id, sub)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// PATCH /views/{viewID}/submissions/{submissionID}
func (a *API) patchSubmission(w http.ResponseWriter, r *http.Request) {
	viewID, ok := int64Param(r, "viewID")
	if !ok {
		http.Error(w, "bad view id", http.StatusBadRequest)
		return
	}
	subID, ok := int64Param(r, "submissionID")
	if !ok {
		http.Error(w, "bad submission id", http.StatusBadRequest)
		return
	}
	var sub slide.Submission
	if err := decode(r, &sub); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	saved, err := a.Svc.UpdateSubmission(r.Context(), learner(r), viewID, subID, sub)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}
