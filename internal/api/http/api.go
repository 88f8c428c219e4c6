package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	auth "github.com/mind-engage/mindengage-lessons/internal/auth/middleware"
	"github.com/mind-engage/mindengage-lessons/internal/lessons"
	"github.com/mind-engage/mindengage-lessons/internal/logger"
	"github.com/mind-engage/mindengage-lessons/internal/rbac"
)

var validate = validator.New()

// API exposes lessons.Service over HTTP. Mount it behind JWTMiddleware.
type API struct {
	Svc *lessons.Service
	Log *logger.Logger
}

func (a *API) Routes(r chi.Router) {
	if a.Log == nil {
		a.Log = logger.Nop()
	}
	r.Route("/views/{viewID}", func(vr chi.Router) {
		vr.With(rbac.Require(rbac.PermViewRead)).Get("/", a.getView)
		vr.With(rbac.Require(rbac.PermViewAuthor)).Put("/", a.putView)

		vr.With(rbac.Require(rbac.PermSubmissionRead)).Get("/submissions", a.listSubmissions)
		vr.With(rbac.Require(rbac.PermSubmissionWrite)).Post("/submissions", a.postSubmission)
		vr.With(rbac.Require(rbac.PermSubmissionWrite)).Patch("/submissions/{submissionID}", a.patchSubmission)

		vr.With(rbac.Require(rbac.PermProgressWrite)).Post("/progress", a.postProgress)
		vr.With(rbac.Require(rbac.PermProgressWrite)).Post("/restart", a.postRestart)
	})
	r.With(rbac.Require(rbac.PermEventsRead)).Get("/events", a.getEvents)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// fail maps service errors onto status codes.
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, lessons.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, lessons.ErrInvalid):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		a.Log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// decode reads a JSON body into v and validates its struct tags.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New("bad json")
	}
	if err := validate.Struct(v); err != nil {
		var inv *validator.InvalidValidationError
		if errors.As(err, &inv) {
			return nil
		}
		return err
	}
	return nil
}

func int64Param(r *http.Request, name string) (int64, bool) {
	n, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return n, err == nil && n > 0
}

// learner resolves the caller; handlers never trust a user id in the body.
func learner(r *http.Request) string { return auth.SubjectFromContext(r.Context()) }
