package engine

import (
	"context"

	"github.com/mind-engage/mindengage-lessons/internal/slide"
)

// SyncClient is the remote progress service. Implementations hold no
// session state; every call names the view it belongs to.
type SyncClient interface {
	// FetchView returns the view with its slides (any order) and the
	// learner's stored progress.
	FetchView(ctx context.Context, viewID int64) (slide.View, error)
	FetchSubmissions(ctx context.Context, viewID int64) ([]slide.Submission, error)
	PostProgress(ctx context.Context, viewID int64, progress []bool) error
	// PostSubmission creates or overwrites the submission; the returned
	// record carries the server id.
	PostSubmission(ctx context.Context, viewID int64, sub slide.Submission) (slide.Submission, error)
	RestartView(ctx context.Context, viewID int64) error
}

// Session identifies one load of a view. A restart or reload issues a new
// token, so results tied to the old one can be recognised and dropped.
type Session struct {
	ViewID int64
	Token  string
}
