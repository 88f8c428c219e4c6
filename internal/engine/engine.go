// Package engine tracks a learner's position in a view and the answer
// lifecycle of its assessment slides, and keeps the progress service in
// step with both.
//
// Every operation is a synchronous local transition. Calls to the progress
// service are emitted as effects after the state has changed and never
// block the caller.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-lessons/internal/grading"
	"github.com/mind-engage/mindengage-lessons/internal/logger"
	"github.com/mind-engage/mindengage-lessons/internal/slide"
)

type Status string

const (
	StatusLoading    Status = "LOADING"
	StatusReady      Status = "READY"
	StatusRestarting Status = "RESTARTING"
)

// ErrSuperseded is returned by LoadView when a newer load replaced it
// while it was fetching.
var ErrSuperseded = errors.New("engine: load superseded by a newer session")

// ViewInfo is the view metadata without its slides.
type ViewInfo struct {
	ID       int64
	Name     string
	Quiz     bool
	ModuleID int64
}

// Snapshot is a copy of the engine state for readers.
type Snapshot struct {
	Status       Status
	CurrentIndex int
	View         ViewInfo
	Slides       []slide.Slide
}

type Engine struct {
	client SyncClient
	grader grading.Grader
	log    *logger.Logger
	sink   EffectSink
	closer func()

	queueSize   int
	syncTimeout time.Duration

	mu      sync.Mutex
	session Session
	status  Status
	view    ViewInfo
	slides  []slide.Slide
	index   int
}

type Option func(*Engine)

func WithLogger(l *logger.Logger) Option     { return func(e *Engine) { e.log = l } }
func WithGrader(g grading.Grader) Option     { return func(e *Engine) { e.grader = g } }
func WithQueueSize(n int) Option             { return func(e *Engine) { e.queueSize = n } }
func WithSyncTimeout(d time.Duration) Option { return func(e *Engine) { e.syncTimeout = d } }

// WithSink replaces the background dispatcher. The caller is then in charge
// of executing effects.
func WithSink(s EffectSink) Option { return func(e *Engine) { e.sink = s } }

// New builds an engine for one view session. Unless WithSink is given, a
// Dispatcher is started; release it with Close.
func New(client SyncClient, opts ...Option) *Engine {
	e := &Engine{
		client: client,
		status: StatusLoading,
	}
	for _, o := range opts {
		o(e)
	}
	if e.log == nil {
		e.log = logger.Nop()
	}
	if e.grader == nil {
		e.grader = grading.NewDefaultGrader()
	}
	if e.sink == nil {
		d := NewDispatcher(client, e, e.log, e.queueSize, e.syncTimeout)
		d.Start()
		e.sink = d
		e.closer = d.Close
	}
	return e
}

// Close flushes pending effects and stops the dispatcher.
func (e *Engine) Close() {
	if e.closer != nil {
		e.closer()
	}
}

// LoadView fetches the view and the learner's submissions and merges them
// into the slide list. On failure the status stays unresolved and no slides
// are exposed.
func (e *Engine) LoadView(ctx context.Context, viewID int64) error {
	e.mu.Lock()
	sess := Session{ViewID: viewID, Token: uuid.NewString()}
	e.session = sess
	e.slides = nil
	e.index = 0
	e.view = ViewInfo{}
	if e.status != StatusRestarting {
		e.status = StatusLoading
	}
	e.mu.Unlock()

	log := e.log.With("view_id", viewID)

	view, err := e.client.FetchView(ctx, viewID)
	if err != nil {
		log.Error("fetch view failed", "error", err)
		return fmt.Errorf("fetch view %d: %w", viewID, err)
	}
	subs, err := e.client.FetchSubmissions(ctx, viewID)
	if err != nil {
		log.Error("fetch submissions failed", "error", err)
		return fmt.Errorf("fetch submissions for view %d: %w", viewID, err)
	}

	slides := merge(view, subs)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session != sess {
		log.Debug("discarding superseded load")
		return ErrSuperseded
	}
	e.view = ViewInfo{ID: view.ID, Name: view.Name, Quiz: view.Quiz, ModuleID: view.ModuleID}
	if e.view.ID == 0 {
		e.view.ID = viewID
	}
	e.slides = slides
	e.index = 0
	e.status = StatusReady
	e.checkCompletionLocked(0)
	log.Info("view loaded", "slides", len(slides), "quiz", view.Quiz)
	return nil
}

// merge sorts the slides and folds stored progress and submissions into
// them.
func merge(view slide.View, subs []slide.Submission) []slide.Slide {
	slides := make([]slide.Slide, 0, len(view.Slides))
	for _, s := range view.Slides {
		slides = append(slides, s.Clone())
	}
	slide.SortByOrder(slides)

	for i, s := range slides {
		if i < len(view.Progress) {
			s.Common().Completed = view.Progress[i]
		}
		a, ok := s.(*slide.Assessment)
		if !ok {
			continue
		}
		a.Submittable = false
		a.Answer = []slide.Answer{}
		for _, sub := range subs {
			if sub.AssessmentID != a.AssessmentID {
				continue
			}
			a.SubmissionID = sub.ID
			a.Answer = slide.CloneAnswers(sub.Answer)
			a.Submitted = true
			a.Revealed = sub.Revealed
			a.IsCorrect = sub.Correct || sub.Revealed
			break
		}
	}
	return slides
}

// RestartView resets the learner's stored state for the view and loads it
// again. Effects still queued for the old session are dropped.
func (e *Engine) RestartView(ctx context.Context) error {
	e.mu.Lock()
	prev := e.session
	if prev.ViewID == 0 {
		e.mu.Unlock()
		return nil
	}
	e.session = Session{ViewID: prev.ViewID}
	e.mu.Unlock()

	if err := e.client.RestartView(ctx, prev.ViewID); err != nil {
		e.mu.Lock()
		e.session = prev
		e.mu.Unlock()
		e.log.Error("restart view failed", "view_id", prev.ViewID, "error", err)
		return fmt.Errorf("restart view %d: %w", prev.ViewID, err)
	}

	e.mu.Lock()
	e.slides = nil
	e.index = 0
	e.status = StatusRestarting
	e.mu.Unlock()

	return e.LoadView(ctx, prev.ViewID)
}

// State returns a deep copy of the current state.
func (e *Engine) State() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := Snapshot{Status: e.status, CurrentIndex: e.index, View: e.view}
	out.Slides = make([]slide.Slide, 0, len(e.slides))
	for _, s := range e.slides {
		out.Slides = append(out.Slides, s.Clone())
	}
	return out
}

// Current returns a copy of the active slide.
func (e *Engine) Current() (slide.Slide, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.currentLocked()
	if s == nil {
		return nil, false
	}
	return s.Clone(), true
}

func (e *Engine) Session() Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

// IsCurrent reports whether s is still the live session.
func (e *Engine) IsCurrent(s Session) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return s.Token != "" && e.session == s
}

// SubmissionPosted back-fills the server id of a submission when the slide
// has none yet.
func (e *Engine) SubmissionPosted(s Session, posted slide.Submission) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session != s || posted.ID == 0 {
		return
	}
	if a, ok := slide.FindAssessment(e.slides, posted.AssessmentID); ok && a.SubmissionID == 0 {
		a.SubmissionID = posted.ID
	}
}

func (e *Engine) currentLocked() slide.Slide {
	if e.index < 0 || e.index >= len(e.slides) {
		return nil
	}
	return e.slides[e.index]
}

func (e *Engine) dispatchLocked(eff Effect) {
	eff.Session = e.session
	e.sink.Dispatch(eff)
}
