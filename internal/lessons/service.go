package lessons

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/mind-engage/mindengage-lessons/internal/grading"
	"github.com/mind-engage/mindengage-lessons/internal/logger"
	"github.com/mind-engage/mindengage-lessons/internal/slide"
	syncx "github.com/mind-engage/mindengage-lessons/internal/sync"
)

// Service applies the server rules on top of a Store: progress must cover
// every slide and correctness is decided here, not by the client.
type Service struct {
	store  Store
	events syncx.Log
	grader grading.Grader
	log    *logger.Logger
}

func NewService(store Store, events syncx.Log, grader grading.Grader, log *logger.Logger) *Service {
	if grader == nil {
		grader = grading.NewDefaultGrader()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{store: store, events: events, grader: grader, log: log.With("component", "lessons")}
}

// View returns the view with the learner's stored progress.
func (s *Service) View(ctx context.Context, userID string, viewID int64) (slide.View, error) {
	var (
		v        slide.View
		progress []bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		v, err = s.store.GetView(gctx, viewID)
		return err
	})
	g.Go(func() error {
		var err error
		progress, err = s.store.GetProgress(gctx, userID, viewID)
		return err
	})
	if err := g.Wait(); err != nil {
		return slide.View{}, err
	}
	if progress == nil {
		progress = []bool{}
	}
	v.Progress = progress
	return v, nil
}

func (s *Service) PutView(ctx context.Context, v slide.View) error {
	if v.ID <= 0 {
		return fmt.Errorf("view id must be positive: %w", ErrInvalid)
	}
	seen := map[int64]bool{}
	for i, sl := range v.Slides {
		a, ok := sl.(*slide.Assessment)
		if !ok {
			continue
		}
		if a.AssessmentID == 0 || seen[a.AssessmentID] {
			return fmt.Errorf("slide %d: missing or duplicate assessment id: %w", i, ErrInvalid)
		}
		seen[a.AssessmentID] = true
	}
	if err := s.store.PutView(ctx, v); err != nil {
		return err
	}
	s.log.Info("view published", "view_id", v.ID, "slides", len(v.Slides))
	return nil
}

func (s *Service) Submissions(ctx context.Context, userID string, viewID int64) ([]slide.Submission, error) {
	if _, err := s.store.GetView(ctx, viewID); err != nil {
		return nil, err
	}
	return s.store.ListSubmissions(ctx, userID, viewID)
}

// SaveProgress replaces the learner's completion array. Its length must
// equal the number of slides.
func (s *Service) SaveProgress(ctx context.Context, userID string, viewID int64, progress []bool) error {
	v, err := s.store.GetView(ctx, viewID)
	if err != nil {
		return err
	}
	if len(progress) != len(v.Slides) {
		return fmt.Errorf("progress has %d entries, view %d has %d slides: %w",
			len(progress), viewID, len(v.Slides), ErrInvalid)
	}
	return s.store.SaveProgress(ctx, userID, viewID, progress)
}

// Submit stores the learner's answer for one assessment. A repeated submit
// for the same assessment overwrites the earlier one.
func (s *Service) Submit(ctx context.Context, userID string, viewID int64, sub slide.Submission) (slide.Submission, error) {
	sub, err := s.prepare(ctx, viewID, sub)
	if err != nil {
		return slide.Submission{}, err
	}
	return s.store.SaveSubmission(ctx, userID, sub)
}

// UpdateSubmission overwrites an existing submission by id.
func (s *Service) UpdateSubmission(ctx context.Context, userID string, viewID, submissionID int64, sub slide.Submission) (slide.Submission, error) {
	sub, err := s.prepare(ctx, viewID, sub)
	if err != nil {
		return slide.Submission{}, err
	}
	sub.ID = submissionID
	return s.store.UpdateSubmission(ctx, userID, sub)
}

// prepare pins the submission to the view and regrades it.
func (s *Service) prepare(ctx context.Context, viewID int64, sub slide.Submission) (slide.Submission, error) {
	v, err := s.store.GetView(ctx, viewID)
	if err != nil {
		return slide.Submission{}, err
	}
	a, ok := slide.FindAssessment(v.Slides, sub.AssessmentID)
	if !ok {
		return slide.Submission{}, fmt.Errorf("assessment %d not in view %d: %w", sub.AssessmentID, viewID, ErrInvalid)
	}
	sub.ViewID = viewID
	sub.Answer = slide.CloneAnswers(sub.Answer)
	claimed := sub.Correct
	sub.Correct = sub.Revealed || s.grader.Evaluate(a.Question, sub.Answer)
	if claimed != sub.Correct {
		s.log.Debug("client correctness overridden", "view_id", viewID, "assessment_id", sub.AssessmentID, "claimed", claimed)
	}
	return sub, nil
}

func (s *Service) Restart(ctx context.Context, userID string, viewID int64) error {
	if err := s.store.RestartView(ctx, userID, viewID); err != nil {
		return err
	}
	s.log.Info("view restarted", "view_id", viewID, "user_id", userID)
	return nil
}

// Events returns log entries after seq for replication.
func (s *Service) Events(ctx context.Context, since int64, limit int) ([]syncx.Event, error) {
	if s.events == nil {
		return []syncx.Event{}, nil
	}
	return s.events.Since(ctx, since, limit)
}
