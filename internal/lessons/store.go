// Package lessons serves views to learners and stores what they did with
// them: the per-slide completion array and one submission per assessment.
package lessons

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/mind-engage/mindengage-lessons/internal/slide"
	syncx "github.com/mind-engage/mindengage-lessons/internal/sync"
)

var (
	ErrNotFound = errors.New("lessons: not found")
	ErrInvalid  = errors.New("lessons: invalid request")
)

type Store interface {
	PutView(ctx context.Context, v slide.View) error
	// GetView returns the view without learner progress.
	GetView(ctx context.Context, viewID int64) (slide.View, error)

	// GetProgress returns nil when the learner has no stored progress.
	GetProgress(ctx context.Context, userID string, viewID int64) ([]bool, error)
	SaveProgress(ctx context.Context, userID string, viewID int64, progress []bool) error

	ListSubmissions(ctx context.Context, userID string, viewID int64) ([]slide.Submission, error)
	// SaveSubmission upserts on (learner, view, assessment) and returns the
	// stored record with its id.
	SaveSubmission(ctx context.Context, userID string, sub slide.Submission) (slide.Submission, error)
	// UpdateSubmission overwrites submission sub.ID; ErrNotFound when it is
	// not the learner's.
	UpdateSubmission(ctx context.Context, userID string, sub slide.Submission) (slide.Submission, error)

	// RestartView drops the learner's progress and submissions for the view.
	RestartView(ctx context.Context, userID string, viewID int64) error
}

type progressKey struct {
	userID string
	viewID int64
}

type submissionKey struct {
	userID       string
	viewID       int64
	assessmentID int64
}

type memoryStore struct {
	mu          sync.RWMutex
	events      syncx.Log
	views       map[int64]slide.View
	progress    map[progressKey][]bool
	submissions map[submissionKey]slide.Submission
	nextID      int64
}

// NewInMemoryStore keeps everything in process memory. Writes are appended
// to events when it is not nil.
func NewInMemoryStore(events syncx.Log) Store {
	return &memoryStore{
		events:      events,
		views:       map[int64]slide.View{},
		progress:    map[progressKey][]bool{},
		submissions: map[submissionKey]slide.Submission{},
	}
}

func cloneView(v slide.View) slide.View {
	out := v
	out.Progress = nil
	out.Slides = make([]slide.Slide, 0, len(v.Slides))
	for _, s := range v.Slides {
		out.Slides = append(out.Slides, s.Clone())
	}
	return out
}

func cloneSubmission(s slide.Submission) slide.Submission {
	s.Answer = slide.CloneAnswers(s.Answer)
	return s
}

func (m *memoryStore) record(ctx context.Context, typ, key string, payload any) error {
	if m.events == nil {
		return nil
	}
	e, err := syncx.NewEvent(typ, key, payload)
	if err != nil {
		return err
	}
	return m.events.Append(ctx, e)
}

func (m *memoryStore) PutView(ctx context.Context, v slide.View) error {
	m.mu.Lock()
	m.views[v.ID] = cloneView(v)
	m.mu.Unlock()
	return m.record(ctx, syncx.TypeViewPublished, fmt.Sprint(v.ID), map[string]any{"view_id": v.ID, "slides": len(v.Slides)})
}

func (m *memoryStore) GetView(_ context.Context, viewID int64) (slide.View, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.views[viewID]
	if !ok {
		return slide.View{}, fmt.Errorf("view %d: %w", viewID, ErrNotFound)
	}
	return cloneView(v), nil
}

func (m *memoryStore) GetProgress(_ context.Context, userID string, viewID int64) ([]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.progress[progressKey{userID, viewID}]
	if !ok {
		return nil, nil
	}
	return append([]bool(nil), p...), nil
}

func (m *memoryStore) SaveProgress(ctx context.Context, userID string, viewID int64, progress []bool) error {
	m.mu.Lock()
	if _, ok := m.views[viewID]; !ok {
		m.mu.Unlock()
		return fmt.Errorf("view %d: %w", viewID, ErrNotFound)
	}
	m.progress[progressKey{userID, viewID}] = append([]bool(nil), progress...)
	m.mu.Unlock()
	return m.record(ctx, syncx.TypeProgressSaved, syncx.Key(userID, viewID), map[string]any{"progress": progress})
}

func (m *memoryStore) ListSubmissions(_ context.Context, userID string, viewID int64) ([]slide.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []slide.Submission{}
	for k, s := range m.submissions {
		if k.userID == userID && k.viewID == viewID {
			out = append(out, cloneSubmission(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryStore) SaveSubmission(ctx context.Context, userID string, sub slide.Submission) (slide.Submission, error) {
	m.mu.Lock()
	if _, ok := m.views[sub.ViewID]; !ok {
		m.mu.Unlock()
		return slide.Submission{}, fmt.Errorf("view %d: %w", sub.ViewID, ErrNotFound)
	}
	k := submissionKey{userID, sub.ViewID, sub.AssessmentID}
	if prev, ok := m.submissions[k]; ok {
		sub.ID = prev.ID
	} else {
		m.nextID++
		sub.ID = m.nextID
	}
	sub = cloneSubmission(sub)
	m.submissions[k] = sub
	m.mu.Unlock()
	if err := m.record(ctx, syncx.TypeSubmissionSaved, syncx.Key(userID, sub.ViewID), sub); err != nil {
		return slide.Submission{}, err
	}
	return cloneSubmission(sub), nil
}

func (m *memoryStore) UpdateSubmission(ctx context.Context, userID string, sub slide.Submission) (slide.Submission, error) {
	m.mu.Lock()
	k := submissionKey{userID, sub.ViewID, sub.AssessmentID}
	prev, ok := m.submissions[k]
	if !ok || prev.ID != sub.ID {
		m.mu.Unlock()
		return slide.Submission{}, fmt.Errorf("submission %d: %w", sub.ID, ErrNotFound)
	}
	sub = cloneSubmission(sub)
	m.submissions[k] = sub
	m.mu.Unlock()
	if err := m.record(ctx, syncx.TypeSubmissionSaved, syncx.Key(userID, sub.ViewID), sub); err != nil {
		return slide.Submission{}, err
	}
	return cloneSubmission(sub), nil
}

func (m *memoryStore) RestartView(ctx context.Context, userID string, viewID int64) error {
	m.mu.Lock()
	if _, ok := m.views[viewID]; !ok {
		m.mu.Unlock()
		return fmt.Errorf("view %d: %w", viewID, ErrNotFound)
	}
	delete(m.progress, progressKey{userID, viewID})
	for k := range m.submissions {
		if k.userID == userID && k.viewID == viewID {
			delete(m.submissions, k)
		}
	}
	m.mu.Unlock()
	return m.record(ctx, syncx.TypeViewRestarted, syncx.Key(userID, viewID), map[string]any{"view_id": viewID})
}
