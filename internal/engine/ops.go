package engine

import (
	"github.com/mind-engage/mindengage-lessons/internal/completion"
	"github.com/mind-engage/mindengage-lessons/internal/slide"
)

// GoTo makes index the active slide. Out-of-range indexes are ignored.
func (e *Engine) GoTo(index int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.goToLocked(index)
}

// Next moves forward one slide; a no-op on the last slide.
func (e *Engine) Next() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.goToLocked(e.index + 1)
}

// Previous moves back one slide; a no-op on the first slide.
func (e *Engine) Previous() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.goToLocked(e.index - 1)
}

func (e *Engine) goToLocked(index int) {
	if index < 0 || index >= len(e.slides) {
		return
	}
	e.checkCompletionLocked(index)
	e.index = index
}

// checkCompletionLocked marks the slide at index complete when viewing it is
// enough.
func (e *Engine) checkCompletionLocked(index int) {
	if index < 0 || index >= len(e.slides) {
		return
	}
	s := e.slides[index]
	if s.Common().Completed {
		return
	}
	if completion.Satisfied(s, completion.Signal{Viewed: true}) {
		e.markCompletedLocked(index)
	}
}

// ReportVideoProgress feeds playback progress of the slide at index.
func (e *Engine) ReportVideoProgress(index int, fraction float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if index < 0 || index >= len(e.slides) {
		return
	}
	s := e.slides[index]
	if s.Common().Completed {
		return
	}
	if completion.Satisfied(s, completion.Signal{Viewed: index == e.index, VideoFraction: fraction}) {
		e.markCompletedLocked(index)
	}
}

// MarkCompleted marks the slide at index complete and pushes a fresh
// progress snapshot. Repeated calls are no-ops.
func (e *Engine) MarkCompleted(index int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if index < 0 || index >= len(e.slides) {
		return
	}
	e.markCompletedLocked(index)
}

func (e *Engine) markCompletedLocked(index int) {
	b := e.slides[index].Common()
	if b.Completed {
		return
	}
	b.Completed = true
	e.dispatchLocked(Effect{Kind: EffectProgress, Progress: slide.ProgressOf(e.slides)})
}

func (e *Engine) currentAssessmentLocked() (*slide.Assessment, bool) {
	a, ok := e.currentLocked().(*slide.Assessment)
	return a, ok
}

// SetAnswer stores the learner's draft for the current assessment. Editing a
// submitted answer withdraws the submission. Revealed slides are frozen.
func (e *Engine) SetAnswer(answer []slide.Answer, isCorrect, blockSubmit bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	a, ok := e.currentAssessmentLocked()
	if !ok || a.Revealed {
		return
	}
	a.Answer = slide.CloneAnswers(answer)
	a.IsCorrect = isCorrect
	a.Submittable = len(a.Answer) > 0 && !blockSubmit
	if a.Submitted {
		a.Submitted = false
	}
}

// Answer is SetAnswer with correctness decided by the engine's grader.
func (e *Engine) Answer(answer []slide.Answer, blockSubmit bool) {
	e.mu.Lock()
	a, ok := e.currentAssessmentLocked()
	var q slide.QuestionInfo
	if ok {
		q = a.Question
	}
	e.mu.Unlock()
	if !ok {
		return
	}
	e.SetAnswer(answer, e.grader.Evaluate(q, answer), blockSubmit)
}

// Submit submits the current draft. Correct answers complete the slide; in a
// quiz any submission does.
func (e *Engine) Submit() {
	e.mu.Lock()
	defer e.mu.Unlock()
	a, ok := e.currentAssessmentLocked()
	if !ok || !a.Submittable {
		return
	}
	a.Submitted = true
	a.Submittable = false
	if a.IsCorrect || e.view.Quiz {
		e.markCompletedLocked(e.index)
	}
	e.dispatchLocked(Effect{Kind: EffectSubmission, Submission: slide.Submission{
		ID:           a.SubmissionID,
		AssessmentID: a.AssessmentID,
		ViewID:       e.view.ID,
		Correct:      a.IsCorrect,
		Answer:       slide.CloneAnswers(a.Answer),
	}})
}

// Reveal replaces the current answer with the canonical one. The slide then
// counts as correctly submitted.
func (e *Engine) Reveal() {
	e.mu.Lock()
	defer e.mu.Unlock()
	a, ok := e.currentAssessmentLocked()
	if !ok || a.IsCorrect || a.Revealed {
		return
	}
	key, ok := e.grader.CorrectAnswer(a.Question)
	if !ok {
		return
	}
	a.Answer = key
	a.IsCorrect = true
	a.Revealed = true
	a.Submitted = true
	a.Submittable = false
	e.markCompletedLocked(e.index)
	e.dispatchLocked(Effect{Kind: EffectSubmission, Submission: slide.Submission{
		ID:           a.SubmissionID,
		AssessmentID: a.AssessmentID,
		ViewID:       e.view.ID,
		Correct:      true,
		Answer:       slide.CloneAnswers(key),
		Revealed:     true,
	}})
}

// TryAgain clears the current assessment back to an empty draft. Not
// available once the answer was revealed.
func (e *Engine) TryAgain() {
	e.mu.Lock()
	defer e.mu.Unlock()
	a, ok := e.currentAssessmentLocked()
	if !ok || a.Revealed {
		return
	}
	a.Submitted = false
	a.Submittable = false
	a.Completed = false
	a.IsCorrect = false
	a.Answer = []slide.Answer{}
}

// ToggleExplanation flips the explanation panel of the current assessment.
func (e *Engine) ToggleExplanation() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if a, ok := e.currentAssessmentLocked(); ok {
		a.ShowExplanation = !a.ShowExplanation
	}
}
