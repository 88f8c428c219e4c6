package lessons_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-lessons/internal/db"
	"github.com/mind-engage/mindengage-lessons/internal/lessons"
	"github.com/mind-engage/mindengage-lessons/internal/slide"
	syncx "github.com/mind-engage/mindengage-lessons/internal/sync"
)

var capital = slide.QuestionInfo{
	ID:   1,
	Type: slide.SingleChoice,
	Text: "Capital of France?",
	Options: []slide.Option{
		{Text: "Paris", IsCorrect: true},
		{Text: "Rome"},
	},
}

func lessonView() slide.View {
	return slide.View{ID: 7, Name: "Capitals", ModuleID: 3, Slides: []slide.Slide{
		&slide.Content{Base: slide.Base{ID: 1, Order: 0, Name: "Intro"}, Items: []slide.ContentItem{{ID: "11", Type: slide.ContentRichText}}},
		&slide.Assessment{Base: slide.Base{ID: 2, Order: 1}, AssessmentID: 100, Question: capital},
	}}
}

type backend struct {
	name   string
	store  lessons.Store
	events syncx.Log
}

func backends(t *testing.T) []backend {
	t.Helper()
	mem := syncx.NewMemoryLog("test")

	sqldb, err := db.Open(context.Background(), db.DriverSQLite, "file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqldb.Close() })
	repo := syncx.NewEventRepo(sqldb, "test")

	return []backend{
		{name: "memory", store: lessons.NewInMemoryStore(mem), events: mem},
		{name: "sqlite", store: lessons.NewSQLStore(sqldb, repo), events: repo},
	}
}

func forEachBackend(t *testing.T, fn func(t *testing.T, svc *lessons.Service, b backend)) {
	for _, b := range backends(t) {
		b := b
		t.Run(b.name, func(t *testing.T) {
			svc := lessons.NewService(b.store, b.events, nil, nil)
			require.NoError(t, svc.PutView(context.Background(), lessonView()))
			fn(t, svc, b)
		})
	}
}

func TestViewRoundTrip(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *lessons.Service, _ backend) {
		v, err := svc.View(context.Background(), "u1", 7)
		require.NoError(t, err)
		assert.Equal(t, "Capitals", v.Name)
		assert.Equal(t, int64(3), v.ModuleID)
		assert.Equal(t, []bool{}, v.Progress)
		require.Len(t, v.Slides, 2)
		a, ok := v.Slides[1].(*slide.Assessment)
		require.True(t, ok)
		assert.Equal(t, capital, a.Question)

		_, err = svc.View(context.Background(), "u1", 99)
		assert.ErrorIs(t, err, lessons.ErrNotFound)
	})
}

func TestPutView_RejectsDuplicateAssessments(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *lessons.Service, _ backend) {
		v := lessonView()
		v.Slides = append(v.Slides, &slide.Assessment{Base: slide.Base{Order: 2}, AssessmentID: 100, Question: capital})
		assert.ErrorIs(t, svc.PutView(context.Background(), v), lessons.ErrInvalid)
		assert.ErrorIs(t, svc.PutView(context.Background(), slide.View{}), lessons.ErrInvalid)
	})
}

func TestProgress(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *lessons.Service, _ backend) {
		ctx := context.Background()
		require.NoError(t, svc.SaveProgress(ctx, "u1", 7, []bool{true, false}))
		require.NoError(t, svc.SaveProgress(ctx, "u1", 7, []bool{true, true}))

		v, err := svc.View(ctx, "u1", 7)
		require.NoError(t, err)
		assert.Equal(t, []bool{true, true}, v.Progress)

		other, err := svc.View(ctx, "u2", 7)
		require.NoError(t, err)
		assert.Empty(t, other.Progress)

		assert.ErrorIs(t, svc.SaveProgress(ctx, "u1", 7, []bool{true}), lessons.ErrInvalid)
		assert.ErrorIs(t, svc.SaveProgress(ctx, "u1", 99, []bool{true}), lessons.ErrNotFound)
	})
}

func TestSubmit_UpsertsAndRegrades(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *lessons.Service, _ backend) {
		ctx := context.Background()
		first, err := svc.Submit(ctx, "u1", 7, slide.Submission{
			AssessmentID: 100, Correct: true, Answer: []slide.Answer{{Text: "Rome"}},
		})
		require.NoError(t, err)
		assert.NotZero(t, first.ID)
		assert.False(t, first.Correct, "server decides correctness")
		assert.Equal(t, int64(7), first.ViewID)

		second, err := svc.Submit(ctx, "u1", 7, slide.Submission{
			AssessmentID: 100, Answer: []slide.Answer{{Text: "Paris"}},
		})
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.True(t, second.Correct)

		subs, err := svc.Submissions(ctx, "u1", 7)
		require.NoError(t, err)
		require.Len(t, subs, 1)
		assert.Equal(t, []slide.Answer{{Text: "Paris"}}, subs[0].Answer)

		subs, err = svc.Submissions(ctx, "u2", 7)
		require.NoError(t, err)
		assert.Empty(t, subs)

		_, err = svc.Submit(ctx, "u1", 7, slide.Submission{AssessmentID: 555})
		assert.ErrorIs(t, err, lessons.ErrInvalid)
	})
}

func TestSubmit_RevealedCountsAsCorrect(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *lessons.Service, _ backend) {
		got, err := svc.Submit(context.Background(), "u1", 7, slide.Submission{
			AssessmentID: 100, Revealed: true, Answer: []slide.Answer{{Text: "Paris"}},
		})
		require.NoError(t, err)
		assert.True(t, got.Correct)
		assert.True(t, got.Revealed)
	})
}

func TestUpdateSubmission(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *lessons.Service, _ backend) {
		ctx := context.Background()
		created, err := svc.Submit(ctx, "u1", 7, slide.Submission{AssessmentID: 100, Answer: []slide.Answer{{Text: "Rome"}}})
		require.NoError(t, err)

		updated, err := svc.UpdateSubmission(ctx, "u1", 7, created.ID, slide.Submission{
			AssessmentID: 100, Answer: []slide.Answer{{Text: "Paris"}},
		})
		require.NoError(t, err)
		assert.Equal(t, created.ID, updated.ID)
		assert.True(t, updated.Correct)

		_, err = svc.UpdateSubmission(ctx, "u2", 7, created.ID, slide.Submission{AssessmentID: 100})
		assert.ErrorIs(t, err, lessons.ErrNotFound)
		_, err = svc.UpdateSubmission(ctx, "u1", 7, created.ID+100, slide.Submission{AssessmentID: 100})
		assert.ErrorIs(t, err, lessons.ErrNotFound)
	})
}

func TestRestart(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *lessons.Service, _ backend) {
		ctx := context.Background()
		require.NoError(t, svc.SaveProgress(ctx, "u1", 7, []bool{true, true}))
		_, err := svc.Submit(ctx, "u1", 7, slide.Submission{AssessmentID: 100, Answer: []slide.Answer{{Text: "Paris"}}})
		require.NoError(t, err)
		require.NoError(t, svc.SaveProgress(ctx, "u2", 7, []bool{true, false}))

		require.NoError(t, svc.Restart(ctx, "u1", 7))

		v, err := svc.View(ctx, "u1", 7)
		require.NoError(t, err)
		assert.Empty(t, v.Progress)
		subs, err := svc.Submissions(ctx, "u1", 7)
		require.NoError(t, err)
		assert.Empty(t, subs)

		v, err = svc.View(ctx, "u2", 7)
		require.NoError(t, err)
		assert.Equal(t, []bool{true, false}, v.Progress)

		assert.ErrorIs(t, svc.Restart(ctx, "u1", 99), lessons.ErrNotFound)
	})
}

func TestEventsRecordEveryWrite(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *lessons.Service, _ backend) {
		ctx := context.Background()
		require.NoError(t, svc.SaveProgress(ctx, "u1", 7, []bool{true, false}))
		_, err := svc.Submit(ctx, "u1", 7, slide.Submission{AssessmentID: 100, Answer: []slide.Answer{{Text: "Paris"}}})
		require.NoError(t, err)
		require.NoError(t, svc.Restart(ctx, "u1", 7))

		events, err := svc.Events(ctx, 0, 0)
		require.NoError(t, err)
		var types []string
		for _, e := range events {
			types = append(types, e.Type)
		}
		assert.Equal(t, []string{
			syncx.TypeViewPublished, syncx.TypeProgressSaved, syncx.TypeSubmissionSaved, syncx.TypeViewRestarted,
		}, types)
		assert.Equal(t, "u1/7", events[1].Key)
		assert.Equal(t, "test", events[1].SiteID)

		tail, err := svc.Events(ctx, events[1].Seq, 1)
		require.NoError(t, err)
		require.Len(t, tail, 1)
		assert.Equal(t, syncx.TypeSubmissionSaved, tail[0].Type)
	})
}

func TestFailedWriteLeavesNoEvent(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *lessons.Service, b backend) {
		ctx := context.Background()
		err := b.store.SaveProgress(ctx, "u1", 99, []bool{true})
		require.ErrorIs(t, err, lessons.ErrNotFound)
		events, err := svc.Events(ctx, 0, 0)
		require.NoError(t, err)
		assert.Len(t, events, 1, "only the publish")
	})
}
