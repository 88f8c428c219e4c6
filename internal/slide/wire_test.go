package slide

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `{
  "id": 4, "name": "Fractions", "quiz": true, "module_id": 2,
  "slides": [
    {"slide_id": 12, "order": 2, "type": "Activity", "activity_id": "act-1",
     "activity_info": {"id": "act-1", "name": "Playground"}},
    {"slide_id": 10, "order": 0, "type": "Content",
     "contents": [{"content_id": "v1", "order": 0, "type": "Video", "url": "https://cdn.example/v1.mp4"}]},
    {"slide_id": 11, "order": 1, "type": "Assessment", "assessment_id": 300,
     "assessment_info": {"id": 9, "type": "Numerical", "text": "1/2 as decimal?",
       "options": [{"text": "0.5", "isCorrect": true}]}}
  ],
  "progress": [true, false, false]
}`

func TestViewDecode(t *testing.T) {
	var v View
	require.NoError(t, json.Unmarshal([]byte(sample), &v))
	assert.Equal(t, int64(4), v.ID)
	assert.True(t, v.Quiz)
	assert.Equal(t, []bool{true, false, false}, v.Progress)
	require.Len(t, v.Slides, 3)

	act, ok := v.Slides[0].(*Activity)
	require.True(t, ok)
	assert.Equal(t, "Playground", act.Info.Name)

	c, ok := v.Slides[1].(*Content)
	require.True(t, ok)
	assert.Equal(t, ContentVideo, c.Items[0].Type)

	a, ok := v.Slides[2].(*Assessment)
	require.True(t, ok)
	assert.Equal(t, int64(300), a.AssessmentID)
	assert.Equal(t, Numerical, a.Question.Type)
	assert.NotNil(t, a.Answer)
}

func TestViewEncodeOmitsLearnerState(t *testing.T) {
	v := View{ID: 1, Slides: []Slide{&Assessment{
		Base:         Base{ID: 5, Completed: true},
		AssessmentID: 9,
		Question:     QuestionInfo{Type: SingleChoice},
		Answer:       []Answer{{Text: "secret"}},
		Submitted:    true,
	}}}
	b, err := json.Marshal(v)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "secret")
	assert.NotContains(t, string(b), "completed")

	var back View
	require.NoError(t, json.Unmarshal(b, &back))
	a := back.Slides[0].(*Assessment)
	assert.Equal(t, int64(9), a.AssessmentID)
	assert.False(t, a.Submitted)
	assert.False(t, a.Completed)
}

func TestUnknownSlideType(t *testing.T) {
	_, err := UnmarshalSlide([]byte(`{"slide_id":1,"type":"Hologram"}`))
	assert.Error(t, err)

	var v View
	err = json.Unmarshal([]byte(`{"id":1,"slides":[{"type":"Content"},{"type":"Hologram"}]}`), &v)
	assert.ErrorContains(t, err, "slide 1")
}

func TestSortByOrderIsStable(t *testing.T) {
	slides := []Slide{
		&Content{Base: Base{ID: 1, Order: 3}},
		&Content{Base: Base{ID: 2, Order: 1}},
		&Content{Base: Base{ID: 3, Order: 1}},
		&Content{Base: Base{ID: 4, Order: 0}},
	}
	SortByOrder(slides)
	var ids []int64
	for _, s := range slides {
		ids = append(ids, s.Common().ID)
	}
	assert.Equal(t, []int64{4, 2, 3, 1}, ids)
}

func TestCloneIsDeep(t *testing.T) {
	a := &Assessment{
		Question: QuestionInfo{Options: []Option{{Text: "x"}}},
		Answer:   []Answer{{Text: "x"}},
	}
	cp := a.Clone().(*Assessment)
	cp.Answer[0].Text = "y"
	cp.Question.Options[0].Text = "y"
	cp.Common().Completed = true
	assert.Equal(t, "x", a.Answer[0].Text)
	assert.Equal(t, "x", a.Question.Options[0].Text)
	assert.False(t, a.Completed)
}

func TestProgressOfAndFindAssessment(t *testing.T) {
	slides := []Slide{
		&Content{Base: Base{Completed: true}},
		&Assessment{AssessmentID: 7},
	}
	assert.Equal(t, []bool{true, false}, ProgressOf(slides))
	a, ok := FindAssessment(slides, 7)
	require.True(t, ok)
	assert.Same(t, slides[1], Slide(a))
	_, ok = FindAssessment(slides, 8)
	assert.False(t, ok)
}
