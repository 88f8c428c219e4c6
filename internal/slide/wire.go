package slide

import (
	"encoding/json"
	"fmt"
	"sort"
)

// wireSlide is the JSON shape shared by all slide kinds. Learner state is
// never part of it.
type wireSlide struct {
	ID       int64         `json:"slide_id"`
	Order    int           `json:"order"`
	Type     Kind          `json:"type"`
	Name     string        `json:"name,omitempty"`
	ModuleID int64         `json:"module_id,omitempty"`
	Contents []ContentItem `json:"contents,omitempty"`

	AssessmentID   int64         `json:"assessment_id,omitempty"`
	AssessmentInfo *QuestionInfo `json:"assessment_info,omitempty"`

	ActivityID   string        `json:"activity_id,omitempty"`
	ActivityInfo *ActivityInfo `json:"activity_info,omitempty"`
}

type wireView struct {
	ID       int64             `json:"id"`
	Name     string            `json:"name"`
	Quiz     bool              `json:"quiz"`
	ModuleID int64             `json:"module_id"`
	Slides   []json.RawMessage `json:"slides"`
	Progress []bool            `json:"progress"`
}

func toWire(s Slide) wireSlide {
	b := s.Common()
	w := wireSlide{ID: b.ID, Order: b.Order, Type: s.Kind(), Name: b.Name, ModuleID: b.ModuleID}
	switch v := s.(type) {
	case *Content:
		w.Contents = v.Items
	case *Assessment:
		q := v.Question
		w.AssessmentID = v.AssessmentID
		w.AssessmentInfo = &q
	case *Activity:
		info := v.Info
		w.ActivityID = v.ActivityID
		w.ActivityInfo = &info
	}
	return w
}

func fromWire(w wireSlide) (Slide, error) {
	base := Base{ID: w.ID, Order: w.Order, Name: w.Name, ModuleID: w.ModuleID}
	switch w.Type {
	case KindContent:
		return &Content{Base: base, Items: w.Contents}, nil
	case KindAssessment:
		a := &Assessment{Base: base, AssessmentID: w.AssessmentID, Answer: []Answer{}}
		if w.AssessmentInfo != nil {
			a.Question = *w.AssessmentInfo
		}
		return a, nil
	case KindActivity:
		a := &Activity{Base: base, ActivityID: w.ActivityID}
		if w.ActivityInfo != nil {
			a.Info = *w.ActivityInfo
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown slide type %q", w.Type)
	}
}

// MarshalSlide encodes a slide in its wire form.
func MarshalSlide(s Slide) ([]byte, error) {
	return json.Marshal(toWire(s))
}

// UnmarshalSlide decodes one wire slide into the matching concrete type.
func UnmarshalSlide(data []byte) (Slide, error) {
	var w wireSlide
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	return fromWire(w)
}

func MarshalSlides(slides []Slide) ([]byte, error) {
	ws := make([]wireSlide, 0, len(slides))
	for _, s := range slides {
		ws = append(ws, toWire(s))
	}
	return json.Marshal(ws)
}

func UnmarshalSlides(data []byte) ([]Slide, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, err
	}
	out := make([]Slide, 0, len(raws))
	for i, raw := range raws {
		s, err := UnmarshalSlide(raw)
		if err != nil {
			return nil, fmt.Errorf("slide %d: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func (v View) MarshalJSON() ([]byte, error) {
	w := wireView{ID: v.ID, Name: v.Name, Quiz: v.Quiz, ModuleID: v.ModuleID, Progress: v.Progress}
	w.Slides = make([]json.RawMessage, 0, len(v.Slides))
	for _, s := range v.Slides {
		b, err := MarshalSlide(s)
		if err != nil {
			return nil, err
		}
		w.Slides = append(w.Slides, b)
	}
	return json.Marshal(w)
}

func (v *View) UnmarshalJSON(data []byte) error {
	var w wireView
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	slides := make([]Slide, 0, len(w.Slides))
	for i, raw := range w.Slides {
		s, err := UnmarshalSlide(raw)
		if err != nil {
			return fmt.Errorf("slide %d: %w", i, err)
		}
		slides = append(slides, s)
	}
	*v = View{ID: w.ID, Name: w.Name, Quiz: w.Quiz, ModuleID: w.ModuleID, Slides: slides, Progress: w.Progress}
	return nil
}

// SortByOrder sorts slides by Order ascending; ties keep fetch order.
func SortByOrder(slides []Slide) {
	sort.SliceStable(slides, func(i, j int) bool {
		return slides[i].Common().Order < slides[j].Common().Order
	})
}

// FindAssessment returns the assessment slide with the given id.
func FindAssessment(slides []Slide, assessmentID int64) (*Assessment, bool) {
	for _, s := range slides {
		if a, ok := s.(*Assessment); ok && a.AssessmentID == assessmentID {
			return a, true
		}
	}
	return nil, false
}
