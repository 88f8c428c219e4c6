package grading

import (
	"sort"

	"github.com/mind-engage/mindengage-lessons/internal/slide"
)

// Result is the outcome of grading a single answer.
type Result struct {
	Correct     bool
	NeedsManual bool     // true if no automatic decision is possible
	Feedback    []string // optional notes
}

// Strategy grades one question type and knows its canonical answer.
type Strategy interface {
	Grade(q slide.QuestionInfo, answer []slide.Answer) Result
	// Key reconstructs the canonical correct answer. ok is false when the
	// question type has none (e.g. open ended).
	Key(q slide.QuestionInfo) (answer []slide.Answer, ok bool)
}

// Grader routes by question type to the correct Strategy.
type Grader interface {
	Grade(q slide.QuestionInfo, answer []slide.Answer) Result
	Evaluate(q slide.QuestionInfo, answer []slide.Answer) bool
	CorrectAnswer(q slide.QuestionInfo) ([]slide.Answer, bool)
}

type defaultGrader struct {
	strategies map[slide.QuestionType]Strategy
}

func (g *defaultGrader) Grade(q slide.QuestionInfo, answer []slide.Answer) Result {
	s, ok := g.strategies[q.Type]
	if !ok {
		return Result{NeedsManual: true, Feedback: []string{"no strategy available"}}
	}
	return s.Grade(q, answer)
}

func (g *defaultGrader) Evaluate(q slide.QuestionInfo, answer []slide.Answer) bool {
	return g.Grade(q, answer).Correct
}

func (g *defaultGrader) CorrectAnswer(q slide.QuestionInfo) ([]slide.Answer, bool) {
	s, ok := g.strategies[q.Type]
	if !ok {
		return nil, false
	}
	return s.Key(q)
}

// Engine options

type Option func(*config)

type config struct {
	MaxEditDistance int // fuzzy tolerance for fill-in-the-blank
}

func WithMaxEditDistance(n int) Option { return func(c *config) { c.MaxEditDistance = n } }

// NewDefaultGrader installs built-in strategies.
func NewDefaultGrader(opts ...Option) Grader {
	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}
	return &defaultGrader{
		strategies: map[slide.QuestionType]Strategy{
			slide.SingleChoice:   singleChoiceStrategy{},
			slide.TrueFalse:      singleChoiceStrategy{},
			slide.MultipleChoice: multipleChoiceStrategy{},
			slide.Numerical:      numericStrategy{},
			slide.OrderList:      orderListStrategy{},
			slide.MatchWords:     matchStrategy{},
			slide.DragAndDrop:    matchStrategy{},
			slide.FillInBlank:    fillBlankStrategy{maxEdit: cfg.MaxEditDistance},
			slide.OpenEnded:      openEndedStrategy{},
		},
	}
}

var defaultG = NewDefaultGrader()

// Evaluate grades answer with the default strategies.
func Evaluate(q slide.QuestionInfo, answer []slide.Answer) bool { return defaultG.Evaluate(q, answer) }

// CorrectAnswer returns the canonical answer with the default strategies.
func CorrectAnswer(q slide.QuestionInfo) ([]slide.Answer, bool) { return defaultG.CorrectAnswer(q) }

// --- Strategies ---

type singleChoiceStrategy struct{}

func (singleChoiceStrategy) Grade(q slide.QuestionInfo, answer []slide.Answer) Result {
	key, ok := singleChoiceStrategy{}.Key(q)
	if !ok || len(answer) != 1 {
		return Result{}
	}
	return Result{Correct: answer[0].Text == key[0].Text}
}

func (singleChoiceStrategy) Key(q slide.QuestionInfo) ([]slide.Answer, bool) {
	for _, o := range q.Options {
		if o.IsCorrect {
			return []slide.Answer{{Text: o.Text}}, true
		}
	}
	return nil, false
}

type multipleChoiceStrategy struct{}

func (multipleChoiceStrategy) Grade(q slide.QuestionInfo, answer []slide.Answer) Result {
	key, _ := multipleChoiceStrategy{}.Key(q)
	return Result{Correct: setEqual(toSet(texts(key)), toSet(texts(answer)))}
}

func (multipleChoiceStrategy) Key(q slide.QuestionInfo) ([]slide.Answer, bool) {
	var out []slide.Answer
	for _, o := range q.Options {
		if o.IsCorrect {
			out = append(out, slide.Answer{Text: o.Text})
		}
	}
	return out, len(out) > 0
}

type orderListStrategy struct{}

func (orderListStrategy) Grade(q slide.QuestionInfo, answer []slide.Answer) Result {
	key, _ := orderListStrategy{}.Key(q)
	if len(key) != len(answer) {
		return Result{}
	}
	for i := range key {
		if key[i].Text != answer[i].Text {
			return Result{}
		}
	}
	return Result{Correct: true}
}

func (orderListStrategy) Key(q slide.QuestionInfo) ([]slide.Answer, bool) {
	opts := append([]slide.Option(nil), q.Options...)
	sort.SliceStable(opts, func(i, j int) bool { return opts[i].CorrectOrder < opts[j].CorrectOrder })
	out := make([]slide.Answer, 0, len(opts))
	for i, o := range opts {
		out = append(out, slide.Answer{Text: o.Text, Order: i})
	}
	return out, len(out) > 0
}

type matchStrategy struct{}

func (matchStrategy) Grade(q slide.QuestionInfo, answer []slide.Answer) Result {
	if len(q.Options) == 0 {
		return Result{}
	}
	want := make(map[string]string, len(q.Options))
	for _, o := range q.Options {
		want[o.Text] = o.Match
	}
	got := make(map[string]string, len(answer))
	for _, a := range answer {
		got[a.Text] = a.Match
	}
	if len(answer) != len(q.Options) || len(got) != len(want) {
		return Result{}
	}
	for text, match := range want {
		if m, ok := got[text]; !ok || m != match {
			return Result{}
		}
	}
	return Result{Correct: true}
}

func (matchStrategy) Key(q slide.QuestionInfo) ([]slide.Answer, bool) {
	out := make([]slide.Answer, 0, len(q.Options))
	for _, o := range q.Options {
		out = append(out, slide.Answer{Text: o.Text, Match: o.Match})
	}
	return out, len(out) > 0
}

type openEndedStrategy struct{}

func (openEndedStrategy) Grade(slide.QuestionInfo, []slide.Answer) Result {
	return Result{NeedsManual: true, Feedback: []string{"manual grading required"}}
}

func (openEndedStrategy) Key(slide.QuestionInfo) ([]slide.Answer, bool) { return nil, false }

// helpers

func texts(answer []slide.Answer) []string {
	out := make([]string, 0, len(answer))
	for _, a := range answer {
		out = append(out, a.Text)
	}
	return out
}

func toSet(arr []string) map[string]struct{} {
	m := make(map[string]struct{}, len(arr))
	for _, s := range arr {
		m[s] = struct{}{}
	}
	return m
}

func setEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
