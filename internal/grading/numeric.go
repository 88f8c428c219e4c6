package grading

import (
	"math"
	"strconv"
	"strings"

	"github.com/mind-engage/mindengage-lessons/internal/slide"
)

// numericStrategy grades a single numeric entry. The canonical value is the
// first option's text; when several options are present the answer must be
// one of them.
//
//	Options: [{"text": "42"}]            // abs(answer) == 42
//	Options: [{"text": "2"}, {"text": "3"}] // answer in {2, 3}
//
// The single-value comparison ignores the sign of the answer. Input is
// sanitized to digits and '.', so a leading '-' never reaches the parser.
type numericStrategy struct{}

func (numericStrategy) Grade(q slide.QuestionInfo, answer []slide.Answer) Result {
	if len(answer) == 0 || len(q.Options) == 0 {
		return Result{}
	}
	v, ok := parseFloatLoose(SanitizeNumeric(answer[0].Text))
	if !ok {
		return Result{}
	}
	if len(q.Options) == 1 {
		want, ok := parseFloatLoose(q.Options[0].Text)
		return Result{Correct: ok && math.Abs(v) == want}
	}
	for _, o := range q.Options {
		if want, ok := parseFloatLoose(o.Text); ok && v == want {
			return Result{Correct: true}
		}
	}
	return Result{}
}

func (numericStrategy) Key(q slide.QuestionInfo) ([]slide.Answer, bool) {
	if len(q.Options) == 0 {
		return nil, false
	}
	return []slide.Answer{{Text: strings.TrimSpace(q.Options[0].Text)}}, true
}

// SanitizeNumeric keeps only the characters a numeric entry accepts.
func SanitizeNumeric(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func parseFloatLoose(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, true
	}
	if sp := strings.Fields(s); len(sp) > 0 {
		if v, err := strconv.ParseFloat(sp[0], 64); err == nil {
			return v, true
		}
	}
	return 0, false
}
