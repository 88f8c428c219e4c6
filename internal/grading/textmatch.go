package grading

import (
	"regexp"
	"unicode"

	"github.com/mind-engage/mindengage-lessons/internal/slide"
)

var blankRe = regexp.MustCompile(`\[(.*?)\]`)

// fillBlankStrategy takes its key from the bracketed words of the question
// text ("The sky is [blue]"). Blanks are compared in position.
type fillBlankStrategy struct{ maxEdit int }

func (s fillBlankStrategy) Grade(q slide.QuestionInfo, answer []slide.Answer) Result {
	blanks := Blanks(q.Text)
	if len(blanks) == 0 || len(answer) != len(blanks) {
		return Result{}
	}
	fuzzy := false
	for i, b := range blanks {
		nb, na := normalize(b), normalize(answer[i].Text)
		if nb == na {
			continue
		}
		if s.maxEdit > 0 && na != "" && levenshtein(nb, na) <= s.maxEdit {
			fuzzy = true
			continue
		}
		return Result{}
	}
	res := Result{Correct: true}
	if fuzzy {
		res.Feedback = append(res.Feedback, "close match (fuzzy)")
	}
	return res
}

func (fillBlankStrategy) Key(q slide.QuestionInfo) ([]slide.Answer, bool) {
	blanks := Blanks(q.Text)
	out := make([]slide.Answer, 0, len(blanks))
	for _, b := range blanks {
		out = append(out, slide.Answer{Text: b})
	}
	return out, len(out) > 0
}

// Blanks extracts the bracketed answers of a fill-in-the-blank text.
func Blanks(text string) []string {
	m := blankRe.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(m))
	for _, g := range m {
		out = append(out, g[1])
	}
	return out
}

// normalize does simple casefolding and trims punctuation/extra spaces.
func normalize(s string) string {
	out := make([]rune, 0, len(s))
	space := false
	for _, r := range []rune(s) {
		switch {
		case unicode.IsSpace(r):
			space = true
		case unicode.IsPunct(r):
			// skip
		default:
			if space && len(out) > 0 {
				out = append(out, ' ')
			}
			space = false
			out = append(out, unicode.ToLower(r))
		}
	}
	return string(out)
}

// levenshtein computes edit distance (insertion, deletion, substitution cost 1).
func levenshtein(a, b string) int {
	ar := []rune(a)
	br := []rune(b)
	n, m := len(ar), len(br)
	if n == 0 {
		return m
	}
	if m == 0 {
		return n
	}
	dp := make([]int, m+1)
	for j := 0; j <= m; j++ {
		dp[j] = j
	}
	for i := 1; i <= n; i++ {
		prev := dp[0]
		dp[0] = i
		for j := 1; j <= m; j++ {
			tmp := dp[j]
			cost := 0
			if ar[i-1] != br[j-1] {
				cost = 1
			}
			dp[j] = min(dp[j]+1, dp[j-1]+1, prev+cost)
			prev = tmp
		}
	}
	return dp[m]
}
