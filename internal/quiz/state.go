// Package quiz runs the inline multiple-choice quiz: question selection,
// answer checking, scoring and the progress handoff on completion.
package quiz

import (
	"fmt"
	"html"
	"strings"

	"github.com/abhisek/tutorchat/internal/bank"
)

// State is one quiz in flight. It is owned by the caller and passed to the
// engine on every call; the JSON form is what save-chat stores as quiz_state.
type State struct {
	Topic                string          `json:"topic,omitempty"`
	Questions            []bank.Question `json:"questions"`
	CurrentQuestionIndex int             `json:"currentQuestionIndex"`
	CurrentQuestion      *bank.Question  `json:"currentQuestion,omitempty"`
	Score                int             `json:"score"`
	AnsweredQuestions    int             `json:"answeredQuestions"`
}

// Total is the number of questions in this quiz.
func (s *State) Total() int { return len(s.Questions) }

// Complete reports whether every question has been answered.
func (s *State) Complete() bool { return s.AnsweredQuestions >= len(s.Questions) }

// Prompt is the rendering of a single question.
type Prompt struct {
	Number  int // 1-based
	Total   int
	Text    string
	Options []string
}

// Markup renders the prompt as message markup, one option per line.
func (p Prompt) Markup() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question %d of %d:\n%s\n", p.Number, p.Total, html.EscapeString(p.Text))
	for _, o := range p.Options {
		b.WriteString("\n")
		b.WriteString(html.EscapeString(o))
	}
	return b.String()
}

// Advance moves to the next question. It returns false once the index has
// run past the last question.
func Advance(s *State) (Prompt, bool) {
	if s.CurrentQuestionIndex >= len(s.Questions) {
		return Prompt{}, false
	}
	q := s.Questions[s.CurrentQuestionIndex]
	s.CurrentQuestion = &q
	s.CurrentQuestionIndex++
	return Prompt{
		Number:  s.CurrentQuestionIndex,
		Total:   len(s.Questions),
		Text:    q.Text,
		Options: append([]string(nil), q.Options...),
	}, true
}

// NormalizeAnswer trims and upper-cases raw and reports whether it is one
// of the answer letters.
func NormalizeAnswer(raw string) (string, bool) {
	a := strings.ToUpper(strings.TrimSpace(raw))
	for _, l := range bank.Labels {
		if a == l {
			return a, true
		}
	}
	return "", false
}
