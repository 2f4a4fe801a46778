package quiz

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/abhisek/tutorchat/internal/bank"
	"github.com/abhisek/tutorchat/internal/failure"
	"github.com/abhisek/tutorchat/internal/topic"
)

// DefaultSize is the number of questions drawn per quiz.
const DefaultSize = 5

// ProgressService reads and persists the user's progress score.
type ProgressService interface {
	Progress(ctx context.Context) (int, error)
	UpdateProgress(ctx context.Context, score int) (int, error)
}

// Outcome is the result of a consumed answer.
type Outcome struct {
	Correct  bool
	Messages []string // assistant messages to append, in order

	Completed    bool
	FinalScore   int
	PointsEarned int

	// Progress is the persisted progress after completion; valid only when
	// ProgressUpdated is set.
	Progress        int
	ProgressUpdated bool
	// ProgressErr is set when the progress update failed. The quiz still
	// counts as completed.
	ProgressErr error
}

// Engine drives quizzes. It keeps no per-quiz state.
type Engine struct {
	bank     bank.Source
	progress ProgressService
	rng      *rand.Rand
	size     int
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand makes question selection deterministic.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithSize overrides the number of questions per quiz.
func WithSize(n int) Option {
	return func(e *Engine) { e.size = n }
}

// NewEngine creates an Engine that draws questions from src and reports
// completed quizzes to progress.
func NewEngine(src bank.Source, progress ProgressService, opts ...Option) *Engine {
	e := &Engine{bank: src, progress: progress, size: DefaultSize}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Start draws a new quiz for topicID and returns it with the messages to
// show: an introduction followed by the first question.
func (e *Engine) Start(ctx context.Context, topicID string) (*State, []string, error) {
	questions, err := e.bank.Questions(ctx, topicID)
	if err != nil {
		return nil, nil, err
	}
	if len(questions) == 0 {
		return nil, nil, &failure.DataUnavailableError{Dataset: "questions", Topic: topicID}
	}

	s := &State{
		Topic:     topicID,
		Questions: bank.Pick(questions, e.size, e.rng),
	}

	intro := fmt.Sprintf("Let's test your knowledge of %s! I'll ask you %d questions. Reply with A, B, C, or D.",
		topic.Name(topicID), s.Total())
	first, _ := Advance(s)
	return s, []string{intro, first.Markup()}, nil
}

// Submit offers raw as an answer. It returns false, leaving s untouched,
// when raw is not an answer letter or no question is pending.
func (e *Engine) Submit(ctx context.Context, s *State, raw string) (Outcome, bool) {
	answer, ok := NormalizeAnswer(raw)
	if !ok || s == nil || s.CurrentQuestion == nil || s.Complete() {
		return Outcome{}, false
	}

	var out Outcome
	if answer == s.CurrentQuestion.Correct {
		s.Score++
		out.Correct = true
		out.Messages = append(out.Messages, "Correct!")
	} else {
		out.Messages = append(out.Messages,
			fmt.Sprintf("Incorrect — correct answer was %s", s.CurrentQuestion.Correct))
	}
	s.AnsweredQuestions++

	if !s.Complete() {
		if next, ok := Advance(s); ok {
			out.Messages = append(out.Messages, next.Markup())
		}
		return out, true
	}

	s.CurrentQuestion = nil
	out.Completed = true
	out.FinalScore = FinalScore(s.Score, s.Total())
	out.PointsEarned = PointsEarned(out.FinalScore)

	summary := fmt.Sprintf("Quiz complete! You scored %d%% (%d out of %d correct).",
		out.FinalScore, s.Score, s.Total())
	if out.PointsEarned > 0 {
		summary += fmt.Sprintf(" You earned %d progress points.", out.PointsEarned)
	}
	out.Messages = append(out.Messages, summary)

	if out.PointsEarned > 0 {
		out.Progress, out.ProgressErr = e.award(ctx, out.PointsEarned)
		out.ProgressUpdated = out.ProgressErr == nil
	}
	return out, true
}

func (e *Engine) award(ctx context.Context, points int) (int, error) {
	current, err := e.progress.Progress(ctx)
	if err != nil {
		return 0, &failure.PersistenceError{Op: "update progress", Err: err}
	}
	saved, err := e.progress.UpdateProgress(ctx, ApplyPoints(current, points))
	if err != nil {
		return 0, &failure.PersistenceError{Op: "update progress", Err: err}
	}
	return saved, nil
}
