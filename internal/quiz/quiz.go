// Package quiz models the terminal questionnaire as a finite-state machine.
// A State is a value: every transition returns a new State and leaves the
// receiver untouched.
package quiz

import (
	"errors"
	"strings"

	"github.com/spigell/eb1-screener/internal/prompt"
)

type Stage int

const (
	StageQuestions Stage = iota
	StageReview
	StageSubmitted
)

func (s Stage) String() string {
	switch s {
	case StageQuestions:
		return "questions"
	case StageReview:
		return "review"
	case StageSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

var (
	ErrNotInReview = errors.New("questionnaire is not ready for submission")
	ErrNoAnswers   = errors.New("at least one question must be answered")
)

type State struct {
	stage     Stage
	step      int
	questions []prompt.Question
	answers   map[string]string
}

// Start begins at the first question. With no questions the state goes
// straight to review.
func Start(questions []prompt.Question) State {
	s := State{
		questions: append([]prompt.Question(nil), questions...),
		answers:   map[string]string{},
	}
	if len(questions) == 0 {
		s.stage = StageReview
	}
	return s
}

func (s State) Stage() Stage { return s.stage }

// Step is the zero-based index of the current question.
func (s State) Step() int { return s.step }

func (s State) Total() int { return len(s.questions) }

// Current returns the question being asked; false outside StageQuestions.
func (s State) Current() (prompt.Question, bool) {
	if s.stage != StageQuestions {
		return prompt.Question{}, false
	}
	return s.questions[s.step], true
}

// Answer records value for the current question and advances. A blank value
// clears any previous answer.
func (s State) Answer(value string) State {
	if s.stage != StageQuestions {
		return s
	}

	next := s.withAnswers()
	id := s.questions[s.step].ID
	if v := strings.TrimSpace(value); v != "" {
		next.answers[id] = v
	} else {
		delete(next.answers, id)
	}

	next.step++
	if next.step == len(next.questions) {
		next.step = len(next.questions) - 1
		next.stage = StageReview
	}
	return next
}

// Back returns to the previous question, or from review to the last one.
func (s State) Back() State {
	switch {
	case s.stage == StageReview && len(s.questions) > 0:
		s.stage = StageQuestions
	case s.stage == StageQuestions && s.step > 0:
		s.step--
	}
	return s
}

// Submit finalizes the answers. It is only valid in review with at least one
// answer.
func (s State) Submit() (State, error) {
	if s.stage != StageReview {
		return s, ErrNotInReview
	}
	if len(s.answers) == 0 {
		return s, ErrNoAnswers
	}
	s.stage = StageSubmitted
	return s, nil
}

// AnswerFor returns the recorded answer of a question id.
func (s State) AnswerFor(id string) (string, bool) {
	v, ok := s.answers[id]
	return v, ok
}

// Answers returns a copy of the recorded answers.
func (s State) Answers() map[string]string {
	out := make(map[string]string, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

func (s State) withAnswers() State {
	s.answers = s.Answers()
	return s
}
