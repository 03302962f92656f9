// Package grading scores answers. Objective questions are graded
// automatically by a Strategy chosen by question type; descriptive
// questions wait for a teacher's score.
package grading

import (
	"context"
	"strings"

	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/exam"
)

// Q is the view of a question needed for grading.
type Q struct {
	Type          exam.QuestionType
	CorrectAnswer string
}

// Response is what the student entered. Either field may be nil.
type Response struct {
	SelectedOption *string
	AnswerText     *string
}

// Result is the outcome of grading one answer.
type Result struct {
	IsCorrect   *bool
	Score       float64
	NeedsManual bool // score must come from a teacher; IsCorrect/Score are meaningless
}

// Strategy grades a single question.
type Strategy interface {
	Grade(ctx context.Context, q Q, r Response) Result
}

// Grader routes by question type to the correct Strategy.
type Grader interface {
	Grade(ctx context.Context, q Q, r Response) Result
}

type defaultGrader struct {
	strategies map[exam.QuestionType]Strategy
}

func (g *defaultGrader) Grade(ctx context.Context, q Q, r Response) Result {
	s, ok := g.strategies[q.Type]
	if !ok {
		return Result{NeedsManual: true}
	}
	return s.Grade(ctx, q, r)
}

// NewDefaultGrader installs the built-in strategies.
func NewDefaultGrader() Grader {
	return &defaultGrader{
		strategies: map[exam.QuestionType]Strategy{
			exam.TypeMCQ:         mcqStrategy{},
			exam.TypeDescriptive: manualStrategy{},
		},
	}
}

// ScoreMCQ compares a selected label (or, failing that, free text) with the
// answer key, trimmed and case-insensitive. Scoring is binary.
func ScoreMCQ(selectedOrText, correct string) (bool, float64) {
	a, b := strings.TrimSpace(selectedOrText), strings.TrimSpace(correct)
	if a == "" || b == "" || !strings.EqualFold(a, b) {
		return false, 0
	}
	return true, 1
}

type mcqStrategy struct{}

// Grade prefers the selected option over the text. With no answer key or no
// content is_correct stays unknown and the score is zero.
func (mcqStrategy) Grade(_ context.Context, q Q, r Response) Result {
	var given string
	switch {
	case nonEmpty(r.SelectedOption):
		given = *r.SelectedOption
	case nonEmpty(r.AnswerText):
		given = *r.AnswerText
	}
	if given == "" || strings.TrimSpace(q.CorrectAnswer) == "" {
		return Result{}
	}
	ok, score := ScoreMCQ(given, q.CorrectAnswer)
	return Result{IsCorrect: &ok, Score: score}
}

type manualStrategy struct{}

func (manualStrategy) Grade(context.Context, Q, Response) Result {
	return Result{NeedsManual: true}
}

func nonEmpty(s *string) bool { return s != nil && strings.TrimSpace(*s) != "" }
