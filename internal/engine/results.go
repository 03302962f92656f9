package engine

import (
	"context"

	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/attempt"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/exam"
)

type ResultItem struct {
	Question exam.Question   `json:"question"`
	Answer   *attempt.Answer `json:"answer,omitempty"`
}

// StudentResult is a student's view of their own attempt. Answer keys,
// correctness, scores and the total are only included once the attempt is
// completed.
type StudentResult struct {
	Exam    exam.Exam       `json:"exam"`
	Attempt attempt.Attempt `json:"attempt"`
	Items   []ResultItem    `json:"items"`
}

func (s *Service) StudentResults(ctx context.Context, studentID, examID int64) (StudentResult, error) {
	e, err := exam.Get(ctx, s.db, examID)
	if err != nil {
		return StudentResult{}, err
	}
	a, err := attempt.Get(ctx, s.db, studentID, examID)
	if err != nil {
		return StudentResult{}, err
	}
	qs, err := exam.ListQuestions(ctx, s.db, examID)
	if err != nil {
		return StudentResult{}, err
	}
	answers, err := attempt.List(ctx, s.db, studentID, examID)
	if err != nil {
		return StudentResult{}, err
	}
	return StudentResult{Exam: e, Attempt: studentView(a), Items: pair(qs, answers, a.Completed())}, nil
}

// ExamAttempts lists every attempt at an exam the teacher owns.
func (s *Service) ExamAttempts(ctx context.Context, teacherID, examID int64) (exam.Exam, []attempt.Attempt, error) {
	e, err := exam.GetOwned(ctx, s.db, teacherID, examID)
	if err != nil {
		return exam.Exam{}, nil, err
	}
	list, err := attempt.ListByExam(ctx, s.db, examID)
	if err != nil {
		return exam.Exam{}, nil, err
	}
	return e, list, nil
}

type StudentAnswers struct {
	Attempt attempt.Attempt `json:"attempt"`
	Items   []ResultItem    `json:"items"`
}

// Evaluation is the grading sheet of an exam: each attempt with its answers
// next to the questions.
type Evaluation struct {
	Exam     exam.Exam        `json:"exam"`
	Students []StudentAnswers `json:"students"`
}

func (s *Service) Evaluation(ctx context.Context, teacherID, examID int64) (Evaluation, error) {
	e, attempts, err := s.ExamAttempts(ctx, teacherID, examID)
	if err != nil {
		return Evaluation{}, err
	}
	qs, err := exam.ListQuestions(ctx, s.db, examID)
	if err != nil {
		return Evaluation{}, err
	}
	answers, err := attempt.ListAnswersByExam(ctx, s.db, examID)
	if err != nil {
		return Evaluation{}, err
	}
	byStudent := map[int64][]attempt.Answer{}
	for _, a := range answers {
		byStudent[a.StudentID] = append(byStudent[a.StudentID], a)
	}
	ev := Evaluation{Exam: e, Students: make([]StudentAnswers, 0, len(attempts))}
	for _, a := range attempts {
		ev.Students = append(ev.Students, StudentAnswers{Attempt: a, Items: pair(qs, byStudent[a.StudentID], true)})
	}
	return ev, nil
}

// pair lines answers up with their questions. Without withKey the answer
// keys and every grade are left out.
func pair(qs []exam.Question, answers []attempt.Answer, withKey bool) []ResultItem {
	byQuestion := make(map[int64]*attempt.Answer, len(answers))
	for i := range answers {
		a := answers[i]
		if !withKey {
			a.IsCorrect = nil
			a.Score = nil
		}
		byQuestion[a.QuestionID] = &a
	}
	items := make([]ResultItem, 0, len(qs))
	for _, q := range qs {
		if !withKey {
			q = q.Public()
		}
		items = append(items, ResultItem{Question: q, Answer: byQuestion[q.ID]})
	}
	return items
}

// studentView hides the running total of an attempt that is still open.
func studentView(a attempt.Attempt) attempt.Attempt {
	if !a.Completed() {
		a.TotalScore = 0
	}
	return a
}
