package attempt_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/apperr"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/attempt"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/db"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/db/dbtest"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/exam"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/user"
)

type fixture struct {
	db        *db.DB
	studentID int64
	examID    int64
	questions []exam.Question
}

func setup(t *testing.T) fixture {
	t.Helper()
	d := dbtest.Open(t)
	ctx := context.Background()
	users := user.NewStore(d)
	teacher, err := users.Create(ctx, "teach", "pw", user.RoleTeacher)
	if err != nil {
		t.Fatal(err)
	}
	student, err := users.Create(ctx, "stu", "pw", user.RoleStudent)
	if err != nil {
		t.Fatal(err)
	}
	exams := exam.NewStore(d)
	e, err := exams.Create(ctx, teacher.ID, exam.NewExam{
		Title:    "Geography",
		Duration: 20,
		Questions: []exam.NewQuestion{
			{Text: "Capital of France?", Type: "MCQ", Options: json.RawMessage(`{"A":"Paris","B":"London"}`), CorrectAnswer: "A"},
			{Text: "Describe a river", Type: "Descriptive"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	qs, err := exams.Questions(ctx, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	return fixture{db: d, studentID: student.ID, examID: e.ID, questions: qs}
}

func strp(s string) *string { return &s }

func TestEnsureConcurrent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	now := time.Unix(1700000000, 0)

	const n = 16
	ids := make([]int64, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = attempt.Ensure(ctx, f.db, f.studentID, f.examID, now)
		}(i)
	}
	wg.Wait()

	for i := range ids {
		if errs[i] != nil {
			t.Fatalf("Ensure #%d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("Ensure returned different ids: %d vs %d", ids[i], ids[0])
		}
	}
	var rows int
	if err := f.db.QueryRow(ctx, `SELECT COUNT(*) FROM exam_attempts`).Scan(&rows); err != nil {
		t.Fatal(err)
	}
	if rows != 1 {
		t.Fatalf("expected 1 attempt row, got %d", rows)
	}
	a, err := attempt.GetByID(ctx, f.db, ids[0])
	if err != nil {
		t.Fatal(err)
	}
	if a.Status != attempt.StatusInProgress || a.SubmittedAt != nil || a.Username != "stu" {
		t.Errorf("unexpected attempt: %+v", a)
	}
}

func TestCompleteIsIdempotent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	if _, err := attempt.Complete(ctx, f.db, f.studentID, f.examID, time.Now()); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("complete without attempt: expected not found, got %v", err)
	}
	if _, err := attempt.Ensure(ctx, f.db, f.studentID, f.examID, time.Unix(100, 0)); err != nil {
		t.Fatal(err)
	}

	first := time.Unix(200, 0)
	changed, err := attempt.Complete(ctx, f.db, f.studentID, f.examID, first)
	if err != nil || !changed {
		t.Fatalf("first Complete: changed=%v err=%v", changed, err)
	}
	changed, err = attempt.Complete(ctx, f.db, f.studentID, f.examID, time.Unix(900, 0))
	if err != nil || changed {
		t.Fatalf("second Complete: changed=%v err=%v", changed, err)
	}

	a, err := attempt.Get(ctx, f.db, f.studentID, f.examID)
	if err != nil {
		t.Fatal(err)
	}
	if !a.Completed() || a.SubmittedAt == nil || !a.SubmittedAt.Equal(first) {
		t.Errorf("submitted_at regressed or status wrong: %+v", a)
	}
}

func TestSaveKeepsOneRowWithLatestText(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	q := f.questions[1].ID

	for _, text := range []string{"first", "second", "third"} {
		w := attempt.Write{StudentID: f.studentID, ExamID: f.examID, QuestionID: q, AnswerText: strp(text)}
		if err := attempt.Save(ctx, f.db, w, time.Now()); err != nil {
			t.Fatalf("Save %q: %v", text, err)
		}
	}
	answers, err := attempt.List(ctx, f.db, f.studentID, f.examID)
	if err != nil {
		t.Fatal(err)
	}
	if len(answers) != 1 {
		t.Fatalf("expected 1 answer row, got %d", len(answers))
	}
	if got := *answers[0].AnswerText; got != "third" {
		t.Errorf("answer_text = %q, want third", got)
	}
}

func TestSavePreservesAbsentFieldsAndGrades(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	q := f.questions[1].ID
	score := 2.5

	if err := attempt.Save(ctx, f.db, attempt.Write{
		StudentID: f.studentID, ExamID: f.examID, QuestionID: q,
		AnswerText: strp("draft"), SelectedOption: strp("B"),
	}, time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := attempt.SetScore(ctx, f.db, f.studentID, f.examID, q, score, time.Now()); err != nil {
		t.Fatal(err)
	}
	// text-only update, ungraded
	if err := attempt.Save(ctx, f.db, attempt.Write{
		StudentID: f.studentID, ExamID: f.examID, QuestionID: q, AnswerText: strp("final"),
	}, time.Now()); err != nil {
		t.Fatal(err)
	}

	a, err := attempt.Find(ctx, f.db, f.studentID, f.examID, q)
	if err != nil {
		t.Fatal(err)
	}
	if *a.AnswerText != "final" || a.SelectedOption == nil || *a.SelectedOption != "B" {
		t.Errorf("content not merged: %+v", a)
	}
	if a.Score == nil || *a.Score != score {
		t.Errorf("score clobbered: %v", a.Score)
	}

	total, err := attempt.SumScores(ctx, f.db, f.studentID, f.examID)
	if err != nil {
		t.Fatal(err)
	}
	if total != score {
		t.Errorf("SumScores = %v, want %v", total, score)
	}
}

func TestSetScoreUpsertsUnansweredQuestion(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	essay := f.questions[1].ID
	if _, err := attempt.Ensure(ctx, f.db, f.studentID, f.examID, time.Now()); err != nil {
		t.Fatal(err)
	}
	for _, score := range []float64{1.5, 2} {
		if err := attempt.SetScore(ctx, f.db, f.studentID, f.examID, essay, score, time.Now()); err != nil {
			t.Fatal(err)
		}
	}
	a, err := attempt.Find(ctx, f.db, f.studentID, f.examID, essay)
	if err != nil {
		t.Fatal(err)
	}
	if a.AnswerText != nil || a.SelectedOption != nil || a.Score == nil || *a.Score != 2 {
		t.Errorf("unexpected answer: %+v", a)
	}
	list, err := attempt.List(ctx, f.db, f.studentID, f.examID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("rows = %d, want 1", len(list))
	}
}

func TestLockCreatesAndReturnsAttempt(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	var first attempt.Attempt
	err := f.db.WithTx(ctx, func(tx *db.Tx) error {
		var err error
		first, err = attempt.Lock(ctx, tx, f.studentID, f.examID, time.Now())
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if first.ID == 0 || first.Status != attempt.StatusInProgress || first.Username != "stu" {
		t.Fatalf("unexpected attempt: %+v", first)
	}
	again, err := attempt.Lock(ctx, f.db, f.studentID, f.examID, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != first.ID {
		t.Errorf("second lock returned attempt %d, want %d", again.ID, first.ID)
	}
}

func TestInputNormalize(t *testing.T) {
	tests := []struct {
		name       string
		in         attempt.Input
		wantOption *string
		wantErr    bool
	}{
		{"trim and upper", attempt.Input{QuestionID: 1, SelectedOption: strp(" b ")}, strp("B"), false},
		{"empty option with text", attempt.Input{QuestionID: 1, SelectedOption: strp("  "), AnswerText: strp("x")}, nil, false},
		{"empty option only", attempt.Input{QuestionID: 1, SelectedOption: strp("")}, nil, true},
		{"nothing", attempt.Input{QuestionID: 1}, nil, true},
		{"no question", attempt.Input{AnswerText: strp("x")}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.Normalize()
			if tt.wantErr {
				if !errors.Is(err, apperr.ErrValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			switch {
			case tt.wantOption == nil && got.SelectedOption != nil:
				t.Errorf("expected absent option, got %q", *got.SelectedOption)
			case tt.wantOption != nil && (got.SelectedOption == nil || *got.SelectedOption != *tt.wantOption):
				t.Errorf("option = %v, want %q", got.SelectedOption, *tt.wantOption)
			}
		})
	}
}
