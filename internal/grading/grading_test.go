package grading_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/attempt"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/db/dbtest"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/exam"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/grading"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/user"
)

func strp(s string) *string { return &s }

func TestScoreMCQ(t *testing.T) {
	tests := []struct {
		given, correct string
		wantOK         bool
		wantScore      float64
	}{
		{"b ", "B", true, 1},
		{"C", "B", false, 0},
		{" paris", "Paris ", true, 1},
		{"", "B", false, 0},
		{"B", "", false, 0},
	}
	for _, tt := range tests {
		ok, score := grading.ScoreMCQ(tt.given, tt.correct)
		if ok != tt.wantOK || score != tt.wantScore {
			t.Errorf("ScoreMCQ(%q, %q) = (%v, %v), want (%v, %v)", tt.given, tt.correct, ok, score, tt.wantOK, tt.wantScore)
		}
	}
}

func TestGraderRoutesByType(t *testing.T) {
	g := grading.NewDefaultGrader()
	ctx := context.Background()

	res := g.Grade(ctx, grading.Q{Type: exam.TypeMCQ, CorrectAnswer: "A"},
		grading.Response{SelectedOption: strp("C"), AnswerText: strp("a")})
	if res.IsCorrect == nil || *res.IsCorrect || res.Score != 0 {
		t.Errorf("selected option should win over text: %+v", res)
	}
	res = g.Grade(ctx, grading.Q{Type: exam.TypeMCQ, CorrectAnswer: "A"}, grading.Response{AnswerText: strp(" a ")})
	if res.IsCorrect == nil || !*res.IsCorrect || res.Score != 1 {
		t.Errorf("text fallback: %+v", res)
	}
	res = g.Grade(ctx, grading.Q{Type: exam.TypeMCQ}, grading.Response{SelectedOption: strp("A")})
	if res.IsCorrect != nil || res.Score != 0 {
		t.Errorf("missing key: %+v", res)
	}
	if res := g.Grade(ctx, grading.Q{Type: exam.TypeDescriptive}, grading.Response{AnswerText: strp("x")}); !res.NeedsManual {
		t.Errorf("descriptive should need manual grading: %+v", res)
	}
}

func TestAutoGradeAndRecalculateTotal(t *testing.T) {
	d := dbtest.Open(t)
	ctx := context.Background()
	now := time.Unix(1700000000, 0)
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
	opts := json.RawMessage(`["Paris","London","Berlin"]`)
	e, err := exams.Create(ctx, teacher.ID, exam.NewExam{
		Title: "Mixed", Duration: 10,
		Questions: []exam.NewQuestion{
			{Text: "q1", Type: "MCQ", Options: opts, CorrectAnswer: "A"},
			{Text: "q2", Type: "MCQ", Options: opts, CorrectAnswer: "B"},
			{Text: "q3", Type: "MCQ", Options: opts, CorrectAnswer: "C"},
			{Text: "q4", Type: "Descriptive"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	qs, err := exams.Questions(ctx, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := attempt.Ensure(ctx, d, student.ID, e.ID, now); err != nil {
		t.Fatal(err)
	}

	given := []string{"a", "C", "c "}
	for i, sel := range given {
		if err := attempt.Save(ctx, d, attempt.Write{
			StudentID: student.ID, ExamID: e.ID, QuestionID: qs[i].ID, SelectedOption: strp(sel),
		}, now); err != nil {
			t.Fatal(err)
		}
	}
	if err := attempt.Save(ctx, d, attempt.Write{
		StudentID: student.ID, ExamID: e.ID, QuestionID: qs[3].ID, AnswerText: strp("essay"),
	}, now); err != nil {
		t.Fatal(err)
	}
	if err := attempt.SetTotal(ctx, d, student.ID, e.ID, 42); err != nil {
		t.Fatal(err)
	}

	scorer := grading.NewScorer(nil)
	for run := 0; run < 2; run++ {
		n, err := scorer.AutoGrade(ctx, d, student.ID, e.ID)
		if err != nil {
			t.Fatalf("AutoGrade run %d: %v", run, err)
		}
		if n != 3 {
			t.Fatalf("AutoGrade graded %d answers, want 3", n)
		}
	}
	if err := grading.SetManualScore(ctx, d, student.ID, e.ID, qs[3].ID, 3.5, now); err != nil {
		t.Fatal(err)
	}

	total, err := grading.RecalculateTotal(ctx, d, student.ID, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if total != 5.5 {
		t.Fatalf("total = %v, want 5.5", total)
	}
	a, err := attempt.Get(ctx, d, student.ID, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if a.TotalScore != 5.5 {
		t.Errorf("stored total = %v, want 5.5", a.TotalScore)
	}

	essay, err := attempt.Find(ctx, d, student.ID, e.ID, qs[3].ID)
	if err != nil {
		t.Fatal(err)
	}
	if essay.IsCorrect != nil {
		t.Errorf("auto grade touched descriptive answer: %+v", essay)
	}
	if _, err := scorer.AutoGrade(ctx, d, student.ID, e.ID); err != nil {
		t.Fatal(err)
	}
	essay, _ = attempt.Find(ctx, d, student.ID, e.ID, qs[3].ID)
	if essay.Score == nil || *essay.Score != 3.5 {
		t.Errorf("manual score lost after regrade: %v", essay.Score)
	}
}
