package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/apperr"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/attempt"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/db/dbtest"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/exam"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/user"
)

func TestSeedTeacher(t *testing.T) {
	d := dbtest.Open(t)
	ctx := context.Background()
	users := user.NewStore(d)

	if err := seedTeacher(ctx, users, "admin", ""); err != nil {
		t.Fatal(err)
	}
	if n, _ := users.Count(ctx, user.RoleTeacher); n != 0 {
		t.Fatalf("seeded without a password: %d teachers", n)
	}
	for i := 0; i < 2; i++ {
		if err := seedTeacher(ctx, users, "admin", "pw"); err != nil {
			t.Fatal(err)
		}
	}
	if n, _ := users.Count(ctx, user.RoleTeacher); n != 1 {
		t.Fatalf("teachers = %d, want 1", n)
	}
	if _, err := users.Authenticate(ctx, "admin", "pw", user.RoleTeacher); err != nil {
		t.Errorf("seeded account cannot log in: %v", err)
	}
}

func TestExportResults(t *testing.T) {
	d := dbtest.Open(t)
	ctx := context.Background()
	users := user.NewStore(d)
	teacher, err := users.Create(ctx, "t", "pw", user.RoleTeacher)
	if err != nil {
		t.Fatal(err)
	}
	stu, err := users.Create(ctx, "alice", "pw", user.RoleStudent)
	if err != nil {
		t.Fatal(err)
	}
	e, err := exam.NewStore(d).Create(ctx, teacher.ID, exam.NewExam{
		Title: "Quiz", Duration: 5,
		Questions: []exam.NewQuestion{{Text: "Why?", Type: "Descriptive"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if _, err := attempt.Ensure(ctx, d, stu.ID, e.ID, now); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := exportResults(ctx, d, e.ID, "", &out); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[1], "alice,0,in_progress,2024-03-01 10:00:00,") {
		t.Errorf("csv = %q", out.String())
	}

	if err := exportResults(ctx, d, 999, "", &out); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing exam: %v", err)
	}
}

func TestRootCommandDefaultsToServe(t *testing.T) {
	root := rootCmd()
	for _, name := range []string{"addr", "db-driver", "blob-driver", "auth-secret"} {
		if root.Flags().Lookup(name) == nil {
			t.Errorf("root command lacks --%s", name)
		}
	}
	for _, sub := range []string{"serve", "export", "useradd", "migrate"} {
		if c, _, err := root.Find([]string{sub}); err != nil || c.Name() != sub {
			t.Errorf("subcommand %s not registered", sub)
		}
	}
}
