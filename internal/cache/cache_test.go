package cache_test

import (
	"context"
	"testing"

	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/cache"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/exam"
)

func TestMemory(t *testing.T) {
	c := cache.NewMemory()
	ctx := context.Background()

	if _, ok := c.Get(ctx, 1); ok {
		t.Fatal("empty cache returned a hit")
	}
	c.Put(ctx, cache.Bundle{Exam: exam.Exam{ID: 1, Title: "Physics"}, Questions: []exam.Question{{ID: 3}}})
	b, ok := c.Get(ctx, 1)
	if !ok || b.Exam.Title != "Physics" || len(b.Questions) != 1 {
		t.Fatalf("unexpected bundle: %+v ok=%v", b, ok)
	}
	c.Invalidate(ctx, 1)
	if _, ok := c.Get(ctx, 1); ok {
		t.Error("hit after invalidate")
	}

	var n cache.Nop
	n.Put(ctx, b)
	if _, ok := n.Get(ctx, 1); ok {
		t.Error("nop cache returned a hit")
	}
}
