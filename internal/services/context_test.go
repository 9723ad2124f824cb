package services_test

import (
	"context"
	"testing"

	"omrdiff/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithScore(ctx, "bach.mxl")
	ctx = services.WithMode(ctx, "single")
	ctx = services.WithStage(ctx, "diff")
	ctx = services.WithRequestID(ctx, "req-123")

	if score, ok := services.ScoreFromContext(ctx); !ok || score != "bach.mxl" {
		t.Fatalf("unexpected score: %v %v", score, ok)
	}
	if mode, ok := services.ModeFromContext(ctx); !ok || mode != "single" {
		t.Fatalf("unexpected mode: %v %v", mode, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "diff" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithScore(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.ScoreFromContext(ctx); ok {
		t.Fatal("expected no score value")
	}
}
