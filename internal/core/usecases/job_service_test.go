package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/agrosight/internal/core/domain"
	"github.com/samirrijal/agrosight/internal/core/usecases"
)

func TestJobService_Submit(t *testing.T) {
	var started domain.AnalysisRequest
	runner := &mockRunner{
		startFn: func(ctx context.Context, req domain.AnalysisRequest) (string, error) {
			started = req
			return "ndvi-123", nil
		},
	}
	ndvi := usecases.NewNDVIService(okProvider(0.5), nil, nil, nil, usecases.NDVIOptions{})
	svc := usecases.NewJobService(ndvi, runner)

	id, err := svc.Submit(context.Background(), request(triangle))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "ndvi-123" {
		t.Errorf("unexpected id %s", id)
	}
	if started.StartDate != "2024-03-01" {
		t.Errorf("request not forwarded: %+v", started)
	}
}

func TestJobService_SubmitInvalid(t *testing.T) {
	runner := &mockRunner{
		startFn: func(ctx context.Context, req domain.AnalysisRequest) (string, error) {
			t.Error("invalid requests must not start a workflow")
			return "", nil
		},
	}
	ndvi := usecases.NewNDVIService(okProvider(0.5), nil, nil, nil, usecases.NDVIOptions{})
	svc := usecases.NewJobService(ndvi, runner)

	if _, err := svc.Submit(context.Background(), request(nil)); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestJobService_Status(t *testing.T) {
	runner := &mockRunner{
		describeFn: func(ctx context.Context, id string) (*domain.AnalysisJob, error) {
			return &domain.AnalysisJob{ID: id, Status: domain.JobStatusCompleted, Result: &domain.AnalysisData{MeanNDVI: 0.5}}, nil
		},
	}
	svc := usecases.NewJobService(nil, runner)

	job, err := svc.Status(context.Background(), "ndvi-1")
	if err != nil {
		t.Fatal(err)
	}
	if job.Status != domain.JobStatusCompleted || job.Result.MeanNDVI != 0.5 {
		t.Errorf("unexpected job %+v", job)
	}
	if _, err := svc.Status(context.Background(), ""); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for empty id, got %v", err)
	}
}
