package usecases

import (
	"context"
	"fmt"

	"github.com/samirrijal/agrosight/internal/core/domain"
	"github.com/samirrijal/agrosight/internal/core/ports"
	"github.com/samirrijal/agrosight/internal/pkg/metrics"
)

// JobService submits NDVI analyses to the workflow engine and reports their progress.
type JobService struct {
	ndvi   *NDVIService
	runner ports.JobRunner
}

// NewJobService creates a new JobService.
func NewJobService(ndvi *NDVIService, runner ports.JobRunner) *JobService {
	return &JobService{ndvi: ndvi, runner: runner}
}

// Submit validates the request up front and starts an asynchronous analysis.
func (s *JobService) Submit(ctx context.Context, req domain.AnalysisRequest) (string, error) {
	if err := s.ndvi.Validate(req); err != nil {
		return "", err
	}
	id, err := s.runner.Start(ctx, req)
	if err != nil {
		return "", fmt.Errorf("start analysis job: %w", err)
	}
	metrics.JobsSubmitted.Inc()
	return id, nil
}

// Status reports the state of a submitted analysis.
func (s *JobService) Status(ctx context.Context, id string) (*domain.AnalysisJob, error) {
	if id == "" {
		return nil, fmt.Errorf("job id: %w", domain.ErrNotFound)
	}
	return s.runner.Describe(ctx, id)
}
