package workflows

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/agrosight/internal/core/domain"
	"github.com/samirrijal/agrosight/internal/core/usecases"
)

// Activity names as registered on the worker.
const (
	ActivityRequestNDVI    = "RequestNDVI"
	ActivityRecordAnalysis = "RecordAnalysis"
	ActivityPublishOutcome = "PublishOutcome"
)

// Outcome is the input of PublishOutcome: either a recorded analysis or a failure reason.
type Outcome struct {
	Analysis *domain.Analysis
	Request  domain.AnalysisRequest
	Reason   string
}

// Activities holds the activity implementations for the NDVI analysis workflow.
type Activities struct {
	NDVI *usecases.NDVIService
}

// RequestNDVI asks the processor for the mean NDVI of the request's area.
// Invalid requests fail without retry.
func (a *Activities) RequestNDVI(ctx context.Context, req domain.AnalysisRequest) (*domain.NDVIObservation, error) {
	obs, err := a.NDVI.Observe(ctx, req)
	if errors.Is(err, domain.ErrInvalidRequest) {
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), "InvalidRequest", err)
	}
	if err != nil {
		return nil, fmt.Errorf("request ndvi: %w", err)
	}
	return obs, nil
}

// RecordAnalysis stores the observation in the analysis history.
func (a *Activities) RecordAnalysis(ctx context.Context, req domain.AnalysisRequest, obs *domain.NDVIObservation) (*domain.Analysis, error) {
	analysis, err := a.NDVI.Record(ctx, req, obs)
	if err != nil {
		return nil, err
	}
	activity.GetLogger(ctx).Info("analysis recorded", "id", analysis.ID)
	return analysis, nil
}

// PublishOutcome emits the completed or failed event.
func (a *Activities) PublishOutcome(ctx context.Context, out Outcome) error {
	if out.Analysis != nil {
		a.NDVI.PublishCompleted(ctx, out.Analysis)
		return nil
	}
	a.NDVI.PublishFailure(ctx, out.Request, out.Reason)
	return nil
}
