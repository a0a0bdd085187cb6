package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/agrosight/internal/core/domain"
)

// NDVIAnalysisWorkflow requests the NDVI of an area, records it and announces the outcome.
// Recording and publishing are best-effort; only the processor call decides success.
func NDVIAnalysisWorkflow(ctx workflow.Context, req domain.AnalysisRequest) (*domain.AnalysisData, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting NDVI analysis workflow", "vertices", len(req.Coordinates), "start", req.StartDate, "end", req.EndDate)

	requestCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: 5 * time.Second,
			MaximumAttempts: 3,
		},
	})
	bookkeepingCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	})

	// Step 1: processor call
	var obs domain.NDVIObservation
	if err := workflow.ExecuteActivity(requestCtx, ActivityRequestNDVI, req).Get(ctx, &obs); err != nil {
		logger.Warn("NDVI request failed", "error", err)
		_ = workflow.ExecuteActivity(bookkeepingCtx, ActivityPublishOutcome, Outcome{Request: req, Reason: err.Error()}).Get(ctx, nil)
		return nil, err
	}

	// Step 2: history
	var analysis domain.Analysis
	if err := workflow.ExecuteActivity(bookkeepingCtx, ActivityRecordAnalysis, req, &obs).Get(ctx, &analysis); err != nil {
		logger.Warn("recording analysis failed", "error", err)
	} else {
		// Step 3: announce
		_ = workflow.ExecuteActivity(bookkeepingCtx, ActivityPublishOutcome, Outcome{Analysis: &analysis, Request: req}).Get(ctx, nil)
	}

	logger.Info("NDVI analysis completed", "meanNDVI", obs.MeanNDVI)
	return &domain.AnalysisData{
		MeanNDVI: obs.MeanNDVI,
		Date:     obs.ObservedAt.UTC().Format(time.RFC3339),
	}, nil
}
