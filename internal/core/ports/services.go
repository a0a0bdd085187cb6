package ports

import (
	"context"

	"github.com/samirrijal/agrosight/internal/core/domain"
)

// EventPublisher publishes analysis events to a message broker.
type EventPublisher interface {
	PublishAnalysisCompleted(ctx context.Context, a *domain.Analysis) error
	PublishAnalysisFailed(ctx context.Context, req *domain.AnalysisRequest, reason string) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// NDVIProvider computes the mean NDVI of a polygon over a date range.
type NDVIProvider interface {
	MeanNDVI(ctx context.Context, polygon domain.SelectedArea, dates domain.DateRange) (*domain.NDVIObservation, error)
}

// DiseaseClassifier runs the pre-trained leaf-disease model on an image and
// returns one score per class, in model order.
type DiseaseClassifier interface {
	Predict(ctx context.Context, image []byte, contentType string) ([]float64, error)
}

// JobRunner starts and inspects asynchronous analyses.
type JobRunner interface {
	Start(ctx context.Context, req domain.AnalysisRequest) (string, error)
	Describe(ctx context.Context, id string) (*domain.AnalysisJob, error)
}
