package usecases

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/agrosight/internal/core/domain"
	"github.com/samirrijal/agrosight/internal/core/ports"
	"github.com/samirrijal/agrosight/internal/pkg/geospatial"
	"github.com/samirrijal/agrosight/internal/pkg/metrics"
	"github.com/samirrijal/agrosight/internal/pkg/telemetry"
)

// NDVIOptions tunes request validation and caching.
type NDVIOptions struct {
	MaxWindowDays int     // 0 disables the window check
	PointRadiusM  float64 // half-width of the box analysed around a single point
	CacheTTL      int     // seconds; 0 disables caching
}

// NDVIService validates analysis requests and obtains mean NDVI values from the processor.
type NDVIService struct {
	provider ports.NDVIProvider
	analyses ports.AnalysisRepository
	cache    ports.CacheService
	events   ports.EventPublisher
	opts     NDVIOptions
	now      func() time.Time
}

// NewNDVIService creates a new NDVIService. analyses, cache and events may be nil.
func NewNDVIService(provider ports.NDVIProvider, analyses ports.AnalysisRepository, cache ports.CacheService, events ports.EventPublisher, opts NDVIOptions) *NDVIService {
	if opts.PointRadiusM <= 0 {
		opts.PointRadiusM = 100
	}
	return &NDVIService{
		provider: provider,
		analyses: analyses,
		cache:    cache,
		events:   events,
		opts:     opts,
		now:      time.Now,
	}
}

// Validate checks a request without calling any collaborator.
func (s *NDVIService) Validate(req domain.AnalysisRequest) error {
	if err := req.Coordinates.Validate(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	dates := req.Dates()
	if !dates.Complete() {
		return fmt.Errorf("%w: startDate and endDate are required", domain.ErrInvalidRequest)
	}
	if err := dates.Validate(s.opts.MaxWindowDays); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	return nil
}

// AnalysedPolygon returns the polygon sent to the processor: the area itself,
// or a box around it when the area is a single point.
func (s *NDVIService) AnalysedPolygon(area domain.SelectedArea) domain.SelectedArea {
	if area.IsPoint() {
		return geospatial.PointPolygon(area[0], s.opts.PointRadiusM)
	}
	return area
}

// Analyze serves one synchronous analysis: observe, record and publish.
func (s *NDVIService) Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisData, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "ndvi.analyze")
	defer span.End()
	span.SetAttributes(
		attribute.Int(telemetry.AttrVertexCount, len(req.Coordinates)),
		attribute.String(telemetry.AttrStartDate, req.StartDate),
		attribute.String(telemetry.AttrEndDate, req.EndDate),
	)

	obs, cached, err := s.observe(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if !errors.Is(err, domain.ErrInvalidRequest) {
			s.PublishFailure(ctx, req, err.Error())
		}
		return nil, err
	}
	span.SetAttributes(
		attribute.Bool(telemetry.AttrCacheHit, cached),
		attribute.Float64(telemetry.AttrMeanNDVI, obs.MeanNDVI),
	)

	if !cached {
		if a, err := s.Record(ctx, req, obs); err != nil {
			slog.WarnContext(ctx, "record analysis failed", "error", err)
		} else {
			s.PublishCompleted(ctx, a)
		}
	}

	return &domain.AnalysisData{
		MeanNDVI: obs.MeanNDVI,
		Date:     obs.ObservedAt.UTC().Format(time.RFC3339),
	}, nil
}

// Observe validates the request and returns the processor's observation, served from cache when possible.
func (s *NDVIService) Observe(ctx context.Context, req domain.AnalysisRequest) (*domain.NDVIObservation, error) {
	obs, _, err := s.observe(ctx, req)
	return obs, err
}

func (s *NDVIService) observe(ctx context.Context, req domain.AnalysisRequest) (*domain.NDVIObservation, bool, error) {
	if err := s.Validate(req); err != nil {
		metrics.AnalysesTotal.WithLabelValues("invalid").Inc()
		return nil, false, err
	}

	cacheKey := CacheKey(req)
	if s.cache != nil && s.opts.CacheTTL > 0 {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var obs domain.NDVIObservation
			if err := json.Unmarshal(data, &obs); err == nil {
				metrics.CacheHits.WithLabelValues("ndvi").Inc()
				metrics.AnalysesTotal.WithLabelValues("cached").Inc()
				return &obs, true, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("ndvi").Inc()
	}

	start := time.Now()
	obs, err := s.provider.MeanNDVI(ctx, s.AnalysedPolygon(req.Coordinates), req.Dates())
	metrics.ProviderDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.AnalysesTotal.WithLabelValues("provider_error").Inc()
		if !errors.Is(err, domain.ErrProvider) && !errors.Is(err, domain.ErrInvalidRequest) {
			err = fmt.Errorf("%w: %w", domain.ErrProvider, err)
		}
		return nil, false, err
	}
	if math.IsNaN(obs.MeanNDVI) || obs.MeanNDVI < -1 || obs.MeanNDVI > 1 {
		metrics.AnalysesTotal.WithLabelValues("provider_error").Inc()
		return nil, false, fmt.Errorf("%w: mean NDVI %v outside [-1, 1]", domain.ErrProvider, obs.MeanNDVI)
	}
	metrics.AnalysesTotal.WithLabelValues("ok").Inc()

	if s.cache != nil && s.opts.CacheTTL > 0 {
		if data, err := json.Marshal(obs); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, s.opts.CacheTTL)
		}
	}
	return obs, false, nil
}

// Record stores an observation as an Analysis. Without a repository the
// analysis is still built so it can be published.
func (s *NDVIService) Record(ctx context.Context, req domain.AnalysisRequest, obs *domain.NDVIObservation) (*domain.Analysis, error) {
	polygon := s.AnalysedPolygon(req.Coordinates)
	a := &domain.Analysis{
		ID:          uuid.NewString(),
		Coordinates: req.Coordinates.Clone(),
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		MeanNDVI:    obs.MeanNDVI,
		ObservedAt:  obs.ObservedAt,
		AreaHa:      geospatial.AreaHectares(polygon),
		PerimeterM:  geospatial.PerimeterMeters(polygon),
		CreatedAt:   s.now().UTC(),
	}
	if s.analyses == nil {
		return a, nil
	}
	if err := s.analyses.Insert(ctx, a); err != nil {
		return nil, fmt.Errorf("insert analysis: %w", err)
	}
	return a, nil
}

// PublishCompleted announces a recorded analysis; failures are logged only.
func (s *NDVIService) PublishCompleted(ctx context.Context, a *domain.Analysis) {
	if s.events == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.events.PublishAnalysisCompleted(pubCtx, a); err != nil {
		slog.WarnContext(ctx, "publish analysis completed", "id", a.ID, "error", err)
	}
}

// PublishFailure announces a request the processor could not serve; failures are logged only.
func (s *NDVIService) PublishFailure(ctx context.Context, req domain.AnalysisRequest, reason string) {
	if s.events == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.events.PublishAnalysisFailed(pubCtx, &req, reason); err != nil {
		slog.WarnContext(ctx, "publish analysis failed", "error", err)
	}
}

// History returns the most recent analyses, newest first.
func (s *NDVIService) History(ctx context.Context, limit int) ([]domain.Analysis, error) {
	if s.analyses == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.analyses.ListRecent(ctx, limit)
}

// GetByID returns one recorded analysis.
func (s *NDVIService) GetByID(ctx context.Context, id string) (*domain.Analysis, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("analysis %q: %w", id, domain.ErrNotFound)
	}
	if s.analyses == nil {
		return nil, fmt.Errorf("analysis %s: %w", id, domain.ErrNotFound)
	}
	return s.analyses.GetByID(ctx, id)
}

// CacheKey derives a stable cache key from the area and dates.
func CacheKey(req domain.AnalysisRequest) string {
	h := sha256.New()
	for _, c := range req.Coordinates {
		fmt.Fprintf(h, "%.6f,%.6f;", c.Lat, c.Lng)
	}
	fmt.Fprintf(h, "%s|%s", req.StartDate, req.EndDate)
	return "ndvi:" + hex.EncodeToString(h.Sum(nil))[:32]
}
