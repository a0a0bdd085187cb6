package usecases_test

import (
	"context"
	"errors"
	"sync"

	"github.com/samirrijal/agrosight/internal/core/domain"
)

// --- Mock NDVIProvider ---

type mockProvider struct {
	calls      int
	meanNDVIFn func(ctx context.Context, polygon domain.SelectedArea, dates domain.DateRange) (*domain.NDVIObservation, error)
}

func (m *mockProvider) MeanNDVI(ctx context.Context, polygon domain.SelectedArea, dates domain.DateRange) (*domain.NDVIObservation, error) {
	m.calls++
	if m.meanNDVIFn != nil {
		return m.meanNDVIFn(ctx, polygon, dates)
	}
	return nil, errors.New("not configured")
}

// --- Mock AnalysisRepository ---

type mockAnalysisRepo struct {
	inserted     []domain.Analysis
	insertErr    error
	getByIDFn    func(ctx context.Context, id string) (*domain.Analysis, error)
	listRecentFn func(ctx context.Context, limit int) ([]domain.Analysis, error)
}

func (m *mockAnalysisRepo) Insert(ctx context.Context, a *domain.Analysis) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserted = append(m.inserted, *a)
	return nil
}

func (m *mockAnalysisRepo) GetByID(ctx context.Context, id string) (*domain.Analysis, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockAnalysisRepo) ListRecent(ctx context.Context, limit int) ([]domain.Analysis, error) {
	if m.listRecentFn != nil {
		return m.listRecentFn(ctx, limit)
	}
	return nil, nil
}

// --- In-memory CacheService ---

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]int
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, ttls: map[string]int{}}
}

func (c *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, errors.New("miss")
	}
	return v, nil
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.ttls[key] = ttlSeconds
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	completed []string
	failed    []string
}

func (m *mockPublisher) PublishAnalysisCompleted(ctx context.Context, a *domain.Analysis) error {
	m.completed = append(m.completed, a.ID)
	return nil
}

func (m *mockPublisher) PublishAnalysisFailed(ctx context.Context, req *domain.AnalysisRequest, reason string) error {
	m.failed = append(m.failed, reason)
	return nil
}

// --- Mock CropPriceRepository ---

type mockPriceRepo struct {
	calls  int
	listFn func(ctx context.Context) ([]domain.CropPrice, error)
}

func (m *mockPriceRepo) List(ctx context.Context) ([]domain.CropPrice, error) {
	m.calls++
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

// --- Mock DiseaseClassifier ---

type mockClassifier struct {
	predictFn func(ctx context.Context, image []byte, contentType string) ([]float64, error)
}

func (m *mockClassifier) Predict(ctx context.Context, image []byte, contentType string) ([]float64, error) {
	if m.predictFn != nil {
		return m.predictFn(ctx, image, contentType)
	}
	return nil, errors.New("not configured")
}

// --- Mock JobRunner ---

type mockRunner struct {
	startFn    func(ctx context.Context, req domain.AnalysisRequest) (string, error)
	describeFn func(ctx context.Context, id string) (*domain.AnalysisJob, error)
}

func (m *mockRunner) Start(ctx context.Context, req domain.AnalysisRequest) (string, error) {
	if m.startFn != nil {
		return m.startFn(ctx, req)
	}
	return "", errors.New("not configured")
}

func (m *mockRunner) Describe(ctx context.Context, id string) (*domain.AnalysisJob, error) {
	if m.describeFn != nil {
		return m.describeFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}
