package usecases_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/samirrijal/agrosight/internal/core/domain"
	"github.com/samirrijal/agrosight/internal/core/usecases"
)

var triangle = domain.SelectedArea{
	{Lat: 20.0, Lng: 78.0},
	{Lat: 20.0, Lng: 78.01},
	{Lat: 20.01, Lng: 78.01},
}

func okProvider(mean float64) *mockProvider {
	return &mockProvider{
		meanNDVIFn: func(ctx context.Context, polygon domain.SelectedArea, dates domain.DateRange) (*domain.NDVIObservation, error) {
			return &domain.NDVIObservation{MeanNDVI: mean, ObservedAt: time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)}, nil
		},
	}
}

func request(area domain.SelectedArea) domain.AnalysisRequest {
	return domain.AnalysisRequest{Coordinates: area, StartDate: "2024-03-01", EndDate: "2024-03-31"}
}

func TestNDVIService_Analyze(t *testing.T) {
	repo := &mockAnalysisRepo{}
	pub := &mockPublisher{}
	svc := usecases.NewNDVIService(okProvider(0.6432), repo, nil, pub, usecases.NDVIOptions{MaxWindowDays: 366})

	data, err := svc.Analyze(context.Background(), request(triangle))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.MeanNDVI != 0.6432 {
		t.Errorf("expected 0.6432, got %v", data.MeanNDVI)
	}
	if data.Date != "2024-03-15T10:30:00Z" {
		t.Errorf("unexpected date %s", data.Date)
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("expected 1 recorded analysis, got %d", len(repo.inserted))
	}
	a := repo.inserted[0]
	if a.AreaHa <= 0 || a.PerimeterM <= 0 {
		t.Errorf("expected positive area and perimeter, got %v ha, %v m", a.AreaHa, a.PerimeterM)
	}
	if len(pub.completed) != 1 || pub.completed[0] != a.ID {
		t.Errorf("expected completion event for %s, got %v", a.ID, pub.completed)
	}
}

func TestNDVIService_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  domain.AnalysisRequest
	}{
		{"empty area", request(nil)},
		{"two vertices", request(triangle[:2])},
		{"bad latitude", request(domain.SelectedArea{{Lat: 91, Lng: 0}})},
		{"missing end", domain.AnalysisRequest{Coordinates: triangle, StartDate: "2024-03-01"}},
		{"reversed", domain.AnalysisRequest{Coordinates: triangle, StartDate: "2024-04-01", EndDate: "2024-03-01"}},
		{"window too long", domain.AnalysisRequest{Coordinates: triangle, StartDate: "2020-01-01", EndDate: "2024-01-01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := okProvider(0.5)
			pub := &mockPublisher{}
			svc := usecases.NewNDVIService(provider, nil, nil, pub, usecases.NDVIOptions{MaxWindowDays: 366})

			_, err := svc.Analyze(context.Background(), tt.req)
			if !errors.Is(err, domain.ErrInvalidRequest) {
				t.Fatalf("expected ErrInvalidRequest, got %v", err)
			}
			if provider.calls != 0 {
				t.Errorf("provider must not be called, got %d calls", provider.calls)
			}
			if len(pub.failed) != 0 {
				t.Errorf("invalid requests must not publish failures, got %v", pub.failed)
			}
		})
	}
}

func TestNDVIService_PointExpandedToPolygon(t *testing.T) {
	var sent domain.SelectedArea
	provider := &mockProvider{
		meanNDVIFn: func(ctx context.Context, polygon domain.SelectedArea, dates domain.DateRange) (*domain.NDVIObservation, error) {
			sent = polygon
			return &domain.NDVIObservation{MeanNDVI: 0.3, ObservedAt: time.Now()}, nil
		},
	}
	svc := usecases.NewNDVIService(provider, nil, nil, nil, usecases.NDVIOptions{PointRadiusM: 500})

	point := domain.Coordinate{Lat: 20.5937, Lng: 78.9629}
	if _, err := svc.Analyze(context.Background(), request(domain.SelectedArea{point})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sent) != 4 {
		t.Fatalf("expected a 4-vertex box, got %v", sent)
	}
	b := sent.Bounds()
	if !(b.MinLat < point.Lat && point.Lat < b.MaxLat && b.MinLon < point.Lng && point.Lng < b.MaxLon) {
		t.Errorf("box %+v does not contain %+v", b, point)
	}
}

func TestNDVIService_CacheHitSkipsProvider(t *testing.T) {
	provider := okProvider(0.42)
	repo := &mockAnalysisRepo{}
	cache := newMemCache()
	svc := usecases.NewNDVIService(provider, repo, cache, nil, usecases.NDVIOptions{CacheTTL: 600})

	for i := 0; i < 3; i++ {
		data, err := svc.Analyze(context.Background(), request(triangle))
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if data.MeanNDVI != 0.42 {
			t.Errorf("call %d: expected 0.42, got %v", i, data.MeanNDVI)
		}
	}
	if provider.calls != 1 {
		t.Errorf("expected 1 provider call, got %d", provider.calls)
	}
	if len(repo.inserted) != 1 {
		t.Errorf("cache hits must not be recorded again, got %d rows", len(repo.inserted))
	}
	if ttl := cache.ttls[usecases.CacheKey(request(triangle))]; ttl != 600 {
		t.Errorf("expected ttl 600, got %d", ttl)
	}
}

func TestNDVIService_ProviderError(t *testing.T) {
	provider := &mockProvider{
		meanNDVIFn: func(ctx context.Context, polygon domain.SelectedArea, dates domain.DateRange) (*domain.NDVIObservation, error) {
			return nil, errors.New("no imagery available")
		},
	}
	pub := &mockPublisher{}
	svc := usecases.NewNDVIService(provider, nil, nil, pub, usecases.NDVIOptions{})

	_, err := svc.Analyze(context.Background(), request(triangle))
	if !errors.Is(err, domain.ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
	if !strings.Contains(err.Error(), "no imagery available") {
		t.Errorf("expected provider message, got %v", err)
	}
	if len(pub.failed) != 1 {
		t.Errorf("expected a failure event, got %v", pub.failed)
	}
}

func TestNDVIService_RejectsOutOfRangeNDVI(t *testing.T) {
	for _, v := range []float64{1.5, -1.01, math.NaN()} {
		svc := usecases.NewNDVIService(okProvider(v), nil, nil, nil, usecases.NDVIOptions{})
		if _, err := svc.Analyze(context.Background(), request(triangle)); !errors.Is(err, domain.ErrProvider) {
			t.Errorf("mean %v: expected ErrProvider, got %v", v, err)
		}
	}
}

func TestNDVIService_RecordFailureStillAnswers(t *testing.T) {
	repo := &mockAnalysisRepo{insertErr: errors.New("db down")}
	pub := &mockPublisher{}
	svc := usecases.NewNDVIService(okProvider(0.2), repo, nil, pub, usecases.NDVIOptions{})

	if _, err := svc.Analyze(context.Background(), request(triangle)); err != nil {
		t.Fatalf("record failure must not fail the request: %v", err)
	}
	if len(pub.completed) != 0 {
		t.Errorf("unrecorded analyses must not be announced, got %v", pub.completed)
	}
}

func TestNDVIService_History_ClampLimit(t *testing.T) {
	var got int
	repo := &mockAnalysisRepo{
		listRecentFn: func(ctx context.Context, limit int) ([]domain.Analysis, error) {
			got = limit
			return nil, nil
		},
	}
	svc := usecases.NewNDVIService(okProvider(0), repo, nil, nil, usecases.NDVIOptions{})

	if _, err := svc.History(context.Background(), 1000); err != nil {
		t.Fatal(err)
	}
	if got != 50 {
		t.Errorf("expected clamped limit 50, got %d", got)
	}
}

func TestNDVIService_GetByID_RejectsMalformedID(t *testing.T) {
	repo := &mockAnalysisRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Analysis, error) {
			t.Error("repository must not be queried for a malformed id")
			return nil, nil
		},
	}
	svc := usecases.NewNDVIService(okProvider(0), repo, nil, nil, usecases.NDVIOptions{})

	if _, err := svc.GetByID(context.Background(), "not-a-uuid"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCacheKey_Stable(t *testing.T) {
	a := usecases.CacheKey(request(triangle))
	b := usecases.CacheKey(request(triangle.Clone()))
	if a != b {
		t.Errorf("equal requests produced different keys %s / %s", a, b)
	}
	other := request(triangle)
	other.EndDate = "2024-03-30"
	if usecases.CacheKey(other) == a {
		t.Error("different dates must produce different keys")
	}
	if !strings.HasPrefix(a, "ndvi:") {
		t.Errorf("unexpected key %s", a)
	}
}
