package usecases_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/samirrijal/agrosight/internal/core/domain"
	"github.com/samirrijal/agrosight/internal/core/usecases"
)

func seededPrices() *mockPriceRepo {
	return &mockPriceRepo{
		listFn: func(ctx context.Context) ([]domain.CropPrice, error) {
			return []domain.CropPrice{
				{Name: "Cotton", PricePerUnit: 6800, ChangePercent: 0.8, Trend: domain.TrendUp},
				{Name: "Rice", PricePerUnit: 3200, ChangePercent: -1.2, Trend: domain.TrendDown},
				{Name: "Soybean", PricePerUnit: 4500, ChangePercent: -0.5, Trend: domain.TrendDown},
				{Name: "Sugarcane", PricePerUnit: 3100, ChangePercent: 1.5, Trend: domain.TrendUp},
				{Name: "Wheat", PricePerUnit: 2500, ChangePercent: 2.5, Trend: domain.TrendUp},
			}, nil
		},
	}
}

func names(prices []domain.CropPrice) []string {
	out := make([]string, 0, len(prices))
	for _, p := range prices {
		out = append(out, p.Name)
	}
	return out
}

func TestPriceService_Search(t *testing.T) {
	svc := usecases.NewPriceService(seededPrices(), nil)

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"Cotton", "Rice", "Soybean", "Sugarcane", "Wheat"}},
		{"WHE", []string{"Wheat"}},
		{"  s  ", []string{"Soybean", "Sugarcane"}},
		{"rice", []string{"Rice"}},
		{"barley", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := svc.Search(context.Background(), tt.query)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, names(got)); diff != "" {
				t.Errorf("Search(%q) mismatch (-want +got):\n%s", tt.query, diff)
			}
		})
	}
}

func TestPriceService_ListCached(t *testing.T) {
	repo := seededPrices()
	svc := usecases.NewPriceService(repo, newMemCache())

	for i := 0; i < 3; i++ {
		if _, err := svc.List(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if repo.calls != 1 {
		t.Errorf("expected 1 repository call, got %d", repo.calls)
	}
}

func TestTrendOf(t *testing.T) {
	if domain.TrendOf(-0.5) != domain.TrendDown || domain.TrendOf(0) != domain.TrendUp || domain.TrendOf(2.5) != domain.TrendUp {
		t.Error("unexpected trend mapping")
	}
}
