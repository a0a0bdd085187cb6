package usecases

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/samirrijal/agrosight/internal/core/domain"
	"github.com/samirrijal/agrosight/internal/core/ports"
)

const pricesCacheKey = "prices:all"

// PriceService serves crop market prices.
type PriceService struct {
	prices ports.CropPriceRepository
	cache  ports.CacheService
}

// NewPriceService creates a new PriceService.
func NewPriceService(prices ports.CropPriceRepository, cache ports.CacheService) *PriceService {
	return &PriceService{prices: prices, cache: cache}
}

// List returns every crop quote.
func (s *PriceService) List(ctx context.Context) ([]domain.CropPrice, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, pricesCacheKey); err == nil {
			var prices []domain.CropPrice
			if err := json.Unmarshal(data, &prices); err == nil {
				return prices, nil
			}
		}
	}

	prices, err := s.prices.List(ctx)
	if err != nil {
		return nil, err
	}

	// Cache for 5 minutes
	if s.cache != nil {
		if data, err := json.Marshal(prices); err == nil {
			_ = s.cache.Set(ctx, pricesCacheKey, data, 300)
		}
	}
	return prices, nil
}

// Search filters crops whose name contains query, ignoring case.
// An empty query returns everything.
func (s *PriceService) Search(ctx context.Context, query string) ([]domain.CropPrice, error) {
	prices, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return prices, nil
	}
	out := make([]domain.CropPrice, 0, len(prices))
	for _, p := range prices {
		if strings.Contains(strings.ToLower(p.Name), q) {
			out = append(out, p)
		}
	}
	return out, nil
}
