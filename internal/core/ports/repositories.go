package ports

import (
	"context"

	"github.com/samirrijal/agrosight/internal/core/domain"
)

// AnalysisRepository persists recorded NDVI analyses.
type AnalysisRepository interface {
	Insert(ctx context.Context, a *domain.Analysis) error
	GetByID(ctx context.Context, id string) (*domain.Analysis, error)
	ListRecent(ctx context.Context, limit int) ([]domain.Analysis, error)
}

// CropPriceRepository reads market price quotes.
type CropPriceRepository interface {
	List(ctx context.Context) ([]domain.CropPrice, error)
}
