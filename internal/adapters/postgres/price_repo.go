package postgres

import (
	"context"

	"github.com/samirrijal/agrosight/internal/core/domain"
)

// PriceRepo implements ports.CropPriceRepository with pgx.
type PriceRepo struct {
	db *DB
}

// NewPriceRepo creates a new PriceRepo.
func NewPriceRepo(db *DB) *PriceRepo {
	return &PriceRepo{db: db}
}

// List returns every crop quote ordered by name.
func (r *PriceRepo) List(ctx context.Context) ([]domain.CropPrice, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id::text, name, price_per_unit, currency, unit, change_percent, updated_at
		FROM crop_prices
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prices []domain.CropPrice
	for rows.Next() {
		var p domain.CropPrice
		if err := rows.Scan(&p.ID, &p.Name, &p.PricePerUnit, &p.Currency, &p.Unit,
			&p.ChangePercent, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Trend = domain.TrendOf(p.ChangePercent)
		prices = append(prices, p)
	}
	return prices, rows.Err()
}
