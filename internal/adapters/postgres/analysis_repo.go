package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/agrosight/internal/core/domain"
	"github.com/samirrijal/agrosight/internal/pkg/geospatial"
)

// AnalysisRepo implements ports.AnalysisRepository with pgx.
type AnalysisRepo struct {
	db *DB
}

// NewAnalysisRepo creates a new AnalysisRepo.
func NewAnalysisRepo(db *DB) *AnalysisRepo {
	return &AnalysisRepo{db: db}
}

// Insert stores a recorded analysis. The centroid column is derived from the coordinates.
func (r *AnalysisRepo) Insert(ctx context.Context, a *domain.Analysis) error {
	coords, err := json.Marshal(a.Coordinates)
	if err != nil {
		return fmt.Errorf("encode coordinates: %w", err)
	}
	centroid := geospatial.Centroid(a.Coordinates)

	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO analyses (id, coordinates, centroid, start_date, end_date,
		                      mean_ndvi, observed_at, area_ha, perimeter_m, created_at)
		VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography, $5::date, $6::date,
		        $7, $8, $9, $10, $11)
	`, a.ID, coords, centroid.Lng, centroid.Lat, a.StartDate, a.EndDate,
		a.MeanNDVI, a.ObservedAt, a.AreaHa, a.PerimeterM, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// GetByID returns an analysis by UUID.
func (r *AnalysisRepo) GetByID(ctx context.Context, id string) (*domain.Analysis, error) {
	row := r.db.Pool.QueryRow(ctx, `
		SELECT `+analysisColumns+`
		FROM analyses WHERE id = $1
	`, id)
	a, err := scanAnalysis(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("analysis %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListRecent returns the newest analyses first.
func (r *AnalysisRepo) ListRecent(ctx context.Context, limit int) ([]domain.Analysis, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+analysisColumns+`
		FROM analyses
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

const analysisColumns = `id::text, coordinates, to_char(start_date, 'YYYY-MM-DD'), to_char(end_date, 'YYYY-MM-DD'),
		       mean_ndvi, observed_at, area_ha, perimeter_m, created_at`

func scanAnalysis(row pgx.Row) (*domain.Analysis, error) {
	var (
		a      domain.Analysis
		coords []byte
	)
	if err := row.Scan(
		&a.ID, &coords, &a.StartDate, &a.EndDate,
		&a.MeanNDVI, &a.ObservedAt, &a.AreaHa, &a.PerimeterM, &a.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(coords, &a.Coordinates); err != nil {
		return nil, fmt.Errorf("decode coordinates of %s: %w", a.ID, err)
	}
	return &a, nil
}
