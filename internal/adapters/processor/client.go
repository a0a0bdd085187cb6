// Package processor calls the satellite imagery processor that computes NDVI statistics.
package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/agrosight/internal/core/domain"
	"github.com/samirrijal/agrosight/internal/pkg/geospatial"
)

// maxBody bounds how much of a processor response is read.
const maxBody = 1 << 20

type ndviRequest struct {
	GeoJSON   *geojson.Geometry `json:"geojson"`
	StartDate string            `json:"startDate"`
	EndDate   string            `json:"endDate"`
}

type ndviResponse struct {
	MeanNDVI *float64 `json:"meanNDVI"`
	Date     string   `json:"date"`
	Error    string   `json:"error"`
}

// Client implements ports.NDVIProvider over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a processor client. A zero timeout leaves cancellation to the caller's context.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// MeanNDVI posts the polygon and date range to {baseURL}/ndvi.
func (c *Client) MeanNDVI(ctx context.Context, polygon domain.SelectedArea, dates domain.DateRange) (*domain.NDVIObservation, error) {
	if !polygon.IsPolygon() {
		return nil, fmt.Errorf("%w: processor needs a polygon, got %d vertices", domain.ErrInvalidRequest, len(polygon))
	}

	body, err := json.Marshal(ndviRequest{
		GeoJSON:   geospatial.GeoJSON(polygon),
		StartDate: dates.Start,
		EndDate:   dates.End,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal processor req: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ndvi", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: processor call failed: %w", domain.ErrProvider, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read processor resp (%s): %w", domain.ErrProvider, resp.Status, err)
	}

	var out ndviResponse
	decodeErr := json.Unmarshal(data, &out)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if decodeErr == nil && out.Error != "" {
			return nil, fmt.Errorf("%w: %s", domain.ErrProvider, out.Error)
		}
		return nil, fmt.Errorf("%w: processor non-2xx: %s, body: %s", domain.ErrProvider, resp.Status, excerpt(data))
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: decode processor resp: %w", domain.ErrProvider, decodeErr)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrProvider, out.Error)
	}
	if out.MeanNDVI == nil {
		return nil, fmt.Errorf("%w: processor response has no meanNDVI", domain.ErrProvider)
	}

	observedAt, err := parseObserved(out.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProvider, err)
	}
	return &domain.NDVIObservation{MeanNDVI: *out.MeanNDVI, ObservedAt: observedAt}, nil
}

func parseObserved(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("processor response has no date")
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", domain.DateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("processor date %q is not a timestamp", s)
}

func excerpt(b []byte) string {
	const n = 256
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
