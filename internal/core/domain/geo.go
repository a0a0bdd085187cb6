package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidCoordinate is returned for coordinates that cannot be used.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Coordinate is a WGS 84 position. On the wire it is a [lat, lng] pair.
type Coordinate struct {
	Lat float64
	Lng float64
}

// Validate rejects non-finite values and values outside the WGS 84 ranges.
func (c Coordinate) Validate() error {
	switch {
	case math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0):
		return fmt.Errorf("%w: latitude is not a number", ErrInvalidCoordinate)
	case math.IsNaN(c.Lng) || math.IsInf(c.Lng, 0):
		return fmt.Errorf("%w: longitude is not a number", ErrInvalidCoordinate)
	case c.Lat < -90 || c.Lat > 90:
		return fmt.Errorf("%w: latitude %g outside [-90, 90]", ErrInvalidCoordinate, c.Lat)
	case c.Lng < -180 || c.Lng > 180:
		return fmt.Errorf("%w: longitude %g outside [-180, 180]", ErrInvalidCoordinate, c.Lng)
	}
	return nil
}

// MarshalJSON encodes the coordinate as [lat, lng].
func (c Coordinate) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{c.Lat, c.Lng})
}

// UnmarshalJSON decodes a [lat, lng] pair.
func (c *Coordinate) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("%w: expected [lat, lng]", ErrInvalidCoordinate)
	}
	if len(pair) != 2 {
		return fmt.Errorf("%w: expected 2 values, got %d", ErrInvalidCoordinate, len(pair))
	}
	c.Lat, c.Lng = pair[0], pair[1]
	return nil
}

// ParseCoordinate parses latitude and longitude text fields. Each field must be
// a plain decimal number; trailing text such as a hemisphere letter is rejected.
func ParseCoordinate(latText, lngText string) (Coordinate, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latText), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: latitude %q", ErrInvalidCoordinate, latText)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngText), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: longitude %q", ErrInvalidCoordinate, lngText)
	}
	c := Coordinate{Lat: lat, Lng: lng}
	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}
	return c, nil
}

// SelectedArea is the polygon (drawing order) or single point chosen for analysis.
// An empty area means nothing is selected.
type SelectedArea []Coordinate

func (a SelectedArea) IsEmpty() bool   { return len(a) == 0 }
func (a SelectedArea) IsPoint() bool   { return len(a) == 1 }
func (a SelectedArea) IsPolygon() bool { return len(a) >= 3 }

// Validate checks every vertex and the overall shape.
func (a SelectedArea) Validate() error {
	if a.IsEmpty() {
		return errors.New("no area selected")
	}
	if !a.IsPoint() && !a.IsPolygon() {
		return fmt.Errorf("a polygon needs at least 3 vertices, got %d", len(a))
	}
	for i, c := range a {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("vertex %d: %w", i, err)
		}
	}
	return nil
}

// Clone returns a copy that does not share the backing array.
func (a SelectedArea) Clone() SelectedArea {
	if a == nil {
		return nil
	}
	out := make(SelectedArea, len(a))
	copy(out, a)
	return out
}

// Bounds returns the bounding box of the area.
func (a SelectedArea) Bounds() Bounds {
	if a.IsEmpty() {
		return Bounds{}
	}
	b := Bounds{MinLat: a[0].Lat, MaxLat: a[0].Lat, MinLon: a[0].Lng, MaxLon: a[0].Lng}
	for _, c := range a[1:] {
		b.MinLat = math.Min(b.MinLat, c.Lat)
		b.MaxLat = math.Max(b.MaxLat, c.Lat)
		b.MinLon = math.Min(b.MinLon, c.Lng)
		b.MaxLon = math.Max(b.MaxLon, c.Lng)
	}
	return b
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}
