package geospatial

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/samirrijal/agrosight/internal/core/domain"
)

// Ring converts a selected area into a closed orb ring (lon/lat order).
func Ring(area domain.SelectedArea) orb.Ring {
	ring := make(orb.Ring, 0, len(area)+1)
	for _, c := range area {
		ring = append(ring, orb.Point{c.Lng, c.Lat})
	}
	if len(ring) > 0 && !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return ring
}

// Polygon converts a selected area into a single-ring polygon.
func Polygon(area domain.SelectedArea) orb.Polygon {
	return orb.Polygon{Ring(area)}
}

// GeoJSON returns the area as a GeoJSON Polygon geometry.
func GeoJSON(area domain.SelectedArea) *geojson.Geometry {
	return geojson.NewGeometry(Polygon(area))
}

// PointPolygon expands a point into the rectangle of its bounding box.
// Vertices are returned SW, SE, NE, NW.
func PointPolygon(c domain.Coordinate, radiusMeters float64) domain.SelectedArea {
	minLat, minLon, maxLat, maxLon := BoundingBox(c.Lat, c.Lng, radiusMeters)
	return domain.SelectedArea{
		{Lat: minLat, Lng: minLon},
		{Lat: minLat, Lng: maxLon},
		{Lat: maxLat, Lng: maxLon},
		{Lat: maxLat, Lng: minLon},
	}
}

// AreaHectares returns the geodesic area of a polygon; points have no area.
func AreaHectares(area domain.SelectedArea) float64 {
	if !area.IsPolygon() {
		return 0
	}
	return math.Abs(geo.Area(Polygon(area))) / 10000
}

// PerimeterMeters sums the great-circle length of the closed ring.
func PerimeterMeters(area domain.SelectedArea) float64 {
	if !area.IsPolygon() {
		return 0
	}
	var total float64
	for i := range area {
		next := area[(i+1)%len(area)]
		total += Haversine(area[i].Lat, area[i].Lng, next.Lat, next.Lng)
	}
	return total
}

// Centroid returns the planar centroid of a polygon, or the point itself.
func Centroid(area domain.SelectedArea) domain.Coordinate {
	switch {
	case area.IsEmpty():
		return domain.Coordinate{}
	case !area.IsPolygon():
		return area[0]
	}
	p, _ := planar.CentroidArea(Polygon(area))
	return domain.Coordinate{Lat: p.Lat(), Lng: p.Lon()}
}
