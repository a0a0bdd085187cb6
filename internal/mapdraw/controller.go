// Package mapdraw is the drawing surface of the NDVI map: it tracks the shapes a
// user draws and emits the selected polygon to a single consumer.
package mapdraw

import (
	"errors"
	"fmt"
	"sync"

	"github.com/samirrijal/agrosight/internal/core/domain"
)

var (
	ErrToolDisabled = errors.New("drawing tool disabled")
	ErrInvalidShape = errors.New("invalid shape")
	ErrDisposed     = errors.New("map controller disposed")
)

// ShapeKind is a leaflet-draw layer type.
type ShapeKind string

const (
	Polygon      ShapeKind = "polygon"
	Polyline     ShapeKind = "polyline"
	Rectangle    ShapeKind = "rectangle"
	Circle       ShapeKind = "circle"
	Marker       ShapeKind = "marker"
	CircleMarker ShapeKind = "circlemarker"
)

// Default view: the centre of India at country zoom over OpenStreetMap tiles.
var DefaultCenter = domain.Coordinate{Lat: 20.5937, Lng: 78.9629}

const (
	DefaultZoom        = 5
	DefaultTileURL     = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	DefaultAttribution = "&copy; OpenStreetMap contributors"
)

// View is the initial map viewport.
type View struct {
	Center      domain.Coordinate `json:"center"`
	Zoom        int               `json:"zoom"`
	TileURL     string            `json:"tile_url"`
	Attribution string            `json:"attribution"`
}

// Toolbar lists which draw tools are offered. Edit and Remove act only on drawn layers.
type Toolbar struct {
	Draw   map[ShapeKind]bool `json:"draw"`
	Edit   bool               `json:"edit"`
	Remove bool               `json:"remove"`
}

// Enabled reports whether kind may be drawn.
func (t Toolbar) Enabled(kind ShapeKind) bool { return t.Draw[kind] }

// Layer is a shape in the drawn feature group.
type Layer struct {
	ID   string              `json:"id"`
	Kind ShapeKind           `json:"kind,omitempty"`
	Ring domain.SelectedArea `json:"latlngs,omitempty"`
}

// Option configures a Controller.
type Option func(*Controller)

// WithView overrides the initial centre and zoom.
func WithView(center domain.Coordinate, zoom int) Option {
	return func(c *Controller) {
		c.view.Center = center
		c.view.Zoom = zoom
	}
}

// WithTiles overrides the tile source.
func WithTiles(url, attribution string) Option {
	return func(c *Controller) {
		c.view.TileURL = url
		c.view.Attribution = attribution
	}
}

// Controller owns one map instance. It is safe for concurrent use.
type Controller struct {
	mu       sync.Mutex
	view     View
	order    []string
	layers   map[string]Layer
	out      chan domain.SelectedArea
	disposed bool
}

// NewController creates a controller with the default view.
func NewController(opts ...Option) *Controller {
	c := &Controller{
		view: View{
			Center:      DefaultCenter,
			Zoom:        DefaultZoom,
			TileURL:     DefaultTileURL,
			Attribution: DefaultAttribution,
		},
		layers: make(map[string]Layer),
		out:    make(chan domain.SelectedArea, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) View() View { return c.view }

// Toolbar reports the polygon-only tool set.
func (c *Controller) Toolbar() Toolbar {
	return Toolbar{
		Draw: map[ShapeKind]bool{
			Polygon:      true,
			Polyline:     false,
			Rectangle:    false,
			Circle:       false,
			Marker:       false,
			CircleMarker: false,
		},
		Edit:   true,
		Remove: true,
	}
}

// Selections delivers the latest selected area. An unread value is replaced
// by a newer one. The channel is closed by Dispose.
func (c *Controller) Selections() <-chan domain.SelectedArea { return c.out }

// Created adds a drawn shape and emits its ring.
func (c *Controller) Created(layerID string, kind ShapeKind, ring domain.SelectedArea) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return ErrDisposed
	}
	if !c.Toolbar().Enabled(kind) {
		return fmt.Errorf("%w: %s", ErrToolDisabled, kind)
	}
	if err := validRing(ring); err != nil {
		return err
	}
	if layerID == "" {
		return fmt.Errorf("%w: layer id is required", ErrInvalidShape)
	}

	if _, exists := c.layers[layerID]; !exists {
		c.order = append(c.order, layerID)
	}
	c.layers[layerID] = Layer{ID: layerID, Kind: kind, Ring: ring.Clone()}
	c.emit(ring.Clone())
	return nil
}

// Edited applies a batch of edits. Every edited polygon emits, so the last
// one in the batch is what the consumer ends up with. Layers that are not
// drawn polygons are skipped. An invalid ring rejects the whole batch.
func (c *Controller) Edited(layers []Layer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return ErrDisposed
	}

	edits := make([]Layer, 0, len(layers))
	for _, l := range layers {
		current, ok := c.layers[l.ID]
		if !ok || current.Kind != Polygon {
			continue
		}
		if l.Kind != "" && l.Kind != Polygon {
			continue
		}
		if err := validRing(l.Ring); err != nil {
			return fmt.Errorf("layer %s: %w", l.ID, err)
		}
		current.Ring = l.Ring.Clone()
		edits = append(edits, current)
	}

	for _, l := range edits {
		c.layers[l.ID] = l
		c.emit(l.Ring.Clone())
	}
	return nil
}

// Deleted removes layers and always emits an empty selection.
func (c *Controller) Deleted(layerIDs []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return ErrDisposed
	}

	for _, id := range layerIDs {
		delete(c.layers, id)
	}
	kept := c.order[:0]
	for _, id := range c.order {
		if _, ok := c.layers[id]; ok {
			kept = append(kept, id)
		}
	}
	c.order = kept
	c.emit(domain.SelectedArea{})
	return nil
}

// Layers returns the drawn feature group in creation order.
func (c *Controller) Layers() []Layer {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Layer, 0, len(c.order))
	for _, id := range c.order {
		l := c.layers[id]
		l.Ring = l.Ring.Clone()
		out = append(out, l)
	}
	return out
}

// Dispose releases the layers and closes the selection channel.
// A fresh controller may be created afterwards.
func (c *Controller) Dispose() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return ErrDisposed
	}
	c.disposed = true
	c.layers = nil
	c.order = nil
	close(c.out)
	return nil
}

// emit performs a non-blocking single-slot send. Callers hold c.mu.
func (c *Controller) emit(area domain.SelectedArea) {
	for {
		select {
		case c.out <- area:
			return
		default:
		}
		select {
		case <-c.out:
		default:
		}
	}
}

func validRing(ring domain.SelectedArea) error {
	if !ring.IsPolygon() {
		return fmt.Errorf("%w: a polygon needs at least 3 vertices, got %d", ErrInvalidShape, len(ring))
	}
	for i, v := range ring {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%w: vertex %d: %w", ErrInvalidShape, i, err)
		}
	}
	return nil
}
