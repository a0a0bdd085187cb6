package mapdraw

import (
	"errors"
	"fmt"
)

// Leaflet-draw event names.
const (
	EventCreated = "draw:created"
	EventEdited  = "draw:edited"
	EventDeleted = "draw:deleted"
)

var ErrUnknownEvent = errors.New("unknown draw event")

// Event is a leaflet-draw event as forwarded by a browser map.
type Event struct {
	Type      string    `json:"type"`
	LayerType ShapeKind `json:"layerType,omitempty"`
	Layer     *Layer    `json:"layer,omitempty"`
	Layers    []Layer   `json:"layers,omitempty"`
}

// Dispatch routes an event to Created, Edited or Deleted.
func (c *Controller) Dispatch(ev Event) error {
	switch ev.Type {
	case EventCreated:
		if ev.Layer == nil {
			return fmt.Errorf("%w: %s without layer", ErrInvalidShape, ev.Type)
		}
		kind := ev.LayerType
		if kind == "" {
			kind = ev.Layer.Kind
		}
		return c.Created(ev.Layer.ID, kind, ev.Layer.Ring)
	case EventEdited:
		return c.Edited(ev.Layers)
	case EventDeleted:
		ids := make([]string, 0, len(ev.Layers))
		for _, l := range ev.Layers {
			ids = append(ids, l.ID)
		}
		return c.Deleted(ids)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}
}
