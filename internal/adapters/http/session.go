package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/samirrijal/agrosight/internal/core/domain"
	"github.com/samirrijal/agrosight/internal/mapdraw"
	"github.com/samirrijal/agrosight/internal/pipeline"
	"github.com/samirrijal/agrosight/internal/pkg/metrics"
	"github.com/samirrijal/agrosight/internal/present"
	"github.com/samirrijal/agrosight/internal/selection"
)

// Session message types besides the leaflet-draw events.
const (
	MsgCoordinates = "coordinates"
	MsgDates       = "dates"
	MsgAnalyze     = "analyze"
	MsgReset       = "reset"

	ReplySelection = "selection"
	ReplyView      = "view"
	ReplyError     = "error"
)

// formText is a form field value; clients may send it as a string or a number.
type formText string

func (f *formText) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = formText(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = formText(n.String())
	return nil
}

// sessionMessage is a client message on the map session.
type sessionMessage struct {
	Type string `json:"type"`

	// draw:created, draw:edited, draw:deleted
	LayerType mapdraw.ShapeKind `json:"layerType,omitempty"`
	Layer     *mapdraw.Layer    `json:"layer,omitempty"`
	Layers    []mapdraw.Layer   `json:"layers,omitempty"`

	// coordinates
	Lat formText `json:"lat,omitempty"`
	Lng formText `json:"lng,omitempty"`

	// dates; absent fields are left unchanged
	StartDate *string `json:"startDate,omitempty"`
	EndDate   *string `json:"endDate,omitempty"`
}

type sessionReply struct {
	Type      string              `json:"type"`
	Selection *selection.Snapshot `json:"selection,omitempty"`
	View      *present.View       `json:"view,omitempty"`
	Error     string              `json:"error,omitempty"`
}

// MapSessionHandler hosts one analysis page per connection: the client forwards
// its map drawing events and form input, and receives the merged selection and
// the rendered outcome of each analysis.
func MapSessionHandler(cfg SessionConfig) func(*websocket.Conn) {
	var opts []pipeline.Option
	if cfg.Timeout > 0 {
		opts = append(opts, pipeline.WithTimeout(cfg.Timeout))
	}
	if cfg.Location != nil {
		opts = append(opts, pipeline.WithLocation(cfg.Location))
	}

	return func(c *websocket.Conn) {
		defer c.Close()

		metrics.ActiveWebSockets.WithLabelValues("ndvi").Inc()
		defer metrics.ActiveWebSockets.WithLabelValues("ndvi").Dec()

		log := slog.With("session", uuid.NewString(), "remote", c.RemoteAddr().String())
		log.Info("map session opened")

		conn := &wsConn{c: c}
		reply := func(r sessionReply) {
			if err := conn.writeJSON(r); err != nil {
				log.Debug("map session write failed", "error", err)
			}
		}

		ctrl := mapdraw.NewController(cfg.Map...)
		state := selection.New()
		state.OnChange(func(s selection.Snapshot) { reply(sessionReply{Type: ReplySelection, Selection: &s}) })
		analyzer := pipeline.NewAnalyzer(cfg.Endpoint, state, opts...)

		ctx, cancel := context.WithCancel(context.Background())
		var wg sync.WaitGroup

		done := make(chan struct{})
		go conn.keepAlive(done)

		defer func() {
			cancel()
			_ = ctrl.Dispose()
			wg.Wait()
			close(done)
			log.Info("map session closed")
		}()

		initial := state.Snapshot()
		reply(sessionReply{Type: ReplySelection, Selection: &initial})

		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				return
			}

			var m sessionMessage
			if err := json.Unmarshal(raw, &m); err != nil {
				reply(sessionReply{Type: ReplyError, Error: "invalid JSON"})
				continue
			}

			switch m.Type {
			case mapdraw.EventCreated, mapdraw.EventEdited, mapdraw.EventDeleted:
				ev := mapdraw.Event{Type: m.Type, LayerType: m.LayerType, Layer: m.Layer, Layers: m.Layers}
				if err := ctrl.Dispatch(ev); err != nil {
					reply(sessionReply{Type: ReplyError, Error: err.Error()})
				}
				// Apply the emission here so later messages see it in arrival order.
				if area, ok := latestSelection(ctrl.Selections()); ok {
					state.SetArea(area)
				}

			case MsgCoordinates:
				if err := state.SubmitCoordinates(string(m.Lat), string(m.Lng)); err != nil {
					reply(sessionReply{Type: ReplyError, Error: selection.InvalidCoordinatesMessage})
				}

			case MsgDates:
				if m.StartDate != nil {
					state.SetStartDate(*m.StartDate)
				}
				if m.EndDate != nil {
					state.SetEndDate(*m.EndDate)
				}

			case MsgAnalyze:
				wg.Add(1)
				go func() {
					defer wg.Done()
					out := analyzer.Analyze(ctx)
					if ctx.Err() != nil {
						return
					}
					if out.Err != nil && out.Err.Message == pipeline.MsgInFlight {
						reply(sessionReply{Type: ReplyError, Error: out.Err.Message})
						return
					}
					v := present.NewView(out)
					reply(sessionReply{Type: ReplyView, View: &v})
				}()

			case MsgReset:
				state.Reset()

			default:
				reply(sessionReply{Type: ReplyError, Error: "unknown message type: " + m.Type})
			}
		}
	}
}

// latestSelection takes a pending emission without blocking.
func latestSelection(ch <-chan domain.SelectedArea) (domain.SelectedArea, bool) {
	select {
	case area, ok := <-ch:
		return area, ok
	default:
		return nil, false
	}
}
