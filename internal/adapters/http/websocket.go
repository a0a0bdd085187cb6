package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/agrosight/internal/adapters/nats"
	"github.com/samirrijal/agrosight/internal/pkg/metrics"
)

const pingInterval = 30 * time.Second

// feedMessage is sent by feed clients to narrow or widen the relayed outcomes.
type feedMessage struct {
	Action  string `json:"action"`  // "subscribe" | "unsubscribe"
	Outcome string `json:"outcome"` // "completed" | "failed" | "" for both
}

// wsConn serialises writes to a websocket connection.
type wsConn struct {
	mu sync.Mutex
	c  *websocket.Conn
}

func (w *wsConn) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.c.WriteMessage(websocket.TextMessage, data)
}

// keepAlive pings the client until done is closed or a ping fails.
func (w *wsConn) keepAlive(done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.mu.Lock()
			err := w.c.WriteMessage(websocket.PingMessage, nil)
			w.mu.Unlock()
			if err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// feedSubject maps an outcome filter to its NATS subject.
func feedSubject(outcome string) (string, bool) {
	switch outcome {
	case "":
		return natsadapter.SubjectAllOutcome, true
	case "completed":
		return natsadapter.SubjectCompleted, true
	case "failed":
		return natsadapter.SubjectFailed, true
	}
	return "", false
}

// AnalysisFeedHandler relays analysis events from NATS to the client. Every
// connection starts subscribed to all outcomes; clients may send
// {"action":"subscribe"|"unsubscribe","outcome":"completed"|"failed"}.
func AnalysisFeedHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		metrics.ActiveWebSockets.WithLabelValues("analyses").Inc()
		defer metrics.ActiveWebSockets.WithLabelValues("analyses").Dec()

		log := slog.With("remote", c.RemoteAddr().String(), "channel", "analyses")
		log.Info("ws client connected")

		conn := &wsConn{c: c}
		subs := make(map[string]*nats.Subscription)
		relay := func(msg *nats.Msg) { _ = conn.writeJSON(json.RawMessage(msg.Data)) }

		sub, err := nc.Subscribe(natsadapter.SubjectAllOutcome, relay)
		if err != nil {
			log.Error("ws default subscribe failed", "error", err)
			return
		}
		subs[natsadapter.SubjectAllOutcome] = sub

		done := make(chan struct{})
		go conn.keepAlive(done)

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m feedMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = conn.writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}
			subject, ok := feedSubject(m.Outcome)
			if !ok {
				_ = conn.writeJSON(map[string]string{"error": "unknown outcome: " + m.Outcome})
				continue
			}

			switch m.Action {
			case "subscribe":
				if _, exists := subs[subject]; exists {
					_ = conn.writeJSON(map[string]string{"status": "already subscribed", "subject": subject})
					continue
				}
				s, err := nc.Subscribe(subject, relay)
				if err != nil {
					_ = conn.writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				subs[subject] = s
				_ = conn.writeJSON(map[string]string{"status": "subscribed", "subject": subject})

			case "unsubscribe":
				s, exists := subs[subject]
				if !exists {
					_ = conn.writeJSON(map[string]string{"error": "not subscribed to " + subject})
					continue
				}
				_ = s.Unsubscribe()
				delete(subs, subject)
				_ = conn.writeJSON(map[string]string{"status": "unsubscribed", "subject": subject})

			default:
				_ = conn.writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		close(done)
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
		log.Info("ws client disconnected")
	}
}
