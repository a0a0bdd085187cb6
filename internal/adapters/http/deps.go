package http

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/samirrijal/agrosight/internal/adapters/postgres"
	"github.com/samirrijal/agrosight/internal/adapters/valkey"
	"github.com/samirrijal/agrosight/internal/core/usecases"
	"github.com/samirrijal/agrosight/internal/mapdraw"
)

// Pinger is a dependency that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SessionConfig configures the per-connection pipeline of the map WebSocket.
type SessionConfig struct {
	Endpoint string         // analysis endpoint the session posts to
	Timeout  time.Duration  // 0 waits for the endpoint indefinitely
	Location *time.Location // display timezone of result dates
	Map      []mapdraw.Option
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	NDVI     *usecases.NDVIService
	Jobs     *usecases.JobService
	Prices   *usecases.PriceService
	Disease  *usecases.DiseaseService
	NATS     *nats.Conn
	DB       *postgres.DB
	Cache    *valkey.Cache
	Temporal Pinger
	Session  SessionConfig
}
