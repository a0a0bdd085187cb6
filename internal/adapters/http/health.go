package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/samirrijal/agrosight/internal/pkg/metrics"
)

// Version is reported by the health endpoint; set at build time with -ldflags.
var Version = "dev"

// HealthHandler returns a basic liveness check.
func HealthHandler() fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).String(),
			"version": Version,
		})
	}
}

// ReadyHandler checks the database, NATS, cache and Temporal. The database and
// the cache are required; NATS and Temporal are reported but optional.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		checks := make(map[string]string)
		allOK := true

		if deps.DB != nil {
			metrics.UpdateDBPoolMetrics(deps.DB.Pool.Stat())
			checks["database"] = probe(ctx, deps.DB)
		} else {
			checks["database"] = "not configured"
		}
		if checks["database"] != "ok" {
			allOK = false
		}

		if deps.Cache != nil {
			checks["cache"] = probe(ctx, deps.Cache)
			if checks["cache"] != "ok" {
				allOK = false
			}
		} else {
			checks["cache"] = "not configured"
		}

		switch {
		case deps.NATS == nil:
			checks["nats"] = "not configured"
		case deps.NATS.IsConnected():
			checks["nats"] = "ok"
		default:
			checks["nats"] = "disconnected"
		}

		if deps.Temporal != nil {
			checks["temporal"] = probe(ctx, deps.Temporal)
		} else {
			checks["temporal"] = "not configured"
		}

		status := "ready"
		code := fiber.StatusOK
		if !allOK {
			status = "not ready"
			code = fiber.StatusServiceUnavailable
		}

		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	}
}

func probe(ctx context.Context, p Pinger) string {
	if err := p.Ping(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}
