package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"
	"github.com/samirrijal/agrosight/internal/pkg/metrics"
)

// LegacyAnalyzePath is the analysis route used by the first map client.
const LegacyAnalyzePath = "/api/ndvi"

// legacySunset is when LegacyAnalyzePath is removed.
var legacySunset = time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
		Next: func(c *fiber.Ctx) bool {
			return websocket.IsWebSocketUpgrade(c)
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())
	app.Use(DeprecationMiddleware([]DeprecatedRoute{
		{Path: LegacyAnalyzePath, SunsetDate: legacySunset, Alternative: "/v1/ndvi/analyze"},
	}))

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler())
	app.Get("/v1/ready", ReadyHandler(deps))

	// The processor may take a while on long windows; the analysis routes
	// get a longer budget than the rest of the API.
	analyze := timeout.NewWithContext(AnalyzeNDVIHandler(deps), 90*time.Second)
	app.Post(LegacyAnalyzePath, analyze)

	v1 := app.Group("/v1")
	v1.Post("/ndvi/analyze", analyze)
	v1.Post("/ndvi/jobs", timeout.NewWithContext(SubmitJobHandler(deps), 15*time.Second))
	v1.Get("/ndvi/jobs/:id", timeout.NewWithContext(JobStatusHandler(deps), 15*time.Second))
	v1.Get("/analyses", timeout.NewWithContext(ListAnalysesHandler(deps), 15*time.Second))
	v1.Get("/analyses/:id", timeout.NewWithContext(GetAnalysisHandler(deps), 15*time.Second))
	v1.Get("/map/config", MapConfigHandler(deps))
	v1.Get("/prices", timeout.NewWithContext(PricesHandler(deps), 15*time.Second))
	v1.Post("/disease/classify", timeout.NewWithContext(ClassifyDiseaseHandler(deps), 60*time.Second))

	// GraphQL
	app.Post("/graphql", timeout.NewWithContext(GraphQLHandler(deps), 15*time.Second))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/ndvi", websocket.New(MapSessionHandler(deps.Session)))
	if deps.NATS != nil {
		app.Get("/ws/analyses", websocket.New(AnalysisFeedHandler(deps.NATS)))
	}
}
