package http

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/samirrijal/agrosight/internal/core/domain"
	"github.com/samirrijal/agrosight/internal/core/usecases"
	"github.com/samirrijal/agrosight/internal/mapdraw"
)

// historyWindow is how many recent analyses the list endpoint pages through.
const historyWindow = 200

// AnalyzeNDVIHandler computes the mean NDVI of the posted area. Responses use
// the {success, data | error} envelope the map client expects.
func AnalyzeNDVIHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req domain.AnalysisRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(domain.AnalysisResponse{
				Error: "invalid request body: " + err.Error(),
			})
		}

		data, err := deps.NDVI.Analyze(c.UserContext(), req)
		if err != nil {
			status := statusOf(err)
			if status >= 500 {
				LoggerFromCtx(c.UserContext()).Error("ndvi analysis failed", "error", err)
			}
			return c.Status(status).JSON(domain.AnalysisResponse{Error: err.Error()})
		}

		c.Set("Cache-Control", "no-store")
		return c.JSON(domain.AnalysisResponse{Success: true, Data: data})
	}
}

// ListAnalysesHandler pages through the most recent recorded analyses.
func ListAnalysesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		analyses, err := deps.NDVI.History(c.UserContext(), historyWindow)
		if err != nil {
			return errInternal(c, err.Error())
		}

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 20)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 100 {
			limit = 20
		}

		total := len(analyses)
		if offset >= total {
			analyses = []domain.Analysis{}
		} else {
			analyses = analyses[offset:min(offset+limit, total)]
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: analyses, Pagination: pg})
	}
}

// GetAnalysisHandler returns one recorded analysis.
func GetAnalysisHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		a, err := deps.NDVI.GetByID(c.UserContext(), c.Params("id"))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return errNotFound(c, "analysis not found")
			}
			return errFrom(c, err)
		}
		return c.JSON(a)
	}
}

// SubmitJobHandler starts an asynchronous analysis.
func SubmitJobHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Jobs == nil {
			return errUnavailable(c, "analysis jobs are not enabled")
		}
		var req domain.AnalysisRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body: "+err.Error())
		}

		id, err := deps.Jobs.Submit(c.UserContext(), req)
		if err != nil {
			return errFrom(c, err)
		}

		c.Location("/v1/ndvi/jobs/" + id)
		return c.Status(fiber.StatusAccepted).JSON(domain.AnalysisJob{ID: id, Status: domain.JobStatusRunning})
	}
}

// JobStatusHandler reports the state of an asynchronous analysis.
func JobStatusHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Jobs == nil {
			return errUnavailable(c, "analysis jobs are not enabled")
		}
		job, err := deps.Jobs.Status(c.UserContext(), c.Params("id"))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return errNotFound(c, "job not found")
			}
			return errFrom(c, err)
		}
		if job.Status == domain.JobStatusRunning {
			c.Set("Cache-Control", "no-store")
		}
		return c.JSON(job)
	}
}

// MapConfig is the initial state of the drawing map.
type MapConfig struct {
	View    mapdraw.View    `json:"view"`
	Toolbar mapdraw.Toolbar `json:"toolbar"`
}

// MapConfigHandler returns the viewport, tile source and draw tools of the map.
func MapConfigHandler(deps *Dependencies) fiber.Handler {
	ctrl := mapdraw.NewController(deps.Session.Map...)
	cfg := MapConfig{View: ctrl.View(), Toolbar: ctrl.Toolbar()}
	_ = ctrl.Dispose()

	return func(c *fiber.Ctx) error {
		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(cfg)
	}
}

// PricesHandler lists crop market prices, optionally filtered by name.
func PricesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := c.Query("q")
		if len(query) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}

		prices, err := deps.Prices.Search(c.UserContext(), query)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(prices)
	}
}

// ClassifyDiseaseHandler runs the leaf-disease model on an uploaded image.
func ClassifyDiseaseHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Disease == nil {
			return errUnavailable(c, "disease detection is not enabled")
		}
		fh, err := c.FormFile("image")
		if err != nil {
			return errBadRequest(c, "multipart field \"image\" is required")
		}
		if fh.Size > usecases.MaxImageBytes {
			return newError(c, fiber.StatusRequestEntityTooLarge, "payload_too_large", "image exceeds 10 MB")
		}

		f, err := fh.Open()
		if err != nil {
			return errInternal(c, err.Error())
		}
		defer f.Close()
		image, err := io.ReadAll(io.LimitReader(f, usecases.MaxImageBytes+1))
		if err != nil {
			return errInternal(c, err.Error())
		}

		pred, err := deps.Disease.Classify(c.UserContext(), image, fh.Header.Get("Content-Type"))
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(pred)
	}
}
