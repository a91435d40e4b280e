package handlers

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/fleetsight/fleetsight/internal/domain"
	"github.com/fleetsight/fleetsight/internal/ports"
)

type ReportHandler struct {
	service ports.ReportService
	log     *zap.Logger
}

func NewReportHandler(service ports.ReportService, log *zap.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		log:     log,
	}
}

// Preview returns the assembled report document as JSON without
// rendering an artifact.
func (h *ReportHandler) Preview(c *fiber.Ctx) error {
	var req domain.ReportRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	doc, err := h.service.Preview(c.Context(), req)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(doc)
}

// Generate renders the report and returns it as a file download.
func (h *ReportHandler) Generate(c *fiber.Ctx) error {
	var req domain.ReportRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	rendered, err := h.service.Generate(c.Context(), req)
	if err != nil {
		return h.respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, rendered.MIMEType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", rendered.Filename))
	return c.Send(rendered.Bytes)
}

// Dispatch queues the report for asynchronous generation and mailing.
func (h *ReportHandler) Dispatch(c *fiber.Ctx) error {
	var req domain.ReportRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	if err := h.service.Dispatch(c.Context(), req); err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "queued"})
}

// List returns archive entries of generated reports, newest first.
func (h *ReportHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	reports, err := h.service.ListGenerated(c.Context(), limit, offset)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{"reports": reports, "count": len(reports)})
}

// DriverMetrics returns one driver's KPIs for a period together with
// the month-over-month comparison.
func (h *ReportHandler) DriverMetrics(c *fiber.Ctx) error {
	name, err := url.PathUnescape(c.Params("name"))
	if err != nil || name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid driver name"})
	}

	month := c.QueryInt("month")
	year := c.QueryInt("year")
	if month < 1 || month > 12 || year < 2000 || year > 2100 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "month and year query parameters are required"})
	}

	perf, err := h.service.DriverPerformance(c.Context(), name, month, year)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(perf)
}

func (h *ReportHandler) respondError(c *fiber.Ctx, err error) error {
	var verrs domain.ValidationErrors
	if errors.As(err, &verrs) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "validation failed",
			"details": verrs,
		})
	}

	switch {
	case errors.Is(err, domain.ErrDriverNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Driver not found"})
	case errors.Is(err, domain.ErrUnknownFormat):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrRenderTimeout):
		return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{"error": "Report rendering timed out"})
	case errors.Is(err, domain.ErrRenderUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Report rendering temporarily unavailable"})
	}

	h.log.Error("Report request failed", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}
