package handlers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"latex2png/internal/config"
	"latex2png/internal/domain"
	"latex2png/internal/infra/logging"
	"latex2png/internal/render"
)

// Renderer is the part of render.Engine the handlers need.
type Renderer interface {
	Render(ctx context.Context, req domain.RenderRequest) (*domain.Image, error)
	Stats() render.PoolStats
}

// RenderService bundles configuration and the render engine.
type RenderService struct {
	Config *config.Config
	Engine Renderer
}

// NewRenderService creates a new RenderService instance.
func NewRenderService(cfg config.Config, engine Renderer) *RenderService {
	return &RenderService{
		Config: &cfg,
		Engine: engine,
	}
}

// HandleRender renders the latex query parameter into a picture.
func (svc *RenderService) HandleRender(c *fiber.Ctx) error {
	req, err := parseRenderRequest(c, svc.Config.Render)
	if err != nil {
		return writeFailure(c, err)
	}

	img, err := svc.Engine.Render(c.UserContext(), req)
	if err != nil {
		return svc.writeRenderError(c, req, err)
	}

	logging.Info("Markup rendered",
		"font", req.Font,
		"format", req.Format,
		"bytes", len(img.Data),
		"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
	)
	c.Set(fiber.HeaderContentType, img.MIMEType())
	return c.Status(fiber.StatusOK).Send(img.Data)
}

// HandleRenderStats exposes the render slot pool.
func (svc *RenderService) HandleRenderStats(c *fiber.Ctx) error {
	s := svc.Engine.Stats()
	return c.JSON(fiber.Map{
		"enabled":      s.Enabled,
		"capacity":     s.Capacity,
		"idle":         s.Idle,
		"in_use":       s.InUse,
		"rendered":     s.Rendered,
		"failed":       s.Failed,
		"timed_out":    s.TimedOut,
		"timeout_secs": svc.Config.Render.TimeoutSecs,
	})
}

func (svc *RenderService) writeRenderError(c *fiber.Ctx, req domain.RenderRequest, err error) error {
	requestID := c.GetRespHeader(fiber.HeaderXRequestID)

	var re *domain.RenderError
	switch {
	case errors.Is(err, domain.ErrNoMathDelimiter):
		return writeFailure(c, err)
	case errors.As(err, &re):
		fields := []any{
			"error", re.Message,
			"latex", req.Markup,
			"font", req.Font,
			"request_id", requestID,
		}
		if re.Err != nil && re.Err.Error() != re.Message {
			fields = append(fields, "cause", re.Err)
		}
		if re.Trace != "" {
			fields = append(fields, "stack", re.Trace)
		}
		logging.Error("Render failed", fields...)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status": "error",
			"text":   re.Message,
		})
	case errors.Is(err, render.ErrBusy), errors.Is(err, render.ErrPoolClosed):
		logging.Warn("Render rejected", "error", err, "request_id", requestID)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "error",
			"text":   render.ErrBusy.Error(),
		})
	}
	return err
}

// writeFailure answers a request that was rejected before rendering.
func writeFailure(c *fiber.Ctx, err error) error {
	status := fiber.StatusUnprocessableEntity
	switch {
	case errors.Is(err, domain.ErrNoMathDelimiter):
		status = fiber.StatusBadRequest
	case errors.Is(err, domain.ErrMarkupTooLarge):
		status = fiber.StatusRequestEntityTooLarge
	}
	return c.Status(status).JSON(fiber.Map{
		"status": "failed",
		"reason": err.Error(),
	})
}

// parseRenderRequest reads and checks the query parameters. The $ check is
// left to the engine so it runs after every parameter is known to be usable.
func parseRenderRequest(c *fiber.Ctx, cfg config.RenderConfig) (domain.RenderRequest, error) {
	latex := c.Query("latex")
	if !c.Context().QueryArgs().Has("latex") {
		return domain.RenderRequest{}, &domain.ValidationError{Field: "latex", Reason: "field required"}
	}
	if len(latex) > cfg.MaxLatexBytes {
		return domain.RenderRequest{}, fmt.Errorf("%w (%d bytes max)", domain.ErrMarkupTooLarge, cfg.MaxLatexBytes)
	}

	req := domain.NewRenderRequest(latex)
	var err error

	if v := c.Query("font"); v != "" {
		if req.Font, err = domain.ParseFontSet(v); err != nil {
			return req, err
		}
	}
	if v := c.Query("pic_format"); v != "" {
		if req.Format, err = domain.ParseFormat(v); err != nil {
			return req, err
		}
	}
	if v := c.Query("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return req, &domain.ValidationError{Field: "size", Reason: "must be a positive integer"}
		}
		req.Size = n
	}
	if v := c.Query("dpi"); v != "" {
		if req.DPI, err = parsePositiveFloat("dpi", v); err != nil {
			return req, err
		}
	}
	if v := c.Query("img_size_x"); v != "" {
		if req.Width, err = parseSize("img_size_x", v); err != nil {
			return req, err
		}
	}
	if v := c.Query("img_size_y"); v != "" {
		if req.Height, err = parseSize("img_size_y", v); err != nil {
			return req, err
		}
	}

	w, h := render.SurfaceSize(req, cfg.DefaultWidthIn, cfg.DefaultHeightIn)
	if pixels := w * req.DPI * h * req.DPI; pixels > float64(cfg.MaxPixels) {
		return req, &domain.ValidationError{
			Field:  "dpi",
			Reason: fmt.Sprintf("picture of %.0f pixels exceeds the %d pixel limit", pixels, cfg.MaxPixels),
		}
	}
	return req, nil
}

func parsePositiveFloat(field, v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, &domain.ValidationError{Field: field, Reason: "must be a positive number"}
	}
	return f, nil
}

// parseSize accepts zero, which like an absent value leaves default sizing in place.
func parseSize(field, v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, &domain.ValidationError{Field: field, Reason: "must be a non-negative number"}
	}
	return f, nil
}
