package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/frxplorer/api/internal/model"
	"github.com/frxplorer/api/internal/service"
	"github.com/frxplorer/api/pkg/response"
)

// MapHandler exposes the map service: submit a computation, poll its task,
// download an encoded map.
type MapHandler struct {
	service   *service.MapService
	validator *validator.Validate
}

func NewMapHandler(svc *service.MapService, v *validator.Validate) *MapHandler {
	return &MapHandler{service: svc, validator: v}
}

// defaultParams mirrors the request defaults clients rely on: a standard
// power-2 Mandelbrot view.
func defaultParams() model.FractalParams {
	return model.FractalParams{
		Family:         model.FamilyMandelbrot,
		Power:          2,
		XCenter:        -1.0,
		YCenter:        0.0,
		XSpan:          1.0,
		YSpan:          1.0,
		Resolution:     512,
		MaxIterations:  512,
		Bailout:        4.0,
		FixedIteration: 20,
		TrapType:       model.TrapNone,
	}
}

func (h *MapHandler) parseParams(c *fiber.Ctx) (*model.FractalParams, error) {
	params := defaultParams()
	if err := c.QueryParser(&params); err != nil {
		return nil, &model.ParamsError{Field: "query", Reason: err.Error()}
	}
	if err := h.validator.Struct(&params); err != nil {
		return nil, err
	}
	return &params, nil
}

// Calculate handles GET /api/maps/calculate.
// 200 status=cached: every map for these params is ready to download.
// 202 status=calculating: poll the returned task id, then re-request.
func (h *MapHandler) Calculate(c *fiber.Ctx) error {
	params, err := h.parseParams(c)
	if err != nil {
		if verr, ok := err.(validator.ValidationErrors); ok {
			return response.ValidationError(c, "Validation failed", formatValidationErrors(verr))
		}
		return serviceError(c, err)
	}

	result, err := h.service.Calculate(c.Context(), params)
	if err != nil {
		return serviceError(c, err)
	}
	if result.Status == "cached" {
		return response.OK(c, result)
	}
	return response.Accepted(c, result)
}

// Status handles GET /api/maps/status/:taskId.
func (h *MapHandler) Status(c *fiber.Ctx) error {
	taskID := c.Params("taskId")
	if taskID == "" {
		return response.ValidationError(c, "Task ID is required", nil)
	}

	result, err := h.service.Status(c.Context(), taskID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return response.NotFound(c, "Task not found")
		}
		return serviceError(c, err)
	}
	return response.OK(c, result)
}

// GetMap handles GET /api/maps/get?...&map_name=<name>&map_type=raw|png.
// Raw hits stream the gzip-compressed float buffer; PNG hits stream the
// image. A PNG miss over a cached raw map queues the encode and answers
// 202 with a task id to poll.
func (h *MapHandler) GetMap(c *fiber.Ctx) error {
	params, err := h.parseParams(c)
	if err != nil {
		if verr, ok := err.(validator.ValidationErrors); ok {
			return response.ValidationError(c, "Validation failed", formatValidationErrors(verr))
		}
		return serviceError(c, err)
	}

	mapName := c.Query("map_name", model.MapDistance)
	encoding := c.Query("map_type", model.EncodingRaw)

	blob, taskID, err := h.service.GetMapBlob(c.Context(), params, mapName, encoding)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return response.NotFound(c, "Map not found in cache. It may still be calculating.")
		}
		return serviceError(c, err)
	}
	if taskID != "" {
		return response.Accepted(c, fiber.Map{
			"status": "calculating_png",
			"taskId": taskID,
		})
	}

	if encoding == model.EncodingPNG {
		c.Set(fiber.HeaderContentType, "image/png")
	} else {
		c.Set(fiber.HeaderContentType, "application/octet-stream")
		c.Set(fiber.HeaderContentEncoding, "gzip")
	}
	return c.Send(blob)
}
