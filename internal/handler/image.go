package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/frxplorer/api/internal/model"
	"github.com/frxplorer/api/internal/service"
	"github.com/frxplorer/api/pkg/response"
)

type ImageHandler struct {
	service   *service.ImageService
	validator *validator.Validate
}

func NewImageHandler(svc *service.ImageService, v *validator.Validate) *ImageHandler {
	return &ImageHandler{service: svc, validator: v}
}

// Log handles POST /api/images.
func (h *ImageHandler) Log(c *fiber.Ctx) error {
	var req model.ImageLogRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	rec, err := h.service.Log(c.Context(), &req)
	if err != nil {
		return serviceError(c, err)
	}
	return response.Created(c, rec)
}

// List handles GET /api/images?status=active|retired.
func (h *ImageHandler) List(c *fiber.Ctx) error {
	status := c.Query("status", model.SeedStatusActive)
	if status != model.SeedStatusActive && status != model.SeedStatusRetired {
		return response.ValidationError(c, "status must be active or retired", nil)
	}
	recs, err := h.service.List(c.Context(), status)
	if err != nil {
		return serviceError(c, err)
	}
	return response.OK(c, fiber.Map{"images": recs})
}

// Retire handles POST /api/images/:imageId/retire.
func (h *ImageHandler) Retire(c *fiber.Ctx) error {
	rec, err := h.service.Retire(c.Context(), c.Params("imageId"))
	if err != nil {
		return serviceError(c, err)
	}
	return response.OK(c, rec)
}

// Restore handles POST /api/images/:imageId/restore.
func (h *ImageHandler) Restore(c *fiber.Ctx) error {
	rec, err := h.service.Restore(c.Context(), c.Params("imageId"))
	if err != nil {
		return serviceError(c, err)
	}
	return response.OK(c, rec)
}
