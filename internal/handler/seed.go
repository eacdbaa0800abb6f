package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/frxplorer/api/internal/model"
	"github.com/frxplorer/api/internal/service"
	"github.com/frxplorer/api/pkg/response"
)

type SeedHandler struct {
	service   *service.SeedService
	validator *validator.Validate
}

func NewSeedHandler(svc *service.SeedService, v *validator.Validate) *SeedHandler {
	return &SeedHandler{service: svc, validator: v}
}

// Create handles POST /api/seeds.
func (h *SeedHandler) Create(c *fiber.Ctx) error {
	var req model.SeedCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	seed, err := h.service.Create(c.Context(), &req)
	if err != nil {
		return serviceError(c, err)
	}
	return response.Created(c, seed)
}

// List handles GET /api/seeds?status=active|retired.
func (h *SeedHandler) List(c *fiber.Ctx) error {
	status := c.Query("status", model.SeedStatusActive)
	if status != model.SeedStatusActive && status != model.SeedStatusRetired {
		return response.ValidationError(c, "status must be active or retired", nil)
	}
	seeds, err := h.service.List(c.Context(), status)
	if err != nil {
		return serviceError(c, err)
	}
	return response.OK(c, fiber.Map{"seeds": seeds})
}

// Get handles GET /api/seeds/:seedId.
func (h *SeedHandler) Get(c *fiber.Ctx) error {
	seed, err := h.service.Get(c.Context(), c.Params("seedId"))
	if err != nil {
		return serviceError(c, err)
	}
	return response.OK(c, seed)
}

// Update handles PUT /api/seeds/:seedId.
func (h *SeedHandler) Update(c *fiber.Ctx) error {
	var req model.SeedUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	seed, err := h.service.Update(c.Context(), c.Params("seedId"), &req)
	if err != nil {
		return serviceError(c, err)
	}
	return response.OK(c, seed)
}

// Retire handles POST /api/seeds/:seedId/retire.
func (h *SeedHandler) Retire(c *fiber.Ctx) error {
	seed, err := h.service.Retire(c.Context(), c.Params("seedId"))
	if err != nil {
		return serviceError(c, err)
	}
	return response.OK(c, seed)
}

// Restore handles POST /api/seeds/:seedId/restore.
func (h *SeedHandler) Restore(c *fiber.Ctx) error {
	seed, err := h.service.Restore(c.Context(), c.Params("seedId"))
	if err != nil {
		return serviceError(c, err)
	}
	return response.OK(c, seed)
}
