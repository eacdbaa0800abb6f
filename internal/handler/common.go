package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/frxplorer/api/internal/model"
	"github.com/frxplorer/api/pkg/response"
)

func formatValidationErrors(err error) interface{} {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		errs := make(map[string]string)
		for _, e := range validationErrors {
			errs[e.Field()] = e.Tag()
		}
		return errs
	}
	return nil
}

// serviceError maps the error taxonomy onto HTTP responses: invalid params
// are 400, missing records 404, failed computations 500 with a distinct
// code, cache backend trouble 503, anything else 500.
func serviceError(c *fiber.Ctx, err error) error {
	var computeErr *model.ComputeError
	switch {
	case model.IsInvalidParams(err):
		return response.ValidationError(c, err.Error(), nil)
	case errors.As(err, &computeErr):
		return response.TaskFailed(c, err.Error())
	case errors.Is(err, model.ErrNotFound):
		return response.NotFound(c, "Not found")
	case errors.Is(err, model.ErrCacheIO):
		return response.CacheError(c, err.Error())
	default:
		return response.ServiceError(c, err.Error())
	}
}
