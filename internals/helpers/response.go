package helper

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"classroom_backend/internals/helpers/apperr"
)

// ValidationError renders validator.v10 errors as a 422 field map.
func ValidationError(c *fiber.Ctx, err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return JsonError(c, fiber.StatusBadRequest, "Invalid input")
	}

	fields := make(map[string][]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = append(fields[fe.Field()], fe.Tag())
	}
	return JsonValidationError(c, fields)
}

// FromAppError renders any error coming out of a service using its apperr kind and code.
func FromAppError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return JsonError(c, fe.Code, fe.Message)
	}
	status := apperr.HTTPStatus(err)
	msg := err.Error()
	if status >= 500 {
		if ae, ok := apperr.As(err); ok {
			// cause stays in the logs
			msg = ae.Message
		} else {
			msg = "internal error"
		}
	}
	return JsonErrorCode(c, status, apperr.Code(err), msg)
}
