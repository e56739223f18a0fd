// file: internals/helpers/auth/caller.go
package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"classroom_backend/internals/constants"
)

// Caller is the identity resolved by the auth middleware.
type Caller struct {
	ID   uuid.UUID
	Role string
}

func (c Caller) IsTeacher() bool { return c.Role == constants.RoleTeacher }
func (c Caller) IsStudent() bool { return c.Role == constants.RoleStudent }
func (c Caller) IsAdmin() bool   { return c.Role == constants.RoleAdmin }

// GetUserIDFromToken reads c.Locals("user_id").
// 401 when not logged in, 400 when malformed.
func GetUserIDFromToken(c *fiber.Ctx) (uuid.UUID, error) {
	v := c.Locals("user_id")
	if v == nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "User not logged in")
	}

	var s string
	switch t := v.(type) {
	case uuid.UUID:
		if t == uuid.Nil {
			return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "User not logged in")
		}
		return t, nil
	case string:
		s = t
	case []byte:
		s = string(t)
	default:
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid user ID in token")
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "User not logged in")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid user ID in token")
	}
	return id, nil
}

// GetCaller resolves user id + role stored by the auth middleware.
func GetCaller(c *fiber.Ctx) (Caller, error) {
	id, err := GetUserIDFromToken(c)
	if err != nil {
		return Caller{}, err
	}
	role, _ := c.Locals("userRole").(string)
	role = strings.ToLower(strings.TrimSpace(role))
	if !constants.IsKnownRole(role) {
		return Caller{}, fiber.NewError(fiber.StatusForbidden, "Unknown role")
	}
	return Caller{ID: id, Role: role}, nil
}
