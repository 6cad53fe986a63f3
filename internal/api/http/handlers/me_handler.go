package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/access"
	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// PermissionLister returns a user's effective permission set.
type PermissionLister interface {
	EffectivePermissions(ctx context.Context, userID int64) (access.PermissionSet, error)
}

// MeHandler serves endpoints about the calling user.
type MeHandler struct {
	permissions PermissionLister
}

// NewMeHandler constructs handler.
func NewMeHandler(permissions PermissionLister) *MeHandler {
	return &MeHandler{permissions: permissions}
}

// Profile GET /me.
func (h *MeHandler) Profile(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(principal.User)})
}

// Permissions GET /me/permissions.
func (h *MeHandler) Permissions(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	perms, err := h.permissions.EffectivePermissions(c.UserContext(), principal.UserID)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.JSON(fiber.Map{"data": dto.PermissionsResponse{
		UserID:      principal.UserID,
		Role:        principal.Role,
		Permissions: perms.Sorted(),
	}})
}
