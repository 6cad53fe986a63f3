package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// Authorizer decides whether a principal holds any of the required permissions.
type Authorizer interface {
	Authorize(ctx context.Context, userID int64, role domain.Role, required ...domain.Permission) error
}

// RequirePermission admits the request only if the principal holds
// resource:action.
func RequirePermission(authorizer Authorizer, resource domain.Resource, action domain.Action) fiber.Handler {
	return RequireAnyPermission(authorizer, domain.NewPermission(resource, action))
}

// RequireAnyPermission admits the request if the principal holds at least
// one of perms. Lookup failures deny.
func RequireAnyPermission(authorizer Authorizer, perms ...domain.Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := auth.PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if err := authorizer.Authorize(c.UserContext(), principal.UserID, principal.Role, perms...); err != nil {
			return err
		}
		return c.Next()
	}
}
