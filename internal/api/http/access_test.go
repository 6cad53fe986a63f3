package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap/zaptest"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

type authorizerFunc func(ctx context.Context, userID int64, role domain.Role, required ...domain.Permission) error

func (f authorizerFunc) Authorize(ctx context.Context, userID int64, role domain.Role, required ...domain.Permission) error {
	return f(ctx, userID, role, required...)
}

func guardedApp(t *testing.T, authorizer Authorizer, withPrincipal bool) (*fiber.App, *bool) {
	logger := zaptest.NewLogger(t)
	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger, metrics)})
	RegisterMiddlewares(app, logger, metrics, 0)
	reached := false
	setPrincipal := func(c *fiber.Ctx) error {
		if withPrincipal {
			auth.SetPrincipal(c, &auth.Principal{UserID: 7, Role: domain.RoleUser})
		}
		return c.Next()
	}
	app.Get("/guarded", setPrincipal, RequirePermission(authorizer, domain.ResourceTickets, domain.ActionView), func(c *fiber.Ctx) error {
		reached = true
		return c.SendStatus(http.StatusOK)
	})
	return app, &reached
}

func TestRequirePermissionFailsClosed(t *testing.T) {
	cases := []struct {
		name       string
		authorizer Authorizer
		principal  bool
		want       int
	}{
		{"allowed", authorizerFunc(func(context.Context, int64, domain.Role, ...domain.Permission) error { return nil }), true, http.StatusOK},
		{"denied", authorizerFunc(func(_ context.Context, _ int64, _ domain.Role, req ...domain.Permission) error {
			return errorutil.NewPermissionDenied(string(req[0]))
		}), true, http.StatusForbidden},
		{"lookup failure", authorizerFunc(func(context.Context, int64, domain.Role, ...domain.Permission) error {
			return errorutil.NewInternalError(errors.New("db down"))
		}), true, http.StatusInternalServerError},
		{"no principal", authorizerFunc(func(context.Context, int64, domain.Role, ...domain.Permission) error { return nil }), false, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app, reached := guardedApp(t, tc.authorizer, tc.principal)
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/guarded", nil))
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, resp.StatusCode)
			}
			if *reached != (tc.want == http.StatusOK) {
				t.Fatalf("handler reached=%v for status %d", *reached, tc.want)
			}
		})
	}
}
