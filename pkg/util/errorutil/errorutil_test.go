package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestToDomainErrorKeepsDomainErrors(t *testing.T) {
	wrapped := fmt.Errorf("approve: %w", NewInvalidTransition("ticket is not pending approval", nil))

	got := ToDomainError(wrapped)
	if got.Code != CodeInvalidTransition {
		t.Fatalf("expected %s, got %s", CodeInvalidTransition, got.Code)
	}
	if got.HTTPStatus != http.StatusConflict {
		t.Fatalf("expected 409, got %d", got.HTTPStatus)
	}
}

func TestToDomainErrorHidesUnknownErrors(t *testing.T) {
	cause := errors.New("connection reset by peer")

	got := ToDomainError(cause)
	if got.Code != CodeInternal || got.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unexpected mapping: %+v", got)
	}
	if got.Message == cause.Error() {
		t.Fatal("storage detail leaked into the client message")
	}
	if !errors.Is(got, cause) {
		t.Fatal("cause should stay reachable through Unwrap")
	}
}

func TestToDomainErrorMapsFiberErrors(t *testing.T) {
	got := ToDomainError(fiber.ErrNotFound)
	if got.Code != CodeNotFound || got.HTTPStatus != http.StatusNotFound {
		t.Fatalf("unexpected mapping: %+v", got)
	}
}

func TestPermissionDeniedCarriesRequiredGrants(t *testing.T) {
	got := ToDomainError(NewPermissionDenied("tickets:delete"))
	required, ok := got.Details["required"].([]string)
	if !ok || len(required) != 1 || required[0] != "tickets:delete" {
		t.Fatalf("unexpected details: %#v", got.Details)
	}
	if !HasCode(got, CodeForbidden) {
		t.Fatal("expected forbidden code")
	}
}
