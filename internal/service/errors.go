package service

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/ticketid"
	"github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// Clock returns the current instant.
type Clock func() time.Time

func clockOrNow(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}

// repoError translates repository sentinels into domain errors.
func repoError(err error, resource string, details map[string]any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return errorutil.NewNotFound(resource, details)
	case errors.Is(err, repository.ErrDuplicate):
		return errorutil.NewConflict(resource+" already exists", details)
	}
	return errorutil.NewInternalError(err)
}

// resolveTicketRef decodes a composite code or raw id.
func resolveTicketRef(ctx context.Context, codec *ticketid.Codec, ref string) (int64, error) {
	id, err := codec.Decode(ctx, ref)
	if err != nil {
		if errors.Is(err, ticketid.ErrNotFound) {
			return 0, errorutil.NewNotFound("ticket", map[string]any{"id": ref})
		}
		return 0, errorutil.NewInternalError(err)
	}
	return id, nil
}
