// Package ticketid numbers tickets per civil day and converts between the
// human-facing composite code (YYYYMMDD + 3-digit number) and internal ids.
package ticketid

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CodeLength is the length of a composite code with a three-digit number.
const CodeLength = 11

// ErrNotFound is returned when an identifier resolves to no ticket.
var ErrNotFound = errors.New("ticket identifier not found")

// Lookup is the storage the codec needs.
type Lookup interface {
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error)
	ListByTicketNumber(ctx context.Context, number int) ([]domain.TicketRef, error)
}

// Sequencer hands out the next ticket number of a civil day.
type Sequencer interface {
	Next(ctx context.Context, day Day) (int, error)
}

// Day is a civil date in the codec's location.
type Day struct {
	Start time.Time
	End   time.Time
}

// Key formats the day as YYYYMMDD.
func (d Day) Key() string {
	return d.Start.Format("20060102")
}

// DayOf returns the civil day containing t in loc.
func DayOf(t time.Time, loc *time.Location) Day {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return Day{Start: start, End: start.AddDate(0, 0, 1)}
}

// Codec numbers, encodes and decodes ticket identifiers.
type Codec struct {
	lookup Lookup
	seq    Sequencer
	loc    *time.Location
	now    func() time.Time
}

// NewCodec builds a codec. A nil seq counts the day's tickets; a nil now uses time.Now.
func NewCodec(lookup Lookup, seq Sequencer, loc *time.Location, now func() time.Time) *Codec {
	if seq == nil {
		seq = NewCountSequencer(lookup)
	}
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Codec{lookup: lookup, seq: seq, loc: loc, now: now}
}

// Location returns the civil timezone.
func (c *Codec) Location() *time.Location { return c.loc }

// Today returns the current civil day.
func (c *Codec) Today() Day { return DayOf(c.now(), c.loc) }

// NextTicketNumber returns the number the next ticket created today gets.
func (c *Codec) NextTicketNumber(ctx context.Context) (int, error) {
	return c.seq.Next(ctx, c.Today())
}

// Encode builds the composite code from the creation time and daily number.
func (c *Codec) Encode(createdAt time.Time, number int) string {
	return fmt.Sprintf("%s%03d", createdAt.In(c.loc).Format("20060102"), number)
}

// Decode maps a composite code or a raw internal id to an internal id.
func (c *Codec) Decode(ctx context.Context, raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || !allDigits(raw) {
		return 0, ErrNotFound
	}

	if len(raw) < CodeLength {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return 0, ErrNotFound
		}
		return id, nil
	}

	datePart := raw[:8]
	number, err := strconv.Atoi(raw[len(raw)-3:])
	if err != nil {
		return 0, ErrNotFound
	}

	candidates, err := c.lookup.ListByTicketNumber(ctx, number)
	if err != nil {
		return 0, fmt.Errorf("lookup ticket number %d: %w", number, err)
	}
	for _, cand := range candidates {
		if cand.CreatedAt.In(c.loc).Format("20060102") == datePart {
			return cand.ID, nil
		}
	}
	if len(candidates) == 1 {
		return candidates[0].ID, nil
	}
	return 0, ErrNotFound
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
