package clock

import (
	"context"
	"time"
)

// SystemClock reports wall time in UTC. All billing math keys off UTC so a
// lesson lands in the same calendar month regardless of server locale.
type SystemClock struct{}

func (SystemClock) Now(context.Context) time.Time {
	return time.Now().UTC()
}
