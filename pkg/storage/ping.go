package storage

import (
	"context"
	"time"
)

// pingPolicy controls how long a remote backend is given to answer its first
// ping. Tests shorten it.
var pingPolicy = struct {
	attempts int
	delay    time.Duration
}{attempts: 3, delay: time.Second}

// awaitPing calls ping until it succeeds, doubling the pause after every
// failure. A freshly started redis or mongo container often refuses the first
// connection. Context errors end the wait at once.
func awaitPing(ctx context.Context, ping func(context.Context) error) error {
	delay := pingPolicy.delay
	var err error
	for attempt := 1; ; attempt++ {
		if err = ping(ctx); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt >= pingPolicy.attempts {
			return err
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay *= 2
	}
}
