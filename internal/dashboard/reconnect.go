package dashboard

import (
	"context"
	"errors"
	"time"

	"telemachus-dash/internal/logging"
)

// Runner is anything with a blocking Run, normally a *Session.
type Runner interface {
	Run(ctx context.Context) error
}

// KeepRunning calls r.Run again every interval after the connection ends
// until ctx is cancelled. An interval <= 0 runs once. Subscription failures
// stop the loop; they do not heal by retrying.
func KeepRunning(ctx context.Context, r Runner, interval time.Duration) error {
	log := logging.FromContext(ctx)
	for {
		err := r.Run(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil && errors.Is(err, ErrSubscribe) {
			return err
		}
		if interval <= 0 {
			return err
		}
		if err != nil {
			log.Warn("feed connection failed", "err", err)
		}
		log.Info("reconnecting", "in", interval)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}
