package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Runner repeats passes on a fixed interval.
type Runner struct {
	Syncer   *Syncer
	Interval time.Duration // zero or negative runs a single pass

	// OnPass, if set, is called after every pass.
	OnPass func(Pass, error)
}

// Run executes passes until ctx is cancelled. The next pass starts Interval
// after the previous one finished, so passes never overlap. Cancellation is
// observed between passes; a pass in flight runs to completion.
//
// With a single pass, Run returns the pass error or an error naming the
// number of failed budgets.
func (r *Runner) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		pass, err := r.Syncer.RunPass(context.WithoutCancel(ctx))
		if err != nil {
			slog.Error("Pass failed", "run_id", pass.RunID, "error", err)
		}
		if r.OnPass != nil {
			r.OnPass(pass, err)
		}

		if r.Interval <= 0 {
			if err != nil {
				return err
			}
			if failed := pass.Failed(); failed > 0 {
				return fmt.Errorf("%d of %d budgets failed", failed, len(pass.Results))
			}
			return nil
		}

		slog.Debug("Waiting for next pass", "interval", r.Interval)
		timer := time.NewTimer(r.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			slog.Info("Stopping sync loop")
			return nil
		case <-timer.C:
		}
	}
}
