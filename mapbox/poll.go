package mapbox

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"
)

const DEFAULT_POLL_INTERVAL time.Duration = 10 * time.Second

var ErrMaxAttempts = errors.New("Exceeded maximum number of status checks")

// StatusReporter is the subset of Client used by WaitForTileset.
type StatusReporter interface {
	TilesetStatus(context.Context, string) (*StatusResponse, error)
}

type PollOptions struct {
	// Interval is the time to wait between status checks. Values <= 0 are replaced by DEFAULT_POLL_INTERVAL.
	Interval time.Duration
	// MaxAttempts is the maximum number of status checks; 0 means no limit.
	MaxAttempts int
	// PendingStatuses are the status values that cause another check. Every other value, except
	// "success", is treated as a failure.
	PendingStatuses []string
	// Wait blocks for 'd' or until 'ctx' is cancelled. Defaults to a timer.
	Wait func(ctx context.Context, d time.Duration) error
}

func DefaultPollOptions() *PollOptions {

	opts := &PollOptions{
		Interval:        DEFAULT_POLL_INTERVAL,
		MaxAttempts:     0,
		PendingStatuses: []string{STATUS_PROCESSING},
		Wait:            wait,
	}

	return opts
}

// WaitForTileset polls the status of 'tileset_id' until it reports "success" (returning true) or any
// status that is not pending (returning false). Errors checking status also return false.
func WaitForTileset(ctx context.Context, r StatusReporter, tileset_id string, opts *PollOptions) (bool, error) {

	if opts == nil {
		opts = DefaultPollOptions()
	}

	wait_func := opts.Wait

	if wait_func == nil {
		wait_func = wait
	}

	interval := opts.Interval

	if interval <= 0 {
		interval = DEFAULT_POLL_INTERVAL
	}

	pending := opts.PendingStatuses

	if len(pending) == 0 {
		pending = []string{STATUS_PROCESSING}
	}

	attempts := 0

	for {

		attempts += 1

		status_rsp, err := r.TilesetStatus(ctx, tileset_id)

		if err != nil {
			return false, err
		}

		if status_rsp.Status == STATUS_SUCCESS {
			slog.Info("Processing completed successfully", "tileset", tileset_id, "job", status_rsp.LatestJob)
			return true, nil
		}

		if !slices.Contains(pending, status_rsp.Status) {
			slog.Warn("Processing failed or unknown status", "tileset", tileset_id, "status", status_rsp.Status, "job", status_rsp.LatestJob)
			return false, nil
		}

		if opts.MaxAttempts > 0 && attempts >= opts.MaxAttempts {
			return false, ErrMaxAttempts
		}

		slog.Info("Still processing", "tileset", tileset_id, "status", status_rsp.Status, "wait", interval)

		err = wait_func(ctx, interval)

		if err != nil {
			return false, err
		}
	}
}

func wait(ctx context.Context, d time.Duration) error {

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
