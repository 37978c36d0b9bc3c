package store

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/jmylchreest/notistack/internal/broadcast"
	"github.com/jmylchreest/notistack/internal/model"
)

// Receiver yields notifications in publish order.
type Receiver interface {
	Recv(ctx context.Context) (*model.Notification, error)
}

// RecorderStats counts what the recorder has done.
type RecorderStats struct {
	Inserted uint64
	Failed   uint64
	Skipped  uint64
	Missed   uint64
}

// Recorder writes every received notification to a Store.
type Recorder struct {
	store  Store
	logger *slog.Logger

	onFailure func(err error)

	inserted atomic.Uint64
	failed   atomic.Uint64
	skipped  atomic.Uint64
	missed   atomic.Uint64
}

// NewRecorder creates a Recorder writing to st.
func NewRecorder(st Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: st, logger: logger}
}

// SetFailureHandler registers a callback invoked after each failed insert.
func (r *Recorder) SetFailureHandler(fn func(err error)) {
	r.onFailure = fn
}

// Stats returns a snapshot of the recorder counters.
func (r *Recorder) Stats() RecorderStats {
	return RecorderStats{
		Inserted: r.inserted.Load(),
		Failed:   r.failed.Load(),
		Skipped:  r.skipped.Load(),
		Missed:   r.missed.Load(),
	}
}

// Run consumes rx until ctx is cancelled or the source closes.
// Insert failures and lag are logged and never stop the loop.
func (r *Recorder) Run(ctx context.Context, rx Receiver) error {
	for {
		n, err := rx.Recv(ctx)
		if err != nil {
			var lagged *broadcast.LaggedError
			switch {
			case errors.As(err, &lagged):
				r.missed.Add(lagged.Missed)
				r.logger.Warn("history recorder lagged, notifications not persisted", "missed", lagged.Missed)
				continue
			case errors.Is(err, broadcast.ErrClosed), ctx.Err() != nil:
				return nil
			default:
				return err
			}
		}

		if n.Hints.Transient {
			r.skipped.Add(1)
			r.logger.Debug("not persisting transient notification", "id", n.ID)
			continue
		}

		if err := r.store.Insert(ctx, n); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.failed.Add(1)
			r.logger.Error("failed to persist notification", "id", n.ID, "app", n.AppName, "error", err)
			if r.onFailure != nil {
				r.onFailure(err)
			}
			continue
		}
		r.inserted.Add(1)
	}
}
