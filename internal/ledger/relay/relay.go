// Package relay tails the event ledger and publishes every appended event to
// a downstream sink, exactly the way an external consumer would: with the
// half-open cursor read, not by hooking the write path. Delivery is
// at-least-once; the checkpoint only advances after a successful publish.
package relay

import (
	"context"
	"log/slog"
	"time"

	"tracelink/internal/ledger"
)

// EventSource is the slice of the ledger service the relay reads.
type EventSource interface {
	EventsSince(ctx context.Context, cursor uint64) ([]ledger.Event, error)
	AllEvents(ctx context.Context) ([]ledger.Event, error)
}

// Relay periodically drains unpublished events into the sink.
type Relay struct {
	source     EventSource
	sink       Sink
	checkpoint Checkpoint
	interval   time.Duration
	logger     *slog.Logger
}

func New(source EventSource, sink Sink, checkpoint Checkpoint, interval time.Duration, logger *slog.Logger) *Relay {
	return &Relay{
		source:     source,
		sink:       sink,
		checkpoint: checkpoint,
		interval:   interval,
		logger:     logger,
	}
}

// Run polls until ctx is cancelled. Publish failures are logged and retried
// on the next tick from the same cursor.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := r.Drain(ctx); err != nil {
				r.logger.WarnContext(ctx, "relay drain failed, will retry", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Drain publishes every event past the checkpoint, in id order, advancing the
// checkpoint after each successful publish so a mid-batch failure never skips
// an event.
func (r *Relay) Drain(ctx context.Context) error {
	cursor, err := r.checkpoint.Load(ctx)
	if err != nil {
		return err
	}

	var events []ledger.Event
	if cursor < 0 {
		events, err = r.source.AllEvents(ctx)
	} else {
		events, err = r.source.EventsSince(ctx, uint64(cursor))
	}
	if err != nil {
		return err
	}

	for _, event := range events {
		if err := r.sink.Publish(ctx, event); err != nil {
			return err
		}
		if err := r.checkpoint.Save(ctx, int64(event.ID)); err != nil {
			return err
		}
	}
	return nil
}
