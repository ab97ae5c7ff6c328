// Package worker runs the background jobs that keep the data cache fresh:
// a filesystem watcher over the data files and the AMQP reload consumer.
package worker

import (
	"context"
	"log/slog"

	"ccpp/internal/amqp"
	"ccpp/internal/metrics"
)

// Invalidator drops cached tables.
type Invalidator interface {
	Invalidate(source string) int
	InvalidateAll()
}

// ReloadWorker applies reload messages to the data cache.
type ReloadWorker struct {
	cache  Invalidator
	logger *slog.Logger
}

func NewReloadWorker(cache Invalidator, logger *slog.Logger) *ReloadWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReloadWorker{cache: cache, logger: logger}
}

// HandleReload implements amqp.ReloadHandler.
func (w *ReloadWorker) HandleReload(ctx context.Context, msg *amqp.ReloadMessage) error {
	metrics.DataInvalidationsTotal.WithLabelValues("amqp").Inc()
	if msg.All() {
		w.cache.InvalidateAll()
		w.logger.InfoContext(ctx, "Reload message applied to all sources", "origin", msg.Origin)
		return nil
	}
	n := w.cache.Invalidate(msg.Source)
	w.logger.InfoContext(ctx, "Reload message applied",
		"source", msg.Source,
		"origin", msg.Origin,
		"entries", n,
		"sent_at", msg.Timestamp)
	return nil
}
