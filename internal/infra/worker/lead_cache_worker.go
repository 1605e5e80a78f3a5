package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/beauty-leads/internal/usecase"
)

// Subscriber opens a live lead subscription.
type Subscriber interface {
	Subscribe(ctx context.Context, notifier usecase.Notifier) *usecase.Subscription
}

// LeadCacheWorker keeps a LeadCache filled from one standing subscription.
// A failed subscription is not retried inside usecase; the worker opens a
// new one on the next tick.
type LeadCacheWorker struct {
	Source     Subscriber
	Cache      *usecase.LeadCache
	Log        *zap.Logger
	RetryEvery time.Duration
	OnSnapshot func(n int)
	OnFailure  func(err error)
}

func NewLeadCacheWorker(src Subscriber, cache *usecase.LeadCache, retry time.Duration, log *zap.Logger) *LeadCacheWorker {
	if log == nil {
		log = zap.NewNop()
	}
	if retry <= 0 {
		retry = 30 * time.Second
	}
	return &LeadCacheWorker{Source: src, Cache: cache, Log: log, RetryEvery: retry}
}

// Start blocks until ctx is cancelled.
func (w *LeadCacheWorker) Start(ctx context.Context) {
	w.Log.Info("lead cache worker started", zap.Duration("retry_every", w.RetryEvery))

	ticker := time.NewTicker(w.RetryEvery)
	defer ticker.Stop()

	for {
		w.follow(ctx)
		select {
		case <-ctx.Done():
			w.Log.Info("lead cache worker stopped")
			return
		case <-ticker.C:
		}
	}
}

// follow runs one subscription to its end.
func (w *LeadCacheWorker) follow(ctx context.Context) {
	sub := w.Source.Subscribe(ctx, logNotifier{w.Log})
	defer sub.Close()

	for leads := range sub.Snapshots() {
		w.Cache.Replace(leads)
		if w.OnSnapshot != nil {
			w.OnSnapshot(len(leads))
		}
	}

	if err := sub.Err(); err != nil {
		w.Cache.MarkFailed(err)
		if w.OnFailure != nil {
			w.OnFailure(err)
		}
		w.Log.Warn("lead cache subscription ended, retrying on next tick", zap.Error(err))
	}
}

// logNotifier routes subscription toasts to the log; there is no operator
// screen behind the server-wide cache.
type logNotifier struct{ log *zap.Logger }

func (n logNotifier) Success(msg string) { n.log.Info(msg) }
func (n logNotifier) Error(msg string)   { n.log.Warn(msg) }
