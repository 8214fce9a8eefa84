// Package worker hosts background jobs that run alongside the HTTP server.
package worker

import (
	"context"
	"log/slog"
	"time"

	"saasbase/config"
	"saasbase/internal/usecase"

	"go.uber.org/fx"
)

// CleanupWorker periodically removes expired sessions. Expiry is otherwise
// enforced lazily on validation, so this job only bounds table growth from
// sessions that are never presented again.
type CleanupWorker struct {
	uc       usecase.AuthUsecase
	logger   *slog.Logger
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

// Params defines the dependencies for the cleanup worker.
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
	Auth   usecase.AuthUsecase
}

// NewCleanupWorker creates the worker and ties it to the Fx lifecycle.
func NewCleanupWorker(params Params) *CleanupWorker {
	w := &CleanupWorker{
		uc:       params.Auth,
		logger:   params.Logger,
		interval: params.Config.Auth.CleanupInterval,
		done:     make(chan struct{}),
	}

	params.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			runCtx, cancel := context.WithCancel(context.Background())
			w.cancel = cancel
			go w.run(runCtx)

			return nil
		},
		OnStop: func(_ context.Context) error {
			w.cancel()
			<-w.done

			return nil
		},
	})

	return w
}

func (w *CleanupWorker) run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := w.uc.CleanupExpiredSessions(ctx)
			if err != nil {
				w.logger.Error("Session cleanup failed", slog.Any("error", err))

				continue
			}
			w.logger.Debug("Session cleanup finished", slog.Int64("removed", removed))
		}
	}
}
