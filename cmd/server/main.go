package main

import (
	"context"
	"log/slog"
	"os"

	"saasbase/config"
	"saasbase/internal/delivery"
	"saasbase/internal/delivery/http"
	"saasbase/internal/delivery/http/middleware"
	"saasbase/internal/delivery/http/router/handler"
	"saasbase/internal/infra/auth"
	"saasbase/internal/infra/auth/providers"
	logs "saasbase/internal/infra/log"
	"saasbase/internal/infra/persistence/postgres"
	"saasbase/internal/metrics"
	"saasbase/internal/usecase/impl"
	"saasbase/internal/worker"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			worker.NewCleanupWorker,
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		postgres.New,
		prometheus.NewRegistry,
		newMetricsRecorder,
	)
}

// newMetricsRecorder registers the auth collectors on the process registry.
func newMetricsRecorder(registry *prometheus.Registry) metrics.Recorder {
	return metrics.NewCollector(registry)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			// Individual repositories are created per-transaction by the
			// repository factory; only the manager lives in the graph.
			postgres.NewTransactionManager,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewTokenService,
			providers.New,
		),
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewAuthService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewRequestIDMiddleware,
			middleware.NewErrorMiddleware,
			middleware.NewSessionMiddleware,
			middleware.NewRateLimitMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewOAuthHandler,
			handler.NewSessionHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				http.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
