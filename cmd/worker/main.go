package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"

	"github.com/Apurer/go-gin-marketplace/internal/app/api"
	orderdirectory "github.com/Apurer/go-gin-marketplace/internal/domains/orders/adapters/directory"
	orderobs "github.com/Apurer/go-gin-marketplace/internal/domains/orders/adapters/observability"
	orderapp "github.com/Apurer/go-gin-marketplace/internal/domains/orders/application"
	platformobservability "github.com/Apurer/go-gin-marketplace/internal/platform/observability"
	orderactivities "github.com/Apurer/go-gin-marketplace/internal/platform/temporal/activities/orders"
	orderworkflows "github.com/Apurer/go-gin-marketplace/internal/platform/temporal/workflows/orders"
)

func main() {
	ctx := context.Background()
	const serviceName = "marketplace-worker"
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	backends, err := api.BuildBackends(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build backends", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer backends.Close()

	// Placement notifications are sent by the workflow's own activity, so the service gets no dispatcher.
	orderService := orderobs.New(
		orderapp.NewService(
			backends.Orders,
			orderapp.WithDirectory(orderdirectory.New(backends.Listings, backends.Users)),
			orderapp.WithCache(backends.Cache),
			orderapp.WithIdempotencyStore(backends.Idempotency),
			orderapp.WithLogger(logger),
			orderapp.WithConflictRetries(cfg.ConflictRetries),
		),
		orderobs.WithLogger(logger),
		orderobs.WithTracer(instruments.Tracer("internal.orders.application")),
		orderobs.WithMeter(instruments.Meter("internal.orders.application")),
	)
	activities := orderactivities.NewActivities(orderService, backends.Notifier)

	temporalClient, err := api.DialTemporal(cfg, instruments, "temporal-worker")
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, orderworkflows.OrderPlacementTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(orderworkflows.OrderPlacementWorkflow, orderworkflows.RegisterOptions())
	w.RegisterActivityWithOptions(activities.PersistOrder, activity.RegisterOptions{Name: orderactivities.PersistOrderActivityName})
	w.RegisterActivityWithOptions(activities.NotifyOrderPlaced, activity.RegisterOptions{Name: orderactivities.NotifyOrderPlacedActivityName})

	logger.Info("worker listening", slog.String("taskQueue", orderworkflows.OrderPlacementTaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}
