package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	marketserver "github.com/Apurer/go-gin-marketplace/go"

	listingapp "github.com/Apurer/go-gin-marketplace/internal/domains/listings/application"
	orderdirectory "github.com/Apurer/go-gin-marketplace/internal/domains/orders/adapters/directory"
	ordernotify "github.com/Apurer/go-gin-marketplace/internal/domains/orders/adapters/notify"
	orderobs "github.com/Apurer/go-gin-marketplace/internal/domains/orders/adapters/observability"
	orderworkflows "github.com/Apurer/go-gin-marketplace/internal/domains/orders/adapters/workflows"
	orderapp "github.com/Apurer/go-gin-marketplace/internal/domains/orders/application"
	orderports "github.com/Apurer/go-gin-marketplace/internal/domains/orders/ports"
	userjobs "github.com/Apurer/go-gin-marketplace/internal/domains/users/adapters/jobs"
	userobs "github.com/Apurer/go-gin-marketplace/internal/domains/users/adapters/observability"
	usertokens "github.com/Apurer/go-gin-marketplace/internal/domains/users/adapters/tokens"
	userapp "github.com/Apurer/go-gin-marketplace/internal/domains/users/application"
	"github.com/Apurer/go-gin-marketplace/internal/platform/auth"
	platformobservability "github.com/Apurer/go-gin-marketplace/internal/platform/observability"
)

const serviceName = "marketplace-api"

// Run boots the marketplace HTTP API and blocks until ctx is cancelled or the server fails.
func Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	backends, err := BuildBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backends.Close()

	tokens, err := auth.NewManager(cfg.JWTSecret, auth.WithTTL(cfg.JWTTTL))
	if err != nil {
		return fmt.Errorf("configure tokens: %w", err)
	}
	userService := userobs.New(
		userapp.NewService(backends.Users, backends.Sessions, usertokens.NewJWT(tokens)),
		userobs.WithLogger(logger),
		userobs.WithTracer(instruments.Tracer("internal.users.application")),
		userobs.WithMeter(instruments.Meter("internal.users.application")),
	)
	listingService := listingapp.NewService(backends.Listings)

	dispatcher := ordernotify.NewAsyncDispatcher(
		backends.Notifier,
		ordernotify.WithQueueSize(cfg.NotifyQueueSize),
		ordernotify.WithNotifyTimeout(cfg.NotifyTimeout),
		ordernotify.WithDispatcherLogger(logger),
	)
	stopDispatcher := dispatcher.Start(cfg.NotifyWorkers)
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := stopDispatcher(drainCtx); err != nil {
			logger.Warn("notification queue not drained", slog.Int("pending", dispatcher.QueueLen()), slog.String("error", err.Error()))
		}
	}()

	orderService := orderobs.New(
		orderapp.NewService(
			backends.Orders,
			orderapp.WithDirectory(orderdirectory.New(backends.Listings, backends.Users)),
			orderapp.WithCache(backends.Cache),
			orderapp.WithDispatcher(dispatcher),
			orderapp.WithIdempotencyStore(backends.Idempotency),
			orderapp.WithLogger(logger),
			orderapp.WithConflictRetries(cfg.ConflictRetries),
		),
		orderobs.WithLogger(logger),
		orderobs.WithTracer(instruments.Tracer("internal.orders.application")),
		orderobs.WithMeter(instruments.Meter("internal.orders.application")),
	)

	var placement orderports.WorkflowOrchestrator = orderworkflows.NewInlineOrderWorkflows(orderService)
	if temporalClient, err := DialTemporal(cfg, instruments, "temporal-client"); err != nil {
		logger.Warn("Temporal workflows unavailable, placing orders inline", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		placement = orderworkflows.NewTemporalOrderWorkflows(temporalClient)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	if cfg.SessionPurgeEvery > 0 {
		purger := userjobs.NewSessionPurgeJob(backends.Sessions, logger)
		if err := purger.Start(cfg.SessionPurgeEvery); err != nil {
			return fmt.Errorf("schedule session purge: %w", err)
		}
		defer purger.Stop()
	}

	handlers := marketserver.ApiHandleFunctions{
		AuthAPI:    marketserver.NewAuthAPI(userService, cfg.SecureCookies),
		UserAPI:    marketserver.NewUserAPI(userService),
		ListingAPI: marketserver.NewListingAPI(listingService),
		OrderAPI:   marketserver.NewOrderAPI(orderService, placement),
	}
	router := marketserver.NewRouter(handlers,
		marketserver.WithMiddleware(otelgin.Middleware(serviceName)),
		marketserver.WithAuthenticator(userService),
		marketserver.WithRateLimiter(marketserver.NewClientRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)),
		marketserver.WithGzip(cfg.GzipLevel),
	)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("marketplace API listening", slog.String("addr", server.Addr))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("marketplace API server exited", slog.String("addr", server.Addr), slog.String("error", err.Error()))
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down marketplace API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
