package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	userdomain "github.com/Apurer/go-gin-marketplace/internal/domains/users/domain"
	userports "github.com/Apurer/go-gin-marketplace/internal/domains/users/ports"
	"github.com/Apurer/go-gin-marketplace/internal/shared/identity"
)

const tracerName = "github.com/Apurer/go-gin-marketplace/internal/domains/users/adapters/observability/service"

// Service decorates the user service with tracing, logging, and metrics.
type Service struct {
	inner   userports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) { s.tracer = tr }
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) { s.metrics = newServiceMetrics(m) }
}

// New wraps the core user service.
func New(inner userports.Service, opts ...Option) userports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = defaultLogger()
	}
	return s
}

func (s *Service) Register(ctx context.Context, input userports.RegisterInput) (*userdomain.User, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.Register", trace.WithAttributes(
		attribute.String("user.username", input.Username),
		attribute.Bool("user.seller", input.IsSeller),
	))
	defer span.End()
	result, err := s.inner.Register(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to register user", slog.String("username", input.Username))
	}
	s.metrics.recordRegistered(ctx)
	s.logInfo(ctx, "user registered", slog.String("user_id", result.ID))
	return result, nil
}

func (s *Service) Login(ctx context.Context, username, password string) (*userports.LoginResult, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.Login", trace.WithAttributes(attribute.String("user.username", username)))
	defer span.End()
	result, err := s.inner.Login(ctx, username, password)
	if err != nil {
		s.metrics.recordLoginFailure(ctx)
		return nil, s.handleError(ctx, span, err, "login failed", slog.String("username", username))
	}
	s.metrics.recordLogin(ctx)
	return result, nil
}

func (s *Service) Logout(ctx context.Context, userID string) error {
	ctx, span := s.tracer.Start(ctx, "UserService.Logout", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()
	if err := s.inner.Logout(ctx, userID); err != nil {
		return s.handleError(ctx, span, err, "logout failed", slog.String("user_id", userID))
	}
	return nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*userdomain.User, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.GetByID", trace.WithAttributes(attribute.String("user.id", id)))
	defer span.End()
	return s.inner.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, caller identity.Identity, id string) error {
	ctx, span := s.tracer.Start(ctx, "UserService.Delete", trace.WithAttributes(attribute.String("user.id", id)))
	defer span.End()
	if err := s.inner.Delete(ctx, caller, id); err != nil {
		return s.handleError(ctx, span, err, "failed to delete user", slog.String("user_id", id))
	}
	s.logInfo(ctx, "user deleted", slog.String("user_id", id), slog.String("actor_id", caller.UserID))
	return nil
}

// Authenticate runs on every request, so it only traces.
func (s *Service) Authenticate(ctx context.Context, token string) (identity.Identity, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.Authenticate")
	defer span.End()
	id, err := s.inner.Authenticate(ctx, token)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return identity.Identity{}, err
	}
	span.SetAttributes(attribute.String("user.id", id.UserID))
	return id, nil
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

type serviceMetrics struct {
	registered    metric.Int64Counter
	logins        metric.Int64Counter
	loginFailures metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	registered, _ := m.Int64Counter("users.service.registered", metric.WithDescription("Number of accounts registered"))
	logins, _ := m.Int64Counter("users.service.logins", metric.WithDescription("Number of successful logins"))
	failures, _ := m.Int64Counter("users.service.login_failures", metric.WithDescription("Number of rejected logins"))
	return serviceMetrics{registered: registered, logins: logins, loginFailures: failures}
}

func (m serviceMetrics) recordRegistered(ctx context.Context) {
	if m.registered != nil {
		m.registered.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordLogin(ctx context.Context) {
	if m.logins != nil {
		m.logins.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordLoginFailure(ctx context.Context) {
	if m.loginFailures != nil {
		m.loginFailures.Add(ctx, 1)
	}
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var _ userports.Service = (*Service)(nil)
