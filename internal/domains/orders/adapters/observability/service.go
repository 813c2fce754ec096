package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/go-gin-marketplace/internal/domains/orders/application"
	ordertypes "github.com/Apurer/go-gin-marketplace/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-marketplace/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-marketplace/internal/domains/orders/ports"
)

const tracerName = "github.com/Apurer/go-gin-marketplace/internal/domains/orders/adapters/observability/service"

// Rejection kinds recorded on the rejections counter.
const (
	RejectUnauthorized      = "unauthorized"
	RejectInvalidTransition = "invalid_transition"
	RejectNotFound          = "not_found"
	RejectConflict          = "conflict"
	RejectInvalidInput      = "invalid_input"
	RejectOther             = "other"
)

// Service decorates the orders application port with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create service metrics instruments.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wires a decorator around the core service.
func New(inner ports.Service, opts ...Option) ports.Service {
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

func (s *Service) PlaceOrder(ctx context.Context, input ordertypes.PlaceOrderInput) (*ordertypes.OrderView, error) {
	ctx, span := s.startSpan(ctx, "OrderService.PlaceOrder",
		attribute.String("order.listing_id", input.ListingID),
		attribute.String("order.buyer_id", input.Caller.ID),
	)
	defer span.End()

	result, err := s.inner.PlaceOrder(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to place order", slog.String("listing_id", input.ListingID))
	}
	span.SetAttributes(attribute.String("order.id", result.Order.ID))
	s.metrics.recordPlaced(ctx)
	s.logInfo(ctx, "order placed",
		slog.String("order_id", result.Order.ID),
		slog.String("listing_id", result.Order.ListingID),
		slog.String("amount", result.Order.Amount.String()),
	)
	return result, nil
}

// TransitionStatus records accepted transitions by target and rejections by kind.
func (s *Service) TransitionStatus(ctx context.Context, input ordertypes.TransitionStatusInput) (*ordertypes.OrderView, error) {
	ctx, span := s.startSpan(ctx, "OrderService.TransitionStatus",
		attribute.String("order.id", input.OrderID),
		attribute.String("order.status.requested", input.Status),
		attribute.String("actor.id", input.Caller.ID),
		attribute.Bool("actor.admin", input.Caller.IsAdmin),
	)
	defer span.End()

	result, err := s.inner.TransitionStatus(ctx, input)
	if err != nil {
		kind := rejectionKind(err)
		attrs := []attribute.KeyValue{attribute.String("reason", kind)}
		var transitionErr *domain.InvalidTransitionError
		if errors.As(err, &transitionErr) {
			attrs = append(attrs,
				attribute.String("order.status.from", string(transitionErr.From)),
				attribute.String("order.status.to", string(transitionErr.To)),
			)
		}
		s.metrics.recordRejected(ctx, attrs...)
		if kind == RejectOther {
			return nil, s.handleError(ctx, span, err, "order transition failed", slog.String("order_id", input.OrderID))
		}
		span.SetAttributes(attrs...)
		span.SetStatus(codes.Error, kind)
		s.logInfo(ctx, "order transition rejected",
			slog.String("order_id", input.OrderID),
			slog.String("requested", input.Status),
			slog.String("reason", kind),
		)
		return nil, err
	}
	s.metrics.recordTransition(ctx, result.Order.Status)
	s.logInfo(ctx, "order transitioned",
		slog.String("order_id", result.Order.ID),
		slog.String("status", string(result.Order.Status)),
		slog.String("actor_id", input.Caller.ID),
	)
	return result, nil
}

func (s *Service) GetOrder(ctx context.Context, input ordertypes.OrderIdentifier) (*ordertypes.OrderView, error) {
	ctx, span := s.startSpan(ctx, "OrderService.GetOrder", attribute.String("order.id", input.OrderID))
	defer span.End()

	result, err := s.inner.GetOrder(ctx, input)
	if err != nil {
		if rejectionKind(err) == RejectOther {
			return nil, s.handleError(ctx, span, err, "failed to load order", slog.String("order_id", input.OrderID))
		}
		return nil, err
	}
	return result, nil
}

func (s *Service) ListOrders(ctx context.Context, input ordertypes.ListOrdersInput) ([]*ordertypes.OrderView, error) {
	ctx, span := s.startSpan(ctx, "OrderService.ListOrders",
		attribute.String("order.role", input.Role),
		attribute.String("order.status", input.Status),
	)
	defer span.End()

	result, err := s.inner.ListOrders(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders")
	}
	span.SetAttributes(attribute.Int("order.result.count", len(result)))
	return result, nil
}

func (s *Service) DeleteOrder(ctx context.Context, input ordertypes.OrderIdentifier) error {
	ctx, span := s.startSpan(ctx, "OrderService.DeleteOrder", attribute.String("order.id", input.OrderID))
	defer span.End()

	if err := s.inner.DeleteOrder(ctx, input); err != nil {
		return s.handleError(ctx, span, err, "failed to delete order", slog.String("order_id", input.OrderID))
	}
	s.logInfo(ctx, "order deleted", slog.String("order_id", input.OrderID), slog.String("actor_id", input.Caller.ID))
	return nil
}

func rejectionKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return RejectUnauthorized
	case errors.Is(err, domain.ErrInvalidTransition):
		return RejectInvalidTransition
	case errors.Is(err, ports.ErrNotFound):
		return RejectNotFound
	case errors.Is(err, ports.ErrConflict):
		return RejectConflict
	case errors.Is(err, application.ErrInvalidInput):
		return RejectInvalidInput
	default:
		return RejectOther
	}
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
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

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceMetrics struct {
	placed      metric.Int64Counter
	transitions metric.Int64Counter
	rejections  metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	placed, _ := m.Int64Counter("orders.service.placed", metric.WithDescription("Number of orders placed"))
	transitions, _ := m.Int64Counter("orders.service.transitions", metric.WithDescription("Accepted status transitions by target status"))
	rejections, _ := m.Int64Counter("orders.service.transition_rejections", metric.WithDescription("Rejected status transitions by reason"))
	return serviceMetrics{placed: placed, transitions: transitions, rejections: rejections}
}

func (m serviceMetrics) recordPlaced(ctx context.Context) {
	addCounter(ctx, m.placed, 1)
}

func (m serviceMetrics) recordTransition(ctx context.Context, to domain.Status) {
	addCounter(ctx, m.transitions, 1, attribute.String("order.status.to", string(to)))
}

func (m serviceMetrics) recordRejected(ctx context.Context, attrs ...attribute.KeyValue) {
	addCounter(ctx, m.rejections, 1, attrs...)
}

func addCounter(ctx context.Context, counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

var _ ports.Service = (*Service)(nil)
