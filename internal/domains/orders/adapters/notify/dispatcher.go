package notify

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Apurer/go-gin-marketplace/internal/domains/orders/ports"
)

const (
	// DefaultQueueSize bounds how many notifications wait for delivery.
	DefaultQueueSize     = 1024
	DefaultWorkers       = 4
	defaultNotifyTimeout = 5 * time.Second
)

// AsyncDispatcher queues notifications and delivers them from a worker pool.
// A full queue drops the notification instead of blocking the request path.
type AsyncDispatcher struct {
	notifier ports.Notifier
	logger   *slog.Logger
	queue    chan ports.Notification
	timeout  time.Duration
}

type DispatcherOption func(*AsyncDispatcher)

func WithQueueSize(size int) DispatcherOption {
	return func(d *AsyncDispatcher) {
		if size > 0 {
			d.queue = make(chan ports.Notification, size)
		}
	}
}

func WithNotifyTimeout(timeout time.Duration) DispatcherOption {
	return func(d *AsyncDispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(d *AsyncDispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

func NewAsyncDispatcher(notifier ports.Notifier, opts ...DispatcherOption) *AsyncDispatcher {
	d := &AsyncDispatcher{
		notifier: notifier,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		queue:    make(chan ports.Notification, DefaultQueueSize),
		timeout:  defaultNotifyTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *AsyncDispatcher) Dispatch(n ports.Notification) {
	select {
	case d.queue <- n:
	default:
		d.logger.Warn("notification queue full, dropping",
			slog.String("kind", string(n.Kind)),
			slog.String("order_id", n.OrderID),
			slog.String("user_id", n.UserID),
		)
	}
}

// Start launches the workers and returns a stop function that drains what is already queued.
func (d *AsyncDispatcher) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	stopCh := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case n := <-d.queue:
					d.deliver(n)
				case <-stopCh:
					for {
						select {
						case n := <-d.queue:
							d.deliver(n)
						default:
							return
						}
					}
				}
			}
		}()
	}
	var once sync.Once
	return func(ctx context.Context) error {
		once.Do(func() { close(stopCh) })
		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// QueueLen reports the sampled backlog.
func (d *AsyncDispatcher) QueueLen() int { return len(d.queue) }

func (d *AsyncDispatcher) deliver(n ports.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	if err := d.notifier.Notify(ctx, n); err != nil {
		d.logger.Warn("notification delivery failed",
			slog.String("kind", string(n.Kind)),
			slog.String("order_id", n.OrderID),
			slog.String("user_id", n.UserID),
			slog.String("error", err.Error()),
		)
	}
}

var _ ports.Dispatcher = (*AsyncDispatcher)(nil)
