package household

import (
	"log/slog"
	"time"
)

type options struct {
	now     func() time.Time
	logger  *slog.Logger
	observe DispatchObserver
}

// Option configures a household service.
type Option func(*options)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithDispatchObserver registers a callback for invite email outcomes.
func WithDispatchObserver(fn DispatchObserver) Option {
	return func(o *options) { o.observe = fn }
}

func buildOptions(opts []Option) options {
	o := options{
		now:    func() time.Time { return time.Now().UTC() },
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
