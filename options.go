package heapmgr

import "log/slog"

type options struct {
	logger *slog.Logger
	filler byte
}

// Option is a configuration option for HeapManager.
type Option func(*options)

// WithLogger sets the logger used for allocation events.
// By default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithFiller sets the byte unused and freshly allocated cells are set to.
func WithFiller(b byte) Option {
	return func(o *options) {
		o.filler = b
	}
}

func defaultOptions() options {
	return options{logger: slog.New(slog.DiscardHandler)}
}
