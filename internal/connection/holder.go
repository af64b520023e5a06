// Package connection keeps one lazily opened database handle per process.
package connection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/msomdec/associates/internal/config"
	"github.com/msomdec/associates/internal/domain"
)

// LoadFunc supplies the configuration used for the first connection.
type LoadFunc func() (*config.Config, error)

// OpenFunc opens a handle from configuration.
type OpenFunc[H any] func(ctx context.Context, cfg *config.Config) (H, error)

// ErrClosed is returned by Get after Close.
var ErrClosed = errors.New("connection holder closed")

// Holder opens its handle on the first successful Get and hands the same
// handle to every later caller. A failed attempt leaves the holder empty so
// the next Get tries again.
type Holder[H any] struct {
	load   LoadFunc
	open   OpenFunc[H]
	logger *slog.Logger

	mu     sync.Mutex
	ready  bool
	closed bool
	handle H
}

// Option configures a Holder.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New creates a Holder. Nothing is loaded or opened until Get is called.
func New[H any](load LoadFunc, open OpenFunc[H], opts ...Option) *Holder[H] {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Holder[H]{load: load, open: open, logger: o.logger}
}

// Get returns the shared handle, opening it on first use. Configuration
// failures wrap domain.ErrConfiguration. Open failures wrap
// domain.ErrConnection unless the opener already classified them.
func (h *Holder[H]) Get(ctx context.Context) (H, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var zero H
	if h.closed {
		return zero, ErrClosed
	}
	if h.ready {
		return h.handle, nil
	}

	cfg, err := h.load()
	if err != nil {
		if !errors.Is(err, domain.ErrConfiguration) {
			err = fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
		}
		h.logger.Error("load database configuration", "error", err)
		return zero, err
	}

	handle, err := h.open(ctx, cfg)
	if err != nil {
		h.logger.Error("open database", "driver", cfg.Driver, "error", err)
		if !classified(err) {
			err = fmt.Errorf("%w: %w", domain.ErrConnection, err)
		}
		return zero, err
	}

	h.handle = handle
	h.ready = true
	h.logger.Info("database connection opened", "driver", cfg.Driver, "target", cfg.Target())
	return handle, nil
}

func classified(err error) bool {
	return errors.Is(err, domain.ErrConnection) ||
		errors.Is(err, domain.ErrStatement) ||
		errors.Is(err, domain.ErrConfiguration)
}

// Close closes the handle if one was opened and it implements io.Closer.
// Get returns ErrClosed afterwards.
func (h *Holder[H]) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	if !h.ready {
		return nil
	}

	handle := h.handle
	var zero H
	h.handle = zero
	h.ready = false

	if c, ok := any(handle).(io.Closer); ok {
		return c.Close()
	}
	return nil
}
