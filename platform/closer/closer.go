package closer

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type Logger interface {
	Info(ctx context.Context, msg string, fields ...zap.Field)
	Error(ctx context.Context, msg string, fields ...zap.Field)
}

type nopLogger struct{}

func (nopLogger) Info(context.Context, string, ...zap.Field)  {}
func (nopLogger) Error(context.Context, string, ...zap.Field) {}

type closeFn struct {
	name string
	fn   func(ctx context.Context) error
}

type closer struct {
	mu     sync.Mutex
	fns    []closeFn
	logger Logger
	closed bool
}

var global = &closer{logger: nopLogger{}}

func SetLogger(l Logger) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.logger = l
}

// AddNamed registers a shutdown hook. Hooks run in reverse registration
// order, so dependencies registered first close last.
func AddNamed(name string, fn func(ctx context.Context) error) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.fns = append(global.fns, closeFn{name: name, fn: fn})
}

// CloseAll runs every registered hook once. Errors are logged and the
// last one is returned; remaining hooks still run.
func CloseAll(ctx context.Context) error {
	global.mu.Lock()
	defer global.mu.Unlock()

	if global.closed {
		return nil
	}
	global.closed = true

	var lastErr error
	for i := len(global.fns) - 1; i >= 0; i-- {
		c := global.fns[i]

		select {
		case <-ctx.Done():
			global.logger.Error(ctx, "closer: context done, skipping remaining hooks",
				zap.String("next", c.name),
			)
			return ctx.Err()
		default:
		}

		if err := c.fn(ctx); err != nil {
			global.logger.Error(ctx, "closer: close failed",
				zap.String("name", c.name),
				zap.Error(err),
			)
			lastErr = err
			continue
		}

		global.logger.Info(ctx, "closer: closed", zap.String("name", c.name))
	}

	return lastErr
}
