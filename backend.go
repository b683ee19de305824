package goAccount

import (
	"context"
	"fmt"
	"time"

	"github.com/MrEthical07/goAccount/internal/logging"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// storeChoice describes how to build one store on its engine and on its
// file fallback. openEngine is nil when no engine client was supplied.
type storeChoice[T pinger] struct {
	store        string
	mode         BackendMode
	engine       Backend
	openEngine   func(ctx context.Context) (T, error)
	openFallback func() (T, error)
}

// selection is the outcome of chooseStore.
type selection[T pinger] struct {
	store     T
	backend   Backend
	fellBack  bool
	engineErr error
}

// chooseStore resolves c.mode into a ready store. In ModeAuto an unreachable
// engine is replaced by the fallback and reported through fellBack; in
// ModeEngine it is a Build error.
func chooseStore[T pinger](ctx context.Context, log logging.Logger, timeout time.Duration, c storeChoice[T]) (selection[T], error) {
	if c.mode == ModeFile {
		s, err := c.openFallback()
		if err != nil {
			return selection[T]{}, fmt.Errorf("%s file store: %w", c.store, err)
		}
		return selection[T]{store: s, backend: BackendFile}, nil
	}

	engineErr := fmt.Errorf("no %s client configured", c.engine)
	if c.openEngine != nil {
		s, err := probeEngine(ctx, timeout, c.openEngine)
		if err == nil {
			log.Info(ctx, "storage backend selected", "store", c.store, "backend", string(c.engine))
			return selection[T]{store: s, backend: c.engine}, nil
		}
		engineErr = err
	}

	if c.mode == ModeEngine {
		return selection[T]{}, fmt.Errorf("%w: %s store on %s: %v", ErrBackendUnavailable, c.store, c.engine, engineErr)
	}

	log.Warn(ctx, "storage engine unavailable, using file fallback",
		"store", c.store,
		"engine", string(c.engine),
		"error", engineErr,
	)
	s, err := c.openFallback()
	if err != nil {
		return selection[T]{}, fmt.Errorf("%s file store: %w", c.store, err)
	}
	return selection[T]{store: s, backend: BackendFile, fellBack: true, engineErr: engineErr}, nil
}

func probeEngine[T pinger](ctx context.Context, timeout time.Duration, open func(context.Context) (T, error)) (T, error) {
	var zero T
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s, err := open(probeCtx)
	if err != nil {
		return zero, err
	}
	if err := s.Ping(probeCtx); err != nil {
		return zero, err
	}
	return s, nil
}
