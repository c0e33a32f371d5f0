package realtime

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Watch delivers the full result of load now and again after every change on any
// of topics. Deliveries are sequential; bursts of changes collapse into one reload.
// The first load runs synchronously and its error is returned. Later failures are
// logged and the subscriber keeps its previous snapshot.
//
// The watch ends when the returned function is called or ctx is done.
func Watch[T any](
	ctx context.Context,
	sub Subscriber,
	topics []string,
	load func(ctx context.Context) (T, error),
	deliver func(T),
	logger *zap.Logger,
) (func(), error) {
	wctx, cancel := context.WithCancel(ctx)

	signal := make(chan struct{}, 1)
	notify := func() {
		select {
		case signal <- struct{}{}:
		default:
		}
	}

	unsubs := make([]func(), 0, len(topics))
	for _, topic := range topics {
		unsubs = append(unsubs, sub.Subscribe(topic, notify))
	}

	var stopped atomic.Bool
	var once sync.Once
	stop := func() {
		once.Do(func() {
			stopped.Store(true)
			for _, unsub := range unsubs {
				unsub()
			}
			cancel()
		})
	}

	initial, err := load(wctx)
	if err != nil {
		stop()
		return nil, err
	}
	deliver(initial)

	go func() {
		defer stop()
		for {
			select {
			case <-wctx.Done():
				return
			case <-signal:
				value, err := load(wctx)
				if err != nil {
					if wctx.Err() == nil {
						logger.Warn("subscription reload failed", zap.Strings("topics", topics), zap.Error(err))
					}
					continue
				}
				if !stopped.Load() {
					deliver(value)
				}
			}
		}
	}()

	return stop, nil
}
