package service

import (
	"context"

	"go.uber.org/zap"

	"legalport/internal/realtime"
)

// events announces writes to subscribers and opens full-result watches.
type events struct {
	pub    realtime.Publisher
	sub    realtime.Subscriber
	logger *zap.Logger
}

func newEvents(pub realtime.Publisher, sub realtime.Subscriber, logger *zap.Logger) *events {
	return &events{pub: pub, sub: sub, logger: logger}
}

// publish never fails the caller: the write it follows has already committed.
func (e *events) publish(ctx context.Context, topics ...string) {
	if err := e.pub.Publish(context.WithoutCancel(ctx), topics...); err != nil {
		e.logger.Warn("failed to publish change", zap.Strings("topics", topics), zap.Error(err))
	}
}

func watch[T any](ctx context.Context, e *events, topics []string, load func(context.Context) (T, error), deliver func(T)) (func(), error) {
	return realtime.Watch(ctx, e.sub, topics, load, deliver, e.logger)
}
