package realtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Postgres limits a NOTIFY payload to 8000 bytes.
const maxPayload = 8000

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PGNotifier carries change notifications between instances over LISTEN/NOTIFY.
type PGNotifier struct {
	pool    *pgxpool.Pool
	db      execer
	channel string
	broker  *Broker
	logger  *zap.Logger
}

func NewPGNotifier(pool *pgxpool.Pool, channel string, broker *Broker, logger *zap.Logger) *PGNotifier {
	return &PGNotifier{
		pool:    pool,
		db:      pool,
		channel: channel,
		broker:  broker,
		logger:  logger,
	}
}

func (n *PGNotifier) Publish(ctx context.Context, topics ...string) error {
	for _, topic := range topics {
		if len(topic) > maxPayload {
			return fmt.Errorf("topic %q exceeds notify payload limit", topic[:32])
		}
		if _, err := n.db.Exec(ctx, "SELECT pg_notify($1, $2)", n.channel, topic); err != nil {
			return fmt.Errorf("notify %s: %w", topic, err)
		}
	}
	return nil
}

// Run listens until ctx is done, reconnecting with exponential backoff.
func (n *PGNotifier) Run(ctx context.Context) error {
	eb := backoff.NewExponentialBackOff()
	eb.MaxElapsedTime = 0

	err := backoff.Retry(func() error {
		err := n.listen(ctx, eb.Reset)
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		n.logger.Warn("change listener disconnected", zap.String("channel", n.channel), zap.Error(err))
		return err
	}, backoff.WithContext(eb, ctx))

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (n *PGNotifier) listen(ctx context.Context, connected func()) error {
	conn, err := n.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listener connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{n.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	connected()
	n.logger.Info("change listener connected", zap.String("channel", n.channel))

	// Anything published while disconnected was lost; make every watcher reload.
	n.broker.DispatchAll()

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		n.broker.Dispatch(notification.Payload)
	}
}
