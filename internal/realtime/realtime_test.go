package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBroker_SubscribePublishUnsubscribe(t *testing.T) {
	b := NewBroker()

	var hits int
	unsub := b.Subscribe("a", func() { hits++ })
	b.Subscribe("b", func() { t.Fatal("wrong topic") })

	require.NoError(t, b.Publish(context.Background(), "a", "a"))
	assert.Equal(t, 2, hits)

	unsub()
	unsub()
	assert.Equal(t, 0, b.Subscribers("a"))

	require.NoError(t, b.Publish(context.Background(), "a"))
	assert.Equal(t, 2, hits)
}

func TestBroker_DispatchAll(t *testing.T) {
	b := NewBroker()

	var a, c int
	b.Subscribe("a", func() { a++ })
	b.Subscribe("c", func() { c++ })

	b.DispatchAll()
	assert.Equal(t, 1, a)
	assert.Equal(t, 1, c)
}

type snapshots struct {
	mu   sync.Mutex
	vals []int
}

func (s *snapshots) add(v int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vals = append(s.vals, v)
}

func (s *snapshots) last() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.vals) == 0 {
		return 0, 0
	}
	return s.vals[len(s.vals)-1], len(s.vals)
}

func TestWatch_DeliversInitialAndReloads(t *testing.T) {
	b := NewBroker()
	var mu sync.Mutex
	state := 1
	load := func(context.Context) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		return state, nil
	}

	got := &snapshots{}
	stop, err := Watch(context.Background(), b, []string{"t1", "t2"}, load, got.add, zap.NewNop())
	require.NoError(t, err)
	defer stop()

	v, n := got.last()
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, n)

	mu.Lock()
	state = 2
	mu.Unlock()
	require.NoError(t, b.Publish(context.Background(), "t2"))

	assert.Eventually(t, func() bool {
		v, _ := got.last()
		return v == 2
	}, time.Second, 5*time.Millisecond)
}

func TestWatch_StopUnsubscribes(t *testing.T) {
	b := NewBroker()
	load := func(context.Context) (int, error) { return 1, nil }

	got := &snapshots{}
	stop, err := Watch(context.Background(), b, []string{"t"}, load, got.add, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, b.Subscribers("t"))

	stop()
	stop()
	assert.Equal(t, 0, b.Subscribers("t"))

	require.NoError(t, b.Publish(context.Background(), "t"))
	time.Sleep(20 * time.Millisecond)
	_, n := got.last()
	assert.Equal(t, 1, n)
}

func TestWatch_ContextCancelUnsubscribes(t *testing.T) {
	b := NewBroker()
	ctx, cancel := context.WithCancel(context.Background())

	_, err := Watch(ctx, b, []string{"t"}, func(context.Context) (int, error) { return 1, nil }, func(int) {}, zap.NewNop())
	require.NoError(t, err)

	cancel()
	assert.Eventually(t, func() bool { return b.Subscribers("t") == 0 }, time.Second, 5*time.Millisecond)
}

func TestWatch_InitialErrorReturned(t *testing.T) {
	b := NewBroker()
	boom := errors.New("boom")

	stop, err := Watch(context.Background(), b, []string{"t"}, func(context.Context) (int, error) { return 0, boom }, func(int) {
		t.Fatal("must not deliver")
	}, zap.NewNop())

	assert.ErrorIs(t, err, boom)
	assert.Nil(t, stop)
	assert.Equal(t, 0, b.Subscribers("t"))
}

func TestWatch_ReloadErrorKeepsPreviousSnapshot(t *testing.T) {
	b := NewBroker()
	var mu sync.Mutex
	calls := 0
	load := func(context.Context) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 2 {
			return 0, errors.New("transient")
		}
		return calls, nil
	}

	got := &snapshots{}
	stop, err := Watch(context.Background(), b, []string{"t"}, load, got.add, zap.NewNop())
	require.NoError(t, err)
	defer stop()

	require.NoError(t, b.Publish(context.Background(), "t"))
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 2
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, b.Publish(context.Background(), "t"))
	assert.Eventually(t, func() bool {
		v, _ := got.last()
		return v == 3
	}, time.Second, 5*time.Millisecond)

	got.mu.Lock()
	assert.Equal(t, []int{1, 3}, got.vals)
	got.mu.Unlock()
}

func TestPGNotifier_Publish(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("pg_notify").WithArgs("changes", "messages:c1").WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectExec("pg_notify").WithArgs("changes", "chats:user:u1").WillReturnResult(pgxmock.NewResult("SELECT", 1))

	n := &PGNotifier{db: mock, channel: "changes", broker: NewBroker(), logger: zap.NewNop()}
	require.NoError(t, n.Publish(context.Background(), MessagesTopic("c1"), UserChatsTopic("u1")))
	assert.NoError(t, mock.ExpectationsWereMet())
}
