package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"legalport/config"
	"legalport/internal/domain"
	"legalport/internal/realtime"
)

func newPresenceFixture() (*PresenceServiceImpl, *MockPresenceRepository, *realtime.Broker, time.Time) {
	ev, broker := testEvents()
	repo := &MockPresenceRepository{}
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	svc := NewPresenceService(repo, ev, config.PresenceConfig{QueryChunkSize: 10, StaleAfter: 5 * time.Minute}, zap.NewNop())
	svc.now = func() time.Time { return now }
	return svc, repo, broker, now
}

func TestPresenceService_MissingUsersDefaultOffline(t *testing.T) {
	svc, repo, _, now := newPresenceFixture()
	seen := now.Add(-time.Minute)
	repo.On("ListByUserIDs", mock.Anything, []string{"u1", "u2", "u3"}).
		Return([]domain.Presence{{UserID: "u1", IsOnline: true, LastSeen: seen}}, nil)

	got, err := svc.GetPresence(context.Background(), []string{"u1", "u2", "u3"})

	require.NoError(t, err)
	assert.Equal(t, map[string]domain.Presence{
		"u1": {UserID: "u1", IsOnline: true, LastSeen: seen},
		"u2": {UserID: "u2", IsOnline: false, LastSeen: now},
		"u3": {UserID: "u3", IsOnline: false, LastSeen: now},
	}, got)
}

func TestPresenceService_QueriesInChunks(t *testing.T) {
	svc, repo, _, _ := newPresenceFixture()

	ids := make([]string, 0, 25)
	for i := 0; i < 25; i++ {
		ids = append(ids, fmt.Sprintf("u%02d", i))
	}

	repo.On("ListByUserIDs", mock.Anything, ids[0:10]).Return([]domain.Presence{{UserID: "u00", IsOnline: true}}, nil).Once()
	repo.On("ListByUserIDs", mock.Anything, ids[10:20]).Return([]domain.Presence{{UserID: "u15", IsOnline: true}}, nil).Once()
	repo.On("ListByUserIDs", mock.Anything, ids[20:25]).Return([]domain.Presence{}, nil).Once()

	got, err := svc.GetPresence(context.Background(), ids)

	require.NoError(t, err)
	assert.Len(t, got, 25)
	assert.True(t, got["u00"].IsOnline)
	assert.True(t, got["u15"].IsOnline)
	assert.False(t, got["u24"].IsOnline)
	repo.AssertNumberOfCalls(t, "ListByUserIDs", 3)
}

func TestPresenceService_DropsDuplicatesAndBlanks(t *testing.T) {
	svc, repo, _, _ := newPresenceFixture()
	repo.On("ListByUserIDs", mock.Anything, []string{"u1", "u2"}).Return([]domain.Presence{}, nil)

	got, err := svc.GetPresence(context.Background(), []string{"u1", "", "u2", "u1"})

	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestPresenceService_EmptyInputSkipsStore(t *testing.T) {
	svc, repo, _, _ := newPresenceFixture()

	got, err := svc.GetPresence(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, got)
	repo.AssertNotCalled(t, "ListByUserIDs", mock.Anything, mock.Anything)
}

func TestPresenceService_SetPresencePublishes(t *testing.T) {
	svc, repo, broker, now := newPresenceFixture()
	repo.On("Upsert", mock.Anything, "u1", false).Return(&domain.Presence{UserID: "u1", LastSeen: now}, nil)

	var notified int
	broker.Subscribe(realtime.PresenceTopic("u1"), func() { notified++ })

	p, err := svc.SetPresence(context.Background(), "u1", false)

	require.NoError(t, err)
	assert.False(t, p.IsOnline)
	assert.Equal(t, 1, notified)
}

func TestPresenceService_SubscribeMultiple(t *testing.T) {
	svc, repo, broker, now := newPresenceFixture()
	repo.On("ListByUserIDs", mock.Anything, []string{"u1", "u2"}).Return([]domain.Presence{}, nil).Once()
	repo.On("ListByUserIDs", mock.Anything, []string{"u1", "u2"}).
		Return([]domain.Presence{{UserID: "u2", IsOnline: true, LastSeen: now}}, nil)

	var mu sync.Mutex
	var snapshots []map[string]domain.Presence
	stop, err := svc.SubscribeMultiplePresence(context.Background(), []string{"u1", "u2"}, func(m map[string]domain.Presence) {
		mu.Lock()
		defer mu.Unlock()
		snapshots = append(snapshots, m)
	})
	require.NoError(t, err)
	defer stop()

	mu.Lock()
	require.Len(t, snapshots, 1)
	assert.False(t, snapshots[0]["u2"].IsOnline)
	mu.Unlock()

	require.NoError(t, broker.Publish(context.Background(), realtime.PresenceTopic("u2")))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(snapshots) == 2 && snapshots[1]["u2"].IsOnline && len(snapshots[1]) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestPresenceService_SweepStale(t *testing.T) {
	svc, repo, broker, now := newPresenceFixture()
	repo.On("MarkStaleOffline", mock.Anything, now.Add(-5*time.Minute)).Return([]string{"u1", "u2"}, nil)

	var notified int
	broker.Subscribe(realtime.PresenceTopic("u2"), func() { notified++ })

	n, err := svc.SweepStale(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, notified)
}
