package redisbus

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/kanban-sync/internal/domain"
	"github.com/runoshun/kanban-sync/internal/testutil"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	m := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = rc.Close() })
	return m, rc
}

func startSubscriber(t *testing.T, b *Bus) (<-chan domain.ChangeKind, context.CancelFunc, <-chan struct{}) {
	t.Helper()
	got := make(chan domain.ChangeKind, 8)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Subscribe(ctx, func(k domain.ChangeKind) { got <- k })
		close(done)
	}()
	return got, cancel, done
}

func waitSubscribed(t *testing.T, m *miniredis.Miniredis, channel string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return m.PubSubNumSub(channel)[channel] > 0
	}, time.Second, 10*time.Millisecond)
}

func TestBus_DeliversOtherOrigins(t *testing.T) {
	m, rc := newClient(t)
	a := New(rc, "board", nil)
	b := New(rc, "board", nil)
	require.NotEqual(t, a.Origin(), b.Origin())

	got, cancel, done := startSubscriber(t, a)
	waitSubscribed(t, m, "board")

	require.NoError(t, b.Notify(context.Background(), domain.ChangeIssues))
	require.NoError(t, a.Notify(context.Background(), domain.ChangeStatuses))
	require.NoError(t, b.Notify(context.Background(), domain.ChangeStatuses))

	assert.Equal(t, domain.ChangeIssues, <-got)
	assert.Equal(t, domain.ChangeStatuses, <-got)
	select {
	case k := <-got:
		t.Fatalf("unexpected extra notice %q (own notices must be skipped)", k)
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Subscribe did not exit")
	}
}

func TestBus_SkipsMalformedPayload(t *testing.T) {
	m, rc := newClient(t)
	logger := &testutil.MockLogger{}
	a := New(rc, "board", logger)

	got, cancel, _ := startSubscriber(t, a)
	defer cancel()
	waitSubscribed(t, m, "board")

	m.Publish("board", "not json")
	require.NoError(t, New(rc, "board", nil).Notify(context.Background(), domain.ChangeIssues))

	assert.Equal(t, domain.ChangeIssues, <-got)
	assert.Equal(t, 1, logger.Count("ERROR"))
}

func TestBus_DefaultChannel(t *testing.T) {
	_, rc := newClient(t)
	assert.Equal(t, domain.DefaultRedisChannel, New(rc, "", nil).channel)
}

func TestDial_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := Dial(ctx, "127.0.0.1:1", "board", nil)
	assert.Error(t, err)
}
