package pushredis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/boardsync/internal/domain"
	"github.com/runoshun/boardsync/internal/infra/pushcodec"
)

type recordingHandler struct {
	connected chan struct{}
	events    chan domain.PushEvent
}

func (h *recordingHandler) OnConnected(context.Context) {
	h.connected <- struct{}{}
}

func (h *recordingHandler) OnEvent(_ context.Context, ev domain.PushEvent) {
	h.events <- ev
}

func (h *recordingHandler) OnDisconnected(error) {}

func setup(t *testing.T) (*redis.Client, *Channel, *recordingHandler) {
	t.Helper()
	m, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)

	rc := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = rc.Close() })

	ch := New(rc, "board", nil)
	h := &recordingHandler{
		connected: make(chan struct{}, 4),
		events:    make(chan domain.PushEvent, 16),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = ch.Run(ctx, h)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Error("Run did not exit")
		}
	})

	select {
	case <-h.connected:
	case <-time.After(2 * time.Second):
		t.Fatal("not subscribed")
	}
	return rc, ch, h
}

func TestChannel_DispatchesPublishedFrames(t *testing.T) {
	rc, ch, h := setup(t)

	frame := `{"event":"online-users","data":[{"userId":"u1","email":"a@x.com"}]}`
	require.NoError(t, rc.Publish(context.Background(), ch.EventsChannel(), frame).Err())

	select {
	case ev := <-h.events:
		assert.Equal(t, domain.PushOnlineUsers, ev.Kind)
		assert.Len(t, ev.Presence, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("no event")
	}
}

func TestChannel_SkipsMalformedFrames(t *testing.T) {
	rc, ch, h := setup(t)

	require.NoError(t, rc.Publish(context.Background(), ch.EventsChannel(), "garbage").Err())
	require.NoError(t, rc.Publish(context.Background(), ch.EventsChannel(), `{"event":"activity-logged"}`).Err())

	select {
	case ev := <-h.events:
		assert.Equal(t, domain.PushActivityLogged, ev.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("no event")
	}
}

func TestChannel_EmitPublishesOnClientChannel(t *testing.T) {
	rc, ch, _ := setup(t)

	sub := rc.Subscribe(context.Background(), ch.ClientChannel())
	defer func() { _ = sub.Close() }()
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)

	require.NoError(t, ch.Emit(context.Background(), domain.PushEvent{
		Kind:     domain.PushUserOnline,
		Presence: []domain.PresenceEntry{{UserID: "u1", Email: "a@x.com"}},
	}))

	select {
	case msg := <-sub.Channel():
		ev, err := pushcodec.Decode([]byte(msg.Payload))
		require.NoError(t, err)
		assert.Equal(t, domain.PushUserOnline, ev.Kind)
		assert.Equal(t, "u1", ev.Presence[0].UserID)
	case <-time.After(2 * time.Second):
		t.Fatal("nothing published")
	}
}

func TestChannel_EmitBeforeSubscribe(t *testing.T) {
	m, err := miniredis.Run()
	require.NoError(t, err)
	defer m.Close()
	rc := redis.NewClient(&redis.Options{Addr: m.Addr()})
	defer func() { _ = rc.Close() }()

	ch := New(rc, "", nil)

	assert.Equal(t, "boardsync:events", ch.EventsChannel())
	err = ch.Emit(context.Background(), domain.PushEvent{Kind: domain.PushActivityLogged})
	assert.ErrorIs(t, err, domain.ErrNotConnected)
}
