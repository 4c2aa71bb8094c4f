package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryClient_PollBeforeSubscribe(t *testing.T) {
	m := NewMemoryClient()

	_, err := m.Poll(context.Background())

	assert.ErrorIs(t, err, ErrNotSubscribed)
}

func TestMemoryClient_DeliversSubscribedTopicsInOrder(t *testing.T) {
	// Given: records on two topics, only one subscribed
	m := NewMemoryClient()
	m.Publish("menu", []byte(`"new"`), []byte(`{}`))
	m.Publish("other", []byte(`"new"`), []byte(`{}`))
	m.Publish("menu", []byte(`"update"`), []byte(`{}`))
	require.NoError(t, m.Subscribe(context.Background(), []string{"menu"}))

	// When: polling twice
	first, err := m.Poll(context.Background())
	require.NoError(t, err)
	second, err := m.Poll(context.Background())
	require.NoError(t, err)

	// Then: menu records arrive in offset order and the other stays queued
	assert.Equal(t, int64(0), first.Offset)
	assert.Equal(t, int64(1), second.Offset)
	assert.Equal(t, []byte(`"update"`), second.Key)
	assert.Equal(t, 1, m.Pending())
}

func TestMemoryClient_PollBlocksUntilPublish(t *testing.T) {
	m := NewMemoryClient()
	require.NoError(t, m.Subscribe(context.Background(), []string{"form"}))

	done := make(chan *Record, 1)
	go func() {
		rec, err := m.Poll(context.Background())
		if err == nil {
			done <- rec
		}
	}()

	m.Publish("form", []byte("new"), []byte("{}"))

	select {
	case rec := <-done:
		assert.Equal(t, "form", rec.Topic)
	case <-time.After(2 * time.Second):
		t.Fatal("poll did not wake up")
	}
}

func TestMemoryClient_PollHonoursContext(t *testing.T) {
	m := NewMemoryClient()
	require.NoError(t, m.Subscribe(context.Background(), []string{"form"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := m.Poll(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMemoryClient_NackRequeueRedeliversFirst(t *testing.T) {
	// Given: two records
	m := NewMemoryClient()
	require.NoError(t, m.Subscribe(context.Background(), []string{"window"}))
	m.Publish("window", []byte("new"), []byte("a"))
	m.Publish("window", []byte("new"), []byte("b"))

	// When: the first is nacked with requeue
	rec, err := m.Poll(context.Background())
	require.NoError(t, err)
	require.NoError(t, m.Nack(context.Background(), rec, true))

	// Then: it is delivered again before the second
	again, err := m.Poll(context.Background())
	require.NoError(t, err)
	assert.Same(t, rec, again)
	assert.Equal(t, 1, m.Requeued())
	assert.Empty(t, m.Committed())
}

func TestMemoryClient_NackWithoutRequeueSkips(t *testing.T) {
	m := NewMemoryClient()
	require.NoError(t, m.Subscribe(context.Background(), []string{"window"}))
	m.Publish("window", []byte("new"), []byte("not json"))

	rec, err := m.Poll(context.Background())
	require.NoError(t, err)
	require.NoError(t, m.Nack(context.Background(), rec, false))

	assert.Equal(t, []*Record{rec}, m.Skipped())
	assert.Zero(t, m.Pending())
	assert.Empty(t, m.Committed())
}

func TestMemoryClient_CommitRecords(t *testing.T) {
	m := NewMemoryClient()
	require.NoError(t, m.Subscribe(context.Background(), []string{"process"}))
	m.Publish("process", []byte("delete"), []byte("{}"))

	rec, err := m.Poll(context.Background())
	require.NoError(t, err)
	require.NoError(t, m.Commit(context.Background(), rec))

	assert.Equal(t, []*Record{rec}, m.Committed())
}

func TestMemoryClient_CloseUnblocksPoll(t *testing.T) {
	m := NewMemoryClient()
	require.NoError(t, m.Subscribe(context.Background(), []string{"menu"}))

	errc := make(chan error, 1)
	go func() {
		_, err := m.Poll(context.Background())
		errc <- err
	}()

	require.NoError(t, m.Close())

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("poll did not return after close")
	}
}
