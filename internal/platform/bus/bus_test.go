package bus

import (
	"context"
	"testing"
	"time"

	"trendflow/internal/platform/logger"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type batchEvent struct {
	BatchID      string `json:"batch_id"`
	Observations int    `json:"observations"`
}

func runServer(t *testing.T) *nats.Conn {
	t.Helper()
	ns, err := server.NewServer(&server.Options{Host: "127.0.0.1", Port: -1, NoLog: true, NoSigs: true})
	require.NoError(t, err)
	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		t.Fatalf("nats server not ready")
	}
	t.Cleanup(ns.Shutdown)

	nc, err := nats.Connect(ns.ClientURL())
	require.NoError(t, err)
	t.Cleanup(nc.Close)
	return nc
}

func TestNATS_PublishSubscribeRoundTrip(t *testing.T) {
	nc := runServer(t)

	got := make(chan batchEvent, 1)
	gotBatch := make(chan string, 1)
	sub, err := Subscribe(nc, SubjectBatchCollected, func(ctx context.Context, ev batchEvent) {
		gotBatch <- logger.BatchID(ctx)
		got <- ev
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Unsubscribe() })
	require.NoError(t, nc.Flush())

	ctx := logger.WithBatch(context.Background(), "b-123")
	pub := NewNATS(nc)
	require.NoError(t, pub.Publish(ctx, SubjectBatchCollected, batchEvent{BatchID: "b-123", Observations: 42}))

	select {
	case ev := <-got:
		assert.Equal(t, 42, ev.Observations)
		assert.Equal(t, "b-123", <-gotBatch)
	case <-time.After(5 * time.Second):
		t.Fatalf("event not delivered")
	}
}

func TestSubscribe_SkipsGarbage(t *testing.T) {
	nc := runServer(t)

	got := make(chan batchEvent, 2)
	_, err := Subscribe(nc, "trendflow.test", func(_ context.Context, ev batchEvent) { got <- ev })
	require.NoError(t, err)
	require.NoError(t, nc.Flush())

	require.NoError(t, nc.Publish("trendflow.test", []byte("{not json")))
	require.NoError(t, NewNATS(nc).Publish(context.Background(), "trendflow.test", batchEvent{Observations: 1}))

	select {
	case ev := <-got:
		assert.Equal(t, 1, ev.Observations)
	case <-time.After(5 * time.Second):
		t.Fatalf("valid event not delivered")
	}
}

func TestNewNATS_NilIsNop(t *testing.T) {
	p := NewNATS(nil)
	_, ok := p.(Nop)
	assert.True(t, ok)
	assert.NoError(t, p.Publish(context.Background(), "x", 1))
}

func TestMemory_RecordsBatchID(t *testing.T) {
	var m Memory
	ctx := logger.WithBatch(context.Background(), "b-9")
	require.NoError(t, m.Publish(ctx, SubjectBatchCollected, batchEvent{Observations: 3}))
	assert.Error(t, m.Publish(ctx, "bad", func() {}))

	msgs := m.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "b-9", msgs[0].BatchID)
	assert.JSONEq(t, `{"batch_id":"","observations":3}`, string(msgs[0].Data))
}
