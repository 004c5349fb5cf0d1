// Package bus publishes and consumes JSON domain events over NATS
package bus

import (
	"context"
	"sync"

	perr "trendflow/internal/platform/errors"
	"trendflow/internal/platform/logger"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
)

// SubjectBatchCollected is published after every collection run
const SubjectBatchCollected = "trendflow.batch.collected"

// HeaderBatchID carries the batch id next to the payload
const HeaderBatchID = "Trendflow-Batch-Id"

// Publisher sends one event
type Publisher interface {
	Publish(ctx context.Context, subject string, v any) error
}

// NATS publishes JSON payloads on a core NATS connection
type NATS struct {
	nc *nats.Conn
}

// NewNATS wraps nc, a nil connection yields a Nop publisher
func NewNATS(nc *nats.Conn) Publisher {
	if nc == nil {
		return Nop{}
	}
	return &NATS{nc: nc}
}

// Publish encodes v and publishes it, the batch id from ctx rides in a header
func (n *NATS) Publish(ctx context.Context, subject string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeJSON, "bus: encode %s", subject)
	}
	msg := nats.NewMsg(subject)
	msg.Data = b
	if id := logger.BatchID(ctx); id != "" {
		msg.Header.Set(HeaderBatchID, id)
	}
	if err := n.nc.PublishMsg(msg); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "bus: publish %s", subject)
	}
	return nil
}

// Subscribe decodes every message on subject into T and hands it to fn
// undecodable messages are logged and skipped
func Subscribe[T any](nc *nats.Conn, subject string, fn func(ctx context.Context, ev T)) (*nats.Subscription, error) {
	log := logger.Named("bus")
	return nc.Subscribe(subject, func(m *nats.Msg) {
		var ev T
		if err := json.Unmarshal(m.Data, &ev); err != nil {
			log.Warn().Err(err).Str("subject", m.Subject).Msg("dropping undecodable event")
			return
		}
		ctx := context.Background()
		if m.Header != nil {
			ctx = logger.WithBatch(ctx, m.Header.Get(HeaderBatchID))
		}
		fn(ctx, ev)
	})
}

// Nop drops every event
type Nop struct{}

// Publish implements Publisher
func (Nop) Publish(context.Context, string, any) error { return nil }

// Message is one event captured by Memory
type Message struct {
	Subject string
	Data    []byte
	BatchID string
}

// Memory keeps published events in process, used by tests and the CLI dry run
type Memory struct {
	mu   sync.Mutex
	msgs []Message
}

// Publish implements Publisher
func (m *Memory) Publish(ctx context.Context, subject string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeJSON, "bus: encode %s", subject)
	}
	m.mu.Lock()
	m.msgs = append(m.msgs, Message{Subject: subject, Data: b, BatchID: logger.BatchID(ctx)})
	m.mu.Unlock()
	return nil
}

// Messages returns a copy of everything published so far
func (m *Memory) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.msgs...)
}
