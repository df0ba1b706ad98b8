package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// workerGroup is the NATS queue group name; subscribers in one group share
// the subject so each task is picked up by a single worker.
const workerGroup = "gait-workers"

// NATSQueue publishes and consumes analysis tasks over a NATS subject.
type NATSQueue struct {
	conn    *nats.Conn
	subject string
}

// NewNATSQueue connects to NATS with automatic reconnection support.
func NewNATSQueue(url, subject string, opts ...nats.Option) (*NATSQueue, error) {
	defaults := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}
	nc, err := nats.Connect(url, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &NATSQueue{conn: nc, subject: subject}, nil
}

func (q *NATSQueue) Enqueue(ctx context.Context, sessionID uint) error {
	data, err := json.Marshal(task{SessionID: sessionID})
	if err != nil {
		return fmt.Errorf("marshaling task: %w", err)
	}
	if err := q.conn.Publish(q.subject, data); err != nil {
		return fmt.Errorf("publishing task: %w", err)
	}
	return nil
}

// Subscribe registers handle on the worker queue group. Call the returned
// cancel function to unsubscribe.
func (q *NATSQueue) Subscribe(ctx context.Context, handle Handler) (func(), error) {
	sub, err := q.conn.QueueSubscribe(q.subject, workerGroup, func(msg *nats.Msg) {
		var t task
		if err := json.Unmarshal(msg.Data, &t); err != nil {
			// A malformed task has no session to mark; drop it.
			return
		}
		handle(ctx, t.SessionID)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", q.subject, err)
	}
	// Flush ensures the subscription is registered on the server before
	// returning, so tasks published on other connections are routed.
	if err := q.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return nil, fmt.Errorf("flushing subscription: %w", err)
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

func (q *NATSQueue) Close() error {
	q.conn.Close()
	return nil
}
