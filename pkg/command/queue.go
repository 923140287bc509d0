// Package command carries command tokens from the network listeners to the
// controller.
package command

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/gwillem/hexapod/pkg/command"

// Queue is a thread-safe FIFO of command tokens. Any number of goroutines may
// push; one consumer pops. Neither side blocks, and nothing is dropped.
type Queue struct {
	mu    sync.Mutex
	items []string

	pushed metric.Int64Counter
	popped metric.Int64Counter
}

// NewQueue creates an empty queue. Counters come from the global OTel meter
// provider and are no-ops unless one is installed.
func NewQueue() *Queue {
	m := otel.Meter(meterName)
	pushed, err := m.Int64Counter("hexapod.commands.pushed",
		metric.WithDescription("Command tokens pushed by listeners"))
	if err != nil {
		pushed = noop.Int64Counter{}
	}
	popped, err := m.Int64Counter("hexapod.commands.popped",
		metric.WithDescription("Command tokens taken by the controller"))
	if err != nil {
		popped = noop.Int64Counter{}
	}

	return &Queue{
		items:  make([]string, 0),
		pushed: pushed,
		popped: popped,
	}
}

// Push appends a token.
func (q *Queue) Push(token string) {
	q.mu.Lock()
	q.items = append(q.items, token)
	q.mu.Unlock()

	q.pushed.Add(context.Background(), 1, metric.WithAttributes(attribute.String("token", token)))
}

// TryPop removes and returns the oldest token. It reports false when the
// queue is empty.
func (q *Queue) TryPop() (string, bool) {
	q.mu.Lock()
	if len(q.items) == 0 {
		q.mu.Unlock()
		return "", false
	}
	token := q.items[0]
	q.items[0] = ""
	q.items = q.items[1:]
	q.mu.Unlock()

	q.popped.Add(context.Background(), 1)
	return token, true
}

// Len returns the number of pending tokens.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
