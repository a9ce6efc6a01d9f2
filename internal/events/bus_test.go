package events_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tournevent/shipstation/internal/events"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func newTestBus() *events.Bus {
	return events.NewBus(otelzap.New(zap.NewNop()))
}

func TestBus_DeliversToSubscriber(t *testing.T) {
	bus := newTestBus()

	received := make(chan any, 1)
	bus.Subscribe("topic", func(ctx context.Context, payload any) {
		received <- payload
	})

	bus.Publish(context.Background(), "topic", "hello")

	select {
	case payload := <-received:
		assert.Equal(t, "hello", payload)
	case <-time.After(time.Second):
		t.Fatal("handler was not invoked")
	}
}

func TestBus_DeliversToAllSubscribers(t *testing.T) {
	bus := newTestBus()

	var count atomic.Int32
	done := make(chan struct{}, 2)
	handler := func(ctx context.Context, payload any) {
		count.Add(1)
		done <- struct{}{}
	}
	bus.Subscribe("topic", handler)
	bus.Subscribe("topic", handler)

	bus.Publish(context.Background(), "topic", nil)

	for range 2 {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("not all handlers were invoked")
		}
	}
	assert.Equal(t, int32(2), count.Load())
}

func TestBus_NoSubscribers(t *testing.T) {
	bus := newTestBus()

	// Publishing to a topic nobody listens on is a no-op.
	bus.Publish(context.Background(), "empty", "payload")
}

func TestBus_TopicIsolation(t *testing.T) {
	bus := newTestBus()

	var invoked atomic.Bool
	bus.Subscribe("topic_a", func(ctx context.Context, payload any) {
		invoked.Store(true)
	})

	bus.Publish(context.Background(), "topic_b", nil)

	time.Sleep(50 * time.Millisecond)
	assert.False(t, invoked.Load())
}

func TestBus_PublishDoesNotBlock(t *testing.T) {
	bus := newTestBus()

	release := make(chan struct{})
	bus.Subscribe("topic", func(ctx context.Context, payload any) {
		<-release
	})

	done := make(chan struct{})
	go func() {
		bus.Publish(context.Background(), "topic", nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow handler")
	}
	close(release)
}

func TestBus_RecoversFromHandlerPanic(t *testing.T) {
	bus := newTestBus()

	after := make(chan struct{}, 1)
	bus.Subscribe("topic", func(ctx context.Context, payload any) {
		panic("boom")
	})
	bus.Subscribe("topic", func(ctx context.Context, payload any) {
		after <- struct{}{}
	})

	bus.Publish(context.Background(), "topic", nil)

	select {
	case <-after:
	case <-time.After(time.Second):
		t.Fatal("panic in one handler affected another")
	}
}
