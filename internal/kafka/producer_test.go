package kafka_test

import (
	"context"
	"testing"
	"time"

	kafkax "github.com/wenzetiindaku/checkout-api/internal/kafka"
)

// Shutdown closes the producer before cancelling its context; both paths end
// up closing the inbox, which must be safe in either order.
func TestProducerCloseThenCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := kafkax.NewProducer([]string{"localhost:0"}, "orders-test", 4)
	p.Start(ctx)

	p.Close()
	cancel()

	done := make(chan struct{})
	go func() {
		p.WaitClosed()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("producer did not shut down")
	}
}

func TestProducerCancelThenClose(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := kafkax.NewProducer([]string{"localhost:0"}, "orders-test", 4)
	p.Start(ctx)

	cancel()
	p.Close()

	done := make(chan struct{})
	go func() {
		p.WaitClosed()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("producer did not shut down")
	}
}
