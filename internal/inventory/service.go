package inventory

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/wenzetiindaku/checkout-api/internal/catalog"
	"github.com/wenzetiindaku/checkout-api/internal/checkout"
	kafkax "github.com/wenzetiindaku/checkout-api/internal/kafka"
	"github.com/wenzetiindaku/checkout-api/internal/redisx"
)

// Service deducts catalog stock for confirmed orders.
type Service struct {
	Stock       *catalog.StockRepo
	Redis       *redis.Client
	ServiceName string
}

// HandleOrderConfirmed is the consumer handler for the order-confirmed topic.
func (s *Service) HandleOrderConfirmed(ctx context.Context, m kafkago.Message) error {
	var env checkout.Envelope
	if err := kafkax.UnmarshalEnvelope(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != checkout.EventOrderConfirmed {
		return nil // ignore
	}

	// dedup via Redis (by event_id)
	dkey := fmt.Sprintf(redisx.KeyDedup, "inventory", env.EventID)
	exists, _ := redisx.Exists(ctx, s.Redis, dkey)
	if exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	p, err := kafkax.UnwrapPayload[checkout.OrderConfirmedPayload](env.Payload)
	if err != nil {
		return err
	}

	lines := make([]catalog.StockLine, 0, len(p.Items))
	for _, it := range p.Items {
		lines = append(lines, catalog.StockLine{ProductID: it.ProductID, Qty: it.Qty})
	}

	shortages, err := s.Stock.DeductAll(ctx, p.OrderID, lines)
	if err != nil {
		return err
	}
	for _, sh := range shortages {
		log.Printf("stock shortage order=%s product=%s required=%d available=%d",
			p.OrderID, sh.ProductID, sh.Required, sh.Available)
	}
	return nil
}
