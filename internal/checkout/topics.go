package checkout

const (
	TopicOrderConfirmed  = "checkout.order.confirmed"
	TopicCheckoutStarted = "checkout.session.started"
)

// Partition key = order_id so all events for one order stay ordered.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
