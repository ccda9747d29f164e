package orders

const (
	TopicOrderCreated  = "orders.created"
	TopicStatusChanged = "orders.status"
)

// Partition key = order id, so all events for one order keep their order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
