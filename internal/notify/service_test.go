package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pressplay/gamestore/internal/orders"
)

func TestNotificationRecipient(t *testing.T) {
	base := orders.OrderStatusChangedPayload{
		OrderID: "ord-1",
		UserID:  "user-1",
		RiderID: "rider-1",
	}

	shipped := base
	shipped.ToStatus = string(orders.StatusShipped)
	n := notificationFor(shipped)
	assert.Equal(t, "rider-1", n.RecipientID)
	assert.Equal(t, "rider", n.RecipientRole)

	delivered := base
	delivered.ToStatus = string(orders.StatusDelivered)
	n = notificationFor(delivered)
	assert.Equal(t, "user-1", n.RecipientID)
	assert.Equal(t, "customer", n.RecipientRole)

	// shipped without a rider id falls back to the customer
	noRider := base
	noRider.RiderID = ""
	noRider.ToStatus = string(orders.StatusShipped)
	n = notificationFor(noRider)
	assert.Equal(t, "user-1", n.RecipientID)
	assert.Equal(t, "customer", n.RecipientRole)
}
