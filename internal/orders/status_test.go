package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusPaid, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusShipped, false}, // no skipping Paid/Processing
		{StatusPending, StatusDelivered, false},
		{StatusPaid, StatusProcessing, true},
		{StatusPaid, StatusShipped, true},
		{StatusPaid, StatusCancelled, true},
		{StatusPaid, StatusPending, false}, // forward-only
		{StatusProcessing, StatusShipped, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusProcessing, StatusPaid, false},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, false},
		{StatusDelivered, StatusPending, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusPaid, false},
	}
	for _, c := range cases {
		assert.Equalf(t, c.ok, CanTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func TestTerminalStates(t *testing.T) {
	assert.True(t, StatusDelivered.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusShipped.Terminal())
}

func TestParseStatus(t *testing.T) {
	s, ok := ParseStatus("Shipped")
	assert.True(t, ok)
	assert.Equal(t, StatusShipped, s)

	_, ok = ParseStatus("shipped")
	assert.False(t, ok)

	_, ok = ParseStatus("Refunded")
	assert.False(t, ok)
}
