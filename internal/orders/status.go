package orders

type Status string

const (
	StatusPending    Status = "Pending"
	StatusPaid       Status = "Paid"
	StatusProcessing Status = "Processing"
	StatusShipped    Status = "Shipped"
	StatusDelivered  Status = "Delivered"
	StatusCancelled  Status = "Cancelled"
)

// Forward-only lifecycle; Cancelled is reachable from any non-terminal state
// except Shipped-onward per the delivery contract, and terminals never move.
var validNext = map[Status]map[Status]bool{
	StatusPending:    {StatusPaid: true, StatusCancelled: true},
	StatusPaid:       {StatusProcessing: true, StatusShipped: true, StatusCancelled: true},
	StatusProcessing: {StatusShipped: true, StatusCancelled: true},
	StatusShipped:    {StatusDelivered: true},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusPaid, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return Status(s), true
	}
	return "", false
}

func (s Status) Terminal() bool {
	return len(validNext[s]) == 0
}
