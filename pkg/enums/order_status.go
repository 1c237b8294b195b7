package enums

import "fmt"

// OrderStatus tracks the lifecycle of a placed order.
type OrderStatus string

const (
	OrderStatusInitiated OrderStatus = "initiated"
	OrderStatusPlaced    OrderStatus = "placed"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusInitiated,
	OrderStatusPlaced,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// CountsTowardStock reports whether orders in this status consume item stock.
func (o OrderStatus) CountsTowardStock() bool {
	return o == OrderStatusPlaced || o == OrderStatusCompleted
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
