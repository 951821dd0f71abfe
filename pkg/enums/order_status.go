package enums

import "fmt"

// OrderStatus tracks the lifecycle of a rental order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPickedUp  OrderStatus = "picked_up"
	OrderStatusRented    OrderStatus = "rented"
	OrderStatusReturned  OrderStatus = "returned"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPickedUp,
	OrderStatusRented,
	OrderStatusReturned,
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

// ParseOrderStatus converts raw input into a OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

// IsTerminal reports whether the order has left the rental flow.
func (o OrderStatus) IsTerminal() bool {
	return o == OrderStatusReturned || o == OrderStatusCancelled
}

// IsOut reports whether the goods are with the customer.
func (o OrderStatus) IsOut() bool {
	return o == OrderStatusPickedUp || o == OrderStatusRented
}
