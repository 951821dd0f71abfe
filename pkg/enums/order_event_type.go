package enums

import "fmt"

// OrderEventType labels entries in the order audit log.
type OrderEventType string

const (
	OrderEventTypeCreated         OrderEventType = "order_created"
	OrderEventTypeStatusChanged   OrderEventType = "status_changed"
	OrderEventTypePickupRecorded  OrderEventType = "pickup_recorded"
	OrderEventTypeReturnRecorded  OrderEventType = "return_recorded"
	OrderEventTypePaymentRecorded OrderEventType = "payment_recorded"
	OrderEventTypeInvoiceEmailed  OrderEventType = "invoice_emailed"
	OrderEventTypeReturnReminder  OrderEventType = "return_reminder"
)

var validOrderEventTypes = []OrderEventType{
	OrderEventTypeCreated,
	OrderEventTypeStatusChanged,
	OrderEventTypePickupRecorded,
	OrderEventTypeReturnRecorded,
	OrderEventTypePaymentRecorded,
	OrderEventTypeInvoiceEmailed,
	OrderEventTypeReturnReminder,
}

// String implements fmt.Stringer.
func (o OrderEventType) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderEventType.
func (o OrderEventType) IsValid() bool {
	for _, candidate := range validOrderEventTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderEventType converts raw input into a OrderEventType.
func ParseOrderEventType(value string) (OrderEventType, error) {
	for _, candidate := range validOrderEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order event type %q", value)
}
