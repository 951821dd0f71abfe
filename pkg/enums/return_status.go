package enums

import "fmt"

// ReturnStatus summarises how an order stands against its return date.
type ReturnStatus string

const (
	ReturnStatusReturned    ReturnStatus = "returned"
	ReturnStatusOverdue     ReturnStatus = "overdue"
	ReturnStatusApproaching ReturnStatus = "approaching"
	ReturnStatusNormal      ReturnStatus = "normal"
)

var validReturnStatuses = []ReturnStatus{
	ReturnStatusReturned,
	ReturnStatusOverdue,
	ReturnStatusApproaching,
	ReturnStatusNormal,
}

// String implements fmt.Stringer.
func (r ReturnStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ReturnStatus.
func (r ReturnStatus) IsValid() bool {
	for _, candidate := range validReturnStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReturnStatus converts raw input into a ReturnStatus.
func ParseReturnStatus(value string) (ReturnStatus, error) {
	for _, candidate := range validReturnStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid return status %q", value)
}
