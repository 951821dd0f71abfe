package enums

import "fmt"

// ReservationStatus tracks whether an inventory reservation still holds stock.
type ReservationStatus string

const (
	ReservationStatusActive   ReservationStatus = "active"
	ReservationStatusReleased ReservationStatus = "released"
)

var validReservationStatuses = []ReservationStatus{
	ReservationStatusActive,
	ReservationStatusReleased,
}

// String implements fmt.Stringer.
func (r ReservationStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ReservationStatus.
func (r ReservationStatus) IsValid() bool {
	for _, candidate := range validReservationStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReservationStatus converts raw input into a ReservationStatus.
func ParseReservationStatus(value string) (ReservationStatus, error) {
	for _, candidate := range validReservationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reservation status %q", value)
}
