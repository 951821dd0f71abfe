package enums

import "fmt"

// PaymentTerm describes when an invoice is expected to be settled.
type PaymentTerm string

const (
	PaymentTermFullUpfront    PaymentTerm = "full_upfront"
	PaymentTermPartialUpfront PaymentTerm = "partial_upfront"
	PaymentTermAfterDelivery  PaymentTerm = "after_delivery"
)

var validPaymentTerms = []PaymentTerm{
	PaymentTermFullUpfront,
	PaymentTermPartialUpfront,
	PaymentTermAfterDelivery,
}

// String implements fmt.Stringer.
func (p PaymentTerm) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentTerm.
func (p PaymentTerm) IsValid() bool {
	for _, candidate := range validPaymentTerms {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentTerm converts raw input into a PaymentTerm.
func ParsePaymentTerm(value string) (PaymentTerm, error) {
	for _, candidate := range validPaymentTerms {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment term %q", value)
}
