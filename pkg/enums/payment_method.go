package enums

import "fmt"

// PaymentMethod describes how a payment was settled.
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodUPI          PaymentMethod = "upi"
	PaymentMethodNetBanking   PaymentMethod = "netbanking"
	PaymentMethodWallet       PaymentMethod = "wallet"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodMock         PaymentMethod = "mock"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCash,
	PaymentMethodCard,
	PaymentMethodUPI,
	PaymentMethodNetBanking,
	PaymentMethodWallet,
	PaymentMethodBankTransfer,
	PaymentMethodMock,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
