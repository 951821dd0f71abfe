package enums

import "fmt"

// QuotationStatus tracks a quotation from open cart to checkout.
type QuotationStatus string

const (
	QuotationStatusDraft     QuotationStatus = "draft"
	QuotationStatusSent      QuotationStatus = "sent"
	QuotationStatusConfirmed QuotationStatus = "confirmed"
	QuotationStatusCancelled QuotationStatus = "cancelled"
)

var validQuotationStatuses = []QuotationStatus{
	QuotationStatusDraft,
	QuotationStatusSent,
	QuotationStatusConfirmed,
	QuotationStatusCancelled,
}

// String implements fmt.Stringer.
func (q QuotationStatus) String() string {
	return string(q)
}

// IsValid reports whether the value is a known QuotationStatus.
func (q QuotationStatus) IsValid() bool {
	for _, candidate := range validQuotationStatuses {
		if candidate == q {
			return true
		}
	}
	return false
}

// ParseQuotationStatus converts raw input into a QuotationStatus.
func ParseQuotationStatus(value string) (QuotationStatus, error) {
	for _, candidate := range validQuotationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quotation status %q", value)
}
