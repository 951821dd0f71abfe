package checkout

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/rentease/rentease-backend/pkg/errors"
)

// LineValidationInput describes the data required to verify a rental line.
type LineValidationInput struct {
	LineID      uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
	StartDate   time.Time
	EndDate     time.Time
}

// LineViolationDetail exposes the data returned to callers when a validation fails.
type LineViolationDetail struct {
	LineID      uuid.UUID `json:"line_id"`
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name,omitempty"`
	Reason      string    `json:"reason"`
}

// ValidateLines ensures every line has a positive quantity and a non-empty window.
func ValidateLines(items []LineValidationInput) error {
	var violations []LineViolationDetail
	for _, item := range items {
		reason := ""
		switch {
		case item.Quantity < 1:
			reason = "quantity must be at least 1"
		case !item.StartDate.Before(item.EndDate):
			reason = "start date must be before end date"
		}
		if reason == "" {
			continue
		}
		violations = append(violations, LineViolationDetail{
			LineID:      item.LineID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Reason:      reason,
		})
	}
	if len(violations) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid rental line(s): %d", len(violations))).WithDetails(map[string]any{
		"violations": violations,
	})
}
