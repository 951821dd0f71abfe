package orders

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

const (
	OrderNumberPrefix   = "RO"
	InvoiceNumberPrefix = "INV"

	maxNumberAttempts = 20
)

// FormatNumber renders prefix + YYYYMMDD + a random four digit suffix.
func FormatNumber(prefix string, at time.Time) string {
	return fmt.Sprintf("%s%s%04d", prefix, at.UTC().Format("20060102"), 1000+rand.IntN(9000))
}

// NextNumber draws numbers until exists reports a free one.
func NextNumber(ctx context.Context, prefix string, at time.Time, exists func(context.Context, string) (bool, error)) (string, error) {
	for range maxNumberAttempts {
		candidate := FormatNumber(prefix, at)
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free %s number for %s", prefix, at.UTC().Format("2006-01-02"))
}
