package settings

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentease/rentease-backend/internal/testdb"
	"github.com/rentease/rentease-backend/pkg/config"
	pkgerrors "github.com/rentease/rentease-backend/pkg/errors"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(NewRepository(testdb.Open(t)), config.RentalConfig{
		TaxRate:          decimal.RequireFromString("18"),
		SecurityDeposit:  decimal.RequireFromString("1000"),
		LateFeeDailyRate: decimal.RequireFromString("100"),
	})
	require.NoError(t, err)
	return svc
}

func TestRatesFallBackToDefaults(t *testing.T) {
	rates, err := newTestService(t).Rates(context.Background())
	require.NoError(t, err)
	assert.True(t, rates.TaxRate.Equal(decimal.NewFromInt(18)))
	assert.True(t, rates.SecurityDeposit.Equal(decimal.NewFromInt(1000)))
	assert.True(t, rates.LateFeeDailyRate.Equal(decimal.NewFromInt(100)))
}

func TestPutOverridesRate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Put(ctx, PutRequest{Key: KeySecurityDeposit, Value: "500"})
	require.NoError(t, err)
	_, err = svc.Put(ctx, PutRequest{Key: KeySecurityDeposit, Value: "750.5"})
	require.NoError(t, err)

	rates, err := svc.Rates(ctx)
	require.NoError(t, err)
	assert.Equal(t, "750.50", rates.SecurityDeposit.StringFixed(2))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, KeyLateFeeDailyRate, list[0].Key)
	assert.Equal(t, "750.50", list[1].Value)
}

func TestPutValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, req := range []PutRequest{
		{Key: KeyTaxRate, Value: "101"},
		{Key: KeyTaxRate, Value: "-1"},
		{Key: "currency", Value: "1"},
		{Key: KeyLateFeeDailyRate, Value: "abc"},
	} {
		_, err := svc.Put(ctx, req)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "request %+v", req)
	}
}
