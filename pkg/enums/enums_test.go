package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleCapabilities(t *testing.T) {
	assert.False(t, RoleCustomer.IsVendorOrAdmin())
	assert.True(t, RoleVendor.IsVendorOrAdmin())
	assert.True(t, RoleAdmin.IsVendorOrAdmin())
	assert.False(t, Role("superuser").IsVendorOrAdmin())

	assert.True(t, RoleVendor.SelfService())
	assert.False(t, RoleAdmin.SelfService())
}

func TestOrderStatusTerminal(t *testing.T) {
	for _, status := range []OrderStatus{OrderStatusPending, OrderStatusConfirmed, OrderStatusPickedUp, OrderStatusRented} {
		assert.False(t, status.IsTerminal(), status)
	}
	assert.True(t, OrderStatusReturned.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())
	assert.True(t, OrderStatusRented.IsOut())
	assert.False(t, OrderStatusConfirmed.IsOut())
}

func TestParseRejectsUnknownValues(t *testing.T) {
	status, err := ParseOrderStatus("picked_up")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusPickedUp, status)

	_, err = ParseOrderStatus("shipped")
	assert.Error(t, err)

	_, err = ParsePaymentMethod("bitcoin")
	assert.Error(t, err)

	method, err := ParsePaymentMethod("bank_transfer")
	require.NoError(t, err)
	assert.Equal(t, PaymentMethodBankTransfer, method)
}

func TestInvoiceStatusOutstanding(t *testing.T) {
	assert.True(t, InvoiceStatusDraft.IsOutstanding())
	assert.True(t, InvoiceStatusSent.IsOutstanding())
	assert.False(t, InvoiceStatusPartiallyPaid.IsOutstanding())
}
