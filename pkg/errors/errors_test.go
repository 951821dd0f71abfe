package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized},
		{code: CodeForbidden, status: http.StatusForbidden},
		{code: CodeNotFound, status: http.StatusNotFound},
		{code: CodeConflict, status: http.StatusConflict},
		{code: CodeUnavailable, status: http.StatusConflict, detailsOK: true},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		assert.Equal(t, tt.status, meta.HTTPStatus, string(tt.code))
		assert.Equal(t, tt.retryable, meta.Retryable, string(tt.code))
		assert.Equal(t, tt.detailsOK, meta.DetailsAllowed, string(tt.code))
		assert.NotEmpty(t, meta.PublicMessage, string(tt.code))
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	assert.Equal(t, http.StatusInternalServerError, meta.HTTPStatus)
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("db down")
	err := Wrap(CodeInternal, cause, "load order")

	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "load order")
	assert.Contains(t, err.Error(), "db down")
}

func TestAsFindsTypedErrorThroughWrapping(t *testing.T) {
	base := New(CodeNotFound, "order not found").WithDetails(map[string]string{"order_id": "x"})
	wrapped := fmt.Errorf("handler: %w", base)

	typed := As(wrapped)
	require.NotNil(t, typed)
	assert.Equal(t, CodeNotFound, typed.Code())
	assert.True(t, IsCode(wrapped, CodeNotFound))
	assert.False(t, IsCode(wrapped, CodeConflict))
	assert.Nil(t, As(stdErrors.New("plain")))
}

func TestPostgresDiagnosticsFromEitherDriver(t *testing.T) {
	pgx := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "ux_users_email", TableName: "users"})
	diag, ok := Postgres(pgx)
	require.True(t, ok)
	assert.Equal(t, "23505", diag.Code)
	assert.Equal(t, "ux_users_email", diag.Constraint)
	assert.Equal(t, "users", diag.Table)

	diag, ok = Postgres(&pq.Error{Code: "23503", Constraint: "fk_order_lines_product"})
	require.True(t, ok)
	assert.Equal(t, "23503", diag.Code)

	_, ok = Postgres(stdErrors.New("plain"))
	assert.False(t, ok)
}

func TestDumpIncludesCodeChainAndPostgres(t *testing.T) {
	cause := &pgconn.PgError{Code: "23505", ConstraintName: "ux_coupons_code", Message: "duplicate key value"}
	err := Wrap(CodeConflict, cause, "create coupon")

	dump := Dump(err)
	assert.Equal(t, CodeConflict, dump.Code)
	assert.Equal(t, "23505", dump.PGCode)
	assert.Equal(t, "ux_coupons_code", dump.PGConstraint)
	assert.Len(t, dump.Chain, 2)
	assert.Equal(t, ErrorDump{}, Dump(nil))
}
