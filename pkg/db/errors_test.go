package db

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "ux_coupon_usages_coupon_user"}
	assert.True(t, IsUniqueViolation(pgErr, ""))
	assert.True(t, IsUniqueViolation(pgErr, "ux_coupon_usages_coupon_user"))
	assert.False(t, IsUniqueViolation(pgErr, "ux_users_email"))

	pqErr := &pq.Error{Code: "23505", Constraint: "ux_users_email"}
	assert.True(t, IsUniqueViolation(pqErr, "ux_users_email"))

	assert.True(t, IsUniqueViolation(errors.New("UNIQUE constraint failed: users.email"), ""))
	assert.False(t, IsUniqueViolation(errors.New("connection refused"), ""))
	assert.False(t, IsUniqueViolation(nil, ""))
}

func TestIsForeignKeyViolation(t *testing.T) {
	assert.True(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, IsForeignKeyViolation(&pq.Error{Code: "23503"}))
	assert.True(t, IsForeignKeyViolation(errors.New("FOREIGN KEY constraint failed")))
	assert.False(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsForeignKeyViolation(nil))
}
