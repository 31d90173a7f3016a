package dberrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassifiesPgErrors(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: CodeUniqueViolation})
	assert.True(t, IsUniqueViolation(unique))
	assert.False(t, IsConnectionError(unique))

	badUUID := &pgconn.PgError{Code: CodeInvalidTextRepresentation}
	assert.True(t, IsInvalidTextRepresentation(badUUID))
	assert.False(t, IsUniqueViolation(badUUID))

	assert.True(t, IsConnectionError(&pgconn.PgError{Code: CodeAdminShutdown}))
}

func TestIsConnectionErrorOnPlainErrors(t *testing.T) {
	assert.False(t, IsConnectionError(nil))
	assert.False(t, IsConnectionError(errors.New("syntax error")))
}
