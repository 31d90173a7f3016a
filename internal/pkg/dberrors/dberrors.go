package dberrors

import (
	"errors"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes the document store cares about.
const (
	CodeUniqueViolation           = "23505"
	CodeInvalidTextRepresentation = "22P02"
	CodeConnectionException       = "08000"
	CodeConnectionFailure         = "08006"
	CodeAdminShutdown             = "57P01"
	CodeCannotConnectNow          = "57P03"
)

func pgCode(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, true
	}
	return "", false
}

// IsUniqueViolation reports a unique_violation on any constraint or index.
func IsUniqueViolation(err error) bool {
	code, ok := pgCode(err)
	return ok && code == CodeUniqueViolation
}

// IsInvalidTextRepresentation is raised when a malformed uuid reaches the server.
func IsInvalidTextRepresentation(err error) bool {
	code, ok := pgCode(err)
	return ok && code == CodeInvalidTextRepresentation
}

// IsConnectionError reports whether the server could not be reached or
// dropped the session.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := pgCode(err); ok {
		switch code {
		case CodeConnectionException, CodeConnectionFailure, CodeAdminShutdown, CodeCannotConnectNow:
			return true
		}
		return false
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
