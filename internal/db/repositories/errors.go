// Package repositories implements the persistence layer for Noteplane.
// Repositories hold raw SQL; business rules live in the service layer.
// Reads that find nothing return (nil, nil) rather than an error.
//
// Uniqueness invariants (one membership per user per tenant, one OWNER per
// tenant, unique slug/email, one pending invitation per tenant+email) are
// enforced by database constraints, not application-level checks, so
// concurrent requests cannot race past them. Callers detect constraint hits
// via IsUniqueViolation and translate them to Conflict.
package repositories

import (
	"errors"

	"github.com/lib/pq"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
