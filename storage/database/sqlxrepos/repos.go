// Package sqlxrepos implements the domain repositories against Postgres
// using sqlx.
package sqlxrepos

import "github.com/lib/pq"

// isUniqueViolation reports whether err is a Postgres unique-constraint violation.
func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}
