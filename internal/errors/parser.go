package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Storage-error classification. Uniqueness and referential integrity are
// enforced at the storage level (not check-then-insert), so services need to
// recognize constraint violations coming back from the driver. Covers the
// Postgres error text (23505/23503) and the SQLite wording used in tests.

// IsUniqueViolation reports whether err is a unique-constraint violation.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "constraint failed: unique")
}

// IsForeignKeyViolation reports whether err is a foreign-key violation.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "foreign key constraint")
}

// IsCheckViolation reports whether err is a CHECK-constraint violation
// (non-positive amount or cooking time, self-subscription).
func IsCheckViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "check constraint")
}

// ErrorInfo is the classified form of a storage error.
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError translates a storage error into a response code and message
// without leaking driver internals to the client.
func ParseError(err error) ErrorInfo {
	switch {
	case err == nil:
		return ErrorInfo{Code: InternalServerError, Message: "An internal error occurred"}
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrorInfo{Code: ResourceNotFound, Message: "Requested resource was not found"}
	case IsUniqueViolation(err):
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "Resource already exists"}
	case IsForeignKeyViolation(err):
		return ErrorInfo{Code: ResourceConflict, Message: "Resource is referenced by other data"}
	case IsCheckViolation(err):
		return ErrorInfo{Code: ValidationInvalidRange, Message: "Value is out of the allowed range"}
	default:
		return ErrorInfo{Code: InternalDatabaseError, Message: "A database error occurred"}
	}
}
