// Package cli implements the command-line interface.
package cli

import (
	"errors"

	"github.com/scorchdb/scorch/internal/query"
	"github.com/scorchdb/scorch/internal/stixpat"
	"github.com/scorchdb/scorch/internal/storage"
	"github.com/scorchdb/scorch/internal/validate"
)

// Error codes for structured error responses.
// These codes are stable and can be relied upon by scripts.
const (
	// Configuration errors
	ErrConfigInvalid = "CONFIG_INVALID"
	ErrRefMapInvalid = "REF_MAP_INVALID"

	// Store errors
	ErrDatabaseError = "DATABASE_ERROR"
	ErrViewNotFound  = "VIEW_NOT_FOUND"
	ErrAttrInvalid   = "INVALID_ATTRIBUTE"
	ErrTypeMismatch  = "INCOMPATIBLE_TYPE"
	ErrObjectInvalid = "INVALID_OBJECT"

	// Pattern errors
	ErrPatternInvalid      = "PATTERN_INVALID"
	ErrOperatorUnsupported = "OPERATOR_UNSUPPORTED"

	// Input errors
	ErrNameInvalid     = "INVALID_NAME"
	ErrQueryInvalid    = "QUERY_INVALID"
	ErrInvalidInput    = "INVALID_INPUT"
	ErrMissingArgument = "MISSING_ARGUMENT"
	ErrFileReadError   = "FILE_READ_ERROR"

	// General errors
	ErrInternal = "INTERNAL_ERROR"
)

// errorCode maps a store or compiler error to its stable code.
func errorCode(err error) string {
	var (
		unknownView *storage.UnknownViewError
		invalidAttr *storage.InvalidAttrError
		incompat    *storage.IncompatibleTypeError
		badObject   *storage.InvalidObjectError
		badName     *validate.InvalidNameError
		badPath     *validate.InvalidPathError
		patErr      *stixpat.PatternError
		unsupported *stixpat.UnsupportedOperatorError
		badQuery    *query.InvalidQueryError
	)
	switch {
	case errors.As(err, &unknownView):
		return ErrViewNotFound
	case errors.As(err, &invalidAttr):
		return ErrAttrInvalid
	case errors.As(err, &incompat):
		return ErrTypeMismatch
	case errors.As(err, &badObject):
		return ErrObjectInvalid
	case errors.As(err, &badName), errors.As(err, &badPath):
		return ErrNameInvalid
	case errors.As(err, &unsupported):
		return ErrOperatorUnsupported
	case errors.As(err, &patErr):
		return ErrPatternInvalid
	case errors.As(err, &badQuery):
		return ErrQueryInvalid
	default:
		return ErrDatabaseError
	}
}

// errorSuggestion returns a hint matching the error, or "".
func errorSuggestion(err error) string {
	switch errorCode(err) {
	case ErrViewNotFound:
		return "Run 'scorch views' to list registered views"
	case ErrAttrInvalid:
		return "Run 'scorch lookup <view> --limit 1' to see available columns"
	case ErrPatternInvalid:
		return "Patterns look like [ipv4-addr:value = '9.9.9.9']"
	default:
		return ""
	}
}

// storeError routes an error from the store through the coded handler.
func storeError(err error) error {
	return handleError(errorCode(err), err, errorSuggestion(err))
}
