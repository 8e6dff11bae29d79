// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package opserr defines the typed error kinds reported by the dispatcher and
// by every operation. Each error is a *cuserr.CustomError whose Message is
// the text written to the msg field and whose metadata carries the kind.
package opserr

import (
	"errors"
	"fmt"

	"github.com/itsatony/go-cuserr"
)

// Kind classifies an error. Its string form is written to the code field.
type Kind string

const (
	KindArguments      Kind = "arguments"
	KindDecode         Kind = "decode"
	KindResolution     Kind = "resolution"
	KindValidation     Kind = "validation"
	KindNotFound       Kind = "not_found"
	KindAuthentication Kind = "authentication"
	KindBackend        Kind = "backend"
	KindInternal       Kind = "internal"
)

// Error codes passed to cuserr, one per kind.
const (
	ErrCodeArguments      = "DOCOPS_ARGUMENTS"
	ErrCodeDecode         = "DOCOPS_DECODE"
	ErrCodeResolution     = "DOCOPS_RESOLUTION"
	ErrCodeValidation     = "DOCOPS_VALIDATION"
	ErrCodeNotFound       = "DOCOPS_NOT_FOUND"
	ErrCodeAuthentication = "DOCOPS_AUTHENTICATION"
	ErrCodeBackend        = "DOCOPS_BACKEND"
	ErrCodeInternal       = "DOCOPS_INTERNAL"
)

// Metadata keys for cuserr.WithMetadata.
const (
	MetaKeyKind      = "kind"
	MetaKeyKey       = "key"
	MetaKeyPath      = "path"
	MetaKeyTarget    = "target"
	MetaKeyOperation = "operation"
	MetaKeyBackend   = "backend"
)

// Message constants.
const (
	ErrMsgInsufficientArgs = "insufficient arguments: usage: docops <target> <operation> <json-payload>"
	ErrMsgInvalidPayload   = "invalid payload"
	ErrMsgUnknownTarget    = "operation group %q not found"
	ErrMsgUnknownOperation = "operation %q not found in group %q"
	ErrMsgMissingKey       = "missing required payload key %q"
	ErrMsgInputNotFound    = "input file not found: %s"
	ErrMsgOperationPanic   = "operation panicked: %v"
)

type kindInfo struct {
	code     string
	category cuserr.ErrorCategory
}

var kinds = map[Kind]kindInfo{
	KindArguments:      {ErrCodeArguments, cuserr.ErrorCategoryValidation},
	KindDecode:         {ErrCodeDecode, cuserr.ErrorCategoryValidation},
	KindResolution:     {ErrCodeResolution, cuserr.ErrorCategoryNotFound},
	KindValidation:     {ErrCodeValidation, cuserr.ErrorCategoryValidation},
	KindNotFound:       {ErrCodeNotFound, cuserr.ErrorCategoryNotFound},
	KindAuthentication: {ErrCodeAuthentication, cuserr.ErrorCategoryUnauthorized},
	KindBackend:        {ErrCodeBackend, cuserr.ErrorCategoryExternal},
	KindInternal:       {ErrCodeInternal, cuserr.ErrorCategoryInternal},
}

// New creates an error of the given kind. When cause is non-nil it stays
// reachable through errors.Is and errors.As.
func New(kind Kind, msg string, cause error) *cuserr.CustomError {
	info, ok := kinds[kind]
	if !ok {
		kind, info = KindInternal, kinds[KindInternal]
	}
	var err *cuserr.CustomError
	if cause != nil {
		err = cuserr.WrapWithCustomError(cause, info.category, info.code, msg)
	} else {
		err = cuserr.NewCustomErrorWithCategory(info.category, info.code, msg)
	}
	return err.WithMetadata(MetaKeyKind, string(kind))
}

// Newf is New with a formatted message and no cause.
func Newf(kind Kind, format string, args ...any) *cuserr.CustomError {
	return New(kind, fmt.Sprintf(format, args...), nil)
}

// KindOf returns the kind carried by err, or KindInternal for errors that
// were not built by this package.
func KindOf(err error) Kind {
	var ce *cuserr.CustomError
	if errors.As(err, &ce) {
		if k, ok := ce.GetMetadata(MetaKeyKind); ok {
			return Kind(k)
		}
	}
	return KindInternal
}

// HasKind reports whether err was built by this package.
func HasKind(err error) bool {
	var ce *cuserr.CustomError
	if !errors.As(err, &ce) {
		return false
	}
	_, ok := ce.GetMetadata(MetaKeyKind)
	return ok
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the human-readable message for err, without any code
// decoration added by the underlying error type.
func Message(err error) string {
	var ce *cuserr.CustomError
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	return err.Error()
}

// InsufficientArguments is returned when fewer than three positional
// arguments are supplied.
func InsufficientArguments(got int) error {
	return New(KindArguments, ErrMsgInsufficientArgs, nil).
		WithMetadata("got", fmt.Sprint(got))
}

// InvalidPayload wraps a JSON decode failure.
func InvalidPayload(cause error) error {
	return New(KindDecode, fmt.Sprintf("%s: %v", ErrMsgInvalidPayload, cause), cause)
}

// UnknownTarget names the missing operation group.
func UnknownTarget(target string) error {
	return Newf(KindResolution, ErrMsgUnknownTarget, target).
		WithMetadata(MetaKeyTarget, target)
}

// UnknownOperation names the missing operation and its group.
func UnknownOperation(target, operation string) error {
	return Newf(KindResolution, ErrMsgUnknownOperation, operation, target).
		WithMetadata(MetaKeyTarget, target).
		WithMetadata(MetaKeyOperation, operation)
}

// MissingKey reports a required payload key that is absent or empty.
func MissingKey(key string) error {
	return Newf(KindValidation, ErrMsgMissingKey, key).
		WithMetadata(MetaKeyKey, key)
}

// Invalid reports malformed input.
func Invalid(format string, args ...any) error {
	return Newf(KindValidation, format, args...)
}

// InputNotFound reports a referenced input path that does not exist.
func InputNotFound(path string) error {
	return Newf(KindNotFound, ErrMsgInputNotFound, path).
		WithMetadata(MetaKeyPath, path)
}

// Authentication reports a password that does not open the document.
func Authentication(msg string, cause error) error {
	return New(KindAuthentication, msg, cause)
}

// Backend reports a failure in the underlying library or external tool.
func Backend(backend, msg string, cause error) error {
	return New(KindBackend, msg, cause).
		WithMetadata(MetaKeyBackend, backend)
}

// Panic converts a recovered panic value.
func Panic(v any) error {
	return Newf(KindInternal, ErrMsgOperationPanic, v)
}
