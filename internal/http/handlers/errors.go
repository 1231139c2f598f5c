// Package handlers defines the HTTP-layer error codes used by the webhook
// listener. Codes are lowercase snake_case and stable; clients branch on the
// code, not the message. The middleware package owns the codes it emits
// itself ("rate_limited", "internal_error"); it cannot import this package
// without a cycle.
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeMissingSignature = "missing_signature"
	ErrCodeInvalidSignature = "invalid_signature"
)
