// Package services implements the payment-to-access business logic: the
// payment approval state machine, invite issuance, the join gatekeeper, and
// the admin operations that mutate operator configuration.
//
// This file centralizes service-level error values so they can be returned
// consistently by service methods and translated into user-facing messages
// at the bot/HTTP layer.
package services

import "errors"

var (
	// ErrNotAdmin is returned when a non-admin identity invokes an
	// admin-only operation. Callers must reject silently to the actor;
	// the attempt is logged here.
	ErrNotAdmin = errors.New("not authorized")

	// ErrPaymentNotFound is returned when an approve/decline/send references
	// a payment id that is not in the active set: unknown, already delivered,
	// or already declined. The operation is an idempotent no-op.
	ErrPaymentNotFound = errors.New("payment not found or already processed")

	// ErrNoInviteLinks is returned by the send step when no links exist for
	// the pending payment, typically because issuance failed earlier. The
	// admin should retry creation rather than silently delivering nothing.
	ErrNoInviteLinks = errors.New("no invite links available for this user")

	// ErrInvalidPlan is returned when a plan argument is not vip, dark or both.
	ErrInvalidPlan = errors.New("invalid plan")

	// ErrInvalidMethod is returned when a payment method argument is not
	// upi, crypto or remitly.
	ErrInvalidMethod = errors.New("invalid method")

	// ErrInvalidChannelID is returned by channel setters when the argument
	// does not parse as an integer chat identifier.
	ErrInvalidChannelID = errors.New("channel id must be an integer")

	// ErrInvalidAmount is returned by the price setter when the amount does
	// not parse as a number.
	ErrInvalidAmount = errors.New("amount must be a number")

	// ErrAuditUnavailable is returned by the webhook audit report when the
	// process runs without the audit database.
	ErrAuditUnavailable = errors.New("webhook audit database not available")
)
