// Package common defines shared constants and sentinel errors used across
// the TradexInvest server layers. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound       = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrAlreadyProcessed = errors.New("already processed")

	// Service-level errors.
	ErrorInternal        = errors.New("internal error")
	ErrValidation        = errors.New("validation error")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrTooManyRequests   = errors.New("too many requests")

	// Authentication errors. ErrInvalidCredentials is returned for both an
	// unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidCode        = errors.New("invalid 2fa code")
	ErrForbidden          = errors.New("forbidden")

	// Token errors (invalid, malformed or expired).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
