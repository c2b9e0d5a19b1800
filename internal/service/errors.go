package service

import "errors"

// Sentinel errors shared across services. Handlers translate these to HTTP
// status codes; everything else is treated as an internal error.
var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrDuplicatePayment   = errors.New("order already has a payment")
	ErrInvalidToken       = errors.New("invalid or expired token")
)
