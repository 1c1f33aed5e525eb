package domain

import "errors"

var (
	ErrNotFound               = errors.New("not found")           // 404
	ErrInvalidArgument        = errors.New("invalid argument")    // 400
	ErrConflict               = errors.New("conflict")            // 409
	ErrInsufficientStock      = errors.New("insufficient stock")  // 409
	ErrEmptyCart              = errors.New("empty cart")          // 400
	ErrPaymentAmountMismatch  = errors.New("payment amount mismatch")
	ErrPaymentFailure         = errors.New("payment failure")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrReconciliationRequired = errors.New("reconciliation required")
)
