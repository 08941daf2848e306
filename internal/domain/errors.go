package domain

import "errors"

var (
	ErrAccountNotFound       = errors.New("account not found")
	ErrAccountSuspended      = errors.New("account suspended")
	ErrEmailTaken            = errors.New("email already registered")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrJobNotFound           = errors.New("job not found")
	ErrJobTerminal           = errors.New("job is terminal")
	ErrEngineUnavailable     = errors.New("engine unavailable")
	ErrEngineOperationFailed = errors.New("engine operation failed")
)
