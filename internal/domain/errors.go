package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrRateLimited   = errors.New("rate limited")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInvalidOrder  = errors.New("invalid order parameters")
	ErrSigningFailed = errors.New("signing failed")
	ErrWSDisconnect  = errors.New("websocket disconnected")
	ErrContextDone   = errors.New("context cancelled")
	ErrLockHeld      = errors.New("lock already held")

	// Error taxonomy for venue I/O, per the executor's typed-failure
	// handling (quote-side errors are non-fatal; order-side errors on
	// leg 1 skip the trade; on leg 2 they trigger unwind).
	ErrTransport             = errors.New("transport error")
	ErrAuth                  = errors.New("auth error")
	ErrVenueProtocol         = errors.New("unexpected venue response schema")
	ErrOrderRejected         = errors.New("order rejected by venue")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity after book walk")
	ErrBalanceLow            = errors.New("balance below minimum order size")
	ErrValidation            = errors.New("validation failed")
)
