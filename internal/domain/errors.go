package domain

import "errors"

// Validation errors: rejected before any state change.
var (
	ErrMarketNotFound    = errors.New("market not found")
	ErrInvalidAmount     = errors.New("stake amount must be positive")
	ErrInvalidCity       = errors.New("city must not be empty")
	ErrInvalidThreshold  = errors.New("threshold must be a non-negative integer")
	ErrInvalidCondition  = errors.New("unknown weather condition")
	ErrInvalidOperator   = errors.New("unknown comparison operator")
	ErrResolutionInPast = errors.New("resolution time must be in the future")
)

// State-conflict errors: the operation is well-formed but the market or
// position is in a state that forbids it.
var (
	ErrMarketNotOpen     = errors.New("market is not open")
	ErrMarketNotResolved = errors.New("market is not resolved")
	ErrDuplicatePosition = errors.New("participant already holds a position in this market")
	ErrNoPosition        = errors.New("no position in this market")
	ErrAlreadyClaimed    = errors.New("winnings already claimed")
	ErrAlreadyExited     = errors.New("position already exited")
	ErrNotAWinner        = errors.New("position is not on the winning side")
	ErrTooEarly          = errors.New("resolution time has not been reached")
	ErrAlreadyResolved   = errors.New("market already resolved or cancelled")
)

// Infrastructure errors shared across stores, caches, and services.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrLockHeld     = errors.New("lock already held")
	ErrRateLimited  = errors.New("rate limited")
)
