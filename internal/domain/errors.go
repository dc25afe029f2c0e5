package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork is returned when a fetch fails at the connection level
	// (DNS, refused, reset)
	ErrNetwork = errors.New("network failure")

	// ErrFetchTimeout is returned when a fetch exceeds its deadline
	ErrFetchTimeout = errors.New("fetch deadline exceeded")

	// ErrBlocked is returned when a response matches an anti-automation
	// challenge signature
	ErrBlocked = errors.New("anti-bot challenge detected")

	// ErrCacheMiss is returned when no fresh entry exists for a cache key
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")
)

// BlockedError carries the retailer identity and operator advice for an
// anti-bot challenge. It unwraps to ErrBlocked so callers can classify it.
type BlockedError struct {
	Retailer string
	Advice   string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Retailer, ErrBlocked, e.Advice)
}

func (e *BlockedError) Unwrap() error { return ErrBlocked }

// Retryable reports whether the attempt may succeed later. A blocked fetch
// always may, once the interactive challenge has been cleared out of band.
func (e *BlockedError) Retryable() bool { return true }
