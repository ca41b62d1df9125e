package domain

import "errors"

var (
	// ErrNotFound is returned when the chain node or the store has no such block, receipt or record
	ErrNotFound = errors.New("not found")

	// ErrInvalidAddress is returned for strings that are not 20-byte hex addresses
	ErrInvalidAddress = errors.New("invalid address")
)
