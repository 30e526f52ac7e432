package service

import "errors"

var (
	// ErrNotFound is returned when an event has no score or session
	ErrNotFound = errors.New("not found")

	// ErrInvalidRequest is returned for malformed caller input
	ErrInvalidRequest = errors.New("invalid request")
)
