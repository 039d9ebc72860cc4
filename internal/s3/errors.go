package s3

import "errors"

// Common object-store errors.
var (
	// ErrNotFound is returned when an object does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the store rejects the request
	// signature — usually bad credentials or clock skew.
	ErrForbidden = errors.New("forbidden — check access keys and region")
)
