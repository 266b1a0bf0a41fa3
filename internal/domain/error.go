package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrRecordMismatch  = errors.New("directory record mismatch")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrDuplicateUpdate = errors.New("update already processed")
)
