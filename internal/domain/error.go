package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrCodeNotFound    = errors.New("invalid or already used code")
	ErrVersionConflict = errors.New("document version conflict")
	ErrLockNotAcquired = errors.New("lease not acquired")
	ErrOperationFailed = errors.New("storage operation failed")
	ErrReadDatabaseRow = errors.New("failed to read database row")
)
