package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates that the resource is in a state that forbids the requested operation.
var ErrConflict = errors.New("operation conflicts with resource state")

// ErrConcurrentModification indicates that the resource was modified by another
// writer between read and write. Callers must not retry blindly.
var ErrConcurrentModification = errors.New("resource was concurrently modified")

// ErrInternal indicates an unexpected infrastructure failure.
var ErrInternal = errors.New("internal error")
