// Package apperr holds sentinel errors shared across layers and mapped to
// HTTP statuses by the API.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidInput  = errors.New("invalid input")
)
