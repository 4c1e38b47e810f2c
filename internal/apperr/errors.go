package apperr

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrInvalidScene      = errors.New("invalid scene")
	ErrMissingCredential = errors.New("missing generation credential")
	ErrMalformedContent  = errors.New("malformed generated content")
	ErrSuperseded        = errors.New("superseded by a newer request")
	ErrNotComplete       = errors.New("reveal not complete")
)
