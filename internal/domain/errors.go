package domain

import "errors"

var (
	ErrInvalidKey      = errors.New("invalid path key")
	ErrInvalidWorker   = errors.New("invalid worker")
	ErrInvalidFilename = errors.New("invalid filename")
	ErrMissingHeaders  = errors.New("missing assignment headers")
)
