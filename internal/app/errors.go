package app

import "errors"

var (
	ErrSessionReadOnly = errors.New("session is read-only")
	ErrNoSession       = errors.New("no open session for key")
	ErrNoWorker        = errors.New("no worker selected")
)
