package core

import "errors"

// Error defines.
var (
	ErrInvalidFrameLength = errors.New("logbuf: invalid frame length")
	ErrInvalidTermLength  = errors.New("logbuf: invalid term length")
	ErrInvalidMTU         = errors.New("logbuf: invalid mtu")
	ErrTermFull           = errors.New("logbuf: term is full")
	ErrCapacityExceeded   = errors.New("logbuf: buffer capacity exceeded")
	ErrNilHandler         = errors.New("logbuf: handler cannot be nil")
)
