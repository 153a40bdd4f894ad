package idgen

import "errors"

var (
	ErrClockMovedBackwards = errors.New("idgen: clock moved backwards")
	ErrInvalidLayout       = errors.New("idgen: not a time-ordered node id")
	ErrInvalidLength       = errors.New("idgen: id must be 16 bytes")
)
