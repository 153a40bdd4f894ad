package server

import "errors"

var (
	ErrInvalidArgs         = errors.New("sortid: invalid arguments")
	ErrClockMovedBackwards = errors.New("sortid: clock moved backwards, retry later")
	ErrMalformedID         = errors.New("sortid: malformed id")
)
