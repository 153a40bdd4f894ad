package app

import "errors"

var (
	ErrCountArgumentInvalid = errors.New("client: invalid NEXT count")
	ErrNodeArgumentInvalid  = errors.New("client: invalid node")
	ErrClientStateInvalid   = errors.New("client: invalid client state, you cannot execute this cmd now")
)
