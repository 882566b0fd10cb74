package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrSpreadNotFinite  = errors.New("spread is not a finite number")
	ErrSpreadOutOfRange = errors.New("spread exceeds sanity ceiling")
	ErrWSDisconnect     = errors.New("websocket disconnected")
	ErrNotConnected     = errors.New("not connected")
)
