package clients

import "errors"

var (
	ErrInvalidScope = errors.New("invalid scope")
	ErrNotFound     = errors.New("client not found")
)
