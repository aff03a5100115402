package types

import "github.com/roomsync/roomsync-client/errors"

// FieldError is one entry of a response's structured errors array.
type FieldError = errors.FieldError

// Envelope is the uniform wrapper every RoomSync REST response uses.
type Envelope[T any] struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    T            `json:"data,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// Page carries the limit/offset pair passed straight through to list endpoints.
type Page struct {
	Limit  int
	Offset int
}
