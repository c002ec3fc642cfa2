package catalog

import "errors"

var (
	ErrInvalidName      = errors.New("invalid item name")
	ErrInvalidPrice     = errors.New("invalid item price")
	ErrDuplicateName    = errors.New("item already exists")
	ErrNotFound         = errors.New("item not found")
	ErrNegativeQuantity = errors.New("quantity cannot go below zero")
)
