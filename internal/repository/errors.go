package repository

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrNoInventory     = errors.New("not enough available inventory")
	ErrAlreadyReleased = errors.New("inventory already released")
)
