package services

import "errors"

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	// ErrProductUnresolved means the product price could not be looked up.
	ErrProductUnresolved = errors.New("product price could not be resolved")
	// ErrOrderNotFound covers both a missing order and one owned by someone else.
	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")
)
