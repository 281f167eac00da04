package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrForbidden indicates the actor may not perform the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidRequest indicates malformed or incomplete input.
	ErrInvalidRequest = errors.New("invalid request")

	ErrAuthenticationRequired = errors.New("authentication required")
	ErrEmptyCart              = errors.New("cart is empty")
	ErrMissingProductContext  = errors.New("product snapshot required for anonymous cart")
	ErrProductNotFound        = errors.New("product not found")
	ErrStorageUnavailable     = errors.New("storage unavailable")
	ErrInvalidQuantity        = errors.New("quantity must be positive")

	ErrOrderCreationFailed     = errors.New("order creation failed")
	ErrOrderLineCreationFailed = errors.New("order line creation failed")
	ErrInvalidShippingAddress  = errors.New("invalid shipping address")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
	ErrInsufficientStock       = errors.New("insufficient stock")
)
