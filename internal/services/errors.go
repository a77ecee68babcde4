package services

import "errors"

// Sentinel errors returned by the service layer. Handlers map these onto
// HTTP status codes.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrBuyerNotFound      = errors.New("buyer not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrDuplicateUser      = errors.New("username, email or national id already registered")
	ErrDuplicateProduct   = errors.New("product name already registered")
	ErrInvalidLineItems   = errors.New("one or more products do not exist")
	ErrEmptyOrder         = errors.New("order has no line items")
	ErrBackLinkFailed     = errors.New("order created but not linked to buyer")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNothingUpdated     = errors.New("no fields were updated")
)
