package errors

import "errors"

var (
	ErrUnauthorized          = errors.New("caller is not the privileged owner")
	ErrInvalidCommissionRate = errors.New("commission rate must be below 10000 basis points")
	ErrInvalidCurrency       = errors.New("currency address is invalid")
	ErrPolicyNotInitialized  = errors.New("policy state is not initialized")
)
