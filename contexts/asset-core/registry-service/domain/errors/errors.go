package errors

import "errors"

var (
	ErrUnauthorized           = errors.New("caller is not the privileged owner")
	ErrAssetAlreadyRegistered = errors.New("asset identifier is already registered")
	ErrAssetNotFound          = errors.New("asset not found")
	ErrInvalidRegistration    = errors.New("asset registration input is invalid")
	ErrInvalidListFilter      = errors.New("invalid list filter")
)
