package domain

import "errors"

var (
	// ErrInternalServerError will throw if any Internal Server Error happens
	ErrInternalServerError = errors.New("internal server error")
	// ErrNotFound will throw if the requested record does not exist
	ErrNotFound = errors.New("requested record not found")
	// ErrBadParamInput will throw if the given request body or params are not valid
	ErrBadParamInput = errors.New("given param is not valid")

	// ErrInvalidPrice rejects listings created with a zero price
	ErrInvalidPrice = errors.New("listing price must be greater than zero")
	// ErrNotAvailable rejects operations against a listing that already left AVAILABLE
	ErrNotAvailable = errors.New("listing is not available")
	// ErrAmountMismatch rejects purchases whose attached value differs from the asking price
	ErrAmountMismatch = errors.New("paid amount does not match listing price")
	// ErrSelfPurchase rejects sellers buying their own listings
	ErrSelfPurchase = errors.New("cannot purchase own listing")
	// ErrUnauthorized rejects callers lacking the required role for the record
	ErrUnauthorized = errors.New("caller is not permitted to perform this operation")
	// ErrAlreadyExists rejects opening a second escrow transaction for the same listing
	ErrAlreadyExists = errors.New("transaction already exists")
	// ErrAlreadyComplete rejects releasing an escrow transaction twice
	ErrAlreadyComplete = errors.New("transaction already complete")
	// ErrInvalidTransition rejects status changes that leave a terminal status
	ErrInvalidTransition = errors.New("invalid status transition")

	ErrInvalidNumberFormat = errors.New("invalid number format")
	ErrInvalidAddress      = errors.New("invalid address")
	ErrInvalidSignature    = errors.New("invalid signature")
)
