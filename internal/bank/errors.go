package bank

import "errors"

var (
	// ErrAccountNotFound means no account exists for the user id.
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountExists means enrollment tried to create a duplicate account.
	ErrAccountExists = errors.New("account already exists")
)
