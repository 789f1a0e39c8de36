package models

import (
	"errors"
	"fmt"
)

// MaxPasswordBytes is the longest password bcrypt can hash
const MaxPasswordBytes = 72

// Domain errors. Handlers turn every one of them into a notice and a redirect.
var (
	ErrStoreUnavailable    = errors.New("store unavailable")
	ErrDuplicateUser       = errors.New("username already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrDuplicateBook       = errors.New("book already exists")
	ErrAlreadyBorrowed     = errors.New("book is already borrowed")
	ErrNotBorrowedByCaller = errors.New("book was not borrowed by caller")
	ErrBookNotFound        = errors.New("book not found")
	ErrInvalidInput        = errors.New("invalid input")
)

// ErrPasswordTooLong is an ErrInvalidInput for passwords over MaxPasswordBytes
var ErrPasswordTooLong = fmt.Errorf("password longer than %d bytes: %w", MaxPasswordBytes, ErrInvalidInput)
