package domain

import "errors"

// Domain errors
var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrInternalError = errors.New("internal error")
	ErrLoanNotFound  = errors.New("loan not found")
	ErrAlertNotFound = errors.New("alert not found")
)

// Validation constants
const (
	MaxLoanIDLength   = 64
	MaxSectorLength   = 120
	MaxBorrowerLength = 200
)
