package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrStatement           = errors.New("statement failed")
	ErrConnection          = errors.New("connection failed")
	ErrConfiguration       = errors.New("invalid configuration")
)
