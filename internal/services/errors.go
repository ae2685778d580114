package services

import "errors"

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidRange       = errors.New("invalid bet range")
	ErrInvalidCoefficient = errors.New("invalid coefficient")
	ErrInvalidChoice      = errors.New("invalid choice")
	ErrDuplicateSeed      = errors.New("duplicate seed")
	ErrOutOfRange         = errors.New("stake out of range")
	ErrNoSuchGame         = errors.New("no such game")
	ErrAlreadyConfirmed   = errors.New("game already confirmed")
	ErrBadSignature       = errors.New("bad signature")

	ErrInsufficientTreasury = errors.New("insufficient treasury")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrInsufficientFunds    = errors.New("insufficient funds")
)
