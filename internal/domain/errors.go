package domain

import "errors"

var (
	ErrNotFound              = errors.New("position not found")
	ErrAlreadyExists         = errors.New("already exists")
	ErrInvalidAccount        = errors.New("invalid account")
	ErrInvalidDuration       = errors.New("invalid lock duration")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrLockPeriodNotOver     = errors.New("lock period not over")
	ErrCorruptRecord         = errors.New("corrupt position record")
	ErrResolverUnset         = errors.New("metadata resolver unset")
)
