package dice

import "errors"

var (
	ErrEmptyCollection   = errors.New("collection has no dice")
	ErrInvalidSides      = errors.New("die side count must be positive")
	ErrInvalidTarget     = errors.New("target sum must be positive")
	ErrUnknownCollection = errors.New("unknown dice collection")
)
