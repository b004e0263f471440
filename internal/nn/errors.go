package nn

import "errors"

var (
	ErrInvalidConfig = errors.New("invalid network config")
	ErrShapeMismatch = errors.New("shape mismatch")
	ErrEmptyBatch    = errors.New("empty training batch")
	ErrInvalidAction = errors.New("action index out of range")
)
