package policy

import "github.com/pkg/errors"

var (
	ErrCorruptArtifact     = errors.New("corrupt policy artifact")
	ErrUnsupportedVersion  = errors.New("unsupported policy artifact version")
	ErrCollectionMismatch  = errors.New("policy was trained on a different dice collection")
	ErrDimensionMismatch   = errors.New("policy dimensions do not match the collection")
	ErrMissingArtifactFile = errors.New("policy artifact file not found")
)
