package game

import "errors"

var (
	ErrInvalidAction   = errors.New("invalid action")
	ErrRoundOver       = errors.New("round is over, call Reset")
	ErrRoundNotStarted = errors.New("round not started, call Reset")
	ErrInvalidRules    = errors.New("invalid rules")
	ErrInvalidPlayer   = errors.New("invalid player")
)
