package repository

import "errors"

// Sentinel kinds for directory errors.
var (
	ErrNotFound       = errors.New("creator not found")
	ErrInvalidLimit   = errors.New("invalid leaderboard limit")
	ErrInvalidCreator = errors.New("creator id is required")
)
