package service

import (
	"errors"

	"ratehub/internal/http-api/repository"
)

// Expected negative outcomes are sentinel errors so handlers can map them to
// status codes with errors.Is. ErrAlreadyVoted and ErrInvalidValue are normal
// results of the vote gate, not failures; only ErrStorage signals that the
// persistence layer could not serve the request.
var (
	ErrInvalidValue    = repository.ErrInvalidValue
	ErrAlreadyVoted    = errors.New("already rated this item")
	ErrRatingsDisabled = errors.New("ratings are disabled for this item")
	ErrStorage         = errors.New("rating storage unavailable")
)
