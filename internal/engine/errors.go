package engine

import (
	"errors"

	"rateAdjuster/internal/fixedpoint"
)

var (
	// ErrUnauthorized is returned when a setter is called by anyone other
	// than the configured authority.
	ErrUnauthorized = errors.New("caller is not the authority")
	// ErrNoOracleBound is returned when a rate is requested for a pool with
	// no base rate oracle binding.
	ErrNoOracleBound = errors.New("no base rate oracle bound to pool")
	// ErrCollaboratorUnavailable wraps failures reading an oracle or pool.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
	// ErrOverflow is returned instead of wrapping 256-bit arithmetic.
	ErrOverflow = fixedpoint.ErrOverflow
	// ErrInvalidLiquidRatio is returned for a pool liquid ratio above 10000 bps.
	ErrInvalidLiquidRatio = errors.New("liquid ratio above 10000 bps")
)
