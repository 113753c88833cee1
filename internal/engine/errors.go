package engine

import "errors"

// Operation rejection reasons. Handlers map these to client-facing
// responses, so keep them stable.
var (
	ErrNotFound           = errors.New("engine: no such entity")
	ErrInsufficientFunds  = errors.New("engine: insufficient funds")
	ErrInsufficientEnergy = errors.New("engine: insufficient energy")
	ErrActionInProgress   = errors.New("engine: action already in progress")
	ErrCooldownActive     = errors.New("engine: cooldown active")
	ErrRequirementNotMet  = errors.New("engine: requirement not met")
	ErrInsufficientForces = errors.New("engine: insufficient forces")
)
