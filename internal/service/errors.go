package service

import "errors"

// Domain validation outcomes. All of these are recovered at the call site and
// rendered as user-facing text; none of them is fatal. Store failures are
// wrapped separately and logged.
var (
	ErrPlayerNotFound     = errors.New("player not found")
	ErrSoulNotInitialized = errors.New("soul not initialized")
	ErrInsufficientSoul   = errors.New("insufficient soul")
	ErrCooldownActive     = errors.New("resurrection cooldown active")
	ErrEnergyInsufficient = errors.New("not enough energy")
	ErrSoulDepleted       = errors.New("soul depleted")
	ErrNotYourTurn        = errors.New("not your turn")
	ErrMatchNotFound      = errors.New("match not found")
	ErrSelfMatch          = errors.New("cannot fight yourself")
	ErrHackCooldown       = errors.New("hack cooldown active")
	ErrTargetNotFallen    = errors.New("target soul is not depleted")
)
