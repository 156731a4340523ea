package errors

import "errors"

var (
	ErrGameNotFound           = errors.New("game not found")
	ErrGameNotInProgress      = errors.New("game not in progress")
	ErrGameNotInExpectedState = errors.New("game not in expected state")
	ErrIllegalMove            = errors.New("illegal move")
	ErrMoveOutOfOrder         = errors.New("move out of order")
	ErrCreateGameFailed       = errors.New("create game failed")
	ErrJoinGameFailed         = errors.New("join game failed")
	ErrNotAPlayer             = errors.New("user is not a player of this game")
	ErrStorage                = errors.New("storage error")
	ErrInternal               = errors.New("internal error")
)
