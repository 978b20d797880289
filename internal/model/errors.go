package model

import "errors"

// Common errors used across the application
var (
	// Request errors
	ErrInvalidRequest     = errors.New("invalid request")
	ErrInvalidSessionName = errors.New("invalid server name")

	// Registry errors
	ErrSessionNotFound = errors.New("server not found")
	ErrSessionExists   = errors.New("name already exists")

	// Membership errors
	ErrAlreadyInSession = errors.New("already in a session")
	ErrNotInSession     = errors.New("not in a session")

	// Lifecycle errors
	ErrGameInProgress      = errors.New("game already started")
	ErrInsufficientPlayers = errors.New("need more participants")
	ErrNotHost             = errors.New("only the first participant can start the game")
	ErrGameNotStarted      = errors.New("game not started")
	ErrGameComplete        = errors.New("game finished")

	// Move errors
	ErrNotPlayerTurn   = errors.New("not your turn")
	ErrInvalidPosition = errors.New("invalid position")
	ErrCellOccupied    = errors.New("position occupied")

	// Name pool errors
	ErrPoolExhausted = errors.New("name pool exhausted")
)
