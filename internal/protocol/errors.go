package protocol

import (
	"errors"

	"github.com/mcoot/tictacnet/internal/model"
)

// messages maps domain errors to the text sent back to clients
var messages = []struct {
	err error
	msg string
}{
	{model.ErrInvalidSessionName, "server name must be alphanumeric"},
	{model.ErrInvalidRequest, "invalid request"},
	{model.ErrSessionNotFound, "server not found"},
	{model.ErrSessionExists, "name already exists"},
	{model.ErrAlreadyInSession, "already in a session"},
	{model.ErrNotInSession, "not in a session"},
	{model.ErrGameInProgress, "game already started"},
	{model.ErrInsufficientPlayers, "need more participants"},
	{model.ErrNotHost, "only the first participant can start the game"},
	{model.ErrGameNotStarted, "game not started"},
	{model.ErrGameComplete, "game finished"},
	{model.ErrNotPlayerTurn, "not your turn"},
	{model.ErrInvalidPosition, "invalid position"},
	{model.ErrCellOccupied, "position occupied"},
}

// MessageFor returns the client-facing message for an error
func MessageFor(err error) string {
	for _, m := range messages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return "internal error"
}
