package model

import "errors"

// CommandError is a failure reported back to the connection that issued a command.
// Message is shown to the client as is.
type CommandError struct {
	Message string
}

func (e *CommandError) Error() string {
	return e.Message
}

func commandError(message string) *CommandError {
	return &CommandError{Message: message}
}

// Internal errors, never shown to clients verbatim
var (
	ErrPlayerNotFound  = errors.New("player not found")
	ErrGameNotFound    = errors.New("game not found")
	ErrInvalidPosition = errors.New("invalid board position")
	ErrCellOccupied    = errors.New("cell is already occupied")
	ErrGameIDExhausted = errors.New("could not allocate an unused game id")
	ErrRosterDesync    = errors.New("room member has no registered player")
)

// Shared command errors
var (
	ErrNoPayload        = commandError("client did not send a payload")
	ErrMalformedPayload = commandError("client sent a malformed payload")
	ErrInternal         = commandError("Server internal error")
)

// join_room
var (
	ErrJoinNoRoom     = commandError("client did not send a valid room to join")
	ErrJoinNoUsername = commandError("client did not send a valid username to join")
	ErrJoinInternal   = commandError("Server internal error joining chat room")
)

// send_chat_message
var (
	ErrChatNoRoom     = commandError("client did not send a valid room to message")
	ErrChatNoUsername = commandError("client did not send a valid username to message")
	ErrChatNoMessage  = commandError("client did not send a valid message")
)

// play_token
var (
	ErrPlayUnregistered = commandError("play_token came from an unregistered player")
	ErrPlayNoUsername   = commandError("play_token came from an unregistered username")
	ErrPlayNoGame       = commandError("no valid game associated with play_token command")
	ErrPlayNoRow        = commandError("no valid row associated with play_token command")
	ErrPlayNoColumn     = commandError("no valid column associated with play_token command")
	ErrPlayNoColor      = commandError("no valid color associated with play_token command")
	ErrPlayWrongTurn    = commandError("play_token played the wrong color. It's not their turn")
	ErrPlayWrongPlayer  = commandError("play_token played the right color but by the wrong player")
	ErrPlayOffBoard     = commandError("play_token targeted a square outside the board")
	ErrPlayOccupied     = commandError("play_token targeted an occupied square")
	ErrPlayIllegal      = commandError("play_token targeted an illegal square")
)

// TargetErrors holds the failures of a command that addresses another
// connection in the caller's room (invite, uninvite, game_start).
type TargetErrors struct {
	NoTarget     *CommandError
	NoRoom       *CommandError
	NoUsername   *CommandError
	TargetAbsent *CommandError
	CallerAbsent *CommandError
}

// Per-command target errors. The wording matches what clients already display.
var (
	InviteErrors = TargetErrors{
		NoTarget:     commandError("client did not send a valid requested_user to join"),
		NoRoom:       commandError("user that was invited is not in a room"),
		NoUsername:   commandError("user that was invited does not have a name registered"),
		TargetAbsent: commandError("The user that was invited is no longer in the room"),
		CallerAbsent: commandError("You are no longer in the room"),
	}
	UninviteErrors = TargetErrors{
		NoTarget:     commandError("client did not send a valid requested_user to uninvite"),
		NoRoom:       commandError("user that was uninvited is not in a room"),
		NoUsername:   commandError("user that was uninvited does not have a name registered"),
		TargetAbsent: commandError("The user that was uninvited is no longer in the room"),
		CallerAbsent: commandError("You are no longer in the room"),
	}
	GameStartErrors = TargetErrors{
		NoTarget:     commandError("client did not send a valid requested_user to engage in play"),
		NoRoom:       commandError("user that was engaged to play is not in a room"),
		NoUsername:   commandError("user that was engaged to play does not have a name registered"),
		TargetAbsent: commandError("The user that was engaged to play is no longer in the room"),
		CallerAbsent: commandError("You are no longer in the room"),
	}
)

// FailureMessage returns the client-facing message for err.
// Anything that is not a CommandError is reported as an internal error.
func FailureMessage(err error) string {
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce.Message
	}
	return ErrInternal.Message
}
