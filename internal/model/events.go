package model

// Command names a client request
type Command string

const (
	CommandJoinRoom        Command = "join_room"
	CommandInvite          Command = "invite"
	CommandUninvite        Command = "uninvite"
	CommandGameStart       Command = "game_start"
	CommandSendChatMessage Command = "send_chat_message"
	CommandPlayToken       Command = "play_token"
)

// EventName names a server-to-client event
type EventName string

const (
	// Room events
	EventJoinRoomResponse        EventName = "join_room_response"
	EventSendChatMessageResponse EventName = "send_chat_message_response"
	EventPlayerDisconnected      EventName = "player_disconnected"

	// Invitation events
	EventInviteResponse    EventName = "invite_response"
	EventInvited           EventName = "invited"
	EventUninvited         EventName = "uninvited"
	EventGameStartResponse EventName = "game_start_response"

	// Game events
	EventPlayTokenResponse EventName = "play_token_response"
	EventGameUpdate        EventName = "game_update"
	EventGameOver          EventName = "game_over"
)

// Result values carried by every response
const (
	ResultSuccess = "success"
	ResultFail    = "fail"
)

// WhoWonEveryone is the fixed winner label of a finished game
const WhoWonEveryone = "everyone"

// Inbound payloads. Pointer fields distinguish an absent field from a zero value.

// JoinRoomPayload is the payload of join_room
type JoinRoomPayload struct {
	Room     *string `json:"room"`
	Username *string `json:"username"`
}

// TargetPayload is the payload of invite, uninvite and game_start
type TargetPayload struct {
	RequestedUser *string `json:"requested_user"`
}

// ChatPayload is the payload of send_chat_message
type ChatPayload struct {
	Room     *string `json:"room"`
	Username *string `json:"username"`
	Message  *string `json:"message"`
}

// PlayTokenPayload is the payload of play_token
type PlayTokenPayload struct {
	Row    *int    `json:"row"`
	Column *int    `json:"column"`
	Color  *string `json:"color"`
}

// Outbound payloads

// Failure is sent to the issuing connection only
type Failure struct {
	Result  string `json:"result"`
	Message string `json:"message"`
}

// NewFailure builds a failure payload
func NewFailure(message string) Failure {
	return Failure{Result: ResultFail, Message: message}
}

// Success carries nothing beyond the result
type Success struct {
	Result string `json:"result"`
}

// JoinRoomResponse describes one member of a room
type JoinRoomResponse struct {
	Result   string       `json:"result"`
	SocketID ConnectionID `json:"socket_id"`
	Room     RoomName     `json:"room"`
	Username string       `json:"username"`
	Count    int          `json:"count"`
}

// TargetResponse is used by invite_response, invited and uninvited
type TargetResponse struct {
	Result   string       `json:"result"`
	SocketID ConnectionID `json:"socket_id"`
}

// GameStartResponse announces the game both players should join
type GameStartResponse struct {
	Result   string       `json:"result"`
	GameID   GameID       `json:"game_id"`
	SocketID ConnectionID `json:"socket_id"`
}

// ChatMessage is broadcast to the room
type ChatMessage struct {
	Result   string   `json:"result"`
	Username string   `json:"username"`
	Room     RoomName `json:"room"`
	Message  string   `json:"message"`
}

// PlayerDisconnected is broadcast to the departing player's room
type PlayerDisconnected struct {
	Username string       `json:"username"`
	Room     RoomName     `json:"room"`
	Count    int          `json:"count"`
	SocketID ConnectionID `json:"socket_id"`
}

// GameUpdate is a full game snapshot
type GameUpdate struct {
	Result  string `json:"result"`
	GameID  GameID `json:"game_id"`
	Game    *Game  `json:"game"`
	Message string `json:"message"`
}

// GameOver is broadcast once the board is full
type GameOver struct {
	Result string `json:"result"`
	GameID GameID `json:"game_id"`
	Game   *Game  `json:"game"`
	WhoWon string `json:"who_won"`
}
