package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mcoot/othellochat/internal/model"
	"github.com/mcoot/othellochat/internal/web/ws"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to stdout
func NewOutput(format string) *Output {
	return &Output{format: format, w: os.Stdout}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

// EventLine is one received event in JSON output
type EventLine struct {
	Time    time.Time       `json:"time"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// PrintEvent outputs one server event
func (o *Output) PrintEvent(env ws.Envelope) {
	now := time.Now()

	if o.format == "json" {
		data, _ := json.Marshal(EventLine{Time: now, Event: env.Event, Payload: env.Payload})
		fmt.Fprintln(o.w, string(data))
		return
	}

	timestamp := now.Format("2006-01-02 15:04:05")
	switch model.EventName(env.Event) {
	case model.EventSendChatMessageResponse:
		var msg model.ChatMessage
		if err := json.Unmarshal(env.Payload, &msg); err == nil && msg.Result == model.ResultSuccess {
			fmt.Fprintf(o.w, "[%s] <%s@%s> %s\n", timestamp, msg.Username, msg.Room, msg.Message)
			return
		}
	case model.EventGameUpdate, model.EventGameOver:
		var update model.GameUpdate
		if err := json.Unmarshal(env.Payload, &update); err == nil && update.Game != nil {
			fmt.Fprintf(o.w, "[%s] %s: %s\n", timestamp, env.Event, update.GameID)
			o.printGame(update.Game)
			return
		}
	}

	// Truncate data if it's too long for display
	display := string(env.Payload)
	if len(display) > 100 {
		display = display[:100] + "..."
	}
	fmt.Fprintf(o.w, "[%s] %s: %s\n", timestamp, env.Event, display)
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case HealthResult:
		fmt.Fprintf(o.w, "Status: %s\n", v.Status)
	case StatsResult:
		fmt.Fprintf(o.w, "Players: %d\n", v.Players)
		fmt.Fprintf(o.w, "Games: %d\n", v.Games)
		fmt.Fprintf(o.w, "Rooms: %d\n", v.Rooms)
		fmt.Fprintf(o.w, "Connections: %d\n", v.Connections)
	case GameListResult:
		if len(v.Games) == 0 {
			fmt.Fprintln(o.w, "No games")
			return
		}
		for _, id := range v.Games {
			fmt.Fprintln(o.w, id)
		}
	case *model.Game:
		fmt.Fprintf(o.w, "Game: %s\n", v.ID)
		o.printGame(v)
	case model.ChatMessage:
		fmt.Fprintf(o.w, "<%s@%s> %s\n", v.Username, v.Room, v.Message)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

// StatsResult response type
type StatsResult struct {
	Players     int `json:"players"`
	Games       int `json:"games"`
	Rooms       int `json:"rooms"`
	Connections int `json:"connections"`
}

// GameListResult response type
type GameListResult struct {
	Games []string `json:"games"`
}

func (o *Output) printGame(g *model.Game) {
	fmt.Fprintf(o.w, "White: %s\n", seatLabel(g.PlayerWhite))
	fmt.Fprintf(o.w, "Black: %s\n", seatLabel(g.PlayerBlack))
	fmt.Fprintf(o.w, "To move: %s\n", g.WhoseTurn)
	fmt.Fprintf(o.w, "Tokens: white %d, black %d\n", g.Board.Count(model.CellWhite), g.Board.Count(model.CellBlack))
	o.printBoard(g)
}

func seatLabel(s model.Seat) string {
	if s.IsEmpty() {
		return "(open)"
	}
	return fmt.Sprintf("%s (%s)", s.Username, s.Socket)
}

// printBoard draws the grid; legal moves for the side to move are shown as "+"
func (o *Output) printBoard(g *model.Game) {
	var sb strings.Builder

	// Print column headers
	sb.WriteString("    ")
	for col := 0; col < model.BoardSize; col++ {
		fmt.Fprintf(&sb, " %d ", col)
	}
	sb.WriteString("\n")

	border := "   +" + strings.Repeat("---", model.BoardSize) + "+\n"
	sb.WriteString(border)

	for row := 0; row < model.BoardSize; row++ {
		fmt.Fprintf(&sb, " %d |", row)
		for col := 0; col < model.BoardSize; col++ {
			switch {
			case g.Board[row][col] != model.CellEmpty:
				fmt.Fprintf(&sb, " %s ", g.Board[row][col])
			case g.LegalMoves[row][col] != model.CellEmpty:
				sb.WriteString(" + ")
			default:
				sb.WriteString(" . ")
			}
		}
		sb.WriteString("|\n")
	}

	sb.WriteString(border)
	fmt.Fprint(o.w, sb.String())
}
