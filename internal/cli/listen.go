package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mcoot/othellochat/internal/model"
)

func newListenCmd() *cobra.Command {
	var (
		room     string
		username string
		until    string
	)

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Join a room and print its events",
		Long: `Join a room over the WebSocket endpoint and print every event the server sends.

Events include join_room_response, send_chat_message_response, invited,
uninvited, game_start_response, game_update, game_over and
player_disconnected.

Press Ctrl+C to disconnect.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return listen(ctx, room, username, until)
		},
	}

	cmd.Flags().StringVar(&room, "room", string(model.LobbyRoom), "Room to join")
	cmd.Flags().StringVar(&username, "username", "", "Name shown to other players")
	cmd.Flags().StringVar(&until, "until", "", "Exit after the first event with this name")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func listen(ctx context.Context, room, username, until string) error {
	out := NewOutput(cfg.Output)

	dialCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	socket, err := DialSocket(dialCtx, cfg.ServerURL)
	if err != nil {
		return err
	}
	defer func() { _ = socket.Close() }()

	joined, err := socket.Join(dialCtx, room, username)
	if err != nil {
		return err
	}
	if cfg.Output != "json" {
		out.PrintMessage(fmt.Sprintf("Joined %s as %s (%s), %d in room", joined.Room, joined.Username, joined.SocketID, joined.Count))
	}

	for {
		env, err := socket.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				if cfg.Output != "json" {
					out.PrintMessage("Disconnected")
				}
				return nil
			}
			return err
		}

		out.PrintEvent(env)
		if until != "" && env.Event == until {
			return nil
		}
	}
}
