package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/othellochat/internal/model"
)

func newChatCmd() *cobra.Command {
	var (
		room     string
		username string
	)

	cmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Join a room, send one chat message and wait for the echo",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
			defer cancel()

			msg, err := chat(ctx, room, username, strings.Join(args, " "))
			if err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(msg)
			return nil
		},
	}

	cmd.Flags().StringVar(&room, "room", string(model.LobbyRoom), "Room to join")
	cmd.Flags().StringVar(&username, "username", "", "Name shown to other players")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func chat(ctx context.Context, room, username, message string) (model.ChatMessage, error) {
	socket, err := DialSocket(ctx, cfg.ServerURL)
	if err != nil {
		return model.ChatMessage{}, err
	}
	defer func() { _ = socket.Close() }()

	if _, err := socket.Join(ctx, room, username); err != nil {
		return model.ChatMessage{}, err
	}

	payload := model.ChatPayload{Room: &room, Username: &username, Message: &message}
	if err := socket.Send(model.CommandSendChatMessage, payload); err != nil {
		return model.ChatMessage{}, err
	}

	for {
		env, err := socket.Next(ctx)
		if err != nil {
			return model.ChatMessage{}, fmt.Errorf("waiting for chat echo: %w", err)
		}
		if env.Event != string(model.EventSendChatMessageResponse) {
			continue
		}
		if err := failureOf(env); err != nil {
			return model.ChatMessage{}, err
		}

		var echo model.ChatMessage
		if err := json.Unmarshal(env.Payload, &echo); err != nil {
			return model.ChatMessage{}, fmt.Errorf("failed to parse chat echo: %w", err)
		}
		if echo.Username == username && echo.Message == message {
			return echo, nil
		}
	}
}
