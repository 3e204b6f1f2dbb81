package main

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cmdbot/internal/command"
)

func sayCommand() (*command.Definition, error) {
	return &command.Definition{
		Aliases:     []string{"say", "echo"},
		Description: "Make the bot repeat a message",
		Examples:    []string{"%cmd hello everyone"},
		Categories:  []string{"tools"},
		Access:      &command.AccessPolicy{ModeratorOnly: true},
		Handler: func(_ context.Context, msg *tgbotapi.Message, h *command.Helpers) error {
			if h.Text == "" {
				return h.Reply(msg, fmt.Sprintf(h.Tr("say_usage"), h.Marker+h.Command+" "))
			}
			_, err := h.Bot.Send(tgbotapi.NewMessage(msg.Chat.ID, h.Text))
			return err
		},
	}, nil
}

func pinCommand() (*command.Definition, error) {
	return &command.Definition{
		Aliases:     []string{"pin"},
		Description: "Pin the message you reply to",
		Examples:    []string{"%cmd"},
		Categories:  []string{"tools"},
		Access:      &command.AccessPolicy{GroupAdminOnly: true},
		Handler: func(_ context.Context, msg *tgbotapi.Message, h *command.Helpers) error {
			target := msg.ReplyToMessage
			if target == nil {
				return h.Reply(msg, h.Tr("pin_usage"))
			}
			_, err := h.Bot.Request(tgbotapi.PinChatMessageConfig{
				ChatID:              msg.Chat.ID,
				MessageID:           target.MessageID,
				DisableNotification: true,
			})
			if err != nil {
				h.Log.Warn("Pin failed", "chat_id", msg.Chat.ID, "message_id", target.MessageID, "err", err)
				return h.Reply(msg, h.Tr("pin_failed"))
			}
			return nil
		},
	}, nil
}
