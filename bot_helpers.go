package main

import (
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cmdbot/internal/tg"
)

// buttonGrid lays buttons out perRow to a row.
func buttonGrid(buttons []tgbotapi.InlineKeyboardButton, perRow int) tgbotapi.InlineKeyboardMarkup {
	if perRow < 1 {
		perRow = 1
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, (len(buttons)+perRow-1)/perRow)
	for i := 0; i < len(buttons); i += perRow {
		end := min(i+perRow, len(buttons))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons[i:end]...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// replyWithKeyboard quotes msg with text and an inline keyboard.
func replyWithKeyboard(bot tg.BotAPI, msg *tgbotapi.Message, text string, kb tgbotapi.InlineKeyboardMarkup) error {
	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	out.ReplyToMessageID = msg.MessageID
	out.ReplyMarkup = kb
	if _, err := bot.Send(out); err != nil {
		slog.Error("Failed to send keyboard message", "chat_id", msg.Chat.ID, "err", err)
		return err
	}
	return nil
}

func firstName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	return u.FirstName
}
