// Package tg holds the Telegram capability set the bot depends on and the
// small send/edit/answer helpers built on top of it.
package tg

import (
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotAPI abstracts the Telegram bot methods used by the app.
// *tgbotapi.BotAPI satisfies it; tests use a fake.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
}

// Member statuses that count as chat administrators.
const (
	StatusCreator       = "creator"
	StatusAdministrator = "administrator"
)

// SafeSend sends c and only logs a failure.
func SafeSend(bot BotAPI, c tgbotapi.Chattable) {
	if bot == nil {
		return
	}
	if _, err := bot.Send(c); err != nil {
		slog.Error("Telegram send failed", "err", err)
	}
}

// Reply sends plain text to the chat of msg, quoting msg.
func Reply(bot BotAPI, msg *tgbotapi.Message, text string) (tgbotapi.Message, error) {
	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	if msg.MessageID != 0 {
		out.ReplyToMessageID = msg.MessageID
	}
	return bot.Send(out)
}

// SendMarkdown sends text with Markdown parse mode and retries as plain text
// when Telegram rejects the markup.
func SendMarkdown(bot BotAPI, chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	if bot == nil {
		return
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	if _, err := bot.Send(msg); err != nil {
		slog.Error("Error sending Markdown message. Retrying as plain text", "err", err)
		msg.ParseMode = ""
		SafeSend(bot, msg)
	}
}

// EditMessage replaces the text (and optionally the inline keyboard) of an
// existing message, falling back to plain text on a Markdown error.
func EditMessage(bot BotAPI, chatID int64, msgID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	if bot == nil {
		return
	}
	edit := tgbotapi.NewEditMessageText(chatID, msgID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if keyboard != nil {
		edit.ReplyMarkup = keyboard
	}
	if _, err := bot.Send(edit); err != nil {
		slog.Error("Error editing message to Markdown. Retrying as plain text", "err", err)
		edit.ParseMode = ""
		SafeSend(bot, edit)
	}
}

// AnswerCallback acknowledges a callback query, optionally as an alert popup.
func AnswerCallback(bot BotAPI, queryID, text string, alert bool) error {
	cfg := tgbotapi.NewCallback(queryID, text)
	if alert {
		cfg = tgbotapi.NewCallbackWithAlert(queryID, text)
	}
	_, err := bot.Request(cfg)
	return err
}

// MemberStatus looks up the membership status of userID in chatID.
func MemberStatus(bot BotAPI, chatID, userID int64) (string, error) {
	member, err := bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: chatID, UserID: userID},
	})
	if err != nil {
		return "", err
	}
	return member.Status, nil
}

// IsAdminStatus reports whether status grants chat administrator rights.
func IsAdminStatus(status string) bool {
	return status == StatusCreator || status == StatusAdministrator
}
