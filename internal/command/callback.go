package command

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cmdbot/internal/tg"
)

// ErrAlreadyAnswered is returned by Callback.Answer after the first answer.
var ErrAlreadyAnswered = errors.New("callback already answered")

// CallbackFunc handles an inline-button press routed by topic token.
type CallbackFunc func(ctx context.Context, cb *Callback) error

// CallbackRegistrar accepts pattern handlers keyed by topic token.
type CallbackRegistrar interface {
	HandleCallback(topic string, fn CallbackFunc)
}

// Callback wraps a callback query. Telegram expects exactly one answer per
// query, so Answer only reaches the transport once.
type Callback struct {
	Query *tgbotapi.CallbackQuery
	Topic string
	Args  []string
	Bot   tg.BotAPI

	once     sync.Once
	answered atomic.Bool
}

// NewCallback wraps q and splits its payload.
func NewCallback(bot tg.BotAPI, q *tgbotapi.CallbackQuery) *Callback {
	topic, args := SplitPayload(q.Data)
	return &Callback{Query: q, Topic: topic, Args: args, Bot: bot}
}

// Answer acknowledges the query, optionally as an alert popup.
func (c *Callback) Answer(text string, alert bool) error {
	err := ErrAlreadyAnswered
	c.once.Do(func() {
		c.answered.Store(true)
		err = tg.AnswerCallback(c.Bot, c.Query.ID, text, alert)
	})
	return err
}

// Answered reports whether Answer has been called.
func (c *Callback) Answered() bool {
	return c.answered.Load()
}

// Message returns the message carrying the pressed button; nil for inline-mode
// results.
func (c *Callback) Message() *tgbotapi.Message {
	return c.Query.Message
}

// Edit rewrites the message carrying the button.
func (c *Callback) Edit(text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	if m := c.Query.Message; m != nil && m.Chat != nil {
		tg.EditMessage(c.Bot, m.Chat.ID, m.MessageID, text, keyboard)
	}
}
