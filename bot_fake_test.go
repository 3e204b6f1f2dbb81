package main

import (
	"io"
	"log/slog"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cmdbot/internal/tg/tgtest"
)

const (
	testOwner     = int64(1)
	testModerator = int64(2)
	testUser      = int64(3)
	testGroup     = int64(-1001)
)

func newTestAppContext(t *testing.T) (*AppContext, *tgtest.FakeBot) {
	t.Helper()
	cfg := &Config{
		BotToken:     "token",
		OwnerIDs:     []int64{testOwner},
		ModeratorIDs: []int64{testModerator},
	}
	applyConfigDefaults(cfg)

	bot := &tgtest.FakeBot{}
	app, report := newAppContext(cfg, bot, "TestBot", slog.New(slog.NewTextHandler(io.Discard, nil)))
	if len(report.Errors) != 0 {
		t.Fatalf("command load errors: %v", report.Errors)
	}
	prev := readHostStats
	readHostStats = fakeHostStats
	t.Cleanup(func() { readHostStats = prev })
	return app, bot
}

func groupMessage(from int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 42,
		From:      &tgbotapi.User{ID: from, FirstName: "Ann"},
		Chat:      &tgbotapi.Chat{ID: testGroup, Type: "supergroup"},
		Text:      text,
	}
}

func buttonQuery(from int64, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:      "q1",
		From:    &tgbotapi.User{ID: from, FirstName: "Ann"},
		Message: &tgbotapi.Message{MessageID: 50, Chat: &tgbotapi.Chat{ID: testGroup, Type: "supergroup"}},
		Data:    data,
	}
}

// edits returns the text of every message edit sent through bot.
func edits(bot *tgtest.FakeBot) []tgbotapi.EditMessageTextConfig {
	var out []tgbotapi.EditMessageTextConfig
	for _, c := range bot.Sent() {
		if e, ok := c.(tgbotapi.EditMessageTextConfig); ok {
			out = append(out, e)
		}
	}
	return out
}
