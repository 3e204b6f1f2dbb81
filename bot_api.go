package main

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cmdbot/internal/tg"
)

var _ tg.BotAPI = (*tgbotapi.BotAPI)(nil)

// newTelegramBot connects to the Bot API and verifies the token.
func newTelegramBot(cfg *Config) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	bot.Debug = cfg.DebugAPI
	return bot, nil
}
