// Package tgtest provides an in-memory tg.BotAPI for tests.
package tgtest

import (
	"errors"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ErrLookup is returned by GetChatMember when MemberErr is not set explicitly.
var ErrLookup = errors.New("tgtest: member lookup failed")

// FakeBot records everything sent through it.
type FakeBot struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	lookups  int
	nextID   int

	// Statuses maps user id to the status returned by GetChatMember.
	Statuses map[int64]string
	// FailLookup makes GetChatMember return MemberErr (or ErrLookup).
	FailLookup bool
	MemberErr  error
	// SendErr, when set, is returned by every Send call.
	SendErr error
}

func (b *FakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, c)
	if b.SendErr != nil {
		return tgbotapi.Message{}, b.SendErr
	}
	b.nextID++
	return tgbotapi.Message{MessageID: b.nextID, Chat: &tgbotapi.Chat{ID: 1}}, nil
}

func (b *FakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *FakeBot) GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lookups++
	if b.FailLookup {
		if b.MemberErr != nil {
			return tgbotapi.ChatMember{}, b.MemberErr
		}
		return tgbotapi.ChatMember{}, ErrLookup
	}
	status := b.Statuses[config.UserID]
	if status == "" {
		status = "member"
	}
	return tgbotapi.ChatMember{Status: status}, nil
}

// Sent returns a copy of the messages passed to Send.
func (b *FakeBot) Sent() []tgbotapi.Chattable {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]tgbotapi.Chattable(nil), b.sent...)
}

// Requests returns a copy of the configs passed to Request.
func (b *FakeBot) Requests() []tgbotapi.Chattable {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]tgbotapi.Chattable(nil), b.requests...)
}

// Lookups returns how many times GetChatMember was called.
func (b *FakeBot) Lookups() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lookups
}

// Texts returns the text of every sent MessageConfig, in order.
func (b *FakeBot) Texts() []string {
	var out []string
	for _, c := range b.Sent() {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m.Text)
		}
	}
	return out
}

// Answers returns every CallbackConfig passed to Request, in order.
func (b *FakeBot) Answers() []tgbotapi.CallbackConfig {
	var out []tgbotapi.CallbackConfig
	for _, c := range b.Requests() {
		if cb, ok := c.(tgbotapi.CallbackConfig); ok {
			out = append(out, cb)
		}
	}
	return out
}
