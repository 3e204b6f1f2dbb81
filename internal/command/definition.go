// Package command defines chat commands, the registry that routes aliases to
// them, and the text parser shared by typed and replayed invocations.
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cmdbot/internal/i18n"
	"cmdbot/internal/tg"
)

// Validation errors reported for a module that cannot be registered.
var (
	// ErrNoAliases is returned for a definition with an empty alias list.
	ErrNoAliases = errors.New("command declares no aliases")

	// ErrNoHandler is returned for a definition without a handler.
	ErrNoHandler = errors.New("command has no handler")

	// ErrBadAlias is returned for an empty alias or one containing whitespace.
	ErrBadAlias = errors.New("invalid alias")
)

// HandlerFunc runs a command. A returned error is treated like a panic: it is
// logged and the user gets the generic failure notice.
type HandlerFunc func(ctx context.Context, msg *tgbotapi.Message, h *Helpers) error

// AccessPolicy gates who may invoke a command. Gates are independent.
type AccessPolicy struct {
	OwnerOnly      bool
	ModeratorOnly  bool
	GroupAdminOnly bool
}

// Definition describes one chat command. It is treated as immutable once
// loaded into a Registry.
type Definition struct {
	Aliases     []string
	Description string
	Examples    []string
	Categories  []string
	// NoPrefix makes the command reachable by its bare alias as well.
	NoPrefix bool
	Access   *AccessPolicy
	Handler  HandlerFunc
}

// Primary returns the first alias.
func (d *Definition) Primary() string {
	if d == nil || len(d.Aliases) == 0 {
		return ""
	}
	return d.Aliases[0]
}

// Category returns the first category, or "" when none is declared.
func (d *Definition) Category() string {
	if len(d.Categories) == 0 {
		return ""
	}
	return d.Categories[0]
}

// Validate checks the structural contract of a definition.
func (d *Definition) Validate() error {
	if d == nil {
		return fmt.Errorf("nil definition: %w", ErrNoAliases)
	}
	if len(d.Aliases) == 0 {
		return ErrNoAliases
	}
	for _, a := range d.Aliases {
		if a == "" || strings.IndexFunc(a, unicode.IsSpace) >= 0 {
			return fmt.Errorf("%w %q", ErrBadAlias, a)
		}
	}
	if d.Handler == nil {
		return fmt.Errorf("%s: %w", d.Primary(), ErrNoHandler)
	}
	return nil
}

// Helpers is the bundle handed to every handler invocation.
type Helpers struct {
	Bot     tg.BotAPI
	Text    string
	Command string
	Args    []string
	Marker  string

	// IsCallback is set when the command is replayed from an inline button;
	// Callback then carries the originating query.
	IsCallback bool
	Callback   *Callback

	// Callbacks lets handlers register pattern handlers for later button presses.
	Callbacks CallbackRegistrar
	Registry  *Registry
	T         *i18n.Translator
	Log       *slog.Logger
}

// Reply sends plain text to the chat of msg, quoting it.
func (h *Helpers) Reply(msg *tgbotapi.Message, text string) error {
	_, err := tg.Reply(h.Bot, msg, text)
	return err
}

// Tr translates key with the configured language.
func (h *Helpers) Tr(key string) string {
	return h.T.Tr(key)
}
