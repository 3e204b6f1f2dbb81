package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cmdbot/internal/command"
	"cmdbot/internal/format"
	"cmdbot/internal/i18n"
)

const (
	menuTopic         = "menu"
	menuBack          = "back"
	uncategorizedKey  = "uncategorized"
	menuButtonsPerRow = 2
)

func menuCommand() (*command.Definition, error) {
	return &command.Definition{
		Aliases:     []string{"menu", "help", "start"},
		Description: "Show the available commands",
		Examples:    []string{"%cmd"},
		Categories:  []string{"main"},
		Handler:     runMenu,
	}, nil
}

func runMenu(_ context.Context, msg *tgbotapi.Message, h *command.Helpers) error {
	m := &menu{registry: h.Registry, marker: h.Marker, t: h.T}
	h.Callbacks.HandleCallback(menuTopic, m.handleCallback)

	text, kb := m.overview(firstName(msg.From))
	if h.IsCallback && h.Callback.Message() != nil {
		h.Callback.Edit(text, &kb)
		return nil
	}
	return replyWithKeyboard(h.Bot, msg, text, kb)
}

// menu renders the registry grouped by first category.
type menu struct {
	registry *command.Registry
	marker   string
	t        *i18n.Translator
}

// categories groups definitions by first category, each definition once.
func (m *menu) categories() map[string][]*command.Definition {
	out := make(map[string][]*command.Definition)
	for _, def := range m.registry.Definitions() {
		cat := def.Category()
		if cat == "" {
			cat = uncategorizedKey
		}
		out[cat] = append(out[cat], def)
	}
	return out
}

func (m *menu) label(category string) string {
	if category == uncategorizedKey {
		return format.TitleCaseWord(m.t.Tr("uncategorized"))
	}
	return format.TitleCaseWord(category)
}

func (m *menu) overview(name string) (string, tgbotapi.InlineKeyboardMarkup) {
	cats := m.categories()
	names := make([]string, 0, len(cats))
	for c := range cats {
		names = append(names, c)
	}
	sort.Strings(names)

	buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(names))
	for _, c := range names {
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(m.label(c), menuTopic+"|"+c))
	}
	return fmt.Sprintf(m.t.Tr("menu_greeting"), name), buttonGrid(buttons, menuButtonsPerRow)
}

// category lists the commands of one category with a replay button for each.
func (m *menu) category(category string) (string, tgbotapi.InlineKeyboardMarkup) {
	defs := m.categories()[category]

	var b strings.Builder
	b.WriteString(fmt.Sprintf(m.t.Tr("menu_category_title"), format.EscapeMarkdown(strings.ToUpper(m.label(category)))))
	if len(defs) == 0 {
		b.WriteString(m.t.Tr("menu_empty"))
	}

	buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(defs)+1)
	for _, def := range defs {
		primary := def.Primary()
		b.WriteString(format.EscapeMarkdown(m.marker + primary))
		if len(def.Aliases) > 1 {
			b.WriteString(" (" + format.EscapeMarkdown(strings.Join(def.Aliases[1:], ", ")) + ")")
		}
		b.WriteString("\n├ " + format.EscapeMarkdown(def.Description))
		if len(def.Examples) > 0 {
			example := m.marker + strings.ReplaceAll(def.Examples[0], "%cmd", primary)
			b.WriteString(fmt.Sprintf(m.t.Tr("menu_example"), format.EscapeMarkdown(example)))
		}
		b.WriteString("\n\n")
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(m.marker+primary, m.marker+primary))
	}

	kb := buttonGrid(buttons, menuButtonsPerRow)
	kb.InlineKeyboard = append(kb.InlineKeyboard, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(m.t.Tr("menu_back"), menuTopic+"|"+menuBack),
	))
	return strings.TrimRight(b.String(), "\n"), kb
}

func (m *menu) handleCallback(_ context.Context, cb *command.Callback) error {
	if cb.Message() == nil {
		return cb.Answer("", false)
	}
	var text string
	var kb tgbotapi.InlineKeyboardMarkup
	if len(cb.Args) == 0 || cb.Args[0] == menuBack {
		text, kb = m.overview(firstName(cb.Query.From))
	} else {
		text, kb = m.category(cb.Args[0])
	}
	cb.Edit(text, &kb)
	return cb.Answer("", false)
}
