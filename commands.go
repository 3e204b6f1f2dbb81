package main

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"text/tabwriter"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cmdbot/internal/command"
	"cmdbot/internal/format"
)

// Telegram only lists lowercase command names of at most 32 characters.
var telegramCommandName = regexp.MustCompile(`^[a-z0-9_]{1,32}$`)

// telegramCommands returns the command list shown in the Telegram client menu:
// the primary alias of every definition Telegram can display.
func telegramCommands(reg *command.Registry) []tgbotapi.BotCommand {
	var out []tgbotapi.BotCommand
	for _, def := range reg.Definitions() {
		name := def.Primary()
		if !telegramCommandName.MatchString(name) {
			continue
		}
		desc := strings.TrimSpace(def.Description)
		if desc == "" {
			desc = name
		}
		out = append(out, tgbotapi.BotCommand{Command: name, Description: format.Truncate(desc, 256)})
	}
	return out
}

// syncCommands publishes the command list to Telegram. Only "/" commands
// appear in the client menu, so other markers skip the sync.
func syncCommands(app *AppContext) error {
	if app.Config.SkipCommandSync || app.Config.CommandMarker != "/" {
		return nil
	}
	cmds := telegramCommands(app.Registry)
	if len(cmds) == 0 {
		return nil
	}
	if _, err := app.Bot.Request(tgbotapi.NewSetMyCommands(cmds...)); err != nil {
		return fmt.Errorf("set my commands: %w", err)
	}
	app.Log.Info("Command menu synced", "commands", len(cmds))
	return nil
}

// printCommands writes the registry as a table: one row per alias.
func printCommands(w io.Writer, reg *command.Registry, marker string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ALIAS\tCOMMAND\tCATEGORY\tACCESS\tBARE")
	for _, e := range reg.All() {
		def := e.Definition
		fmt.Fprintf(tw, "%s%s\t%s\t%s\t%s\t%v\n", marker, e.Alias, def.Primary(), def.Category(), policyLabel(def.Access), def.NoPrefix)
	}
	return tw.Flush()
}

func policyLabel(p *command.AccessPolicy) string {
	if p == nil {
		return "everyone"
	}
	var parts []string
	if p.OwnerOnly {
		parts = append(parts, "owner")
	}
	if p.ModeratorOnly {
		parts = append(parts, "moderator")
	}
	if p.GroupAdminOnly {
		parts = append(parts, "group-admin")
	}
	if len(parts) == 0 {
		return "everyone"
	}
	return strings.Join(parts, "+")
}
