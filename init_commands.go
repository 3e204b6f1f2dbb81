package main

import "cmdbot/internal/command"

// commandTree lists every command module, grouped the way the menu shows
// them. New commands are added here.
func commandTree(app *AppContext) command.Group {
	return command.Group{
		Name:    "commands",
		Modules: []command.Module{menuCommand},
		Groups: []command.Group{
			{
				Name: "system",
				Modules: []command.Module{
					pingCommand,
					idCommand,
					func() (*command.Definition, error) { return statsCommand(app) },
				},
			},
			{
				Name:    "tools",
				Modules: []command.Module{sayCommand, pinCommand},
			},
		},
	}
}
