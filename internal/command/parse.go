package command

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Parsed is the normalized form of a command invocation.
type Parsed struct {
	Command string
	Text    string
	Args    []string
}

// Parse splits raw text that starts with a one-character marker into the
// command token, the whitespace-normalized trailing text and its arguments.
// The marker itself is not checked; callers match it before parsing.
func Parse(raw string) Parsed {
	_, size := utf8.DecodeRuneInString(raw)
	rest := raw[size:]

	cut := strings.IndexFunc(rest, unicode.IsSpace)
	if cut < 0 {
		return Parsed{Command: rest, Args: []string{}}
	}

	args := strings.Fields(rest[cut:])
	if len(args) == 0 {
		args = []string{}
	}
	return Parsed{
		Command: rest[:cut],
		Text:    strings.Join(args, " "),
		Args:    args,
	}
}

// HasMarker reports whether text starts with marker.
func HasMarker(text, marker string) bool {
	return marker != "" && strings.HasPrefix(text, marker)
}

// FirstToken returns text up to the first whitespace.
func FirstToken(text string) string {
	if cut := strings.IndexFunc(text, unicode.IsSpace); cut >= 0 {
		return text[:cut]
	}
	return text
}

// SplitPayload splits a callback payload "token|arg1|arg2" into its routing
// token and arguments. Pipes cannot be escaped.
func SplitPayload(data string) (token string, args []string) {
	parts := strings.Split(data, "|")
	return parts[0], parts[1:]
}

// StripMention removes a trailing "@botname" from a command token. ok is false
// when the token addresses a different bot.
func StripMention(token, botUsername string) (string, bool) {
	at := strings.IndexByte(token, '@')
	if at < 0 {
		return token, true
	}
	if botUsername == "" || !strings.EqualFold(token[at+1:], botUsername) {
		return token[:at], false
	}
	return token[:at], true
}
