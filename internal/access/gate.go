// Package access evaluates command access policies against the invoking user
// and chat.
package access

import (
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cmdbot/internal/command"
	"cmdbot/internal/i18n"
	"cmdbot/internal/tg"
)

// Reason explains a denial.
type Reason string

const (
	ReasonOwnerOnly         Reason = "owner-only"
	ReasonModeratorOnly     Reason = "moderator-only"
	ReasonStatusCheckFailed Reason = "status-check-failed"
	ReasonAdminOnly         Reason = "admin-only"
)

var reasonKeys = map[Reason]string{
	ReasonOwnerOnly:         "denied_owner",
	ReasonModeratorOnly:     "denied_moderator",
	ReasonStatusCheckFailed: "denied_status_check",
	ReasonAdminOnly:         "denied_admin",
}

// Decision is the outcome of Authorize.
type Decision struct {
	Allowed bool
	Reason  Reason
}

var allow = Decision{Allowed: true}

func deny(r Reason) Decision { return Decision{Reason: r} }

// Gate holds the role sets and the transport used for member lookups and
// denial notices.
type Gate struct {
	bot        tg.BotAPI
	owners     map[int64]bool
	moderators map[int64]bool
	t          *i18n.Translator
	log        *slog.Logger
	// OnDeny, when set, observes every denial.
	OnDeny func(Reason)
}

// NewGate builds a gate for the given owner and moderator user ids.
func NewGate(bot tg.BotAPI, owners, moderators []int64, t *i18n.Translator, log *slog.Logger) *Gate {
	if log == nil {
		log = slog.Default()
	}
	g := &Gate{
		bot:        bot,
		owners:     make(map[int64]bool, len(owners)),
		moderators: make(map[int64]bool, len(moderators)),
		t:          t,
		log:        log,
	}
	for _, id := range owners {
		g.owners[id] = true
	}
	for _, id := range moderators {
		g.moderators[id] = true
	}
	return g
}

// IsOwner reports whether userID is an owner.
func (g *Gate) IsOwner(userID int64) bool { return g.owners[userID] }

// IsModerator reports whether userID satisfies moderator checks. Owners do.
func (g *Gate) IsModerator(userID int64) bool {
	return g.moderators[userID] || g.owners[userID]
}

// Authorize evaluates policy for the sender and chat of msg. The first failing
// gate wins; a nil policy always allows. On denial the notice is sent to the
// originating chat before returning.
func (g *Gate) Authorize(msg *tgbotapi.Message, policy *command.AccessPolicy) Decision {
	d := g.evaluate(msg, policy)
	if !d.Allowed {
		g.notify(msg, d.Reason)
	}
	return d
}

func (g *Gate) evaluate(msg *tgbotapi.Message, policy *command.AccessPolicy) Decision {
	if policy == nil {
		return allow
	}
	var userID int64
	if msg.From != nil {
		userID = msg.From.ID
	}

	if policy.OwnerOnly && !g.IsOwner(userID) {
		return deny(ReasonOwnerOnly)
	}
	if policy.ModeratorOnly && !g.IsModerator(userID) {
		return deny(ReasonModeratorOnly)
	}
	if policy.GroupAdminOnly && msg.Chat != nil && !msg.Chat.IsPrivate() {
		if msg.From == nil {
			return deny(ReasonStatusCheckFailed)
		}
		status, err := tg.MemberStatus(g.bot, msg.Chat.ID, userID)
		if err != nil {
			g.log.Error("Chat member lookup failed", "chat_id", msg.Chat.ID, "user_id", userID, "err", err)
			return deny(ReasonStatusCheckFailed)
		}
		if !tg.IsAdminStatus(status) {
			return deny(ReasonAdminOnly)
		}
	}
	return allow
}

func (g *Gate) notify(msg *tgbotapi.Message, r Reason) {
	if g.OnDeny != nil {
		g.OnDeny(r)
	}
	g.log.Info("Command denied", "reason", string(r), "chat_id", chatID(msg), "text", msg.Text)
	if msg.Chat == nil {
		return
	}
	if _, err := tg.Reply(g.bot, msg, g.t.Tr(reasonKeys[r])); err != nil {
		g.log.Error("Failed to send denial notice", "chat_id", msg.Chat.ID, "err", err)
	}
}

func chatID(msg *tgbotapi.Message) int64 {
	if msg.Chat == nil {
		return 0
	}
	return msg.Chat.ID
}
