// Package dispatch routes inbound Telegram updates to registered commands and
// callback pattern handlers, and keeps handler failures away from the update
// loop.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"cmdbot/internal/access"
	"cmdbot/internal/command"
	"cmdbot/internal/i18n"
	"cmdbot/internal/metrics"
	"cmdbot/internal/tg"
)

// Options wires a Dispatcher.
type Options struct {
	Bot      tg.BotAPI
	Registry *command.Registry
	Gate     *access.Gate
	Router   *Router
	// Marker is the one-character command prefix, usually "/".
	Marker string
	// BotUsername is used to accept "/cmd@BotUsername" in group chats.
	BotUsername string
	T           *i18n.Translator
	Log         *slog.Logger
	Metrics     *metrics.Metrics
}

// Dispatcher is the entry point for every update.
type Dispatcher struct {
	bot         tg.BotAPI
	registry    *command.Registry
	gate        *access.Gate
	router      *Router
	marker      string
	botUsername string
	t           *i18n.Translator
	log         *slog.Logger
	metrics     *metrics.Metrics
}

// New builds a Dispatcher. A nil Router gets an empty one.
func New(o Options) *Dispatcher {
	if o.Log == nil {
		o.Log = slog.Default()
	}
	if o.Router == nil {
		o.Router = NewRouter(o.Log)
	}
	if o.Marker == "" {
		o.Marker = "/"
	}
	return &Dispatcher{
		bot:         o.Bot,
		registry:    o.Registry,
		gate:        o.Gate,
		router:      o.Router,
		marker:      o.Marker,
		botUsername: o.BotUsername,
		t:           o.T,
		log:         o.Log,
		metrics:     o.Metrics,
	}
}

// Router returns the pattern table handlers register into.
func (d *Dispatcher) Router() *Router { return d.router }

// HandleUpdate dispatches one update. It is safe to call from many goroutines.
func (d *Dispatcher) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("Panic recovered in update dispatch", "update_id", update.UpdateID, "err", r, "stack", string(debug.Stack()))
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		d.metrics.Update("callback")
		d.HandleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		d.metrics.Update("message")
		d.HandleMessage(ctx, update.Message)
	default:
		d.metrics.Update("other")
	}
}

// HandleMessage runs the command addressed by msg, if any.
func (d *Dispatcher) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg == nil || msg.Chat == nil || msg.Text == "" {
		return
	}
	def, parsed, ok := d.resolve(msg.Text)
	if !ok {
		return
	}

	log := d.log.With("event_id", uuid.NewString(), "command", parsed.Command)
	logMessage(log, msg)

	if !d.gate.Authorize(msg, def.Access).Allowed {
		d.metrics.Command(def.Primary(), metrics.OutcomeDenied, 0)
		return
	}

	if err := d.run(ctx, def, msg, d.helpers(parsed, log), log); err != nil {
		if _, err := tg.Reply(d.bot, msg, d.t.Tr("generic_error")); err != nil {
			log.Error("Failed to send failure notice", "chat_id", msg.Chat.ID, "err", err)
		}
	}
}

// resolve finds the definition addressed by text. Marker-prefixed text is
// looked up by its command token; bare text only matches definitions that
// allow it, and is then parsed as if it carried the marker.
func (d *Dispatcher) resolve(text string) (*command.Definition, command.Parsed, bool) {
	if command.HasMarker(text, d.marker) {
		p := command.Parse(text)
		name, ok := command.StripMention(p.Command, d.botUsername)
		if !ok || name == "" {
			return nil, p, false
		}
		p.Command = name
		def, found := d.registry.Lookup(name)
		return def, p, found
	}

	def, found := d.registry.Lookup(command.FirstToken(text))
	if !found || !def.NoPrefix {
		return nil, command.Parsed{}, false
	}
	return def, command.Parse(d.marker + text), true
}

// HandleCallback routes a button press. Whatever happens, the query is
// answered exactly once before returning.
func (d *Dispatcher) HandleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	if q == nil {
		return
	}
	cb := command.NewCallback(d.bot, q)
	log := d.log.With("event_id", uuid.NewString(), "callback_id", q.ID)
	log.Info("Callback received", "from", userID(q.From), "data", q.Data)

	route, err := d.routeCallback(ctx, cb, log)
	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeFailed
		log.Error("Callback failed", "route", route, "topic", cb.Topic, "err", err)
		d.callbackFailed(cb, log)
	}
	d.metrics.Callback(route, outcome)

	if err := cb.Answer("", false); err != nil && !errors.Is(err, command.ErrAlreadyAnswered) {
		log.Warn("Failed to answer callback", "err", err)
	}
}

func (d *Dispatcher) routeCallback(ctx context.Context, cb *command.Callback, log *slog.Logger) (string, error) {
	if fn, ok := d.router.Lookup(cb.Topic); ok {
		return metrics.RoutePattern, safeCall(log, func() error { return fn(ctx, cb) })
	}

	q := cb.Query
	if q.Message == nil || !command.HasMarker(q.Data, d.marker) {
		return metrics.RouteUnrouted, nil
	}
	parsed := command.Parse(q.Data)
	name, ok := command.StripMention(parsed.Command, d.botUsername)
	if !ok {
		return metrics.RouteUnrouted, nil
	}
	def, found := d.registry.Lookup(name)
	if !found {
		return metrics.RouteUnrouted, nil
	}
	parsed.Command = name

	msg := replayMessage(q)
	if !d.gate.Authorize(msg, def.Access).Allowed {
		d.metrics.Command(def.Primary(), metrics.OutcomeDenied, 0)
		return metrics.RouteReplay, nil
	}

	h := d.helpers(parsed, log.With("command", name))
	h.IsCallback = true
	h.Callback = cb
	return metrics.RouteReplay, d.run(ctx, def, msg, h, h.Log)
}

// callbackFailed tells the user something went wrong: as an alert if the
// query is still unanswered, otherwise in the chat.
func (d *Dispatcher) callbackFailed(cb *command.Callback, log *slog.Logger) {
	err := cb.Answer(d.t.Tr("callback_error"), true)
	if err == nil {
		return
	}
	if !errors.Is(err, command.ErrAlreadyAnswered) {
		log.Warn("Failed to answer callback with alert", "err", err)
		return
	}
	if m := cb.Message(); m != nil && m.Chat != nil {
		tg.SafeSend(d.bot, tgbotapi.NewMessage(m.Chat.ID, d.t.Tr("callback_error")))
	}
}

// replayMessage builds the message a replayed command sees: the chat and
// thread of the message carrying the button, the payload as text and the
// presser as sender. The button message's own reply target is not carried.
func replayMessage(q *tgbotapi.CallbackQuery) *tgbotapi.Message {
	msg := *q.Message
	msg.Text = q.Data
	msg.From = q.From
	msg.Entities = nil
	msg.ReplyToMessage = nil
	return &msg
}

func (d *Dispatcher) helpers(p command.Parsed, log *slog.Logger) *command.Helpers {
	return &command.Helpers{
		Bot:       d.bot,
		Text:      p.Text,
		Command:   p.Command,
		Args:      p.Args,
		Marker:    d.marker,
		Callbacks: d.router,
		Registry:  d.registry,
		T:         d.t,
		Log:       log,
	}
}

// run invokes the handler behind a recover boundary and records the outcome.
func (d *Dispatcher) run(ctx context.Context, def *command.Definition, msg *tgbotapi.Message, h *command.Helpers, log *slog.Logger) error {
	start := time.Now()
	err := safeCall(log, func() error { return def.Handler(ctx, msg, h) })
	took := time.Since(start)
	if err != nil {
		d.metrics.Command(def.Primary(), metrics.OutcomeFailed, took)
		log.Error("Command failed", "alias", h.Command, "callback", h.IsCallback, "err", err)
		return err
	}
	d.metrics.Command(def.Primary(), metrics.OutcomeOK, took)
	log.Debug("Command done", "alias", h.Command, "took", took)
	return nil
}

func safeCall(log *slog.Logger, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Panic recovered in handler", "err", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return fn()
}

func logMessage(log *slog.Logger, msg *tgbotapi.Message) {
	attrs := []any{
		"message_id", msg.MessageID,
		"from", userID(msg.From),
		"chat_id", msg.Chat.ID,
		"chat_type", msg.Chat.Type,
		"text", msg.Text,
		"date", msg.Time(),
	}
	if msg.From != nil && msg.From.UserName != "" {
		attrs = append(attrs, "username", msg.From.UserName)
	}
	if msg.ReplyToMessage != nil {
		attrs = append(attrs, "reply_to", msg.ReplyToMessage.MessageID)
	}
	log.Info("Command received", attrs...)
}

func userID(u *tgbotapi.User) int64 {
	if u == nil {
		return 0
	}
	return u.ID
}
