package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"cmdbot/internal/access"
	"cmdbot/internal/command"
	"cmdbot/internal/i18n"
	"cmdbot/internal/metrics"
	"cmdbot/internal/tg/tgtest"
)

const (
	ownerUserID = 1
	plainUserID = 2
	chatID      = -100
	botName     = "TestBot"
	callerID    = "cb-1"
)

var en = i18n.New("en")

type harness struct {
	d       *Dispatcher
	bot     *tgtest.FakeBot
	metrics *metrics.Metrics
}

func newHarness(t *testing.T, defs ...*command.Definition) *harness {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	bot := &tgtest.FakeBot{}
	reg := command.NewRegistry(log)
	mods := make([]command.Module, 0, len(defs))
	for _, def := range defs {
		def := def
		mods = append(mods, func() (*command.Definition, error) { return def, nil })
	}
	if report := reg.Load(command.Group{Name: "test", Modules: mods}); len(report.Errors) != 0 {
		t.Fatalf("load errors: %v", report.Errors)
	}
	m := metrics.New()
	d := New(Options{
		Bot:         bot,
		Registry:    reg,
		Gate:        access.NewGate(bot, []int64{ownerUserID}, nil, en, log),
		Marker:      "/",
		BotUsername: botName,
		T:           en,
		Log:         log,
		Metrics:     m,
	})
	return &harness{d: d, bot: bot, metrics: m}
}

func textMessage(from int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 10,
		From:      &tgbotapi.User{ID: from, FirstName: "Ann"},
		Chat:      &tgbotapi.Chat{ID: chatID, Type: "group"},
		Text:      text,
	}
}

func query(from int64, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:      callerID,
		From:    &tgbotapi.User{ID: from},
		Message: &tgbotapi.Message{MessageID: 77, Chat: &tgbotapi.Chat{ID: chatID, Type: "group"}, Text: "menu"},
		Data:    data,
	}
}

// recorder captures the arguments of every handler call.
type recorder struct {
	mu    sync.Mutex
	msgs  []*tgbotapi.Message
	helps []*command.Helpers
}

func (r *recorder) handler(err error) command.HandlerFunc {
	return func(_ context.Context, msg *tgbotapi.Message, h *command.Helpers) error {
		r.mu.Lock()
		r.msgs = append(r.msgs, msg)
		r.helps = append(r.helps, h)
		r.mu.Unlock()
		return err
	}
}

func (r *recorder) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.helps)
}

func TestHandleMessageRunsCommand(t *testing.T) {
	rec := &recorder{}
	h := newHarness(t, &command.Definition{Aliases: []string{"echo", "e"}, Handler: rec.handler(nil)})

	h.d.HandleMessage(context.Background(), textMessage(plainUserID, "/e  hello   world "))

	if rec.calls() != 1 {
		t.Fatalf("handler calls = %d, want 1", rec.calls())
	}
	got := rec.helps[0]
	if got.Command != "e" || got.Text != "hello world" || !reflect.DeepEqual(got.Args, []string{"hello", "world"}) {
		t.Fatalf("helpers = %q %q %q", got.Command, got.Text, got.Args)
	}
	if got.IsCallback || got.Callback != nil {
		t.Fatalf("typed command flagged as callback")
	}
	if got.Callbacks == nil || got.Registry == nil || got.Marker != "/" {
		t.Fatalf("helpers missing injected collaborators: %+v", got)
	}
	if n := testutil.ToFloat64(h.metrics.Commands.WithLabelValues("echo", metrics.OutcomeOK)); n != 1 {
		t.Fatalf("ok counter = %v", n)
	}
}

func TestHandleMessageIgnoresUnknownAndPlainText(t *testing.T) {
	rec := &recorder{}
	h := newHarness(t, &command.Definition{Aliases: []string{"echo"}, Handler: rec.handler(nil)})

	for _, text := range []string{"/nope", "echo hi", "/", "hello there", "/echo@OtherBot hi"} {
		h.d.HandleMessage(context.Background(), textMessage(plainUserID, text))
	}
	if rec.calls() != 0 {
		t.Fatalf("handler ran %d times for non-matching text", rec.calls())
	}
	if len(h.bot.Sent()) != 0 {
		t.Fatalf("unexpected messages: %q", h.bot.Texts())
	}
}

func TestHandleMessageMention(t *testing.T) {
	rec := &recorder{}
	h := newHarness(t, &command.Definition{Aliases: []string{"echo"}, Handler: rec.handler(nil)})

	h.d.HandleMessage(context.Background(), textMessage(plainUserID, "/echo@testbot hi"))
	if rec.calls() != 1 || rec.helps[0].Command != "echo" {
		t.Fatalf("mention to this bot not dispatched")
	}
}

func TestHandleMessageNoPrefix(t *testing.T) {
	rec := &recorder{}
	h := newHarness(t, &command.Definition{Aliases: []string{"ping", "p"}, NoPrefix: true, Handler: rec.handler(nil)})

	h.d.HandleMessage(context.Background(), textMessage(plainUserID, "p now"))
	h.d.HandleMessage(context.Background(), textMessage(plainUserID, "/ping"))

	if rec.calls() != 2 {
		t.Fatalf("handler calls = %d, want 2", rec.calls())
	}
	bare := rec.helps[0]
	if bare.Command != "p" || bare.Text != "now" || !reflect.DeepEqual(bare.Args, []string{"now"}) {
		t.Fatalf("bare invocation parsed as %q %q %q", bare.Command, bare.Text, bare.Args)
	}
}

func TestHandlerFailureIsIsolated(t *testing.T) {
	cases := []struct {
		name    string
		handler command.HandlerFunc
	}{
		{"returned error", func(context.Context, *tgbotapi.Message, *command.Helpers) error {
			return errors.New("upstream down")
		}},
		{"panic", func(context.Context, *tgbotapi.Message, *command.Helpers) error {
			panic("nil map")
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &recorder{}
			h := newHarness(t,
				&command.Definition{Aliases: []string{"bad"}, Handler: tc.handler},
				&command.Definition{Aliases: []string{"good"}, Handler: rec.handler(nil)},
			)

			h.d.HandleUpdate(context.Background(), tgbotapi.Update{Message: textMessage(plainUserID, "/bad")})

			texts := h.bot.Texts()
			if len(texts) != 1 || texts[0] != en.Tr("generic_error") {
				t.Fatalf("failure notices = %q, want exactly one generic notice", texts)
			}
			if m, ok := h.bot.Sent()[0].(tgbotapi.MessageConfig); !ok || m.ChatID != chatID {
				t.Fatalf("notice not sent to originating chat: %#v", h.bot.Sent()[0])
			}

			h.d.HandleUpdate(context.Background(), tgbotapi.Update{Message: textMessage(plainUserID, "/good")})
			if rec.calls() != 1 {
				t.Fatalf("dispatch did not survive the failing handler")
			}
			if n := testutil.ToFloat64(h.metrics.Commands.WithLabelValues("bad", metrics.OutcomeFailed)); n != 1 {
				t.Fatalf("failed counter = %v", n)
			}
		})
	}
}

func TestHandleMessageDenied(t *testing.T) {
	rec := &recorder{}
	h := newHarness(t, &command.Definition{
		Aliases: []string{"stats"},
		Access:  &command.AccessPolicy{OwnerOnly: true},
		Handler: rec.handler(nil),
	})

	h.d.HandleMessage(context.Background(), textMessage(plainUserID, "/stats"))
	if rec.calls() != 0 {
		t.Fatalf("denied handler ran")
	}
	if texts := h.bot.Texts(); len(texts) != 1 || texts[0] != en.Tr("denied_owner") {
		t.Fatalf("texts = %q, want only the denial notice", texts)
	}

	h.d.HandleMessage(context.Background(), textMessage(ownerUserID, "/stats"))
	if rec.calls() != 1 {
		t.Fatalf("owner was not allowed")
	}
}

func TestCallbackPatternHandler(t *testing.T) {
	cmd := &recorder{}
	h := newHarness(t, &command.Definition{Aliases: []string{"topic"}, Handler: cmd.handler(nil)})

	var got *command.Callback
	h.d.Router().HandleCallback("topic", func(_ context.Context, cb *command.Callback) error {
		got = cb
		return nil
	})
	h.d.HandleCallback(context.Background(), query(plainUserID, "topic|audio|x"))

	if got == nil {
		t.Fatalf("pattern handler not invoked")
	}
	if got.Topic != "topic" || !reflect.DeepEqual(got.Args, []string{"audio", "x"}) {
		t.Fatalf("callback = %q %q", got.Topic, got.Args)
	}
	if cmd.calls() != 0 {
		t.Fatalf("command alias resolution attempted for a pattern hit")
	}
	if answers := h.bot.Answers(); len(answers) != 1 || answers[0].CallbackQueryID != callerID {
		t.Fatalf("answers = %+v, want exactly one", answers)
	}
}

func TestCallbackPatternBeatsReplay(t *testing.T) {
	cmd := &recorder{}
	h := newHarness(t, &command.Definition{Aliases: []string{"cmd"}, Handler: cmd.handler(nil)})

	hits := 0
	h.d.Router().HandleCallback("/cmd", func(context.Context, *command.Callback) error {
		hits++
		return nil
	})
	h.d.HandleCallback(context.Background(), query(plainUserID, "/cmd|x"))

	if hits != 1 || cmd.calls() != 0 {
		t.Fatalf("pattern hits = %d, command calls = %d", hits, cmd.calls())
	}
}

func TestCallbackReplaysCommand(t *testing.T) {
	rec := &recorder{}
	h := newHarness(t, &command.Definition{Aliases: []string{"cmd"}, Handler: rec.handler(nil)})

	q := query(plainUserID, "/cmd arg")
	h.d.HandleCallback(context.Background(), q)

	if rec.calls() != 1 {
		t.Fatalf("handler calls = %d, want 1", rec.calls())
	}
	helpers, msg := rec.helps[0], rec.msgs[0]
	if !helpers.IsCallback || helpers.Callback == nil || helpers.Callback.Query != q {
		t.Fatalf("replay not flagged as callback: %+v", helpers)
	}
	if helpers.Command != "cmd" || !reflect.DeepEqual(helpers.Args, []string{"arg"}) || helpers.Text != "arg" {
		t.Fatalf("replay parsed as %q %q %q", helpers.Command, helpers.Text, helpers.Args)
	}
	if msg.Text != "/cmd arg" || msg.From != q.From || msg.Chat.ID != chatID || msg.MessageID != q.Message.MessageID {
		t.Fatalf("synthetic message = %+v", msg)
	}
	if q.Message.Text != "menu" {
		t.Fatalf("original message was mutated")
	}
	if answers := h.bot.Answers(); len(answers) != 1 {
		t.Fatalf("answers = %d, want 1", len(answers))
	}
	if n := testutil.ToFloat64(h.metrics.Callbacks.WithLabelValues(metrics.RouteReplay, metrics.OutcomeOK)); n != 1 {
		t.Fatalf("replay counter = %v", n)
	}
}

func TestCallbackReplayHandlerAnswersItself(t *testing.T) {
	h := newHarness(t, &command.Definition{
		Aliases: []string{"ping"},
		Handler: func(_ context.Context, _ *tgbotapi.Message, hp *command.Helpers) error {
			return hp.Callback.Answer("pong", false)
		},
	})

	h.d.HandleCallback(context.Background(), query(plainUserID, "/ping"))

	answers := h.bot.Answers()
	if len(answers) != 1 || answers[0].Text != "pong" {
		t.Fatalf("answers = %+v, want the handler's single answer", answers)
	}
}

func TestCallbackReplayDenied(t *testing.T) {
	rec := &recorder{}
	h := newHarness(t, &command.Definition{
		Aliases: []string{"stats"},
		Access:  &command.AccessPolicy{OwnerOnly: true},
		Handler: rec.handler(nil),
	})

	h.d.HandleCallback(context.Background(), query(plainUserID, "/stats"))

	if rec.calls() != 0 {
		t.Fatalf("denied replay ran the handler")
	}
	if texts := h.bot.Texts(); len(texts) != 1 || texts[0] != en.Tr("denied_owner") {
		t.Fatalf("texts = %q", texts)
	}
	if len(h.bot.Answers()) != 1 {
		t.Fatalf("denied callback must still be answered once")
	}
}

func TestCallbackUnroutedIsAnswered(t *testing.T) {
	cases := []struct {
		name string
		q    *tgbotapi.CallbackQuery
	}{
		{"unknown topic", query(plainUserID, "nothing|here")},
		{"unknown command", query(plainUserID, "/missing")},
		{"other bot", query(plainUserID, "/cmd@OtherBot")},
		{"no message", &tgbotapi.CallbackQuery{ID: callerID, From: &tgbotapi.User{ID: plainUserID}, Data: "/cmd"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &recorder{}
			h := newHarness(t, &command.Definition{Aliases: []string{"cmd"}, Handler: rec.handler(nil)})

			h.d.HandleCallback(context.Background(), tc.q)

			if rec.calls() != 0 {
				t.Fatalf("handler ran for an unrouted callback")
			}
			answers := h.bot.Answers()
			if len(answers) != 1 || answers[0].ShowAlert || answers[0].Text != "" {
				t.Fatalf("answers = %+v, want one silent answer", answers)
			}
		})
	}
}

func TestCallbackFailureAlerts(t *testing.T) {
	h := newHarness(t)
	h.d.Router().HandleCallback("boom", func(context.Context, *command.Callback) error {
		panic("bad index")
	})

	h.d.HandleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: query(plainUserID, "boom|1")})

	answers := h.bot.Answers()
	if len(answers) != 1 || !answers[0].ShowAlert || answers[0].Text != en.Tr("callback_error") {
		t.Fatalf("answers = %+v, want one alert", answers)
	}
	if len(h.bot.Sent()) != 0 {
		t.Fatalf("alert path must not also message the chat")
	}
}

func TestCallbackFailureAfterAnswerMessagesChat(t *testing.T) {
	h := newHarness(t)
	h.d.Router().HandleCallback("late", func(_ context.Context, cb *command.Callback) error {
		if err := cb.Answer("working", false); err != nil {
			return err
		}
		return errors.New("edit failed")
	})

	h.d.HandleCallback(context.Background(), query(plainUserID, "late"))

	if answers := h.bot.Answers(); len(answers) != 1 || answers[0].Text != "working" {
		t.Fatalf("answers = %+v", answers)
	}
	if texts := h.bot.Texts(); len(texts) != 1 || texts[0] != en.Tr("callback_error") {
		t.Fatalf("texts = %q, want the failure notice in chat", texts)
	}
}

func TestHandlerRegistersPatternForLaterCallback(t *testing.T) {
	var picked []string
	h := newHarness(t, &command.Definition{
		Aliases: []string{"yt"},
		Handler: func(_ context.Context, msg *tgbotapi.Message, hp *command.Helpers) error {
			hp.Callbacks.HandleCallback("yt-format", func(_ context.Context, cb *command.Callback) error {
				picked = append(picked, cb.Args...)
				return cb.Answer("", false)
			})
			return hp.Reply(msg, "audio or video?")
		},
	})

	h.d.HandleMessage(context.Background(), textMessage(plainUserID, "/yt link"))
	h.d.HandleCallback(context.Background(), query(plainUserID, "yt-format|audio"))

	if !reflect.DeepEqual(picked, []string{"audio"}) {
		t.Fatalf("picked = %q", picked)
	}
	if h.d.Router().Len() != 1 {
		t.Fatalf("router len = %d", h.d.Router().Len())
	}
}

func TestHandleUpdateCountsKinds(t *testing.T) {
	h := newHarness(t)
	h.d.HandleUpdate(context.Background(), tgbotapi.Update{Message: textMessage(plainUserID, "hi")})
	h.d.HandleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: query(plainUserID, "x")})
	h.d.HandleUpdate(context.Background(), tgbotapi.Update{})

	for _, kind := range []string{"message", "callback", "other"} {
		if n := testutil.ToFloat64(h.metrics.Updates.WithLabelValues(kind)); n != 1 {
			t.Fatalf("%s updates = %v, want 1", kind, n)
		}
	}
}

func TestRouterLastRegistrationWins(t *testing.T) {
	r := NewRouter(nil)
	first := func(context.Context, *command.Callback) error { return errors.New("first") }
	second := func(context.Context, *command.Callback) error { return errors.New("second") }

	r.HandleCallback("t", first)
	r.HandleCallback("t", second)
	r.HandleCallback("nil", nil)

	fn, ok := r.Lookup("t")
	if !ok || fn(context.Background(), nil).Error() != "second" {
		t.Fatalf("Lookup(t) did not return the later handler")
	}
	if _, ok := r.Lookup("nil"); ok {
		t.Fatalf("nil handler must not be registered")
	}
	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1", r.Len())
	}
}
