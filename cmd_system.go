package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"cmdbot/internal/command"
	"cmdbot/internal/format"
	"cmdbot/internal/tg"
)

func pingCommand() (*command.Definition, error) {
	return &command.Definition{
		Aliases:     []string{"p", "ping"},
		Description: "Check that the bot is alive",
		Examples:    []string{"%cmd"},
		Categories:  []string{"system"},
		NoPrefix:    true,
		Handler: func(_ context.Context, msg *tgbotapi.Message, h *command.Helpers) error {
			// a replayed message carries the button message's date
			if h.IsCallback {
				return h.Callback.Answer(h.Tr("ping_button"), false)
			}
			latency := "?"
			if msg.Date != 0 {
				latency = format.FormatDuration(max(time.Since(msg.Time()), 0))
			}
			return h.Reply(msg, fmt.Sprintf(h.Tr("ping_reply"), latency))
		},
	}, nil
}

func idCommand() (*command.Definition, error) {
	return &command.Definition{
		Aliases:     []string{"id", "whoami"},
		Description: "Show your user id and the chat id",
		Examples:    []string{"%cmd"},
		Categories:  []string{"system"},
		Handler: func(_ context.Context, msg *tgbotapi.Message, h *command.Helpers) error {
			var uid int64
			if msg.From != nil {
				uid = msg.From.ID
			}
			tg.SendMarkdown(h.Bot, msg.Chat.ID, fmt.Sprintf(h.Tr("id_reply"), uid, msg.Chat.ID, msg.Chat.Type), nil)
			return nil
		},
	}, nil
}

// hostStats is a point-in-time view of the host and the bot process. Zero
// values mean the reading failed.
type hostStats struct {
	UptimeSec  uint64
	CPU        float64
	CPUOK      bool
	RAMUsedMB  uint64
	RAMTotalMB uint64
	RAMPercent float64
	Load1      float64
	Load5      float64
	Load15     float64
	LoadOK     bool
	ProcRSSMB  uint64
}

// readHostStats is swapped out in tests.
var readHostStats = func(ctx context.Context) hostStats {
	var s hostStats
	if up, err := host.UptimeWithContext(ctx); err == nil {
		s.UptimeSec = up
	}
	if pct, err := cpu.PercentWithContext(ctx, 200*time.Millisecond, false); err == nil && len(pct) > 0 {
		s.CPU, s.CPUOK = pct[0], true
	}
	if v, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		s.RAMUsedMB = v.Used / 1024 / 1024
		s.RAMTotalMB = v.Total / 1024 / 1024
		s.RAMPercent = v.UsedPercent
	}
	if l, err := load.AvgWithContext(ctx); err == nil {
		s.Load1, s.Load5, s.Load15, s.LoadOK = l.Load1, l.Load5, l.Load15, true
	}
	if p, err := process.NewProcessWithContext(ctx, int32(os.Getpid())); err == nil {
		if mi, err := p.MemoryInfoWithContext(ctx); err == nil {
			s.ProcRSSMB = mi.RSS / 1024 / 1024
		}
	}
	return s
}

func statsCommand(app *AppContext) (*command.Definition, error) {
	return &command.Definition{
		Aliases:     []string{"stats", "status"},
		Description: "Host and bot status",
		Examples:    []string{"%cmd"},
		Categories:  []string{"system"},
		Access:      &command.AccessPolicy{OwnerOnly: true},
		Handler: func(ctx context.Context, msg *tgbotapi.Message, h *command.Helpers) error {
			text := renderStats(app, h, readHostStats(ctx))
			tg.SendMarkdown(h.Bot, msg.Chat.ID, text, nil)
			if h.IsCallback {
				return h.Callback.Answer("", false)
			}
			return nil
		},
	}, nil
}

func renderStats(app *AppContext, h *command.Helpers, s hostStats) string {
	na := h.Tr("stats_unavailable")
	var b strings.Builder
	b.WriteString(h.Tr("stats_title") + "\n\n")

	b.WriteString(fmt.Sprintf("🤖 Bot uptime: `%s`\n", format.FormatDuration(time.Since(app.StartTime))))
	b.WriteString(fmt.Sprintf("📚 Commands: `%d` (%d aliases)\n", len(app.Registry.Definitions()), app.Registry.Len()))
	b.WriteString(fmt.Sprintf("🔘 Callback topics: `%d`\n", app.Router.Len()))
	b.WriteString(fmt.Sprintf("🧵 Goroutines: `%d`\n", runtime.NumGoroutine()))
	if s.ProcRSSMB > 0 {
		b.WriteString(fmt.Sprintf("📦 Bot RSS: `%s`\n", format.FormatRAM(s.ProcRSSMB)))
	}
	b.WriteString("─────────────────────\n")

	if s.UptimeSec > 0 {
		b.WriteString(fmt.Sprintf("⏱ Host uptime: `%s`\n", format.FormatUptime(s.UptimeSec)))
	} else {
		b.WriteString("⏱ Host uptime: " + na + "\n")
	}
	if s.CPUOK {
		b.WriteString(fmt.Sprintf("🧠 CPU  %s `%.1f%%`\n", format.MakeProgressBar(s.CPU), s.CPU))
	} else {
		b.WriteString("🧠 CPU  " + na + "\n")
	}
	if s.RAMTotalMB > 0 {
		b.WriteString(fmt.Sprintf("💾 RAM  %s `%.1f%%`\n", format.MakeProgressBar(s.RAMPercent), s.RAMPercent))
		b.WriteString(fmt.Sprintf("   ↳ `%s` / `%s`\n", format.FormatRAM(s.RAMUsedMB), format.FormatRAM(s.RAMTotalMB)))
	} else {
		b.WriteString("💾 RAM  " + na + "\n")
	}
	if s.LoadOK {
		b.WriteString(fmt.Sprintf("📈 Load `%.2f %.2f %.2f`", s.Load1, s.Load5, s.Load15))
	} else {
		b.WriteString("📈 Load " + na)
	}
	return b.String()
}
