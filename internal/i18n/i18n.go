// Package i18n holds the user-visible strings of the bot.
package i18n

import "strings"

// Fallback is the language every other table is completed from.
const Fallback = "en"

var translations = map[string]map[string]string{
	"en": {
		"generic_error":       "Something went wrong while running that command.",
		"callback_error":      "Something went wrong. Please try again.",
		"denied_owner":        "This command can only be used by the bot owner.",
		"denied_moderator":    "This command can only be used by moderators.",
		"denied_admin":        "This command can only be used by group administrators.",
		"denied_status_check": "Could not verify your permissions. Please try again later.",
		"menu_greeting":       "👋 Hi %s!\n\nHere are the available command categories.\nPick one to see its commands:",
		"menu_category_title": "📑 *Commands:* %s\n\n",
		"menu_example":        "\nExample: %s",
		"menu_back":           "⬅️ Back to menu",
		"menu_empty":          "No commands in this category.",
		"ping_reply":          "🏓 Pong! (%s)",
		"ping_button":         "🏓 Pong!",
		"say_usage":           "Usage: %s<text>",
		"pin_usage":           "Reply to the message you want to pin.",
		"pin_failed":          "Could not pin that message.",
		"id_reply":            "👤 User ID: `%d`\n💬 Chat ID: `%d` (%s)",
		"stats_title":         "📊 *Bot Status*",
		"stats_unavailable":   "n/a",
		"uncategorized":       "uncategorized",
	},
	"id": {
		"generic_error":       "Terjadi kesalahan saat menjalankan perintah.",
		"callback_error":      "Terjadi kesalahan. Silakan coba lagi.",
		"denied_owner":        "Perintah ini hanya untuk pemilik bot.",
		"denied_moderator":    "Perintah ini hanya untuk moderator.",
		"denied_admin":        "Perintah ini hanya untuk admin grup.",
		"denied_status_check": "Tidak dapat memeriksa izin Anda. Coba lagi nanti.",
		"menu_greeting":       "👋 Hai %s!\n\nBerikut adalah daftar kategori perintah yang tersedia.\nSilakan pilih kategori untuk melihat detail perintah:",
		"menu_category_title": "📑 *Daftar Perintah:* %s\n\n",
		"menu_example":        "\nContoh: %s",
		"menu_back":           "⬅️ Kembali ke Menu",
		"menu_empty":          "Belum ada perintah di kategori ini.",
		"say_usage":           "Penggunaan: %s<teks>",
		"pin_usage":           "Balas pesan yang ingin disematkan.",
		"pin_failed":          "Gagal menyematkan pesan.",
		"stats_title":         "📊 *Status Bot*",
	},
}

func init() {
	ensureCoverage()
}

// ensureCoverage fills every non-fallback table with the fallback strings it lacks.
func ensureCoverage() {
	en, ok := translations[Fallback]
	if !ok {
		return
	}
	for lang, langMap := range translations {
		if lang == Fallback {
			continue
		}
		for key, value := range en {
			if _, exists := langMap[key]; !exists {
				langMap[key] = value
			}
		}
	}
}

// Translator resolves keys for one language.
type Translator struct {
	lang string
}

// New returns a Translator for lang; unknown languages use the fallback.
func New(lang string) *Translator {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if _, ok := translations[lang]; !ok {
		lang = Fallback
	}
	return &Translator{lang: lang}
}

// Lang returns the resolved language code.
func (t *Translator) Lang() string {
	if t == nil {
		return Fallback
	}
	return t.lang
}

// Tr returns the string for key, or key itself when nothing matches.
func (t *Translator) Tr(key string) string {
	if v, ok := translations[t.Lang()][key]; ok {
		return v
	}
	if v, ok := translations[Fallback][key]; ok {
		return v
	}
	return key
}

// Supported lists the language codes with a table.
func Supported() []string {
	out := make([]string, 0, len(translations))
	for lang := range translations {
		out = append(out, lang)
	}
	return out
}
