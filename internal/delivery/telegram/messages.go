package telegram

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/yourusername/translate-relay-bot/internal/domain/entity"
)

// replyText text to post for a pipeline result. False means stay silent.
func replyText(res entity.Result) (string, bool) {
	switch res.Outcome {
	case entity.OutcomeDelivered:
		return formatTranslation(res), true
	case entity.OutcomeRejected:
		if res.Notice == "" {
			return "", false
		}
		if res.Reason == entity.ReasonRateLimited {
			return res.Notice, true
		}
		return res.Notice + "\n\n" + res.Text, true
	}
	return "", false
}

// formatTranslation renders "🌐 EN → ES" followed by the translated text
func formatTranslation(res entity.Result) string {
	return fmt.Sprintf("🌐 %s → %s\n%s", displayCode(res.SourceLang), displayCode(res.TargetLang), res.Text)
}

func displayCode(code string) string {
	if code == "" || code == entity.UnknownLanguage {
		return "AUTO"
	}
	return strings.ToUpper(code)
}

// parseLanguageArg first argument of /setlang
func parseLanguageArg(args string) (string, bool) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return "", false
	}
	return fields[0], true
}

func isUserError(err error) bool {
	return errors.Is(err, entity.ErrNotAuthorized) || errors.Is(err, entity.ErrInvalidLanguageCode)
}

func commandError(err error) string {
	switch {
	case errors.Is(err, entity.ErrNotAuthorized):
		return "⛔ You are not allowed to change this setting."
	case errors.Is(err, entity.ErrInvalidLanguageCode):
		return "❌ Unsupported language. Use /languages"
	case errors.Is(err, entity.ErrStorageUnavailable):
		return "⚠️ Settings are temporarily unavailable. Please try again later."
	default:
		return fmt.Sprintf("❌ Command failed: %v", err)
	}
}

// truncate shortens s to limit UTF-16 code units, the unit Telegram counts message length in
func truncate(s string, limit int) string {
	if utf16Len(s) <= limit {
		return s
	}
	units := 0
	for i, r := range s {
		n := utf16.RuneLen(r)
		if units+n > limit-1 {
			return s[:i] + "…"
		}
		units += n
	}
	return s
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

func welcomeMessage() string {
	return "👋 <b>Hi! I translate messages in this chat.</b>\n\n" +
		"Add me to a group and every message that is not already in the chat language " +
		"gets a translated reply.\n\n" +
		"Use /setlang &lt;code&gt; to pick the language and /help for all commands."
}

func helpMessage() string {
	return "📘 <b>Translation Bot Help</b>\n" +
		"━━━━━━━━━━━━━━━━━━\n\n" +
		"<b>Chat</b>\n" +
		"• /translate_on\n" +
		"• /translate_off\n" +
		"• /setlang &lt;code&gt;\n" +
		"• /status\n\n" +
		"<b>User</b>\n" +
		"• /user_on\n" +
		"• /user_off\n\n" +
		"<b>Info</b>\n" +
		"• /languages\n" +
		"• /botinfo\n" +
		"• /help\n\n" +
		"<b>Operators</b>\n" +
		"• /export\n" +
		"• /stats\n" +
		"• /audit\n" +
		"• send an .xlsx file to import chat settings"
}

func botInfoMessage() string {
	return "🤖 <b>Translator Bot</b>\n" +
		"━━━━━━━━━━━━━━━━━━\n" +
		"• Auto language detection\n" +
		"• Persistent chat and user settings\n" +
		"• In-memory caching\n" +
		"• Rate limiting"
}

func languagesMessage() string {
	codes := entity.LanguageCodes()
	parts := make([]string, 0, len(codes))
	for _, code := range codes {
		parts = append(parts, fmt.Sprintf("%s (%s)", entity.SupportedLanguages[code], code))
	}
	return "🌍 Supported Languages:\n" + strings.Join(parts, ", ")
}

func statusMessage(chat entity.ChatSetting, user entity.UserSetting, policy entity.AuthPolicy) string {
	return fmt.Sprintf("📊 Status\n"+
		"Chat translation: %s\n"+
		"Target language: %s (%s)\n"+
		"Your messages: %s\n"+
		"Who can change chat settings: %s",
		onOff(chat.Enabled),
		entity.SupportedLanguages[chat.TargetLanguage], chat.TargetLanguage,
		onOff(user.Enabled),
		policyName(policy))
}

func statsMessage(s entity.RuntimeStats) string {
	return fmt.Sprintf("📈 Runtime stats\n"+
		"Engine: %s\n"+
		"Chats: %d\n\n"+
		"Cache: %d/%d entries\n"+
		"Hits: %d, misses: %d, evictions: %d\n\n"+
		"Rate limiter: %d senders tracked\n"+
		"Admitted: %d, rejected: %d\n"+
		"Evicted: %d, swept: %d",
		s.Engine, s.Chats,
		s.Cache.Entries, s.Cache.Capacity,
		s.Cache.Hits, s.Cache.Misses, s.Cache.Evictions,
		s.RateLimit.Senders,
		s.RateLimit.Admitted, s.RateLimit.Rejected,
		s.RateLimit.Evictions, s.RateLimit.Swept)
}

func auditMessage(actions []entity.AdminAction) string {
	if len(actions) == 0 {
		return "No settings changes recorded yet."
	}
	var b strings.Builder
	b.WriteString("🗂 Recent settings changes\n")
	for _, a := range actions {
		fmt.Fprintf(&b, "\n%s user %d chat %d: %s", a.Timestamp.Format("2006-01-02 15:04"), a.UserID, a.ChatID, a.Action)
		if a.Details != "" {
			fmt.Fprintf(&b, " (%s)", a.Details)
		}
	}
	return b.String()
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}

func policyName(p entity.AuthPolicy) string {
	switch p {
	case entity.AuthAnyone:
		return "everyone"
	case entity.AuthBotAdmins:
		return "bot operators"
	default:
		return "chat administrators"
	}
}
