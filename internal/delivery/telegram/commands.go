package telegram

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/translate-relay-bot/internal/domain/entity"
)

const auditPageSize = 10

// handleCommand dispatches slash commands
func (h *BotHandler) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	switch message.Command() {
	case "start":
		h.sendHTML(chatID, welcomeMessage())
	case "help":
		h.sendHTML(chatID, helpMessage())
	case "botinfo":
		h.sendHTML(chatID, botInfoMessage())
	case "languages":
		h.sendMessage(chatID, languagesMessage())
	case "status":
		h.handleStatusCommand(ctx, message)
	case "translate_on":
		h.handleChatToggle(ctx, message, true)
	case "translate_off":
		h.handleChatToggle(ctx, message, false)
	case "setlang":
		h.handleSetLangCommand(ctx, message)
	case "user_on":
		h.handleUserToggle(ctx, message, true)
	case "user_off":
		h.handleUserToggle(ctx, message, false)
	case "export":
		h.handleExportCommand(ctx, message)
	case "stats":
		h.handleStatsCommand(ctx, message)
	case "audit":
		h.handleAuditCommand(ctx, message)
	default:
		// groups carry commands meant for other bots
		if message.Chat.IsPrivate() {
			h.sendMessage(chatID, "Unknown command. Use /help.")
		}
	}
}

func (h *BotHandler) handleStatusCommand(ctx context.Context, message *tgbotapi.Message) {
	chat, err := h.settings.GetChatSetting(ctx, message.Chat.ID)
	if err != nil {
		h.commandFailed(message, "status", err)
		return
	}
	user, err := h.settings.GetUserSetting(ctx, message.From.ID)
	if err != nil {
		h.commandFailed(message, "status", err)
		return
	}
	h.sendMessage(message.Chat.ID, statusMessage(chat, user, h.admin.Policy()))
}

func (h *BotHandler) handleChatToggle(ctx context.Context, message *tgbotapi.Message, enabled bool) {
	actor := h.actor(message, entity.ScopeChat)
	if err := h.admin.SetChatTranslation(ctx, actor, enabled); err != nil {
		h.commandFailed(message, "chat toggle", err)
		return
	}
	if enabled {
		h.sendMessage(message.Chat.ID, "✅ Translation enabled in this chat")
	} else {
		h.sendMessage(message.Chat.ID, "⛔ Translation disabled in this chat")
	}
}

func (h *BotHandler) handleUserToggle(ctx context.Context, message *tgbotapi.Message, enabled bool) {
	actor := h.actor(message, entity.ScopeSelf)
	if err := h.admin.SetUserTranslation(ctx, actor, enabled); err != nil {
		h.commandFailed(message, "user toggle", err)
		return
	}
	if enabled {
		h.sendMessage(message.Chat.ID, "✅ Translation enabled for you")
	} else {
		h.sendMessage(message.Chat.ID, "⛔ Translation disabled for you")
	}
}

func (h *BotHandler) handleSetLangCommand(ctx context.Context, message *tgbotapi.Message) {
	code, ok := parseLanguageArg(message.CommandArguments())
	if !ok {
		h.sendMessage(message.Chat.ID, "Usage: /setlang <language_code>")
		return
	}

	actor := h.actor(message, entity.ScopeChat)
	lang, err := h.admin.SetChatLanguage(ctx, actor, code)
	if err != nil {
		h.commandFailed(message, "setlang", err)
		return
	}
	h.sendMessage(message.Chat.ID, fmt.Sprintf("🌐 Target language set to %s (%s)", entity.SupportedLanguages[lang], lang))
}

func (h *BotHandler) handleExportCommand(ctx context.Context, message *tgbotapi.Message) {
	data, err := h.admin.ExportSettings(ctx, h.actor(message, entity.ScopeBot))
	if err != nil {
		h.commandFailed(message, "export", err)
		return
	}
	name := fmt.Sprintf("chat_settings_%s.xlsx", time.Now().Format("20060102_150405"))
	if err := h.sendDocument(message.Chat.ID, name, data); err != nil {
		h.logger.WithError(err).WithField("chat_id", message.Chat.ID).Error("failed to send export")
		h.sendMessage(message.Chat.ID, "❌ Could not send the export file.")
	}
}

func (h *BotHandler) handleStatsCommand(ctx context.Context, message *tgbotapi.Message) {
	if err := h.admin.Authorize(h.actor(message, entity.ScopeBot), entity.ScopeBot); err != nil {
		h.commandFailed(message, "stats", err)
		return
	}
	stats, err := h.admin.Stats(ctx)
	if err != nil {
		h.commandFailed(message, "stats", err)
		return
	}
	h.sendMessage(message.Chat.ID, statsMessage(stats))
}

func (h *BotHandler) handleAuditCommand(ctx context.Context, message *tgbotapi.Message) {
	actions, err := h.admin.RecentActions(ctx, h.actor(message, entity.ScopeBot), auditPageSize)
	if err != nil {
		h.commandFailed(message, "audit", err)
		return
	}
	h.sendMessage(message.Chat.ID, auditMessage(actions))
}

// commandFailed tells the sender why a command was refused and logs unexpected failures
func (h *BotHandler) commandFailed(message *tgbotapi.Message, command string, err error) {
	entry := h.logger.WithFields(logrus.Fields{
		"command": command,
		"chat_id": message.Chat.ID,
		"user_id": message.From.ID,
	}).WithError(err)
	if isUserError(err) {
		entry.Debug("command refused")
	} else {
		entry.Error("command failed")
	}
	h.sendMessage(message.Chat.ID, commandError(err))
}
