package telegram

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/translate-relay-bot/internal/domain/entity"
	"github.com/yourusername/translate-relay-bot/internal/usecase"
)

const (
	maxImportSize   = 5 * 1024 * 1024
	maxMessageLen   = 4096
	downloadTimeout = 30 * time.Second
)

// botAPI the part of *tgbotapi.BotAPI the handler uses
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
	GetFile(config tgbotapi.FileConfig) (tgbotapi.File, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// BotHandler Telegram transport and command layer
type BotHandler struct {
	bot          botAPI
	token        string
	username     string
	fileEndpoint string
	http         *resty.Client

	dispatch usecase.DispatchUseCase
	admin    usecase.AdminUseCase
	settings usecase.SettingsUseCase
	logger   *logrus.Logger

	inflight sync.WaitGroup
}

// NewBotHandler connects to the Bot API and creates a BotHandler
func NewBotHandler(
	token string,
	dispatch usecase.DispatchUseCase,
	admin usecase.AdminUseCase,
	settings usecase.SettingsUseCase,
	logger *logrus.Logger,
) (*BotHandler, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	h := newBotHandler(bot, token, dispatch, admin, settings, logger)
	h.username = bot.Self.UserName
	return h, nil
}

func newBotHandler(
	bot botAPI,
	token string,
	dispatch usecase.DispatchUseCase,
	admin usecase.AdminUseCase,
	settings usecase.SettingsUseCase,
	logger *logrus.Logger,
) *BotHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &BotHandler{
		bot:          bot,
		token:        token,
		fileEndpoint: tgbotapi.FileEndpoint,
		http:         resty.New().SetTimeout(downloadTimeout),
		dispatch:     dispatch,
		admin:        admin,
		settings:     settings,
		logger:       logger,
	}
}

// Start long-polls updates until ctx is cancelled, then waits for in-flight handlers
func (h *BotHandler) Start(ctx context.Context) error {
	h.logger.WithField("bot", h.username).Info("bot started")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := h.bot.GetUpdatesChan(u)
	defer h.inflight.Wait()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("stopping bot")
			h.bot.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			h.inflight.Add(1)
			go func(message *tgbotapi.Message) {
				defer h.inflight.Done()
				h.handleMessage(ctx, message)
			}(update.Message)
		}
	}
}

// handleMessage routes one message to the importer, the command layer or the pipeline
func (h *BotHandler) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.From == nil || message.Chat == nil {
		return
	}
	if message.From.IsBot && !isAnonymousAdmin(message) {
		return
	}

	if message.Document != nil && h.handleDocumentMessage(ctx, message) {
		return
	}

	if message.IsCommand() {
		h.handleCommand(ctx, message)
		return
	}

	if isAnonymousAdmin(message) {
		return
	}
	h.handleTextMessage(ctx, message)
}

// handleTextMessage runs text or a caption through the pipeline and replies to it
func (h *BotHandler) handleTextMessage(ctx context.Context, message *tgbotapi.Message) {
	text, isCaption := message.Text, false
	if text == "" {
		text, isCaption = message.Caption, true
	}
	if text == "" {
		return
	}

	res := h.dispatch.Handle(ctx, entity.InboundMessage{
		ChatID:    message.Chat.ID,
		SenderID:  message.From.ID,
		MessageID: message.MessageID,
		Text:      text,
		IsCaption: isCaption,
	})

	reply, ok := replyText(res)
	if !ok {
		return
	}
	if err := h.reply(message, reply); err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": res.RequestID,
			"chat_id":    message.Chat.ID,
		}).WithError(err).Warn("failed to deliver reply")
	}
}

// handleDocumentMessage imports an uploaded settings workbook.
// Reports false when the document is not an import so its caption is handled as text.
func (h *BotHandler) handleDocumentMessage(ctx context.Context, message *tgbotapi.Message) bool {
	doc := message.Document
	if !strings.HasSuffix(strings.ToLower(doc.FileName), ".xlsx") || !h.admin.IsBotAdmin(message.From.ID) {
		return false
	}
	chatID := message.Chat.ID

	if doc.FileSize > maxImportSize {
		h.sendMessage(chatID, "❌ The file must not exceed 5MB.")
		return true
	}

	data, err := h.downloadFile(ctx, doc.FileID)
	if err != nil {
		h.logger.WithError(err).WithField("file", doc.FileName).Error("file download failed")
		h.sendMessage(chatID, "❌ Could not download the file.")
		return true
	}

	count, err := h.admin.ImportSettings(ctx, h.actor(message, entity.ScopeBot), data, doc.FileName)
	if err != nil {
		h.logger.WithError(err).WithField("file", doc.FileName).Warn("settings import failed")
		h.sendMessage(chatID, fmt.Sprintf("%s\nImported before the failure: %d", commandError(err), count))
		return true
	}

	h.sendMessage(chatID, fmt.Sprintf("✅ Imported %d chat settings from %s", count, doc.FileName))
	return true
}

// downloadFile fetches a file uploaded to Telegram
func (h *BotHandler) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := h.bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, err
	}

	resp, err := h.http.R().
		SetContext(ctx).
		Get(fmt.Sprintf(h.fileEndpoint, h.token, file.FilePath))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("download %s: status %d", file.FilePath, resp.StatusCode())
	}
	return resp.Body(), nil
}

// actor resolves who sent message. Chat admin status is fetched only when the policy needs it.
func (h *BotHandler) actor(message *tgbotapi.Message, scope entity.CommandScope) entity.Actor {
	a := entity.Actor{
		UserID:    message.From.ID,
		ChatID:    message.Chat.ID,
		IsPrivate: message.Chat.IsPrivate(),
	}
	if scope != entity.ScopeChat || a.IsPrivate || h.admin.Policy() != entity.AuthChatAdmins {
		return a
	}
	if isAnonymousAdmin(message) {
		a.IsChatAdmin = true
		return a
	}

	member, err := h.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: a.ChatID, UserID: a.UserID},
	})
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"chat_id": a.ChatID,
			"user_id": a.UserID,
		}).Warn("chat member lookup failed")
		return a
	}
	a.IsChatAdmin = member.IsCreator() || member.IsAdministrator()
	return a
}

// isAnonymousAdmin message sent by a group admin posting as the group itself
func isAnonymousAdmin(message *tgbotapi.Message) bool {
	return message.SenderChat != nil && message.Chat != nil && message.SenderChat.ID == message.Chat.ID
}

func (h *BotHandler) reply(message *tgbotapi.Message, text string) error {
	msg := tgbotapi.NewMessage(message.Chat.ID, truncate(text, maxMessageLen))
	msg.ReplyToMessageID = message.MessageID
	_, err := h.bot.Send(msg)
	return err
}

func (h *BotHandler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, truncate(text, maxMessageLen))
	if _, err := h.bot.Send(msg); err != nil {
		h.logger.WithError(err).WithField("chat_id", chatID).Warn("failed to send message")
	}
}

func (h *BotHandler) sendHTML(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := h.bot.Send(msg); err != nil {
		h.logger.WithError(err).WithField("chat_id", chatID).Warn("failed to send message")
	}
}

func (h *BotHandler) sendDocument(chatID int64, name string, data []byte) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	_, err := h.bot.Send(doc)
	return err
}
