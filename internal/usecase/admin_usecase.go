package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/translate-relay-bot/internal/domain/entity"
	"github.com/yourusername/translate-relay-bot/internal/domain/repository"
)

// AdminUseCase command authorization, settings mutations and audit
type AdminUseCase interface {
	// Authorize checks actor against the command scope
	Authorize(actor entity.Actor, scope entity.CommandScope) error

	// Policy configured chat command policy
	Policy() entity.AuthPolicy

	// IsBotAdmin operator listed in BOT_ADMIN_IDS
	IsBotAdmin(userID int64) bool

	// SetChatTranslation enable or disable translation in actor's chat
	SetChatTranslation(ctx context.Context, actor entity.Actor, enabled bool) error

	// SetChatLanguage change target language of actor's chat
	SetChatLanguage(ctx context.Context, actor entity.Actor, code string) (string, error)

	// SetUserTranslation enable or disable translation for actor's own messages
	SetUserTranslation(ctx context.Context, actor entity.Actor, enabled bool) error

	// ExportSettings every chat setting as a workbook
	ExportSettings(ctx context.Context, actor entity.Actor) ([]byte, error)

	// ImportSettings apply chat settings from an uploaded workbook
	ImportSettings(ctx context.Context, actor entity.Actor, data []byte, filename string) (int, error)

	// RecentActions audit trail, newest first
	RecentActions(ctx context.Context, actor entity.Actor, limit int) ([]entity.AdminAction, error)

	// Stats runtime counters
	Stats(ctx context.Context) (entity.RuntimeStats, error)
}

// StatsFunc snapshot of cache and limiter counters
type StatsFunc func() entity.RuntimeStats

type adminUseCase struct {
	settings  SettingsUseCase
	auditRepo repository.AdminRepository
	sheet     repository.SettingsSheet
	policy    entity.AuthPolicy
	botAdmins map[int64]struct{}
	stats     StatsFunc
	logger    *logrus.Logger
}

// NewAdminUseCase creates an AdminUseCase
func NewAdminUseCase(
	settings SettingsUseCase,
	auditRepo repository.AdminRepository,
	sheet repository.SettingsSheet,
	policy entity.AuthPolicy,
	botAdminIDs []int64,
	stats StatsFunc,
	logger *logrus.Logger,
) AdminUseCase {
	admins := make(map[int64]struct{}, len(botAdminIDs))
	for _, id := range botAdminIDs {
		admins[id] = struct{}{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &adminUseCase{
		settings:  settings,
		auditRepo: auditRepo,
		sheet:     sheet,
		policy:    policy,
		botAdmins: admins,
		stats:     stats,
		logger:    logger,
	}
}

func (u *adminUseCase) Policy() entity.AuthPolicy { return u.policy }

func (u *adminUseCase) IsBotAdmin(userID int64) bool {
	_, ok := u.botAdmins[userID]
	return ok
}

func (u *adminUseCase) Authorize(actor entity.Actor, scope entity.CommandScope) error {
	if scope == entity.ScopeSelf || u.IsBotAdmin(actor.UserID) {
		return nil
	}
	if scope == entity.ScopeChat {
		switch u.policy {
		case entity.AuthAnyone:
			return nil
		case entity.AuthChatAdmins:
			if actor.IsPrivate || actor.IsChatAdmin {
				return nil
			}
		}
	}
	return entity.ErrNotAuthorized
}

func (u *adminUseCase) SetChatTranslation(ctx context.Context, actor entity.Actor, enabled bool) error {
	if err := u.Authorize(actor, entity.ScopeChat); err != nil {
		return err
	}
	if err := u.settings.SetChatTranslation(ctx, actor.ChatID, enabled); err != nil {
		return err
	}

	action := "translate_off"
	if enabled {
		action = "translate_on"
	}
	u.audit(ctx, actor, action, "")
	return nil
}

func (u *adminUseCase) SetChatLanguage(ctx context.Context, actor entity.Actor, code string) (string, error) {
	if err := u.Authorize(actor, entity.ScopeChat); err != nil {
		return "", err
	}
	lang, err := u.settings.SetChatLanguage(ctx, actor.ChatID, code)
	if err != nil {
		return "", err
	}
	u.audit(ctx, actor, "setlang", lang)
	return lang, nil
}

func (u *adminUseCase) SetUserTranslation(ctx context.Context, actor entity.Actor, enabled bool) error {
	if err := u.settings.SetUserTranslation(ctx, actor.UserID, enabled); err != nil {
		return err
	}

	action := "user_off"
	if enabled {
		action = "user_on"
	}
	u.audit(ctx, actor, action, "")
	return nil
}

func (u *adminUseCase) ExportSettings(ctx context.Context, actor entity.Actor) ([]byte, error) {
	if err := u.Authorize(actor, entity.ScopeBot); err != nil {
		return nil, err
	}
	chats, err := u.settings.ListChatSettings(ctx)
	if err != nil {
		return nil, err
	}
	data, err := u.sheet.RenderChatSettings(ctx, chats)
	if err != nil {
		return nil, fmt.Errorf("render settings: %w", err)
	}
	u.audit(ctx, actor, "export_settings", fmt.Sprintf("%d chats", len(chats)))
	return data, nil
}

func (u *adminUseCase) ImportSettings(ctx context.Context, actor entity.Actor, data []byte, filename string) (int, error) {
	if err := u.Authorize(actor, entity.ScopeBot); err != nil {
		return 0, err
	}
	chats, err := u.sheet.ParseChatSettings(ctx, data, filename)
	if err != nil {
		return 0, fmt.Errorf("parse settings: %w", err)
	}
	n, err := u.settings.ImportChatSettings(ctx, chats)
	if n > 0 {
		u.audit(ctx, actor, "import_settings", fmt.Sprintf("%s: %d of %d chats", filename, n, len(chats)))
	}
	return n, err
}

func (u *adminUseCase) RecentActions(ctx context.Context, actor entity.Actor, limit int) ([]entity.AdminAction, error) {
	if err := u.Authorize(actor, entity.ScopeBot); err != nil {
		return nil, err
	}
	return u.auditRepo.RecentActions(ctx, limit)
}

func (u *adminUseCase) Stats(ctx context.Context) (entity.RuntimeStats, error) {
	var stats entity.RuntimeStats
	if u.stats != nil {
		stats = u.stats()
	}
	chats, err := u.settings.ListChatSettings(ctx)
	if err != nil {
		return stats, err
	}
	stats.Chats = len(chats)
	return stats, nil
}

// audit records a successful mutation. A failed audit write does not undo it.
func (u *adminUseCase) audit(ctx context.Context, actor entity.Actor, action, details string) {
	record := entity.AdminAction{
		ID:        uuid.NewString(),
		UserID:    actor.UserID,
		ChatID:    actor.ChatID,
		Action:    action,
		Details:   details,
		Timestamp: time.Now(),
	}
	if err := u.auditRepo.LogAction(ctx, record); err != nil {
		u.logger.WithError(err).WithField("action", action).Warn("failed to record admin action")
		return
	}
	u.logger.WithFields(logrus.Fields{
		"user_id": actor.UserID,
		"chat_id": actor.ChatID,
		"action":  action,
		"details": details,
	}).Info("admin action")
}
