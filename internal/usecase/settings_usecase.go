package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/translate-relay-bot/internal/domain/entity"
	"github.com/yourusername/translate-relay-bot/internal/domain/repository"
)

// SettingsUseCase chat and user translation settings
type SettingsUseCase interface {
	// GetChatSetting stored chat setting, persisting the default on first access
	GetChatSetting(ctx context.Context, chatID int64) (entity.ChatSetting, error)

	// GetUserSetting stored user setting, persisting the default on first access
	GetUserSetting(ctx context.Context, userID int64) (entity.UserSetting, error)

	SetChatTranslation(ctx context.Context, chatID int64, enabled bool) error
	SetUserTranslation(ctx context.Context, userID int64, enabled bool) error

	// SetChatLanguage validates code against the supported languages before writing
	SetChatLanguage(ctx context.Context, chatID int64, code string) (string, error)

	// ListChatSettings every stored chat setting
	ListChatSettings(ctx context.Context) ([]entity.ChatSetting, error)

	// ImportChatSettings writes each row's toggle and language
	ImportChatSettings(ctx context.Context, settings []entity.ChatSetting) (int, error)

	// DefaultLanguage target language given to new chats
	DefaultLanguage() string
}

const keyLockStripes = 64

// keyLocks serializes writers per chat or user id. Ids share a stripe by hash,
// which only ever over-serializes.
type keyLocks struct {
	chats [keyLockStripes]sync.Mutex
	users [keyLockStripes]sync.Mutex
}

func stripe(id int64) int {
	u := uint64(id)
	u ^= u >> 33
	u *= 0xff51afd7ed558ccd
	u ^= u >> 33
	return int(u % keyLockStripes)
}

func (k *keyLocks) chat(id int64) *sync.Mutex { return &k.chats[stripe(id)] }
func (k *keyLocks) user(id int64) *sync.Mutex { return &k.users[stripe(id)] }

type settingsUseCase struct {
	repo        repository.SettingsRepository
	defaultLang string
	locks       keyLocks
	logger      *logrus.Logger
}

// NewSettingsUseCase creates a SettingsUseCase. defaultLang must be a supported code.
func NewSettingsUseCase(repo repository.SettingsRepository, defaultLang string, logger *logrus.Logger) (SettingsUseCase, error) {
	lang := entity.NormalizeLanguageCode(defaultLang)
	if !entity.IsSupportedLanguage(lang) {
		return nil, fmt.Errorf("default target language %q: %w", defaultLang, entity.ErrInvalidLanguageCode)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &settingsUseCase{repo: repo, defaultLang: lang, logger: logger}, nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, entity.ErrStorageUnavailable, err)
}

func (u *settingsUseCase) DefaultLanguage() string { return u.defaultLang }

func (u *settingsUseCase) GetChatSetting(ctx context.Context, chatID int64) (entity.ChatSetting, error) {
	setting, found, err := u.repo.GetChat(ctx, chatID)
	if err != nil {
		return entity.ChatSetting{}, storageErr("get chat setting", err)
	}
	if found {
		return setting, nil
	}

	mu := u.locks.chat(chatID)
	mu.Lock()
	defer mu.Unlock()

	setting, err = u.repo.CreateChatIfAbsent(ctx, entity.DefaultChatSetting(chatID, u.defaultLang))
	if err != nil {
		return entity.ChatSetting{}, storageErr("create chat setting", err)
	}

	u.logger.WithFields(logrus.Fields{
		"chat_id": chatID,
		"lang":    setting.TargetLanguage,
	}).Debug("chat setting initialized")

	return setting, nil
}

func (u *settingsUseCase) GetUserSetting(ctx context.Context, userID int64) (entity.UserSetting, error) {
	setting, found, err := u.repo.GetUser(ctx, userID)
	if err != nil {
		return entity.UserSetting{}, storageErr("get user setting", err)
	}
	if found {
		return setting, nil
	}

	mu := u.locks.user(userID)
	mu.Lock()
	defer mu.Unlock()

	setting, err = u.repo.CreateUserIfAbsent(ctx, entity.DefaultUserSetting(userID))
	if err != nil {
		return entity.UserSetting{}, storageErr("create user setting", err)
	}
	return setting, nil
}

func (u *settingsUseCase) SetChatTranslation(ctx context.Context, chatID int64, enabled bool) error {
	mu := u.locks.chat(chatID)
	mu.Lock()
	defer mu.Unlock()

	if err := u.repo.SetChatEnabled(ctx, chatID, enabled, u.defaultLang); err != nil {
		return storageErr("set chat translation", err)
	}

	u.logger.WithFields(logrus.Fields{
		"chat_id": chatID,
		"enabled": enabled,
	}).Info("chat translation toggled")
	return nil
}

func (u *settingsUseCase) SetUserTranslation(ctx context.Context, userID int64, enabled bool) error {
	mu := u.locks.user(userID)
	mu.Lock()
	defer mu.Unlock()

	if err := u.repo.SetUserEnabled(ctx, userID, enabled); err != nil {
		return storageErr("set user translation", err)
	}

	u.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"enabled": enabled,
	}).Info("user translation toggled")
	return nil
}

func (u *settingsUseCase) SetChatLanguage(ctx context.Context, chatID int64, code string) (string, error) {
	lang := entity.NormalizeLanguageCode(code)
	if !entity.IsSupportedLanguage(lang) {
		return "", fmt.Errorf("%q: %w", code, entity.ErrInvalidLanguageCode)
	}

	mu := u.locks.chat(chatID)
	mu.Lock()
	defer mu.Unlock()

	if err := u.repo.SetChatLanguage(ctx, chatID, lang); err != nil {
		return "", storageErr("set chat language", err)
	}

	u.logger.WithFields(logrus.Fields{
		"chat_id": chatID,
		"lang":    lang,
	}).Info("chat language changed")
	return lang, nil
}

func (u *settingsUseCase) ListChatSettings(ctx context.Context) ([]entity.ChatSetting, error) {
	chats, err := u.repo.ListChats(ctx)
	if err != nil {
		return nil, storageErr("list chat settings", err)
	}
	return chats, nil
}

// ImportChatSettings validates every row first so a bad sheet writes nothing.
func (u *settingsUseCase) ImportChatSettings(ctx context.Context, settings []entity.ChatSetting) (int, error) {
	for i, s := range settings {
		lang := entity.NormalizeLanguageCode(s.TargetLanguage)
		if !entity.IsSupportedLanguage(lang) {
			return 0, fmt.Errorf("row %d chat %d: %q: %w", i+1, s.ChatID, s.TargetLanguage, entity.ErrInvalidLanguageCode)
		}
		settings[i].TargetLanguage = lang
	}

	for i, s := range settings {
		if _, err := u.SetChatLanguage(ctx, s.ChatID, s.TargetLanguage); err != nil {
			return i, err
		}
		if err := u.SetChatTranslation(ctx, s.ChatID, s.Enabled); err != nil {
			return i, err
		}
	}
	return len(settings), nil
}
