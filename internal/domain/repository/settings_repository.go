package repository

import (
	"context"

	"github.com/yourusername/translate-relay-bot/internal/domain/entity"
)

// SettingsRepository durable storage of chat and user settings.
// Get* return found=false on a miss; errors are reserved for storage failures.
type SettingsRepository interface {
	// GetChat stored chat setting
	GetChat(ctx context.Context, chatID int64) (entity.ChatSetting, bool, error)

	// CreateChatIfAbsent insert the default and return whatever is stored afterwards
	CreateChatIfAbsent(ctx context.Context, def entity.ChatSetting) (entity.ChatSetting, error)

	// SetChatEnabled upsert the chat toggle, keeping the target language
	SetChatEnabled(ctx context.Context, chatID int64, enabled bool, defaultLang string) error

	// SetChatLanguage upsert the chat target language, keeping the toggle
	SetChatLanguage(ctx context.Context, chatID int64, lang string) error

	// ListChats all stored chat settings ordered by chat id
	ListChats(ctx context.Context) ([]entity.ChatSetting, error)

	GetUser(ctx context.Context, userID int64) (entity.UserSetting, bool, error)
	CreateUserIfAbsent(ctx context.Context, def entity.UserSetting) (entity.UserSetting, error)
	SetUserEnabled(ctx context.Context, userID int64, enabled bool) error

	// Ping checks that storage is reachable
	Ping(ctx context.Context) error

	Close() error
}
