package entity

import "time"

// ChatSetting per-chat translation toggle and target language
type ChatSetting struct {
	ChatID         int64
	Enabled        bool
	TargetLanguage string
	UpdatedAt      time.Time
}

// UserSetting per-user translation toggle
type UserSetting struct {
	UserID    int64
	Enabled   bool
	UpdatedAt time.Time
}

// DefaultChatSetting setting used for a chat that was never seen before
func DefaultChatSetting(chatID int64, targetLanguage string) ChatSetting {
	return ChatSetting{
		ChatID:         chatID,
		Enabled:        true,
		TargetLanguage: targetLanguage,
		UpdatedAt:      time.Now(),
	}
}

// DefaultUserSetting setting used for a user that was never seen before
func DefaultUserSetting(userID int64) UserSetting {
	return UserSetting{
		UserID:    userID,
		Enabled:   true,
		UpdatedAt: time.Now(),
	}
}
