package repository

import (
	"context"

	"github.com/yourusername/translate-relay-bot/internal/domain/entity"
)

// SettingsSheet spreadsheet import/export of chat settings
type SettingsSheet interface {
	// ParseChatSettings reads chat rows from an uploaded workbook
	ParseChatSettings(ctx context.Context, data []byte, filename string) ([]entity.ChatSetting, error)

	// RenderChatSettings writes chat rows into a workbook
	RenderChatSettings(ctx context.Context, settings []entity.ChatSetting) ([]byte, error)
}
