package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yourusername/translate-relay-bot/internal/domain/entity"
	"github.com/yourusername/translate-relay-bot/internal/domain/repository"
)

type memorySettingsRepository struct {
	mu    sync.RWMutex
	chats map[int64]entity.ChatSetting
	users map[int64]entity.UserSetting
}

// NewMemorySettingsRepository in-memory settings repository.
// Nothing survives a restart; meant for development and tests.
func NewMemorySettingsRepository() repository.SettingsRepository {
	return &memorySettingsRepository{
		chats: make(map[int64]entity.ChatSetting),
		users: make(map[int64]entity.UserSetting),
	}
}

func (m *memorySettingsRepository) GetChat(ctx context.Context, chatID int64) (entity.ChatSetting, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.chats[chatID]
	return s, ok, nil
}

func (m *memorySettingsRepository) CreateChatIfAbsent(ctx context.Context, def entity.ChatSetting) (entity.ChatSetting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.chats[def.ChatID]; ok {
		return s, nil
	}
	m.chats[def.ChatID] = def
	return def, nil
}

func (m *memorySettingsRepository) SetChatEnabled(ctx context.Context, chatID int64, enabled bool, defaultLang string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.chats[chatID]
	if !ok {
		s = entity.ChatSetting{ChatID: chatID, TargetLanguage: defaultLang}
	}
	s.Enabled = enabled
	s.UpdatedAt = time.Now()
	m.chats[chatID] = s
	return nil
}

func (m *memorySettingsRepository) SetChatLanguage(ctx context.Context, chatID int64, lang string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.chats[chatID]
	if !ok {
		s = entity.ChatSetting{ChatID: chatID, Enabled: true}
	}
	s.TargetLanguage = lang
	s.UpdatedAt = time.Now()
	m.chats[chatID] = s
	return nil
}

func (m *memorySettingsRepository) ListChats(ctx context.Context) ([]entity.ChatSetting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]entity.ChatSetting, 0, len(m.chats))
	for _, s := range m.chats {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ChatID < out[j].ChatID
	})
	return out, nil
}

func (m *memorySettingsRepository) GetUser(ctx context.Context, userID int64) (entity.UserSetting, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.users[userID]
	return s, ok, nil
}

func (m *memorySettingsRepository) CreateUserIfAbsent(ctx context.Context, def entity.UserSetting) (entity.UserSetting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.users[def.UserID]; ok {
		return s, nil
	}
	m.users[def.UserID] = def
	return def, nil
}

func (m *memorySettingsRepository) SetUserEnabled(ctx context.Context, userID int64, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.users[userID] = entity.UserSetting{UserID: userID, Enabled: enabled, UpdatedAt: time.Now()}
	return nil
}

func (m *memorySettingsRepository) Ping(ctx context.Context) error { return nil }

func (m *memorySettingsRepository) Close() error { return nil }
