package storage

import (
	"context"
	"sync"

	"github.com/yourusername/translate-relay-bot/internal/domain/entity"
	"github.com/yourusername/translate-relay-bot/internal/domain/repository"
)

// DefaultAdminLogSize actions kept by the in-memory audit log
const DefaultAdminLogSize = 1000

type memoryAdminRepository struct {
	mu      sync.RWMutex
	actions []entity.AdminAction
	maxSize int
}

// NewMemoryAdminRepository in-memory audit log keeping the newest maxSize actions
func NewMemoryAdminRepository(maxSize int) repository.AdminRepository {
	if maxSize <= 0 {
		maxSize = DefaultAdminLogSize
	}
	return &memoryAdminRepository{
		actions: []entity.AdminAction{},
		maxSize: maxSize,
	}
}

// LogAction appends an action, dropping the oldest past maxSize
func (m *memoryAdminRepository) LogAction(ctx context.Context, action entity.AdminAction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.actions = append(m.actions, action)

	if len(m.actions) > m.maxSize {
		m.actions = m.actions[len(m.actions)-m.maxSize:]
	}
	return nil
}

// RecentActions newest first
func (m *memoryAdminRepository) RecentActions(ctx context.Context, limit int) ([]entity.AdminAction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := len(m.actions)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]entity.AdminAction, 0, n)
	for i := len(m.actions) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.actions[i])
	}
	return out, nil
}
