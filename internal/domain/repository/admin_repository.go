package repository

import (
	"context"

	"github.com/yourusername/translate-relay-bot/internal/domain/entity"
)

// AdminRepository audit trail of administrative actions
type AdminRepository interface {
	// LogAction record an admin action
	LogAction(ctx context.Context, action entity.AdminAction) error

	// RecentActions newest first, at most limit (0 = all kept)
	RecentActions(ctx context.Context, limit int) ([]entity.AdminAction, error)
}
