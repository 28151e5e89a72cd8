package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yourusername/translate-relay-bot/internal/domain/entity"
	"github.com/yourusername/translate-relay-bot/internal/domain/repository"
)

type postgresSettingsRepository struct {
	pool *pgxpool.Pool
	q    settingsQueries
}

// NewPostgresSettingsRepository Postgres backed settings repository
func NewPostgresSettingsRepository(ctx context.Context, databaseURL string) (repository.SettingsRepository, error) {
	if databaseURL == "" {
		return nil, errors.New("database url must not be empty")
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS chat_settings (
	chat_id BIGINT PRIMARY KEY,
	enabled BOOLEAN NOT NULL DEFAULT TRUE,
	target_lang TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS user_settings (
	user_id BIGINT PRIMARY KEY,
	enabled BOOLEAN NOT NULL DEFAULT TRUE,
	updated_at TIMESTAMPTZ NOT NULL
);
`
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &postgresSettingsRepository{pool: pool, q: newSettingsQueries(sq.Dollar)}, nil
}

func (r *postgresSettingsRepository) GetChat(ctx context.Context, chatID int64) (entity.ChatSetting, bool, error) {
	query, args, err := r.q.selectChat(chatID)
	if err != nil {
		return entity.ChatSetting{}, false, err
	}
	s, err := scanChat(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return entity.ChatSetting{}, false, nil
	}
	if err != nil {
		return entity.ChatSetting{}, false, fmt.Errorf("select chat %d: %w", chatID, err)
	}
	return s, true, nil
}

func (r *postgresSettingsRepository) CreateChatIfAbsent(ctx context.Context, def entity.ChatSetting) (entity.ChatSetting, error) {
	insert, insertArgs, err := r.q.insertChatIfAbsent(def.ChatID, def.Enabled, def.TargetLanguage, def.UpdatedAt)
	if err != nil {
		return entity.ChatSetting{}, err
	}
	sel, selArgs, err := r.q.selectChat(def.ChatID)
	if err != nil {
		return entity.ChatSetting{}, err
	}

	var stored entity.ChatSetting
	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insert, insertArgs...); err != nil {
			return err
		}
		stored, err = scanChat(tx.QueryRow(ctx, sel, selArgs...))
		return err
	})
	if err != nil {
		return entity.ChatSetting{}, fmt.Errorf("create chat %d: %w", def.ChatID, err)
	}
	return stored, nil
}

func (r *postgresSettingsRepository) SetChatEnabled(ctx context.Context, chatID int64, enabled bool, defaultLang string) error {
	query, args, err := r.q.upsertChatEnabled(chatID, enabled, defaultLang, time.Now())
	if err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("update chat %d enabled: %w", chatID, err)
	}
	return nil
}

func (r *postgresSettingsRepository) SetChatLanguage(ctx context.Context, chatID int64, lang string) error {
	query, args, err := r.q.upsertChatLanguage(chatID, lang, time.Now())
	if err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("update chat %d language: %w", chatID, err)
	}
	return nil
}

func (r *postgresSettingsRepository) ListChats(ctx context.Context) ([]entity.ChatSetting, error) {
	query, args, err := r.q.selectChats()
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	var out []entity.ChatSetting
	for rows.Next() {
		s, err := scanChat(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *postgresSettingsRepository) GetUser(ctx context.Context, userID int64) (entity.UserSetting, bool, error) {
	query, args, err := r.q.selectUser(userID)
	if err != nil {
		return entity.UserSetting{}, false, err
	}
	s, err := scanUser(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return entity.UserSetting{}, false, nil
	}
	if err != nil {
		return entity.UserSetting{}, false, fmt.Errorf("select user %d: %w", userID, err)
	}
	return s, true, nil
}

func (r *postgresSettingsRepository) CreateUserIfAbsent(ctx context.Context, def entity.UserSetting) (entity.UserSetting, error) {
	insert, insertArgs, err := r.q.insertUserIfAbsent(def.UserID, def.Enabled, def.UpdatedAt)
	if err != nil {
		return entity.UserSetting{}, err
	}
	sel, selArgs, err := r.q.selectUser(def.UserID)
	if err != nil {
		return entity.UserSetting{}, err
	}

	var stored entity.UserSetting
	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insert, insertArgs...); err != nil {
			return err
		}
		stored, err = scanUser(tx.QueryRow(ctx, sel, selArgs...))
		return err
	})
	if err != nil {
		return entity.UserSetting{}, fmt.Errorf("create user %d: %w", def.UserID, err)
	}
	return stored, nil
}

func (r *postgresSettingsRepository) SetUserEnabled(ctx context.Context, userID int64, enabled bool) error {
	query, args, err := r.q.upsertUserEnabled(userID, enabled, time.Now())
	if err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("update user %d enabled: %w", userID, err)
	}
	return nil
}

func (r *postgresSettingsRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *postgresSettingsRepository) Close() error {
	r.pool.Close()
	return nil
}
