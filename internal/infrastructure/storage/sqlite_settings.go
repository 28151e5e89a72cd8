package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
	"github.com/yourusername/translate-relay-bot/internal/domain/entity"
	"github.com/yourusername/translate-relay-bot/internal/domain/repository"
)

type sqliteSettingsRepository struct {
	db *sql.DB
	q  settingsQueries
}

// NewSQLiteSettingsRepository SQLite backed settings repository.
// synchronous=FULL makes every committed write durable before the call returns.
func NewSQLiteSettingsRepository(dbPath string) (repository.SettingsRepository, error) {
	if dbPath == "" {
		return nil, errors.New("settings db path must not be empty")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=FULL&_busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := createSettingsSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &sqliteSettingsRepository{db: db, q: newSettingsQueries(sq.Question)}, nil
}

func createSettingsSchema(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS chat_settings (
	chat_id INTEGER PRIMARY KEY,
	enabled INTEGER NOT NULL DEFAULT 1,
	target_lang TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS user_settings (
	user_id INTEGER PRIMARY KEY,
	enabled INTEGER NOT NULL DEFAULT 1,
	updated_at TIMESTAMP NOT NULL
);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChat(row rowScanner) (entity.ChatSetting, error) {
	var s entity.ChatSetting
	err := row.Scan(&s.ChatID, &s.Enabled, &s.TargetLanguage, &s.UpdatedAt)
	return s, err
}

func scanUser(row rowScanner) (entity.UserSetting, error) {
	var s entity.UserSetting
	err := row.Scan(&s.UserID, &s.Enabled, &s.UpdatedAt)
	return s, err
}

// GetChat returns found=false when the chat has no row
func (r *sqliteSettingsRepository) GetChat(ctx context.Context, chatID int64) (entity.ChatSetting, bool, error) {
	query, args, err := r.q.selectChat(chatID)
	if err != nil {
		return entity.ChatSetting{}, false, err
	}
	s, err := scanChat(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return entity.ChatSetting{}, false, nil
	}
	if err != nil {
		return entity.ChatSetting{}, false, fmt.Errorf("select chat %d: %w", chatID, err)
	}
	return s, true, nil
}

// CreateChatIfAbsent inserts def unless a row exists and returns the stored row
func (r *sqliteSettingsRepository) CreateChatIfAbsent(ctx context.Context, def entity.ChatSetting) (entity.ChatSetting, error) {
	insert, insertArgs, err := r.q.insertChatIfAbsent(def.ChatID, def.Enabled, def.TargetLanguage, def.UpdatedAt)
	if err != nil {
		return entity.ChatSetting{}, err
	}
	sel, selArgs, err := r.q.selectChat(def.ChatID)
	if err != nil {
		return entity.ChatSetting{}, err
	}

	var stored entity.ChatSetting
	err = r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, insert, insertArgs...); err != nil {
			return err
		}
		stored, err = scanChat(tx.QueryRowContext(ctx, sel, selArgs...))
		return err
	})
	if err != nil {
		return entity.ChatSetting{}, fmt.Errorf("create chat %d: %w", def.ChatID, err)
	}
	return stored, nil
}

// SetChatEnabled upserts the toggle; a new row gets defaultLang
func (r *sqliteSettingsRepository) SetChatEnabled(ctx context.Context, chatID int64, enabled bool, defaultLang string) error {
	query, args, err := r.q.upsertChatEnabled(chatID, enabled, defaultLang, time.Now())
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update chat %d enabled: %w", chatID, err)
	}
	return nil
}

// SetChatLanguage upserts the target language; a new row is enabled
func (r *sqliteSettingsRepository) SetChatLanguage(ctx context.Context, chatID int64, lang string) error {
	query, args, err := r.q.upsertChatLanguage(chatID, lang, time.Now())
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update chat %d language: %w", chatID, err)
	}
	return nil
}

// ListChats all chat rows ordered by chat id
func (r *sqliteSettingsRepository) ListChats(ctx context.Context) ([]entity.ChatSetting, error) {
	query, args, err := r.q.selectChats()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
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

// GetUser returns found=false when the user has no row
func (r *sqliteSettingsRepository) GetUser(ctx context.Context, userID int64) (entity.UserSetting, bool, error) {
	query, args, err := r.q.selectUser(userID)
	if err != nil {
		return entity.UserSetting{}, false, err
	}
	s, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return entity.UserSetting{}, false, nil
	}
	if err != nil {
		return entity.UserSetting{}, false, fmt.Errorf("select user %d: %w", userID, err)
	}
	return s, true, nil
}

func (r *sqliteSettingsRepository) CreateUserIfAbsent(ctx context.Context, def entity.UserSetting) (entity.UserSetting, error) {
	insert, insertArgs, err := r.q.insertUserIfAbsent(def.UserID, def.Enabled, def.UpdatedAt)
	if err != nil {
		return entity.UserSetting{}, err
	}
	sel, selArgs, err := r.q.selectUser(def.UserID)
	if err != nil {
		return entity.UserSetting{}, err
	}

	var stored entity.UserSetting
	err = r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, insert, insertArgs...); err != nil {
			return err
		}
		stored, err = scanUser(tx.QueryRowContext(ctx, sel, selArgs...))
		return err
	})
	if err != nil {
		return entity.UserSetting{}, fmt.Errorf("create user %d: %w", def.UserID, err)
	}
	return stored, nil
}

func (r *sqliteSettingsRepository) SetUserEnabled(ctx context.Context, userID int64, enabled bool) error {
	query, args, err := r.q.upsertUserEnabled(userID, enabled, time.Now())
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update user %d enabled: %w", userID, err)
	}
	return nil
}

func (r *sqliteSettingsRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *sqliteSettingsRepository) Close() error {
	return r.db.Close()
}

func (r *sqliteSettingsRepository) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
