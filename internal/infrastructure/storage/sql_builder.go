package storage

import (
	"time"

	sq "github.com/Masterminds/squirrel"
)

// Statements shared by the SQLite and Postgres settings repositories.
// Both dialects accept ON CONFLICT upserts; only the placeholder format differs.
type settingsQueries struct {
	sq sq.StatementBuilderType
}

func newSettingsQueries(format sq.PlaceholderFormat) settingsQueries {
	return settingsQueries{sq: sq.StatementBuilder.PlaceholderFormat(format)}
}

func (q settingsQueries) selectChat(chatID int64) (string, []any, error) {
	return q.sq.Select("chat_id", "enabled", "target_lang", "updated_at").
		From("chat_settings").
		Where(sq.Eq{"chat_id": chatID}).
		ToSql()
}

func (q settingsQueries) selectChats() (string, []any, error) {
	return q.sq.Select("chat_id", "enabled", "target_lang", "updated_at").
		From("chat_settings").
		OrderBy("chat_id").
		ToSql()
}

func (q settingsQueries) insertChatIfAbsent(chatID int64, enabled bool, lang string, now time.Time) (string, []any, error) {
	return q.sq.Insert("chat_settings").
		Columns("chat_id", "enabled", "target_lang", "updated_at").
		Values(chatID, enabled, lang, now).
		Suffix("ON CONFLICT (chat_id) DO NOTHING").
		ToSql()
}

func (q settingsQueries) upsertChatEnabled(chatID int64, enabled bool, defaultLang string, now time.Time) (string, []any, error) {
	return q.sq.Insert("chat_settings").
		Columns("chat_id", "enabled", "target_lang", "updated_at").
		Values(chatID, enabled, defaultLang, now).
		Suffix("ON CONFLICT (chat_id) DO UPDATE SET enabled = excluded.enabled, updated_at = excluded.updated_at").
		ToSql()
}

func (q settingsQueries) upsertChatLanguage(chatID int64, lang string, now time.Time) (string, []any, error) {
	return q.sq.Insert("chat_settings").
		Columns("chat_id", "enabled", "target_lang", "updated_at").
		Values(chatID, true, lang, now).
		Suffix("ON CONFLICT (chat_id) DO UPDATE SET target_lang = excluded.target_lang, updated_at = excluded.updated_at").
		ToSql()
}

func (q settingsQueries) selectUser(userID int64) (string, []any, error) {
	return q.sq.Select("user_id", "enabled", "updated_at").
		From("user_settings").
		Where(sq.Eq{"user_id": userID}).
		ToSql()
}

func (q settingsQueries) insertUserIfAbsent(userID int64, enabled bool, now time.Time) (string, []any, error) {
	return q.sq.Insert("user_settings").
		Columns("user_id", "enabled", "updated_at").
		Values(userID, enabled, now).
		Suffix("ON CONFLICT (user_id) DO NOTHING").
		ToSql()
}

func (q settingsQueries) upsertUserEnabled(userID int64, enabled bool, now time.Time) (string, []any, error) {
	return q.sq.Insert("user_settings").
		Columns("user_id", "enabled", "updated_at").
		Values(userID, enabled, now).
		Suffix("ON CONFLICT (user_id) DO UPDATE SET enabled = excluded.enabled, updated_at = excluded.updated_at").
		ToSql()
}
