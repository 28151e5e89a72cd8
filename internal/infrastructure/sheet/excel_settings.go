package sheet

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"github.com/yourusername/translate-relay-bot/internal/domain/entity"
	"github.com/yourusername/translate-relay-bot/internal/domain/repository"
)

const sheetName = "Chats"

var header = []string{"chat_id", "enabled", "target_lang", "updated_at"}

type excelSettingsSheet struct {
	logger *logrus.Logger
}

// NewExcelSettingsSheet xlsx import/export of chat settings
func NewExcelSettingsSheet(logger *logrus.Logger) repository.SettingsSheet {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &excelSettingsSheet{logger: logger}
}

// ParseChatSettings reads the first sheet. A header row is optional; without
// one the columns are chat id, enabled, language.
func (e *excelSettingsSheet) ParseChatSettings(ctx context.Context, data []byte, filename string) ([]entity.ChatSetting, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open excel from bytes: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("excel file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("excel file is empty")
	}

	columns := map[string]int{"chat": 0, "enabled": 1, "lang": 2}
	startRow := 0
	if len(rows[0]) > 0 {
		if _, err := strconv.ParseInt(strings.TrimSpace(rows[0][0]), 10, 64); err != nil {
			columns = mapColumns(rows[0])
			startRow = 1
		}
	}

	chatCol, ok := columns["chat"]
	if !ok {
		return nil, fmt.Errorf("no chat id column in header %v", rows[0])
	}
	enabledCol, hasEnabled := columns["enabled"]
	langCol, hasLang := columns["lang"]
	if !hasEnabled && !hasLang {
		return nil, fmt.Errorf("header %v has neither an enabled nor a language column", rows[0])
	}

	var settings []entity.ChatSetting
	now := time.Now()
	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		chatID, err := strconv.ParseInt(strings.TrimSpace(cell(row, chatCol)), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid chat id %q", i+1, cell(row, chatCol))
		}

		setting := entity.ChatSetting{ChatID: chatID, Enabled: true, UpdatedAt: now}
		if hasEnabled {
			if v := strings.TrimSpace(cell(row, enabledCol)); v != "" {
				enabled, err := parseBool(v)
				if err != nil {
					return nil, fmt.Errorf("row %d: %w", i+1, err)
				}
				setting.Enabled = enabled
			}
		}
		if hasLang {
			setting.TargetLanguage = entity.NormalizeLanguageCode(cell(row, langCol))
		}
		if setting.TargetLanguage == "" {
			return nil, fmt.Errorf("row %d: chat %d has no target language", i+1, chatID)
		}

		settings = append(settings, setting)
	}

	e.logger.WithFields(logrus.Fields{
		"file":   filename,
		"rows":   len(rows),
		"chats":  len(settings),
		"header": startRow == 1,
	}).Info("Parsed chat settings sheet")

	return settings, nil
}

// RenderChatSettings writes one row per chat under a bold header
func (e *excelSettingsSheet) RenderChatSettings(ctx context.Context, settings []entity.ChatSetting) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for i, title := range header {
		name, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, name, title); err != nil {
			return nil, err
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetRowStyle(sheetName, 1, 1, bold)
	}

	for r, s := range settings {
		values := []any{strconv.FormatInt(s.ChatID, 10), s.Enabled, s.TargetLanguage, s.UpdatedAt.UTC().Format(time.RFC3339)}
		for c, v := range values {
			name, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheetName, name, v); err != nil {
				return nil, err
			}
		}
	}
	_ = f.SetColWidth(sheetName, "A", "A", 18)
	_ = f.SetColWidth(sheetName, "D", "D", 24)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// mapColumns column index by meaning, from a header row
func mapColumns(header []string) map[string]int {
	columns := make(map[string]int)
	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(col))
		switch {
		case contains(name, "chat", "group", "id"):
			if _, ok := columns["chat"]; !ok {
				columns["chat"] = i
			}
		case contains(name, "enabled", "translate", "active", "on"):
			columns["enabled"] = i
		case contains(name, "lang", "target", "язык"):
			columns["lang"] = i
		}
	}
	return columns
}

func contains(str string, keywords ...string) bool {
	for _, keyword := range keywords {
		if strings.Contains(str, keyword) {
			return true
		}
	}
	return false
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on", "enabled", "✅":
		return true, nil
	case "0", "false", "no", "n", "off", "disabled", "❌":
		return false, nil
	}
	return false, fmt.Errorf("invalid enabled value %q", v)
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
