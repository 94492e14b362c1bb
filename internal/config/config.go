package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	TelegramToken string

	// ADMIN_IDS управляют контентом; OPERATOR_IDS получают заявки
	// (по умолчанию совпадают с админами).
	AdminIDs    map[int64]bool
	OperatorIDs map[int64]bool

	// Канал/чат для уведомлений о заявках и вопросах (НЕ общий чат).
	OperatorChatID int64

	// Общий чат для пользователей (кнопки «Вступить в чат»).
	ChatLink string

	DatabasePath string

	// Google Sheets зеркало; пустой SheetID выключает интеграцию.
	SheetID               string
	GoogleCredentialsPath string

	HTTPAddr      string
	BasePublicURL string
	ExportSecret  string
}

func FromEnv() (Config, error) {
	var c Config
	c.TelegramToken = strings.TrimSpace(os.Getenv("BOT_TOKEN"))
	if c.TelegramToken == "" {
		return c, fmt.Errorf("BOT_TOKEN is empty")
	}

	c.AdminIDs = parseIDSet(os.Getenv("ADMIN_IDS"))
	c.OperatorIDs = parseIDSet(os.Getenv("OPERATOR_IDS"))
	if len(c.OperatorIDs) == 0 {
		c.OperatorIDs = c.AdminIDs
	}

	if raw := strings.TrimSpace(os.Getenv("OPERATOR_CHAT_ID")); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return c, fmt.Errorf("OPERATOR_CHAT_ID: %w", err)
		}
		c.OperatorChatID = v
	}

	c.ChatLink = strings.TrimSpace(os.Getenv("CHAT_LINK"))
	if c.ChatLink == "" {
		c.ChatLink = "https://t.me/+t67He7tKXcxiNWQy"
	}

	c.DatabasePath = strings.TrimSpace(os.Getenv("DATABASE_PATH"))
	if c.DatabasePath == "" {
		c.DatabasePath = "./data/quest_bot.db"
	}

	c.SheetID = strings.TrimSpace(os.Getenv("GOOGLE_SHEET_ID"))
	c.GoogleCredentialsPath = strings.TrimSpace(os.Getenv("GOOGLE_CREDENTIALS_PATH"))

	c.HTTPAddr = strings.TrimSpace(os.Getenv("HTTP_ADDR"))
	if c.HTTPAddr == "" {
		c.HTTPAddr = ":8080"
	}
	c.BasePublicURL = strings.TrimRight(strings.TrimSpace(os.Getenv("BASE_PUBLIC_URL")), "/")

	c.ExportSecret = strings.TrimSpace(os.Getenv("EXPORT_SECRET"))
	if c.ExportSecret == "" {
		c.ExportSecret = "change-me"
	}

	return c, nil
}

func (c Config) IsAdmin(tgID int64) bool { return c.AdminIDs[tgID] }

func parseIDSet(raw string) map[int64]bool {
	m := map[int64]bool{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return m
	}
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			continue
		}
		m[v] = true
	}
	return m
}
