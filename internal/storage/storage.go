// Package storage - узкие однооператорные CRUD-функции поверх SQLite.
// Каждая мутация - один statement по одному id; единственные
// многошаговые операции - каскадные удаления (игра, сценарий).
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
}

func Open(dbPath string) (*DB, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("создание директории БД: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("открытие БД: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("подключение к БД: %w", err)
	}
	return &DB{db}, nil
}

// InitSchema создаёт таблицы и применяет аддитивные миграции.
// Безопасно вызывать повторно на уже мигрированной базе.
func (db *DB) InitSchema() error {
	// Метки времени хранятся текстом: для колонок TIMESTAMP драйвер
	// отдаёт time.Time, а наружу даты идут строками как есть.
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS games (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			game_date TEXT NOT NULL,
			game_time TEXT DEFAULT '',
			place TEXT DEFAULT '',
			price TEXT DEFAULT '',
			description TEXT DEFAULT '',
			limit_places INTEGER DEFAULT 0,
			hidden INTEGER DEFAULT 0,
			created_at TEXT DEFAULT (datetime('now'))
		)`,
		`CREATE TABLE IF NOT EXISTS leads (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tg_id INTEGER NOT NULL,
			username TEXT DEFAULT '',
			name TEXT DEFAULT '',
			phone TEXT DEFAULT '',
			game_id INTEGER,
			game_name TEXT DEFAULT '',
			participants_count INTEGER DEFAULT 1,
			comment TEXT DEFAULT '',
			utm_source TEXT DEFAULT '',
			utm_medium TEXT DEFAULT '',
			utm_campaign TEXT DEFAULT '',
			status TEXT DEFAULT 'new',
			created_at TEXT DEFAULT (datetime('now')),
			FOREIGN KEY (game_id) REFERENCES games(id)
		)`,
		`CREATE TABLE IF NOT EXISTS questions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tg_id INTEGER NOT NULL,
			username TEXT DEFAULT '',
			name TEXT DEFAULT '',
			question_text TEXT DEFAULT '',
			created_at TEXT DEFAULT (datetime('now'))
		)`,
		`CREATE TABLE IF NOT EXISTS holiday_orders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tg_id INTEGER NOT NULL,
			username TEXT DEFAULT '',
			name TEXT NOT NULL,
			phone TEXT NOT NULL,
			created_at TEXT DEFAULT (datetime('now'))
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS user_utm (
			tg_id INTEGER PRIMARY KEY,
			utm_source TEXT DEFAULT '',
			utm_medium TEXT DEFAULT '',
			utm_campaign TEXT DEFAULT '',
			updated_at TEXT DEFAULT (datetime('now'))
		)`,
		`CREATE TABLE IF NOT EXISTS subscriptions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tg_id INTEGER NOT NULL UNIQUE,
			username TEXT DEFAULT '',
			first_name TEXT DEFAULT '',
			last_name TEXT DEFAULT '',
			started_at TEXT DEFAULT (datetime('now'))
		)`,
		`CREATE TABLE IF NOT EXISTS user_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tg_id INTEGER NOT NULL,
			username TEXT DEFAULT '',
			first_name TEXT DEFAULT '',
			last_name TEXT DEFAULT '',
			event_type TEXT NOT NULL,
			created_at TEXT DEFAULT (datetime('now'))
		)`,
		`CREATE TABLE IF NOT EXISTS scenarios (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			description TEXT DEFAULT '',
			created_at TEXT DEFAULT (datetime('now'))
		)`,
		`CREATE TABLE IF NOT EXISTS stories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			image_url TEXT DEFAULT '',
			order_num INTEGER DEFAULT 0,
			hidden INTEGER DEFAULT 0,
			scenario_id INTEGER,
			created_at TEXT DEFAULT (datetime('now')),
			FOREIGN KEY (scenario_id) REFERENCES scenarios(id)
		)`,
		`CREATE TABLE IF NOT EXISTS format_info (
			id INTEGER PRIMARY KEY DEFAULT 1,
			text TEXT NOT NULL,
			image_url TEXT DEFAULT '',
			video_url TEXT DEFAULT ''
		)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("создание схемы: %w", err)
		}
	}

	// Аддитивные миграции старых баз: ошибка «duplicate column» игнорируется.
	migrations := []string{
		`ALTER TABLE stories ADD COLUMN scenario_id INTEGER REFERENCES scenarios(id)`,
		`ALTER TABLE leads ADD COLUMN status TEXT DEFAULT 'new'`,
		`ALTER TABLE format_info ADD COLUMN video_url TEXT DEFAULT ''`,
	}
	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil && !isDuplicateColumn(err) {
			return fmt.Errorf("миграция: %w", err)
		}
	}

	// Старые записи с hidden NULL делаем видимыми.
	if _, err := db.Exec(`UPDATE stories SET hidden = 0 WHERE hidden IS NULL`); err != nil {
		return fmt.Errorf("нормализация stories.hidden: %w", err)
	}

	defaults := []struct {
		query string
		args  []any
	}{
		{`INSERT OR IGNORE INTO settings (key, value) VALUES ('follow_up_enabled', '1')`, nil},
		{`INSERT OR IGNORE INTO format_info (id, text) VALUES (1, ?)`, []any{defaultFormatText}},
	}
	for _, d := range defaults {
		if _, err := db.Exec(d.query, d.args...); err != nil {
			return fmt.Errorf("значения по умолчанию: %w", err)
		}
	}
	return nil
}

const defaultFormatText = "Сюжетная игра (ролевой квест) — это как фильм, только ты внутри истории.\n\n" +
	"Тебе дают роль и цель, дальше события разворачиваются через общение и решения. Ведущий всё ведёт и помогает."

func isDuplicateColumn(err error) bool {
	return err != nil && strings.Contains(err.Error(), "duplicate column")
}
