package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"quest-bot/internal/models"
)

// --- Настройки ---

func (db *DB) Setting(key, fallback string) (string, error) {
	var v string
	err := db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return fallback, nil
	}
	if err != nil {
		return fallback, fmt.Errorf("чтение настройки: %w", err)
	}
	return v, nil
}

func (db *DB) SetSetting(key, value string) error {
	if _, err := db.Exec(`INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`, key, value); err != nil {
		return fmt.Errorf("запись настройки: %w", err)
	}
	return nil
}

// --- UTM ---

// SaveUserUTM - одна строка на пользователя, перезаписывается при
// каждом /start с параметрами.
func (db *DB) SaveUserUTM(tgID int64, utm models.UserUTM) error {
	_, err := db.Exec(
		`INSERT INTO user_utm (tg_id, utm_source, utm_medium, utm_campaign) VALUES (?, ?, ?, ?)
		 ON CONFLICT(tg_id) DO UPDATE SET utm_source=excluded.utm_source, utm_medium=excluded.utm_medium,
		 utm_campaign=excluded.utm_campaign, updated_at=CURRENT_TIMESTAMP`,
		tgID, utm.Source, utm.Medium, utm.Campaign,
	)
	if err != nil {
		return fmt.Errorf("сохранение UTM: %w", err)
	}
	return nil
}

func (db *DB) UserUTM(tgID int64) (models.UserUTM, error) {
	var utm models.UserUTM
	err := db.QueryRow(
		`SELECT utm_source, utm_medium, utm_campaign FROM user_utm WHERE tg_id = ?`, tgID,
	).Scan(&utm.Source, &utm.Medium, &utm.Campaign)
	if err == sql.ErrNoRows {
		return models.UserUTM{}, nil
	}
	if err != nil {
		return models.UserUTM{}, fmt.Errorf("чтение UTM: %w", err)
	}
	return utm, nil
}

// --- Подписки ---

// AddSubscription - первый контакт: кто нажал /start. Один раз на
// пользователя, повторы игнорируются. Возвращает true, если строка
// действительно вставлена.
func (db *DB) AddSubscription(tgID int64, username, firstName, lastName string) (bool, error) {
	res, err := db.Exec(
		`INSERT OR IGNORE INTO subscriptions (tg_id, username, first_name, last_name) VALUES (?, ?, ?, ?)`,
		tgID, username, firstName, lastName,
	)
	if err != nil {
		return false, fmt.Errorf("запись подписки: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// --- Лог событий ---

// LogUserEvent - append-only журнал действий пользователей.
func (db *DB) LogUserEvent(tgID int64, username, firstName, lastName, eventType string) error {
	if r := []rune(eventType); len(r) > 100 {
		eventType = string(r[:100])
	}
	_, err := db.Exec(
		`INSERT INTO user_events (tg_id, username, first_name, last_name, event_type) VALUES (?, ?, ?, ?, ?)`,
		tgID, username, firstName, lastName, eventType,
	)
	if err != nil {
		return fmt.Errorf("запись события: %w", err)
	}
	return nil
}

// UsersForExport - агрегат по пользователям из журнала событий;
// телефон подтягивается из лидов, затем из заказов праздника.
func (db *DB) UsersForExport(limit int) ([]models.UserExportRow, error) {
	if limit <= 0 {
		limit = 50000
	}
	rows, err := db.Query(`
		SELECT tg_id, username, first_name, last_name,
		       MIN(created_at), MAX(created_at), COUNT(*),
		       GROUP_CONCAT(DISTINCT event_type)
		FROM user_events
		GROUP BY tg_id
		ORDER BY MAX(created_at) DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("агрегация событий: %w", err)
	}
	defer rows.Close()

	out := []models.UserExportRow{}
	for rows.Next() {
		var r models.UserExportRow
		var events sql.NullString
		if err := rows.Scan(&r.TgID, &r.Username, &r.FirstName, &r.LastName,
			&r.FirstSeen, &r.LastSeen, &r.EventCount, &events); err != nil {
			return nil, fmt.Errorf("чтение агрегата: %w", err)
		}
		r.EventsSample = events.String
		if sample := []rune(r.EventsSample); len(sample) > 200 {
			r.EventsSample = string(sample[:200])
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	phones, err := db.userPhones()
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Phone = phones[out[i].TgID]
	}
	return out, nil
}

func (db *DB) userPhones() (map[int64]string, error) {
	phones := map[int64]string{}
	collect := func(query string, overwrite bool) error {
		rows, err := db.Query(query)
		if err != nil {
			return fmt.Errorf("выборка телефонов: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var id int64
			var phone string
			if err := rows.Scan(&id, &phone); err != nil {
				return err
			}
			if _, ok := phones[id]; !ok || overwrite {
				phones[id] = phone
			}
		}
		return rows.Err()
	}
	if err := collect(`SELECT tg_id, phone FROM leads WHERE phone != ''`, true); err != nil {
		return nil, err
	}
	if err := collect(`SELECT tg_id, phone FROM holiday_orders WHERE phone != ''`, false); err != nil {
		return nil, err
	}
	return phones, nil
}

// Фильтры получателей рассылки.
const (
	BroadcastAll         = "all"
	BroadcastWithLead    = "with_lead"
	BroadcastWithoutLead = "without_lead"
)

// BroadcastRecipients - tg_id из журнала событий, опционально сужённые
// по наличию лида или заказа праздника.
func (db *DB) BroadcastRecipients(filter string) ([]int64, error) {
	all, err := db.distinctIDs(`SELECT DISTINCT tg_id FROM user_events`)
	if err != nil {
		return nil, err
	}
	if filter == BroadcastAll || filter == "" {
		return all, nil
	}

	withLead := map[int64]bool{}
	for _, q := range []string{
		`SELECT DISTINCT tg_id FROM leads`,
		`SELECT DISTINCT tg_id FROM holiday_orders`,
	} {
		ids, err := db.distinctIDs(q)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			withLead[id] = true
		}
	}

	out := []int64{}
	for _, id := range all {
		if withLead[id] == (filter == BroadcastWithLead) {
			out = append(out, id)
		}
	}
	return out, nil
}

func (db *DB) distinctIDs(query string) ([]int64, error) {
	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("выборка id: %w", err)
	}
	defer rows.Close()
	out := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// --- Экран «Что это за формат?» ---

func (db *DB) FormatInfo() (models.FormatInfo, error) {
	var fi models.FormatInfo
	err := db.QueryRow(`SELECT text, image_url, video_url FROM format_info WHERE id = 1`).
		Scan(&fi.Text, &fi.ImageURL, &fi.VideoURL)
	if err == sql.ErrNoRows {
		return models.FormatInfo{}, nil
	}
	if err != nil {
		return models.FormatInfo{}, fmt.Errorf("чтение формата: %w", err)
	}
	return fi, nil
}

func (db *DB) PatchFormatInfo(p models.FormatInfoPatch) error {
	sets := []string{}
	args := []any{}
	if p.Text != nil {
		sets = append(sets, "text = ?")
		args = append(args, *p.Text)
	}
	if p.ImageURL != nil {
		sets = append(sets, "image_url = ?")
		args = append(args, *p.ImageURL)
	}
	if p.VideoURL != nil {
		sets = append(sets, "video_url = ?")
		args = append(args, *p.VideoURL)
	}
	if len(sets) == 0 {
		return nil
	}
	if _, err := db.Exec("UPDATE format_info SET "+strings.Join(sets, ", ")+" WHERE id = 1", args...); err != nil {
		return fmt.Errorf("обновление формата: %w", err)
	}
	return nil
}
