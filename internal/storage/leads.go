package storage

import (
	"database/sql"
	"fmt"

	"quest-bot/internal/models"
)

func (db *DB) CreateLead(l models.Lead) (int64, error) {
	count := l.Participants
	if count < 1 {
		count = 1
	}
	var gameID any
	if l.GameID != nil {
		gameID = *l.GameID
	}
	res, err := db.Exec(
		`INSERT INTO leads (tg_id, username, name, phone, game_id, game_name, participants_count, comment,
		 utm_source, utm_medium, utm_campaign) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.TgID, l.Username, l.Name, l.Phone, gameID, l.GameName, count, l.Comment,
		l.UTMSource, l.UTMMedium, l.UTMCampaign,
	)
	if err != nil {
		return 0, fmt.Errorf("создание лида: %w", err)
	}
	return res.LastInsertId()
}

// Leads - последние лиды, новые сверху. limit <= 0 даёт 100.
func (db *DB) Leads(limit int) ([]models.Lead, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(
		`SELECT id, tg_id, username, name, phone, game_id, game_name, participants_count, comment,
		 utm_source, utm_medium, utm_campaign, status, created_at
		 FROM leads ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("выборка лидов: %w", err)
	}
	defer rows.Close()

	leads := []models.Lead{}
	for rows.Next() {
		var l models.Lead
		var gameID sql.NullInt64
		if err := rows.Scan(&l.ID, &l.TgID, &l.Username, &l.Name, &l.Phone, &gameID, &l.GameName,
			&l.Participants, &l.Comment, &l.UTMSource, &l.UTMMedium, &l.UTMCampaign,
			&l.Status, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("чтение лида: %w", err)
		}
		if gameID.Valid {
			v := gameID.Int64
			l.GameID = &v
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

// LeadByID возвращает (nil, nil), когда лида нет.
func (db *DB) LeadByID(id int64) (*models.Lead, error) {
	var l models.Lead
	var gameID sql.NullInt64
	err := db.QueryRow(
		`SELECT id, tg_id, username, name, phone, game_id, game_name, participants_count, comment,
		 utm_source, utm_medium, utm_campaign, status, created_at FROM leads WHERE id = ?`, id,
	).Scan(&l.ID, &l.TgID, &l.Username, &l.Name, &l.Phone, &gameID, &l.GameName,
		&l.Participants, &l.Comment, &l.UTMSource, &l.UTMMedium, &l.UTMCampaign,
		&l.Status, &l.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("получение лида: %w", err)
	}
	if gameID.Valid {
		v := gameID.Int64
		l.GameID = &v
	}
	return &l, nil
}

func (db *DB) SetLeadStatus(id int64, status string) error {
	if _, err := db.Exec(`UPDATE leads SET status = ? WHERE id = ?`, status, id); err != nil {
		return fmt.Errorf("смена статуса лида: %w", err)
	}
	return nil
}

func (db *DB) CreateQuestion(q models.Question) (int64, error) {
	res, err := db.Exec(
		`INSERT INTO questions (tg_id, username, name, question_text) VALUES (?, ?, ?, ?)`,
		q.TgID, q.Username, q.Name, q.Text,
	)
	if err != nil {
		return 0, fmt.Errorf("создание вопроса: %w", err)
	}
	return res.LastInsertId()
}

func (db *DB) CreateHolidayOrder(o models.HolidayOrder) (int64, error) {
	res, err := db.Exec(
		`INSERT INTO holiday_orders (tg_id, username, name, phone) VALUES (?, ?, ?, ?)`,
		o.TgID, o.Username, o.Name, o.Phone,
	)
	if err != nil {
		return 0, fmt.Errorf("создание заказа праздника: %w", err)
	}
	return res.LastInsertId()
}

func (db *DB) HolidayOrders(limit int) ([]models.HolidayOrder, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(
		`SELECT id, tg_id, username, name, phone, created_at
		 FROM holiday_orders ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("выборка заказов праздника: %w", err)
	}
	defer rows.Close()

	orders := []models.HolidayOrder{}
	for rows.Next() {
		var o models.HolidayOrder
		if err := rows.Scan(&o.ID, &o.TgID, &o.Username, &o.Name, &o.Phone, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("чтение заказа: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
