package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"quest-bot/internal/models"
)

const gameCols = "id, name, game_date, game_time, place, price, description, limit_places, hidden, created_at"

func scanGame(row interface{ Scan(...any) error }) (models.Game, error) {
	var g models.Game
	var hidden int
	err := row.Scan(&g.ID, &g.Name, &g.Date, &g.Time, &g.Place, &g.Price,
		&g.Description, &g.LimitPlaces, &hidden, &g.CreatedAt)
	g.Hidden = hidden != 0
	return g, err
}

func (db *DB) CreateGame(g models.Game) (int64, error) {
	res, err := db.Exec(
		`INSERT INTO games (name, game_date, game_time, place, price, description, limit_places)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.Name, g.Date, g.Time, g.Place, g.Price, g.Description, g.LimitPlaces,
	)
	if err != nil {
		return 0, fmt.Errorf("создание игры: %w", err)
	}
	return res.LastInsertId()
}

// VisibleGames - игры для пользователей: скрытые отфильтрованы,
// порядок по (дата, время).
func (db *DB) VisibleGames() ([]models.Game, error) {
	return db.queryGames(`SELECT ` + gameCols + ` FROM games WHERE hidden = 0 ORDER BY game_date, game_time`)
}

// AllGames - все игры для админки, включая скрытые, тот же порядок.
func (db *DB) AllGames() ([]models.Game, error) {
	return db.queryGames(`SELECT ` + gameCols + ` FROM games ORDER BY game_date, game_time`)
}

func (db *DB) queryGames(query string) ([]models.Game, error) {
	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("выборка игр: %w", err)
	}
	defer rows.Close()

	games := []models.Game{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("чтение игры: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// GameByID возвращает (nil, nil), когда игры нет.
func (db *DB) GameByID(id int64) (*models.Game, error) {
	g, err := scanGame(db.QueryRow(`SELECT `+gameCols+` FROM games WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("получение игры: %w", err)
	}
	return &g, nil
}

// PatchGame обновляет только заданные поля патча.
func (db *DB) PatchGame(id int64, p models.GamePatch) error {
	sets := []string{}
	args := []any{}
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.Date != nil {
		add("game_date", *p.Date)
	}
	if p.Time != nil {
		add("game_time", *p.Time)
	}
	if p.Place != nil {
		add("place", *p.Place)
	}
	if p.Price != nil {
		add("price", *p.Price)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.LimitPlaces != nil {
		add("limit_places", *p.LimitPlaces)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	_, err := db.Exec("UPDATE games SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("обновление игры: %w", err)
	}
	return nil
}

// ToggleGameHidden инвертирует флаг и возвращает новое значение.
func (db *DB) ToggleGameHidden(id int64) (bool, error) {
	if _, err := db.Exec(`UPDATE games SET hidden = 1 - hidden WHERE id = ?`, id); err != nil {
		return false, fmt.Errorf("переключение видимости игры: %w", err)
	}
	var h int
	if err := db.QueryRow(`SELECT hidden FROM games WHERE id = ?`, id).Scan(&h); err != nil {
		return false, fmt.Errorf("чтение видимости игры: %w", err)
	}
	return h != 0, nil
}

// DeleteGame сперва отвязывает лиды (game_id -> NULL), затем удаляет игру.
// Порядок зафиксирован: лиды никогда не удаляются вместе с игрой.
func (db *DB) DeleteGame(id int64) error {
	if _, err := db.Exec(`UPDATE leads SET game_id = NULL WHERE game_id = ?`, id); err != nil {
		return fmt.Errorf("отвязка лидов: %w", err)
	}
	if _, err := db.Exec(`DELETE FROM games WHERE id = ?`, id); err != nil {
		return fmt.Errorf("удаление игры: %w", err)
	}
	return nil
}
