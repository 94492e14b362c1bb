package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"quest-bot/internal/models"
)

// --- Сценарии ---

func (db *DB) CreateScenario(name, description string) (int64, error) {
	res, err := db.Exec(`INSERT INTO scenarios (name, description) VALUES (?, ?)`, name, description)
	if err != nil {
		return 0, fmt.Errorf("создание сценария: %w", err)
	}
	return res.LastInsertId()
}

func (db *DB) Scenarios() ([]models.Scenario, error) {
	rows, err := db.Query(`SELECT id, name, description, created_at FROM scenarios ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("выборка сценариев: %w", err)
	}
	defer rows.Close()

	out := []models.Scenario{}
	for rows.Next() {
		var s models.Scenario
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("чтение сценария: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (db *DB) ScenarioByID(id int64) (*models.Scenario, error) {
	var s models.Scenario
	err := db.QueryRow(`SELECT id, name, description, created_at FROM scenarios WHERE id = ?`, id).
		Scan(&s.ID, &s.Name, &s.Description, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("получение сценария: %w", err)
	}
	return &s, nil
}

func (db *DB) PatchScenario(id int64, p models.ScenarioPatch) error {
	sets := []string{}
	args := []any{}
	if p.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *p.Name)
	}
	if p.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *p.Description)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	if _, err := db.Exec("UPDATE scenarios SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...); err != nil {
		return fmt.Errorf("обновление сценария: %w", err)
	}
	return nil
}

// DeleteScenario удаляет сперва сюжеты сценария, затем сам сценарий.
// Чужие сюжеты не затрагиваются.
func (db *DB) DeleteScenario(id int64) error {
	if _, err := db.Exec(`DELETE FROM stories WHERE scenario_id = ?`, id); err != nil {
		return fmt.Errorf("удаление сюжетов сценария: %w", err)
	}
	if _, err := db.Exec(`DELETE FROM scenarios WHERE id = ?`, id); err != nil {
		return fmt.Errorf("удаление сценария: %w", err)
	}
	return nil
}

// --- Сюжеты ---

const storyCols = "id, title, content, image_url, order_num, hidden, scenario_id, created_at"

func scanStory(row interface{ Scan(...any) error }) (models.Story, error) {
	var s models.Story
	var hidden int
	var scenarioID sql.NullInt64
	err := row.Scan(&s.ID, &s.Title, &s.Content, &s.ImageURL, &s.OrderNum, &hidden, &scenarioID, &s.CreatedAt)
	s.Hidden = hidden != 0
	if scenarioID.Valid {
		v := scenarioID.Int64
		s.ScenarioID = &v
	}
	return s, err
}

func (db *DB) CreateStory(s models.Story) (int64, error) {
	var scenarioID any
	if s.ScenarioID != nil {
		scenarioID = *s.ScenarioID
	}
	res, err := db.Exec(
		`INSERT INTO stories (title, content, image_url, order_num, hidden, scenario_id)
		 VALUES (?, ?, ?, ?, 0, ?)`,
		s.Title, s.Content, s.ImageURL, s.OrderNum, scenarioID,
	)
	if err != nil {
		return 0, fmt.Errorf("создание сюжета: %w", err)
	}
	return res.LastInsertId()
}

func (db *DB) StoryByID(id int64) (*models.Story, error) {
	s, err := scanStory(db.QueryRow(`SELECT `+storyCols+` FROM stories WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("получение сюжета: %w", err)
	}
	return &s, nil
}

// StoriesByScenario - сюжеты сценария по ручному порядку;
// onlyVisible отфильтровывает скрытые для пользовательских экранов.
func (db *DB) StoriesByScenario(scenarioID int64, onlyVisible bool) ([]models.Story, error) {
	query := `SELECT ` + storyCols + ` FROM stories WHERE scenario_id = ?`
	if onlyVisible {
		query += ` AND hidden = 0`
	}
	query += ` ORDER BY order_num, created_at`
	rows, err := db.Query(query, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("выборка сюжетов: %w", err)
	}
	defer rows.Close()

	out := []models.Story{}
	for rows.Next() {
		s, err := scanStory(rows)
		if err != nil {
			return nil, fmt.Errorf("чтение сюжета: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (db *DB) AllStories() ([]models.Story, error) {
	rows, err := db.Query(`SELECT ` + storyCols + ` FROM stories ORDER BY order_num, created_at`)
	if err != nil {
		return nil, fmt.Errorf("выборка сюжетов: %w", err)
	}
	defer rows.Close()

	out := []models.Story{}
	for rows.Next() {
		s, err := scanStory(rows)
		if err != nil {
			return nil, fmt.Errorf("чтение сюжета: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (db *DB) PatchStory(id int64, p models.StoryPatch) error {
	sets := []string{}
	args := []any{}
	if p.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *p.Title)
	}
	if p.Content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *p.Content)
	}
	if p.ImageURL != nil {
		sets = append(sets, "image_url = ?")
		args = append(args, *p.ImageURL)
	}
	if p.OrderNum != nil {
		sets = append(sets, "order_num = ?")
		args = append(args, *p.OrderNum)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	if _, err := db.Exec("UPDATE stories SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...); err != nil {
		return fmt.Errorf("обновление сюжета: %w", err)
	}
	return nil
}

func (db *DB) ToggleStoryHidden(id int64) (bool, error) {
	if _, err := db.Exec(`UPDATE stories SET hidden = 1 - hidden WHERE id = ?`, id); err != nil {
		return false, fmt.Errorf("переключение видимости сюжета: %w", err)
	}
	var h int
	if err := db.QueryRow(`SELECT hidden FROM stories WHERE id = ?`, id).Scan(&h); err != nil {
		return false, fmt.Errorf("чтение видимости сюжета: %w", err)
	}
	return h != 0, nil
}

func (db *DB) DeleteStory(id int64) error {
	if _, err := db.Exec(`DELETE FROM stories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("удаление сюжета: %w", err)
	}
	return nil
}

// SwapStoryOrder меняет order_num сюжета с ближайшим соседом в его
// сценарии; direction - "up" или "down". Нет соседа - нет мутации,
// поэтому дыры и дубли в order_num допустимы: гарантируется только
// относительный порядок.
func (db *DB) SwapStoryOrder(id int64, direction string) error {
	var orderNum int
	var scenarioID sql.NullInt64
	err := db.QueryRow(`SELECT order_num, scenario_id FROM stories WHERE id = ?`, id).
		Scan(&orderNum, &scenarioID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("получение сюжета для перестановки: %w", err)
	}

	var neighborQuery string
	if direction == "up" {
		neighborQuery = `SELECT id, order_num FROM stories WHERE scenario_id = ? AND order_num < ?
			ORDER BY order_num DESC LIMIT 1`
	} else {
		neighborQuery = `SELECT id, order_num FROM stories WHERE scenario_id = ? AND order_num > ?
			ORDER BY order_num ASC LIMIT 1`
	}
	var neighborID int64
	var neighborOrder int
	err = db.QueryRow(neighborQuery, scenarioID, orderNum).Scan(&neighborID, &neighborOrder)
	if err == sql.ErrNoRows {
		return nil // уже первый/последний
	}
	if err != nil {
		return fmt.Errorf("поиск соседа: %w", err)
	}

	if _, err := db.Exec(`UPDATE stories SET order_num = ? WHERE id = ?`, neighborOrder, id); err != nil {
		return fmt.Errorf("перестановка сюжета: %w", err)
	}
	if _, err := db.Exec(`UPDATE stories SET order_num = ? WHERE id = ?`, orderNum, neighborID); err != nil {
		return fmt.Errorf("перестановка соседа: %w", err)
	}
	return nil
}
