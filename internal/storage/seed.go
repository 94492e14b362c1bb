package storage

import "fmt"

// SeedDemo заполняет базу демо-данными для обкатки админки.
// Срабатывает только на пустой таблице games.
func (db *DB) SeedDemo() error {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM games`).Scan(&n); err != nil {
		return fmt.Errorf("проверка games: %w", err)
	}
	if n > 0 {
		return nil
	}

	games := []struct {
		name, date, time, place, price, desc string
		limit                                int
	}{
		{"Тайна особняка", "22.02.2026", "19:00", "ул. Ленина 50", "1500₽", "Детективная история в старом особняке", 12},
		{"Мафия: Екатеринбург", "23.02.2026", "20:00", "Бар «Подвал»", "800₽", "Классика жанра с ведущим", 16},
		{"Выживание в космосе", "25.02.2026", "18:30", "Квест-рум «Космос»", "2000₽", "Sci-fi ролевка на корабле", 8},
		{"Ромео и Джульетта 2.0", "28.02.2026", "19:00", "Театр «Драма»", "1200₽", "Современная интерпретация", 10},
		{"Ночной дозор", "01.03.2026", "21:00", "Тайная локация", "1000₽", "Тёмное городское фэнтези", 14},
	}
	for _, g := range games {
		if _, err := db.Exec(
			`INSERT INTO games (name, game_date, game_time, place, price, description, limit_places, hidden)
			 VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
			g.name, g.date, g.time, g.place, g.price, g.desc, g.limit,
		); err != nil {
			return fmt.Errorf("демо-игры: %w", err)
		}
	}
	// одна скрытая, чтобы в админке было что переключать
	if _, err := db.Exec(`UPDATE games SET hidden = 1 WHERE id = 4`); err != nil {
		return err
	}

	leads := []struct {
		tgID                          int64
		username, name, phone         string
		gameID                        int64
		gameName                      string
		count                         int
		comment, src, medium, camp    string
		status                        string
	}{
		{111111, "ivan_quest", "Иван Петров", "+79001234567", 1, "Тайна особняка", 2, "Хочу с девушкой", "vk", "post", "feb", "new"},
		{222222, "maria_k", "Мария К.", "", 2, "Мафия: Екатеринбург", 4, "", "instagram", "story", "", "contacted"},
		{333333, "alex_ekb", "Алексей", "+79009876543", 3, "Выживание в космосе", 1, "Первый раз", "tg", "ads", "quest", "paid"},
		{555555, "dmitry_v", "Дмитрий В.", "+79003332211", 2, "Мафия: Екатеринбург", 6, "Корпоратив", "yandex", "direct", "corp", "contacted"},
		{888888, "olga_m", "Ольга М.", "+79007778899", 1, "Тайна особняка", 3, "День рождения", "", "", "", "new"},
	}
	for _, l := range leads {
		if _, err := db.Exec(
			`INSERT INTO leads (tg_id, username, name, phone, game_id, game_name, participants_count, comment,
			 utm_source, utm_medium, utm_campaign, status) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.tgID, l.username, l.name, l.phone, l.gameID, l.gameName, l.count, l.comment, l.src, l.medium, l.camp, l.status,
		); err != nil {
			return fmt.Errorf("демо-лиды: %w", err)
		}
	}

	questions := []struct {
		tgID                 int64
		username, name, text string
	}{
		{999001, "curious_user", "Юзер Тестов", "Есть ли скидки для групп?"},
		{999002, "newbie_bot", "Новичок", "Можно прийти одному?"},
	}
	for _, q := range questions {
		if _, err := db.Exec(
			`INSERT INTO questions (tg_id, username, name, question_text) VALUES (?, ?, ?, ?)`,
			q.tgID, q.username, q.name, q.text,
		); err != nil {
			return fmt.Errorf("демо-вопросы: %w", err)
		}
	}

	scenarios := []struct{ name, desc string }{
		{"Завещание Флинта", "Пиратская история с поиском сокровищ"},
		{"Где-то на Диком Западе", "Ковбои, шериф и ограбление банка"},
		{"Тайна «Восточного экспресса»", "Детектив в поезде"},
	}
	for _, s := range scenarios {
		res, err := db.Exec(`INSERT INTO scenarios (name, description) VALUES (?, ?)`, s.name, s.desc)
		if err != nil {
			return fmt.Errorf("демо-сценарии: %w", err)
		}
		sid, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for i := 1; i <= 3; i++ {
			title := fmt.Sprintf("Глава %d: Начало истории %s", i, s.name)
			content := fmt.Sprintf(
				"Это текст сюжетной линии %d для сценария «%s». Здесь описывается завязка, развитие событий и интрига.",
				i, s.name,
			)
			if _, err := db.Exec(
				`INSERT INTO stories (title, content, image_url, order_num, hidden, scenario_id)
				 VALUES (?, ?, '', ?, 0, ?)`,
				title, content, i-1, sid,
			); err != nil {
				return fmt.Errorf("демо-сюжеты: %w", err)
			}
		}
	}
	return nil
}
