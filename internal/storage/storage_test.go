package storage

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"quest-bot/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("открытие БД: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.InitSchema(); err != nil {
		t.Fatalf("схема: %v", err)
	}
	return db
}

func TestInitSchemaIdempotent(t *testing.T) {
	db := newTestDB(t)
	// повторный прогон не должен падать на существующих колонках
	if err := db.InitSchema(); err != nil {
		t.Fatalf("повторная инициализация: %v", err)
	}
	if err := db.InitSchema(); err != nil {
		t.Fatalf("третья инициализация: %v", err)
	}
}

func TestGamesVisibilityAndOrder(t *testing.T) {
	db := newTestDB(t)
	late, err := db.CreateGame(models.Game{Name: "Поздняя", Date: "2026-09-20", Time: "19:00"})
	if err != nil {
		t.Fatalf("создание: %v", err)
	}
	early, err := db.CreateGame(models.Game{Name: "Ранняя", Date: "2026-09-05", Time: "18:00"})
	if err != nil {
		t.Fatalf("создание: %v", err)
	}

	games, err := db.VisibleGames()
	if err != nil {
		t.Fatalf("видимые игры: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("видимых игр %d, ожидалось 2", len(games))
	}
	if games[0].ID != early || games[1].ID != late {
		t.Errorf("порядок игр %d, %d: ожидался сначала ранний срок", games[0].ID, games[1].ID)
	}

	hidden, err := db.ToggleGameHidden(late)
	if err != nil {
		t.Fatalf("скрытие: %v", err)
	}
	if !hidden {
		t.Error("после первого переключения игра должна быть скрыта")
	}
	games, _ = db.VisibleGames()
	if len(games) != 1 || games[0].ID != early {
		t.Fatalf("скрытая игра осталась в выдаче: %+v", games)
	}

	// двойное переключение возвращает исходное состояние
	hidden, err = db.ToggleGameHidden(late)
	if err != nil {
		t.Fatalf("повторное переключение: %v", err)
	}
	if hidden {
		t.Error("после второго переключения игра должна быть видна")
	}
	if games, _ = db.VisibleGames(); len(games) != 2 {
		t.Errorf("видимых игр %d после возврата, ожидалось 2", len(games))
	}
}

func TestPatchGamePartial(t *testing.T) {
	db := newTestDB(t)
	id, _ := db.CreateGame(models.Game{Name: "Игра", Date: "2026-09-05", Time: "19:00", Place: "Старое место"})

	newPlace := "Новое место"
	if err := db.PatchGame(id, models.GamePatch{Place: &newPlace}); err != nil {
		t.Fatalf("патч: %v", err)
	}

	g, err := db.GameByID(id)
	if err != nil {
		t.Fatalf("чтение: %v", err)
	}
	if g.Place != newPlace {
		t.Errorf("place = %q, ожидалось %q", g.Place, newPlace)
	}
	if g.Name != "Игра" || g.Date != "2026-09-05" {
		t.Errorf("не тронутые поля изменились: %+v", g)
	}

	// пустой патч - no-op без ошибки
	if err := db.PatchGame(id, models.GamePatch{}); err != nil {
		t.Fatalf("пустой патч: %v", err)
	}
}

func TestGameByIDMissing(t *testing.T) {
	db := newTestDB(t)
	g, err := db.GameByID(12345)
	if err != nil {
		t.Fatalf("ожидался nil-результат без ошибки, получено: %v", err)
	}
	if g != nil {
		t.Errorf("игры нет, но вернулось %+v", g)
	}
}

func TestDeleteGameKeepsLeads(t *testing.T) {
	db := newTestDB(t)
	gameID, _ := db.CreateGame(models.Game{Name: "Удаляемая", Date: "2026-09-05"})
	leadID, err := db.CreateLead(models.Lead{TgID: 100, GameID: &gameID, GameName: "Удаляемая", Participants: 2})
	if err != nil {
		t.Fatalf("лид: %v", err)
	}

	if err := db.DeleteGame(gameID); err != nil {
		t.Fatalf("удаление игры: %v", err)
	}

	l, err := db.LeadByID(leadID)
	if err != nil {
		t.Fatalf("чтение лида: %v", err)
	}
	if l == nil {
		t.Fatal("лид пропал вместе с игрой")
	}
	if l.GameID != nil {
		t.Errorf("game_id = %v, ожидался NULL", *l.GameID)
	}
	if l.GameName != "Удаляемая" {
		t.Errorf("game_name = %q, имя должно сохраняться", l.GameName)
	}
}

func TestCreateLeadCountFloor(t *testing.T) {
	db := newTestDB(t)
	id, err := db.CreateLead(models.Lead{TgID: 1, Participants: 0})
	if err != nil {
		t.Fatalf("лид: %v", err)
	}
	l, _ := db.LeadByID(id)
	if l.Participants != 1 {
		t.Errorf("participants = %d, минимум 1", l.Participants)
	}
	if l.Status != models.LeadStatusNew {
		t.Errorf("status = %q, ожидался new", l.Status)
	}
}

func TestLeadStatusCycle(t *testing.T) {
	db := newTestDB(t)
	id, _ := db.CreateLead(models.Lead{TgID: 1, Participants: 1})

	for _, want := range []string{models.LeadStatusContacted, models.LeadStatusPaid, models.LeadStatusNew} {
		l, _ := db.LeadByID(id)
		if err := db.SetLeadStatus(id, models.NextLeadStatus(l.Status)); err != nil {
			t.Fatalf("смена статуса: %v", err)
		}
		l, _ = db.LeadByID(id)
		if l.Status != want {
			t.Fatalf("status = %q, ожидался %q", l.Status, want)
		}
	}
}

func TestScenarioCascade(t *testing.T) {
	db := newTestDB(t)
	keepID, _ := db.CreateScenario("Остаётся", "")
	delID, _ := db.CreateScenario("Удаляется", "")

	db.CreateStory(models.Story{Content: "кадр 1", ScenarioID: &delID})
	db.CreateStory(models.Story{Content: "кадр 2", ScenarioID: &delID})
	db.CreateStory(models.Story{Content: "чужой кадр", ScenarioID: &keepID})

	if err := db.DeleteScenario(delID); err != nil {
		t.Fatalf("удаление сценария: %v", err)
	}

	if sc, _ := db.ScenarioByID(delID); sc != nil {
		t.Error("сценарий не удалился")
	}
	gone, _ := db.StoriesByScenario(delID, false)
	if len(gone) != 0 {
		t.Errorf("кадры удалённого сценария остались: %d", len(gone))
	}
	kept, _ := db.StoriesByScenario(keepID, false)
	if len(kept) != 1 {
		t.Errorf("кадры чужого сценария пострадали: %d", len(kept))
	}
}

func TestSwapStoryOrder(t *testing.T) {
	db := newTestDB(t)
	scenID, _ := db.CreateScenario("Сценарий", "")
	first, _ := db.CreateStory(models.Story{Content: "первый", OrderNum: 0, ScenarioID: &scenID})
	second, _ := db.CreateStory(models.Story{Content: "второй", OrderNum: 1, ScenarioID: &scenID})

	orderOf := func() []int64 {
		t.Helper()
		stories, err := db.StoriesByScenario(scenID, false)
		if err != nil {
			t.Fatalf("выборка: %v", err)
		}
		ids := make([]int64, len(stories))
		for i, s := range stories {
			ids[i] = s.ID
		}
		return ids
	}

	// вверх с первой позиции - no-op
	if err := db.SwapStoryOrder(first, "up"); err != nil {
		t.Fatalf("своп на краю: %v", err)
	}
	if got := orderOf(); got[0] != first || got[1] != second {
		t.Errorf("порядок изменился на краю: %v", got)
	}

	if err := db.SwapStoryOrder(second, "up"); err != nil {
		t.Fatalf("своп: %v", err)
	}
	if got := orderOf(); got[0] != second || got[1] != first {
		t.Errorf("порядок после свопа: %v", got)
	}

	// вниз с последней позиции - no-op
	if err := db.SwapStoryOrder(first, "down"); err != nil {
		t.Fatalf("своп на краю: %v", err)
	}
	if got := orderOf(); got[0] != second || got[1] != first {
		t.Errorf("порядок изменился на краю: %v", got)
	}
}

func TestStoryVisibilityFilter(t *testing.T) {
	db := newTestDB(t)
	scenID, _ := db.CreateScenario("Сценарий", "")
	visible, _ := db.CreateStory(models.Story{Content: "видимый", ScenarioID: &scenID})
	hiddenID, _ := db.CreateStory(models.Story{Content: "скрытый", OrderNum: 1, ScenarioID: &scenID})
	if _, err := db.ToggleStoryHidden(hiddenID); err != nil {
		t.Fatalf("скрытие: %v", err)
	}

	onlyVisible, _ := db.StoriesByScenario(scenID, true)
	if len(onlyVisible) != 1 || onlyVisible[0].ID != visible {
		t.Errorf("видимая выборка: %+v", onlyVisible)
	}
	all, _ := db.StoriesByScenario(scenID, false)
	if len(all) != 2 {
		t.Errorf("полная выборка: %d кадров, ожидалось 2", len(all))
	}
}

func TestSettings(t *testing.T) {
	db := newTestDB(t)

	// follow_up_enabled сеется при инициализации
	v, err := db.Setting("follow_up_enabled", "0")
	if err != nil {
		t.Fatalf("чтение настройки: %v", err)
	}
	if v != "1" {
		t.Errorf("follow_up_enabled = %q, ожидалось 1", v)
	}

	if v, _ := db.Setting("нет_такого", "дефолт"); v != "дефолт" {
		t.Errorf("фолбэк = %q", v)
	}

	if err := db.SetSetting("follow_up_enabled", "0"); err != nil {
		t.Fatalf("запись настройки: %v", err)
	}
	if v, _ := db.Setting("follow_up_enabled", "1"); v != "0" {
		t.Errorf("после записи = %q, ожидалось 0", v)
	}
}

func TestUserUTMUpsert(t *testing.T) {
	db := newTestDB(t)
	if err := db.SaveUserUTM(42, models.UserUTM{Source: "vk", Medium: "cpc", Campaign: "spring"}); err != nil {
		t.Fatalf("запись UTM: %v", err)
	}
	// повторный /start с другой меткой перезаписывает
	if err := db.SaveUserUTM(42, models.UserUTM{Source: "tg", Medium: "post", Campaign: "summer"}); err != nil {
		t.Fatalf("повторная запись UTM: %v", err)
	}

	utm, err := db.UserUTM(42)
	if err != nil {
		t.Fatalf("чтение UTM: %v", err)
	}
	if utm.Source != "tg" || utm.Medium != "post" || utm.Campaign != "summer" {
		t.Errorf("UTM = %+v", utm)
	}

	if utm, _ := db.UserUTM(999); utm.Source != "" {
		t.Errorf("UTM незнакомого пользователя = %+v", utm)
	}
}

func TestAddSubscriptionOnce(t *testing.T) {
	db := newTestDB(t)
	inserted, err := db.AddSubscription(7, "user", "Имя", "Фамилия")
	if err != nil {
		t.Fatalf("подписка: %v", err)
	}
	if !inserted {
		t.Error("первая подписка должна вставляться")
	}
	inserted, err = db.AddSubscription(7, "user", "Имя", "Фамилия")
	if err != nil {
		t.Fatalf("повторная подписка: %v", err)
	}
	if inserted {
		t.Error("повторный /start не должен создавать новую подписку")
	}
}

func TestUsersForExportAggregate(t *testing.T) {
	db := newTestDB(t)
	for _, e := range []string{"msg:start", "cb:menu_record", "cb:rconfirm_yes"} {
		if err := db.LogUserEvent(1, "alice", "Алиса", "", e); err != nil {
			t.Fatalf("событие: %v", err)
		}
	}
	db.LogUserEvent(2, "bob", "Боб", "", "msg:start")
	db.CreateLead(models.Lead{TgID: 1, Phone: "+79990001122", Participants: 1})

	rows, err := db.UsersForExport(0)
	if err != nil {
		t.Fatalf("экспорт: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("пользователей %d, ожидалось 2", len(rows))
	}

	var alice *models.UserExportRow
	for i := range rows {
		if rows[i].TgID == 1 {
			alice = &rows[i]
		}
	}
	if alice == nil {
		t.Fatal("пользователь 1 не попал в экспорт")
	}
	if alice.EventCount != 3 {
		t.Errorf("event_count = %d, ожидалось 3", alice.EventCount)
	}
	if alice.Phone != "+79990001122" {
		t.Errorf("телефон из лида не подтянулся: %q", alice.Phone)
	}
	if alice.FirstSeen == "" || alice.LastSeen == "" {
		t.Errorf("first/last seen пустые: %+v", alice)
	}
}

func TestUsersForExportSampleRuneTruncation(t *testing.T) {
	db := newTestDB(t)
	// типы событий с кириллицей, суммарно длиннее лимита выборки
	for i := 0; i < 10; i++ {
		db.LogUserEvent(1, "", "", "", fmt.Sprintf("cb:кнопка_%d_%s", i, strings.Repeat("ю", 30)))
	}

	rows, err := db.UsersForExport(0)
	if err != nil {
		t.Fatalf("экспорт: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("пользователей %d", len(rows))
	}
	sample := rows[0].EventsSample
	if !utf8.ValidString(sample) {
		t.Errorf("обрезка порвала руну: %q", sample)
	}
	if got := len([]rune(sample)); got > 200 {
		t.Errorf("выборка событий %d рун, лимит 200", got)
	}
}

func TestBroadcastRecipients(t *testing.T) {
	db := newTestDB(t)
	db.LogUserEvent(1, "", "", "", "msg:start")
	db.LogUserEvent(2, "", "", "", "msg:start")
	db.LogUserEvent(3, "", "", "", "msg:start")
	db.CreateLead(models.Lead{TgID: 1, Participants: 1})
	db.CreateHolidayOrder(models.HolidayOrder{TgID: 2, Name: "Имя", Phone: "123"})

	all, err := db.BroadcastRecipients(BroadcastAll)
	if err != nil {
		t.Fatalf("все: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("всего %d, ожидалось 3", len(all))
	}

	withLead, _ := db.BroadcastRecipients(BroadcastWithLead)
	if len(withLead) != 2 {
		t.Errorf("с заявками %d, ожидалось 2 (лид и праздник)", len(withLead))
	}

	without, _ := db.BroadcastRecipients(BroadcastWithoutLead)
	if len(without) != 1 || without[0] != 3 {
		t.Errorf("без заявок: %v", without)
	}
}

func TestSeedDemoOnlyOnce(t *testing.T) {
	db := newTestDB(t)
	if err := db.SeedDemo(); err != nil {
		t.Fatalf("сид: %v", err)
	}
	games, _ := db.AllGames()
	if len(games) == 0 {
		t.Fatal("демо-игры не посеялись")
	}
	count := len(games)

	// повторный вызов не дублирует данные
	if err := db.SeedDemo(); err != nil {
		t.Fatalf("повторный сид: %v", err)
	}
	games, _ = db.AllGames()
	if len(games) != count {
		t.Errorf("игр стало %d, было %d", len(games), count)
	}
}

func TestFormatInfoDefaultsAndPatch(t *testing.T) {
	db := newTestDB(t)
	fi, err := db.FormatInfo()
	if err != nil {
		t.Fatalf("чтение формата: %v", err)
	}
	if fi.Text == "" {
		t.Error("текст формата должен сеяться при инициализации")
	}

	video := "https://youtu.be/demo"
	if err := db.PatchFormatInfo(models.FormatInfoPatch{VideoURL: &video}); err != nil {
		t.Fatalf("патч формата: %v", err)
	}
	fi, _ = db.FormatInfo()
	if fi.VideoURL != video {
		t.Errorf("video_url = %q", fi.VideoURL)
	}
	if fi.Text == "" {
		t.Error("патч видео затёр текст")
	}
}
