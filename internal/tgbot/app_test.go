package tgbot

import (
	"strings"
	"testing"
	"unicode/utf8"

	"quest-bot/internal/models"
	"quest-bot/internal/session"
)

func TestParseStartUTM(t *testing.T) {
	cases := []struct {
		in   string
		want models.UserUTM
		ok   bool
	}{
		{"/start", models.UserUTM{}, false},
		{"/start vk_cpc_spring", models.UserUTM{Source: "vk", Medium: "cpc", Campaign: "spring"}, true},
		{"/start vk_cpc", models.UserUTM{Source: "vk", Medium: "cpc"}, true},
		{"/start vk", models.UserUTM{Source: "vk"}, true},
		{"/start vk_cpc_spring_2026", models.UserUTM{Source: "vk", Medium: "cpc", Campaign: "spring_2026"}, true},
	}
	for _, c := range cases {
		got, ok := parseStartUTM(c.in)
		if ok != c.ok || got != c.want {
			t.Errorf("parseStartUTM(%q) = %+v, %v; ожидалось %+v, %v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestStartSavesUTMAndSubscription(t *testing.T) {
	app, bot := newTestApp(t)

	app.HandleUpdate(msgUpdate(testUserID, "/start vk_cpc_spring"))
	mustContain(t, bot.lastText(), "Выберите")

	utm, err := app.db.UserUTM(testUserID)
	if err != nil {
		t.Fatalf("UTM: %v", err)
	}
	if utm.Source != "vk" || utm.Medium != "cpc" || utm.Campaign != "spring" {
		t.Errorf("UTM: %+v", utm)
	}

	// повторный /start не дублирует подписку
	app.HandleUpdate(msgUpdate(testUserID, "/start"))
	var n int
	if err := app.db.QueryRow(`SELECT COUNT(*) FROM subscriptions WHERE tg_id = ?`, testUserID).Scan(&n); err != nil {
		t.Fatalf("подписки: %v", err)
	}
	if n != 1 {
		t.Errorf("подписок %d, ожидалась 1", n)
	}
}

func TestStartResetsActiveFlow(t *testing.T) {
	app, _ := newTestApp(t)
	app.db.CreateGame(models.Game{Name: "Игра", Date: "05.09.2026"})

	app.HandleUpdate(cbUpdate(testUserID, "menu_record"))
	app.HandleUpdate(cbUpdate(testUserID, "rgame_1"))
	app.HandleUpdate(msgUpdate(testUserID, "/start"))

	if st := app.sessions.Get(testUserID); st.Flow != session.FlowNone {
		t.Errorf("сессия пережила /start: %+v", st)
	}
}

func TestCallbackWithoutMessage(t *testing.T) {
	app, bot := newTestApp(t)

	// колбэк с недоступного сообщения: отвечаем и больше ничего
	upd := cbUpdate(testUserID, "menu_schedule")
	upd.CallbackQuery.Message = nil
	app.HandleUpdate(upd)

	if len(bot.sent) != 0 {
		t.Errorf("отправок %d, ожидалось 0", len(bot.sent))
	}
	if len(bot.requests) != 1 {
		t.Errorf("ответов на колбэк %d, ожидался 1", len(bot.requests))
	}
}

func TestEventLogging(t *testing.T) {
	app, _ := newTestApp(t)

	app.HandleUpdate(msgUpdate(testUserID, "/start"))
	app.HandleUpdate(cbUpdate(testUserID, "menu_schedule"))
	app.HandleUpdate(msgUpdate(testUserID, "просто текст"))

	rows, err := app.db.Query(`SELECT event_type FROM user_events WHERE tg_id = ? ORDER BY id`, testUserID)
	if err != nil {
		t.Fatalf("события: %v", err)
	}
	defer rows.Close()
	events := []string{}
	for rows.Next() {
		var e string
		rows.Scan(&e)
		events = append(events, e)
	}
	want := []string{"msg:start", "cb:menu_schedule", "msg:text"}
	if len(events) != len(want) {
		t.Fatalf("событий %d: %v", len(events), events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("событие %d = %q, ожидалось %q", i, events[i], want[i])
		}
	}
}

func TestEventLoggingTruncatesOnRuneBoundary(t *testing.T) {
	app, _ := newTestApp(t)

	long := strings.Repeat("ы", 100)
	app.HandleUpdate(cbUpdate(testUserID, long))

	var e string
	if err := app.db.QueryRow(`SELECT event_type FROM user_events WHERE tg_id = ?`, testUserID).Scan(&e); err != nil {
		t.Fatalf("событие: %v", err)
	}
	if !utf8.ValidString(e) {
		t.Errorf("обрезка порвала руну: %q", e)
	}
	if want := "cb:" + strings.Repeat("ы", 80); e != want {
		t.Errorf("событие %q, ожидалось 80 рун", e)
	}
}

func TestEventLoggingSkipsAdmins(t *testing.T) {
	app, _ := newTestApp(t)
	app.HandleUpdate(msgUpdate(testAdminID, "/admin"))
	app.HandleUpdate(cbUpdate(testAdminID, "admin_games"))

	var n int
	app.db.QueryRow(`SELECT COUNT(*) FROM user_events WHERE tg_id = ?`, testAdminID).Scan(&n)
	if n != 0 {
		t.Errorf("действия админа попали в журнал: %d", n)
	}
}

func TestQuestionFlow(t *testing.T) {
	app, bot := newTestApp(t)

	app.HandleUpdate(cbUpdate(testUserID, "menu_question"))
	app.HandleUpdate(msgUpdate(testUserID, "Можно ли прийти вдвоём?"))
	mustContain(t, bot.lastText(), "Вопрос отправлен")

	var text string
	if err := app.db.QueryRow(`SELECT question_text FROM questions WHERE tg_id = ?`, testUserID).Scan(&text); err != nil {
		t.Fatalf("вопрос не сохранился: %v", err)
	}
	if text != "Можно ли прийти вдвоём?" {
		t.Errorf("текст вопроса: %q", text)
	}

	notices := bot.textsTo(testOperatorCh)
	if len(notices) != 1 {
		t.Fatalf("уведомлений %d", len(notices))
	}
	mustContain(t, notices[0], "Можно ли прийти вдвоём?")
}

func TestHolidayFlow(t *testing.T) {
	app, bot := newTestApp(t)

	app.HandleUpdate(cbUpdate(testUserID, "menu_holiday"))
	app.HandleUpdate(msgUpdate(testUserID, "Мария"))
	app.HandleUpdate(msgUpdate(testUserID, "+7 912 345 67 89"))
	mustContain(t, bot.lastText(), "Принято")

	orders, err := app.db.HolidayOrders(0)
	if err != nil {
		t.Fatalf("заказы: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("заказов %d", len(orders))
	}
	if orders[0].Name != "Мария" || orders[0].Phone != "+7 912 345 67 89" {
		t.Errorf("заказ: %+v", orders[0])
	}

	if got := bot.textsTo(testOperatorCh); len(got) != 1 {
		t.Errorf("уведомлений оператору %d", len(got))
	}
}

func TestStoriesBrowsing(t *testing.T) {
	app, bot := newTestApp(t)
	scenID, _ := app.db.CreateScenario("Детектив", "")
	app.db.CreateStory(models.Story{Content: "Кадр один", OrderNum: 0, ScenarioID: &scenID})
	app.db.CreateStory(models.Story{Content: "Кадр два", OrderNum: 1, ScenarioID: &scenID})
	hiddenID, _ := app.db.CreateStory(models.Story{Content: "Скрытый кадр", OrderNum: 2, ScenarioID: &scenID})
	app.db.ToggleStoryHidden(hiddenID)

	app.HandleUpdate(cbUpdate(testUserID, "menu_stories"))
	mustContain(t, bot.lastText(), "Наши сюжеты")
	mustContain(t, strings.Join(bot.lastButtons(), "\n"), "Детектив")

	app.HandleUpdate(cbUpdate(testUserID, "scen_1"))
	mustContain(t, bot.lastText(), "Кадр один")

	app.HandleUpdate(cbUpdate(testUserID, "snav_1_1"))
	mustContain(t, bot.lastText(), "Кадр два")

	// скрытый кадр недостижим: индекс за пределами видимых сбрасывается
	app.HandleUpdate(cbUpdate(testUserID, "snav_1_2"))
	mustContain(t, bot.lastText(), "Кадр один")
}
