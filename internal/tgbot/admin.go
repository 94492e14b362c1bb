package tgbot

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"quest-bot/internal/models"
	"quest-bot/internal/session"
	"quest-bot/internal/util"
)

// Шаги добавления игры.
const (
	stepGameName = iota
	stepGameDate
	stepGameTime
	stepGamePlace
	stepGamePrice
	stepGameDesc
	stepGameLimit
)

var leadStatusLabels = map[string]string{
	models.LeadStatusNew:       "🆕 новая",
	models.LeadStatusContacted: "📞 связались",
	models.LeadStatusPaid:      "💰 оплачена",
}

func (a *App) handleAdminCommand(m *tgbotapi.Message) error {
	if !a.isAdmin(m.From.ID) {
		return a.sendScreen(m.Chat.ID, screen{text: "Нет доступа к админке."})
	}
	a.sessions.Clear(m.From.ID)
	return a.sendScreen(m.Chat.ID, adminPanelScreen())
}

func adminPanelScreen() screen {
	return screen{
		text: "🛠 Админка. Что делаем?",
		keyboard: keyboard(
			row(btn("🎲 Игры", "admin_games"), btn("➕ Добавить игру", "admin_add_game")),
			row(btn("✏️ Правка расписания", "admin_schedule")),
			row(btn("🎭 Сюжеты", "admin_stories")),
			row(btn("📋 Заявки", "admin_leads"), btn("🎉 Праздники", "admin_orders")),
			row(btn("📣 Рассылка", "admin_broadcast")),
			row(btn("❓ Экран формата", "admin_format")),
			row(btn("🔔 Автонапоминания", "admin_followup")),
			row(btn("📤 Экспорт CSV", "admin_export")),
		),
	}
}

func (a *App) handleAdminCallback(q *tgbotapi.CallbackQuery) error {
	data := q.Data
	a.answerCallback(q, "")

	switch data {
	case "admin_back":
		a.sessions.Clear(q.From.ID)
		return a.editScreen(q.Message.Chat.ID, q.Message.MessageID, adminPanelScreen())
	case "admin_games":
		return a.showAdminGames(q)
	case "admin_schedule":
		return a.showAdminSchedule(q)
	case "admin_add_game":
		return a.startAddGame(q)
	case "admin_leads":
		return a.showAdminLeads(q)
	case "admin_orders":
		return a.showAdminOrders(q)
	case "admin_followup":
		return a.toggleFollowUp(q)
	case "admin_export":
		return a.sendExportLink(q)
	case "admin_format":
		return a.showAdminFormat(q)
	case "admin_stories":
		return a.showAdminScenarios(q)
	case "adm_scen_add":
		return a.startAddScenario(q)
	case "adm_scen_desc_skip":
		return a.scenarioSkipDescription(q)
	case "adm_story_skip_image":
		return a.storySkipImage(q)
	case "adm_ef_skip":
		a.sessions.Clear(q.From.ID)
		return a.showAdminSchedule(q)
	case "admin_broadcast":
		return a.startBroadcast(q)
	}

	switch {
	case strings.HasPrefix(data, "admin_skip_"):
		return a.addGameSkip(q)

	// суффиксные варианты проверяются раньше коротких префиксов
	case strings.HasPrefix(data, "adm_toggle_s_"):
		return a.adminToggleGame(q, "adm_toggle_s_", a.showAdminSchedule)
	case strings.HasPrefix(data, "adm_delete_s_"):
		return a.adminDeleteGame(q, "adm_delete_s_", a.showAdminSchedule)
	case strings.HasPrefix(data, "adm_toggle_"):
		return a.adminToggleGame(q, "adm_toggle_", a.showAdminGames)
	case strings.HasPrefix(data, "adm_delete_"):
		return a.adminDeleteGame(q, "adm_delete_", a.showAdminGames)
	case strings.HasPrefix(data, "adm_edit_"):
		return a.showEditGameFields(q)
	case strings.HasPrefix(data, "adm_ef_"):
		return a.startEditGameField(q)
	case strings.HasPrefix(data, "adm_fmt_"):
		return a.startEditFormat(q)
	case strings.HasPrefix(data, "adm_lead_"):
		return a.cycleLeadStatus(q)
	case strings.HasPrefix(data, "adm_scen_edit_"):
		return a.startEditScenario(q)
	case strings.HasPrefix(data, "adm_scen_del_"):
		return a.adminDeleteScenario(q)
	case strings.HasPrefix(data, "adm_scen_"):
		return a.showAdminStories(q)
	case strings.HasPrefix(data, "adm_story_add_"):
		return a.startAddStory(q)
	case strings.HasPrefix(data, "adm_story_edit_"):
		return a.startEditStory(q)
	case strings.HasPrefix(data, "adm_story_toggle_"):
		return a.adminToggleStory(q)
	case strings.HasPrefix(data, "adm_story_del_"):
		return a.adminDeleteStory(q)
	case strings.HasPrefix(data, "adm_story_up_"):
		return a.adminMoveStory(q, "adm_story_up_", "up")
	case strings.HasPrefix(data, "adm_story_down_"):
		return a.adminMoveStory(q, "adm_story_down_", "down")
	case strings.HasPrefix(data, "bc_"):
		return a.broadcastCallback(q)
	}

	return nil
}

// ---------- игры: список, скрытие, удаление ----------

func (a *App) showAdminGames(q *tgbotapi.CallbackQuery) error {
	games, err := a.db.AllGames()
	if err != nil {
		return err
	}
	rows := [][]tgbotapi.InlineKeyboardButton{}
	for _, g := range games {
		eye := "👁"
		if g.Hidden {
			eye = "🙈"
		}
		rows = append(rows, row(
			btn(fmt.Sprintf("%s %s", eye, g.Name), fmt.Sprintf("adm_toggle_%d", g.ID)),
			btn("🗑", fmt.Sprintf("adm_delete_%d", g.ID)),
		))
	}
	rows = append(rows, row(btn("➕ Добавить игру", "admin_add_game")), backRow("admin_back"))
	return a.editScreen(q.Message.Chat.ID, q.Message.MessageID, screen{
		text:     "🎲 Игры. Нажмите на игру, чтобы скрыть или показать её.",
		keyboard: keyboard(rows...),
	})
}

func (a *App) adminToggleGame(q *tgbotapi.CallbackQuery, prefix string, refresh func(*tgbotapi.CallbackQuery) error) error {
	id, err := strconv.ParseInt(strings.TrimPrefix(q.Data, prefix), 10, 64)
	if err != nil {
		return nil
	}
	hidden, err := a.db.ToggleGameHidden(id)
	if err != nil {
		return err
	}
	if hidden {
		a.answerCallback(q, "Игра скрыта")
	} else {
		a.answerCallback(q, "Игра показана")
	}
	return refresh(q)
}

func (a *App) adminDeleteGame(q *tgbotapi.CallbackQuery, prefix string, refresh func(*tgbotapi.CallbackQuery) error) error {
	id, err := strconv.ParseInt(strings.TrimPrefix(q.Data, prefix), 10, 64)
	if err != nil {
		return nil
	}
	if err := a.db.DeleteGame(id); err != nil {
		return err
	}
	a.answerCallback(q, "Игра удалена, заявки сохранены")
	return refresh(q)
}

// ---------- расписание: правка полей ----------

func (a *App) showAdminSchedule(q *tgbotapi.CallbackQuery) error {
	games, err := a.db.AllGames()
	if err != nil {
		return err
	}
	var b strings.Builder
	b.WriteString("✏️ Правка расписания:\n")
	rows := [][]tgbotapi.InlineKeyboardButton{}
	for _, g := range games {
		mark := ""
		if g.Hidden {
			mark = " (скрыта)"
		}
		fmt.Fprintf(&b, "\n• %s — %s %s%s", g.Name, g.Date, g.Time, mark)
		rows = append(rows, row(
			btn("✏️ "+g.Name, fmt.Sprintf("adm_edit_%d", g.ID)),
			btn("👁", fmt.Sprintf("adm_toggle_s_%d", g.ID)),
			btn("🗑", fmt.Sprintf("adm_delete_s_%d", g.ID)),
		))
	}
	if len(games) == 0 {
		b.WriteString("\nИгр пока нет.")
	}
	rows = append(rows, backRow("admin_back"))
	return a.editScreen(q.Message.Chat.ID, q.Message.MessageID, screen{
		text:     b.String(),
		keyboard: keyboard(rows...),
	})
}

var gameFieldLabels = []struct{ field, label string }{
	{"name", "Название"},
	{"date", "Дата"},
	{"time", "Время"},
	{"place", "Место"},
	{"price", "Цена"},
	{"desc", "Описание"},
	{"limit", "Лимит мест"},
}

func (a *App) showEditGameFields(q *tgbotapi.CallbackQuery) error {
	id, err := strconv.ParseInt(strings.TrimPrefix(q.Data, "adm_edit_"), 10, 64)
	if err != nil {
		return nil
	}
	game, err := a.db.GameByID(id)
	if err != nil {
		return err
	}
	if game == nil {
		a.alertCallback(q, "Игра не найдена")
		return a.showAdminSchedule(q)
	}
	rows := [][]tgbotapi.InlineKeyboardButton{}
	for _, f := range gameFieldLabels {
		rows = append(rows, row(btn(f.label, fmt.Sprintf("adm_ef_%d_%s", id, f.field))))
	}
	rows = append(rows, backRow("admin_schedule"))
	return a.editScreen(q.Message.Chat.ID, q.Message.MessageID, screen{
		text:     fmt.Sprintf("✏️ %s\nЧто меняем?", game.Name),
		keyboard: keyboard(rows...),
	})
}

func (a *App) startEditGameField(q *tgbotapi.CallbackQuery) error {
	rest := strings.TrimPrefix(q.Data, "adm_ef_")
	parts := strings.SplitN(rest, "_", 2)
	if len(parts) != 2 {
		return nil
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil
	}
	st := session.Session{Flow: session.FlowEditGameField}
	st.Draft.EditID = id
	st.Draft.EditField = parts[1]
	a.sessions.Set(q.From.ID, st)

	return a.editScreen(q.Message.Chat.ID, q.Message.MessageID, screen{
		text: "Отправьте новое значение.\n" +
			"«-» — очистить поле, «пропустить» — оставить как есть.",
		keyboard: keyboard(row(btn("Отмена", "adm_ef_skip"))),
	})
}

// adminEditFieldMessage применяет введённое значение к полю игры или
// к экрану формата (EditID == 0).
func (a *App) adminEditFieldMessage(m *tgbotapi.Message, st session.Session) error {
	if !a.isAdmin(m.From.ID) {
		a.sessions.Clear(m.From.ID)
		return a.sendScreen(m.Chat.ID, menuScreen())
	}
	value := strings.TrimSpace(m.Text)
	if st.Draft.EditField == "fmt_image" && len(m.Photo) > 0 {
		value = m.Photo[len(m.Photo)-1].FileID
	}
	lower := strings.ToLower(value)
	if lower == "пропустить" || value == "" {
		a.sessions.Clear(m.From.ID)
		return a.sendScreen(m.Chat.ID, screen{text: "Оставил как было.", keyboard: keyboard(backRow("admin_back"))})
	}
	if value == "-" {
		value = ""
	}

	if st.Draft.EditID == 0 {
		if err := a.applyFormatEdit(st.Draft.EditField, value); err != nil {
			return err
		}
	} else {
		patch := models.GamePatch{}
		switch st.Draft.EditField {
		case "name":
			patch.Name = &value
		case "date":
			patch.Date = &value
		case "time":
			patch.Time = &value
		case "place":
			patch.Place = &value
		case "price":
			patch.Price = &value
		case "desc":
			patch.Description = &value
		case "limit":
			n := parseIntLenient(value)
			patch.LimitPlaces = &n
		default:
			a.sessions.Clear(m.From.ID)
			return nil
		}
		if err := a.db.PatchGame(st.Draft.EditID, patch); err != nil {
			log.Printf("правка игры: %v", err)
			return a.sendScreen(m.Chat.ID, screen{text: "⚠️ Не получилось сохранить, отправьте значение ещё раз."})
		}
	}

	a.sessions.Clear(m.From.ID)
	return a.sendScreen(m.Chat.ID, screen{
		text:     "✅ Сохранено.",
		keyboard: keyboard(backRow("admin_back")),
	})
}

// parseIntLenient берёт первое число из строки; мусор вокруг не мешает.
func parseIntLenient(s string) int {
	start := -1
	for i, r := range s {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			n, _ := strconv.Atoi(s[start:i])
			return n
		}
	}
	if start < 0 {
		return 0
	}
	n, _ := strconv.Atoi(s[start:])
	return n
}

// ---------- экран формата ----------

func (a *App) showAdminFormat(q *tgbotapi.CallbackQuery) error {
	fi, err := a.db.FormatInfo()
	if err != nil {
		return err
	}
	text := fmt.Sprintf("❓ Экран «Что такое квест-игра»:\n\n%s", fi.Text)
	if fi.VideoURL != "" {
		text += "\n\n🎬 " + fi.VideoURL
	}
	return a.editScreen(q.Message.Chat.ID, q.Message.MessageID, screen{
		text:  text,
		photo: fi.ImageURL,
		keyboard: keyboard(
			row(btn("✏️ Текст", "adm_fmt_text")),
			row(btn("🖼 Картинка", "adm_fmt_image")),
			row(btn("🎬 Видео", "adm_fmt_video")),
			backRow("admin_back"),
		),
	})
}

func (a *App) startEditFormat(q *tgbotapi.CallbackQuery) error {
	field := strings.TrimPrefix(q.Data, "adm_")
	st := session.Session{Flow: session.FlowEditGameField}
	st.Draft.EditField = field
	a.sessions.Set(q.From.ID, st)

	prompt := "Отправьте новый текст экрана."
	switch field {
	case "fmt_image":
		prompt = "Пришлите картинку или ссылку на неё. «-» уберёт картинку."
	case "fmt_video":
		prompt = "Пришлите ссылку на видео. «-» уберёт видео."
	}
	return a.editScreen(q.Message.Chat.ID, q.Message.MessageID, screen{
		text:     prompt,
		keyboard: keyboard(row(btn("Отмена", "adm_ef_skip"))),
	})
}

func (a *App) applyFormatEdit(field, value string) error {
	patch := models.FormatInfoPatch{}
	switch field {
	case "fmt_text":
		patch.Text = &value
	case "fmt_image":
		patch.ImageURL = &value
	case "fmt_video":
		patch.VideoURL = &value
	default:
		return nil
	}
	return a.db.PatchFormatInfo(patch)
}

// ---------- добавление игры ----------

func (a *App) startAddGame(q *tgbotapi.CallbackQuery) error {
	a.sessions.Set(q.From.ID, session.Session{Flow: session.FlowAddGame, Step: stepGameName})
	return a.editScreen(q.Message.Chat.ID, q.Message.MessageID, screen{
		text:     "➕ Новая игра.\n\nНазвание?",
		keyboard: keyboard(backRow("admin_back")),
	})
}

func skipKeyboard(data string) *tgbotapi.InlineKeyboardMarkup {
	return keyboard(row(btn("Пропустить", data)), backRow("admin_back"))
}

func (a *App) adminAddGameMessage(m *tgbotapi.Message, st session.Session) error {
	if !a.isAdmin(m.From.ID) {
		a.sessions.Clear(m.From.ID)
		return a.sendScreen(m.Chat.ID, menuScreen())
	}
	value := strings.TrimSpace(m.Text)

	switch st.Step {
	case stepGameName:
		if value == "" {
			return a.sendScreen(m.Chat.ID, screen{text: "Название не может быть пустым. Ещё раз?"})
		}
		st.Draft.Name = value
		st.Step = stepGameDate
		a.sessions.Set(m.From.ID, st)
		return a.sendScreen(m.Chat.ID, screen{text: "Дата? Например: 05.09.2026"})

	case stepGameDate:
		st.Draft.Date = value
		st.Step = stepGameTime
		a.sessions.Set(m.From.ID, st)
		return a.sendScreen(m.Chat.ID, screen{text: "Время? Например: 19:00", keyboard: skipKeyboard("admin_skip_time")})

	case stepGameTime:
		st.Draft.Time = value
		st.Step = stepGamePlace
		a.sessions.Set(m.From.ID, st)
		return a.sendScreen(m.Chat.ID, screen{text: "Место проведения?", keyboard: skipKeyboard("admin_skip_place")})

	case stepGamePlace:
		st.Draft.Place = value
		st.Step = stepGamePrice
		a.sessions.Set(m.From.ID, st)
		return a.sendScreen(m.Chat.ID, screen{text: "Цена? Например: 2000₽", keyboard: skipKeyboard("admin_skip_price")})

	case stepGamePrice:
		st.Draft.Price = value
		st.Step = stepGameDesc
		a.sessions.Set(m.From.ID, st)
		return a.sendScreen(m.Chat.ID, screen{text: "Описание?", keyboard: skipKeyboard("admin_skip_desc")})

	case stepGameDesc:
		st.Draft.Description = value
		st.Step = stepGameLimit
		a.sessions.Set(m.From.ID, st)
		return a.sendScreen(m.Chat.ID, screen{text: "Лимит мест? Число, 0 — без лимита.", keyboard: skipKeyboard("admin_skip_limit")})

	case stepGameLimit:
		st.Draft.Limit = parseIntLenient(value)
		return a.commitAddGame(m.Chat.ID, m.From.ID, st)
	}
	return nil
}

// addGameSkip пропускает необязательный шаг (admin_skip_<шаг>).
func (a *App) addGameSkip(q *tgbotapi.CallbackQuery) error {
	st := a.sessions.Get(q.From.ID)
	if st.Flow != session.FlowAddGame {
		return nil
	}
	chatID := q.Message.Chat.ID
	msgID := q.Message.MessageID

	switch q.Data {
	case "admin_skip_time":
		if st.Step != stepGameTime {
			return nil
		}
		st.Step = stepGamePlace
		a.sessions.Set(q.From.ID, st)
		return a.editScreen(chatID, msgID, screen{text: "Место проведения?", keyboard: skipKeyboard("admin_skip_place")})
	case "admin_skip_place":
		if st.Step != stepGamePlace {
			return nil
		}
		st.Step = stepGamePrice
		a.sessions.Set(q.From.ID, st)
		return a.editScreen(chatID, msgID, screen{text: "Цена? Например: 2000₽", keyboard: skipKeyboard("admin_skip_price")})
	case "admin_skip_price":
		if st.Step != stepGamePrice {
			return nil
		}
		st.Step = stepGameDesc
		a.sessions.Set(q.From.ID, st)
		return a.editScreen(chatID, msgID, screen{text: "Описание?", keyboard: skipKeyboard("admin_skip_desc")})
	case "admin_skip_desc":
		if st.Step != stepGameDesc {
			return nil
		}
		st.Step = stepGameLimit
		a.sessions.Set(q.From.ID, st)
		return a.editScreen(chatID, msgID, screen{text: "Лимит мест? Число, 0 — без лимита.", keyboard: skipKeyboard("admin_skip_limit")})
	case "admin_skip_limit":
		if st.Step != stepGameLimit {
			return nil
		}
		st.Draft.Limit = 0
		return a.commitAddGame(chatID, q.From.ID, st)
	}
	return nil
}

func (a *App) commitAddGame(chatID, tgID int64, st session.Session) error {
	game := models.Game{
		Name:        st.Draft.Name,
		Date:        st.Draft.Date,
		Time:        st.Draft.Time,
		Place:       st.Draft.Place,
		Price:       st.Draft.Price,
		Description: st.Draft.Description,
		LimitPlaces: st.Draft.Limit,
	}
	if _, err := a.db.CreateGame(game); err != nil {
		log.Printf("создание игры: %v", err)
		return a.sendScreen(chatID, screen{text: "⚠️ Не получилось сохранить игру. Отправьте лимит ещё раз."})
	}
	a.sessions.Clear(tgID)
	return a.sendScreen(chatID, screen{
		text:     fmt.Sprintf("✅ Игра «%s» добавлена и видна в расписании.", game.Name),
		keyboard: keyboard(backRow("admin_back")),
	})
}

// ---------- заявки и заказы ----------

func (a *App) showAdminLeads(q *tgbotapi.CallbackQuery) error {
	leads, err := a.db.Leads(10)
	if err != nil {
		return err
	}
	if len(leads) == 0 {
		return a.editScreen(q.Message.Chat.ID, q.Message.MessageID, screen{
			text:     "📋 Заявок пока нет.",
			keyboard: keyboard(backRow("admin_back")),
		})
	}
	var b strings.Builder
	b.WriteString("📋 Последние заявки. Кнопка меняет статус по кругу.\n")
	rows := [][]tgbotapi.InlineKeyboardButton{}
	for _, l := range leads {
		fmt.Fprintf(&b, "\n#%d %s — %s, %d чел.", l.ID, l.Name, l.GameName, l.Participants)
		if l.Phone != "" {
			b.WriteString(" 📞 " + l.Phone)
		}
		label := leadStatusLabels[l.Status]
		if label == "" {
			label = l.Status
		}
		rows = append(rows, row(btn(fmt.Sprintf("#%d %s", l.ID, label), fmt.Sprintf("adm_lead_%d", l.ID))))
	}
	rows = append(rows, backRow("admin_back"))
	return a.editScreen(q.Message.Chat.ID, q.Message.MessageID, screen{
		text:     b.String(),
		keyboard: keyboard(rows...),
	})
}

func (a *App) cycleLeadStatus(q *tgbotapi.CallbackQuery) error {
	id, err := strconv.ParseInt(strings.TrimPrefix(q.Data, "adm_lead_"), 10, 64)
	if err != nil {
		return nil
	}
	lead, err := a.db.LeadByID(id)
	if err != nil {
		return err
	}
	if lead == nil {
		a.alertCallback(q, "Заявка не найдена")
		return a.showAdminLeads(q)
	}
	next := models.NextLeadStatus(lead.Status)
	if err := a.db.SetLeadStatus(id, next); err != nil {
		return err
	}
	return a.showAdminLeads(q)
}

func (a *App) showAdminOrders(q *tgbotapi.CallbackQuery) error {
	orders, err := a.db.HolidayOrders(20)
	if err != nil {
		return err
	}
	var b strings.Builder
	if len(orders) == 0 {
		b.WriteString("🎉 Заказов праздников пока нет.")
	} else {
		b.WriteString("🎉 Заказы квест-праздников:\n")
		for _, o := range orders {
			fmt.Fprintf(&b, "\n#%d %s — %s (%s)", o.ID, o.Name, o.Phone, o.CreatedAt)
		}
	}
	return a.editScreen(q.Message.Chat.ID, q.Message.MessageID, screen{
		text:     b.String(),
		keyboard: keyboard(backRow("admin_back")),
	})
}

// ---------- автонапоминания и экспорт ----------

func (a *App) toggleFollowUp(q *tgbotapi.CallbackQuery) error {
	cur, err := a.db.Setting("follow_up_enabled", "1")
	if err != nil {
		return err
	}
	next := "1"
	notice := "Автонапоминания включены"
	if cur == "1" {
		next = "0"
		notice = "Автонапоминания выключены"
	}
	if err := a.db.SetSetting("follow_up_enabled", next); err != nil {
		return err
	}
	a.alertCallback(q, notice)
	return a.editScreen(q.Message.Chat.ID, q.Message.MessageID, adminPanelScreen())
}

// sendExportLink отдаёт подписанную ссылку на CSV со всеми
// пользователями; сам файл раздаёт HTTP-сервер.
func (a *App) sendExportLink(q *tgbotapi.CallbackQuery) error {
	token := util.HMACSHA256Hex(a.cfg.ExportSecret, "export:users")
	link := fmt.Sprintf("%s/export/users.csv?token=%s", strings.TrimRight(a.cfg.BasePublicURL, "/"), token)
	return a.sendScreen(q.Message.Chat.ID, screen{
		text: "📤 Выгрузка пользователей:\n" + link,
	})
}
