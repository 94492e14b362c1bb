// Package tgbot - телеграм-слой: меню, визарды записи и админки,
// рассылка, лог событий.
package tgbot

import (
	"context"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"quest-bot/internal/config"
	"quest-bot/internal/models"
	"quest-bot/internal/session"
	"quest-bot/internal/sheets"
	"quest-bot/internal/storage"
)

// botAPI - минимум Telegram-клиента, который нужен обработчикам.
// *tgbotapi.BotAPI реализует его; тесты подставляют запись вызовов.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type App struct {
	cfg      config.Config
	api      *tgbotapi.BotAPI
	bot      botAPI
	db       *storage.DB
	sessions session.Store
	mirror   *sheets.Client // nil - зеркало выключено
}

func New(cfg config.Config, db *storage.DB, store session.Store, mirror *sheets.Client) (*App, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, err
	}
	api.Debug = false
	return &App{
		cfg:      cfg,
		api:      api,
		bot:      api,
		db:       db,
		sessions: store,
		mirror:   mirror,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := a.api.GetUpdatesChan(u)
	log.Printf("бот запущен, админов: %d", len(a.cfg.AdminIDs))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd := <-updates:
			a.HandleUpdate(upd)
		}
	}
}

func (a *App) HandleUpdate(upd tgbotapi.Update) {
	a.logEvent(upd)

	switch {
	case upd.Message != nil:
		if err := a.handleMessage(upd.Message); err != nil {
			log.Printf("обработка сообщения: %v", err)
		}
	case upd.CallbackQuery != nil:
		if err := a.handleCallback(upd.CallbackQuery); err != nil {
			log.Printf("обработка колбэка: %v", err)
		}
	}
}

// logEvent пишет каждое действие пользователя (кроме админов) в журнал.
// Сбой журнала не должен мешать основному сценарию.
func (a *App) logEvent(upd tgbotapi.Update) {
	var user *tgbotapi.User
	var eventType string

	switch {
	case upd.Message != nil:
		user = upd.Message.From
		switch {
		case strings.HasPrefix(upd.Message.Text, "/start"):
			eventType = "msg:start"
		case upd.Message.Text != "":
			eventType = "msg:text"
		case upd.Message.Photo != nil:
			eventType = "msg:photo"
		default:
			eventType = "msg"
		}
	case upd.CallbackQuery != nil:
		user = upd.CallbackQuery.From
		data := upd.CallbackQuery.Data
		if r := []rune(data); len(r) > 80 {
			data = string(r[:80])
		}
		eventType = "cb:" + data
	}

	if user == nil || eventType == "" || a.isAdmin(user.ID) {
		return
	}
	if err := a.db.LogUserEvent(user.ID, user.UserName, user.FirstName, user.LastName, eventType); err != nil {
		log.Printf("лог события: %v", err)
	}
}

func (a *App) isAdmin(tgID int64) bool { return a.cfg.AdminIDs[tgID] }

// ---------- сообщения ----------

func (a *App) handleMessage(m *tgbotapi.Message) error {
	if m.From == nil {
		return nil
	}
	tgID := m.From.ID

	if strings.HasPrefix(m.Text, "/start") {
		return a.handleStart(m)
	}
	if strings.HasPrefix(m.Text, "/admin") {
		return a.handleAdminCommand(m)
	}

	st := a.sessions.Get(tgID)
	switch st.Flow {
	case session.FlowSignup:
		return a.signupMessage(m, st)
	case session.FlowQuestion:
		return a.questionMessage(m, st)
	case session.FlowHoliday:
		return a.holidayMessage(m, st)
	case session.FlowAddGame:
		return a.adminAddGameMessage(m, st)
	case session.FlowEditGameField:
		return a.adminEditFieldMessage(m, st)
	case session.FlowAddStory:
		return a.adminAddStoryMessage(m, st)
	case session.FlowEditStory:
		return a.adminEditStoryMessage(m, st)
	case session.FlowAddScenario, session.FlowEditScenario:
		return a.adminScenarioMessage(m, st)
	case session.FlowBroadcast:
		return a.broadcastMessage(m, st)
	}

	// вне диалога любое сообщение возвращает в меню
	return a.sendScreen(m.Chat.ID, menuScreen())
}

func (a *App) handleStart(m *tgbotapi.Message) error {
	user := m.From
	a.sessions.Clear(user.ID)

	if utm, ok := parseStartUTM(m.Text); ok {
		if err := a.db.SaveUserUTM(user.ID, utm); err != nil {
			log.Printf("сохранение UTM: %v", err)
		}
	}

	inserted, err := a.db.AddSubscription(user.ID, user.UserName, user.FirstName, user.LastName)
	if err != nil {
		log.Printf("подписка: %v", err)
	}
	if inserted && a.mirror != nil {
		if err := a.mirror.AppendSubscription(user.ID, user.UserName, user.FirstName, user.LastName); err != nil {
			log.Printf("зеркало подписки: %v", err)
		}
	}

	return a.sendScreen(m.Chat.ID, menuScreen())
}

// ---------- колбэки ----------

func (a *App) handleCallback(q *tgbotapi.CallbackQuery) error {
	// колбэк с недоступного сообщения приходит без Message
	if q.Message == nil {
		a.answerCallback(q, "")
		return nil
	}
	data := q.Data

	if strings.HasPrefix(data, "admin_") || strings.HasPrefix(data, "adm_") || strings.HasPrefix(data, "bc_") {
		if !a.isAdmin(q.From.ID) {
			// неавторизованные попытки молча гасим
			a.answerCallback(q, "")
			return nil
		}
		return a.handleAdminCallback(q)
	}

	a.answerCallback(q, "")

	switch data {
	case "menu_back", "rback_game", "question_back":
		a.sessions.Clear(q.From.ID)
		return a.editScreen(q.Message.Chat.ID, q.Message.MessageID, menuScreen())
	case "menu_record":
		return a.startSignup(q)
	case "menu_format":
		return a.showFormat(q)
	case "menu_chat":
		return a.showChatInvite(q)
	case "menu_schedule":
		return a.showSchedule(q)
	case "menu_question":
		return a.startQuestion(q)
	case "menu_stories":
		return a.showScenarioList(q)
	case "menu_holiday":
		return a.startHoliday(q)
	case "stories_back":
		return a.showScenarioList(q)
	}

	switch {
	case strings.HasPrefix(data, "rgame_"),
		strings.HasPrefix(data, "rcount_"),
		strings.HasPrefix(data, "rskip_"),
		strings.HasPrefix(data, "rback_"),
		strings.HasPrefix(data, "rconfirm_"):
		return a.signupCallback(q)
	case strings.HasPrefix(data, "scen_"):
		return a.showScenarioStory(q)
	case strings.HasPrefix(data, "snav_"):
		return a.storyNav(q)
	}

	return nil
}

// answerCallback подтверждает нажатие кнопки; пустой текст - без тоста.
func (a *App) answerCallback(q *tgbotapi.CallbackQuery, text string) {
	cb := tgbotapi.NewCallback(q.ID, text)
	if _, err := a.bot.Request(cb); err != nil {
		log.Printf("ответ на колбэк: %v", err)
	}
}

func (a *App) alertCallback(q *tgbotapi.CallbackQuery, text string) {
	cb := tgbotapi.NewCallbackWithAlert(q.ID, text)
	if _, err := a.bot.Request(cb); err != nil {
		log.Printf("ответ на колбэк: %v", err)
	}
}

// parseStartUTM разбирает метку из диплинка вида
// "/start vk_cpc_spring". Формат: source_medium_campaign.
func parseStartUTM(text string) (models.UserUTM, bool) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return models.UserUTM{}, false
	}
	parts := strings.SplitN(fields[1], "_", 3)
	utm := models.UserUTM{Source: parts[0]}
	if len(parts) > 1 {
		utm.Medium = parts[1]
	}
	if len(parts) > 2 {
		utm.Campaign = parts[2]
	}
	return utm, utm.Source != ""
}
