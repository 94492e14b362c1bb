package tgbot

import (
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (a *App) showSchedule(q *tgbotapi.CallbackQuery) error {
	games, err := a.db.VisibleGames()
	if err != nil {
		return err
	}
	return a.editScreen(q.Message.Chat.ID, q.Message.MessageID, scheduleScreen(games))
}

func (a *App) showFormat(q *tgbotapi.CallbackQuery) error {
	fi, err := a.db.FormatInfo()
	if err != nil {
		return err
	}
	return a.editScreen(q.Message.Chat.ID, q.Message.MessageID, formatScreen(fi))
}

func (a *App) showChatInvite(q *tgbotapi.CallbackQuery) error {
	return a.editScreen(q.Message.Chat.ID, q.Message.MessageID, chatScreen(a.cfg.ChatLink))
}

func (a *App) showScenarioList(q *tgbotapi.CallbackQuery) error {
	scenarios, err := a.db.Scenarios()
	if err != nil {
		return err
	}
	return a.editScreen(q.Message.Chat.ID, q.Message.MessageID, scenarioListScreen(scenarios))
}

// showScenarioStory открывает первый видимый кадр сюжета (scen_<id>).
func (a *App) showScenarioStory(q *tgbotapi.CallbackQuery) error {
	id, err := strconv.ParseInt(strings.TrimPrefix(q.Data, "scen_"), 10, 64)
	if err != nil {
		return nil
	}
	return a.renderStory(q, id, 0)
}

// storyNav листает кадры сюжета (snav_<scenID>_<idx>).
func (a *App) storyNav(q *tgbotapi.CallbackQuery) error {
	parts := strings.Split(strings.TrimPrefix(q.Data, "snav_"), "_")
	if len(parts) != 2 {
		return nil
	}
	scenID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil
	}
	idx, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil
	}
	return a.renderStory(q, scenID, idx)
}

func (a *App) renderStory(q *tgbotapi.CallbackQuery, scenarioID int64, idx int) error {
	sc, err := a.db.ScenarioByID(scenarioID)
	if err != nil {
		return err
	}
	if sc == nil {
		return a.showScenarioList(q)
	}
	stories, err := a.db.StoriesByScenario(scenarioID, true)
	if err != nil {
		return err
	}
	if len(stories) == 0 {
		return a.editScreen(q.Message.Chat.ID, q.Message.MessageID, screen{
			text:     "📖 Этот сюжет ещё в работе, загляните позже.",
			keyboard: keyboard(backRow("stories_back")),
		})
	}
	if idx < 0 || idx >= len(stories) {
		idx = 0
	}
	return a.editScreen(q.Message.Chat.ID, q.Message.MessageID, storyScreen(*sc, stories, idx))
}
