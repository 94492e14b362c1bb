package tgbot

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"quest-bot/internal/models"
	"quest-bot/internal/session"
)

// Шаги сценария и кадра сюжета.
const (
	stepScenarioName = iota
	stepScenarioDesc
)

const (
	stepStoryContent = iota
	stepStoryImage
)

// ---------- сценарии ----------

func (a *App) showAdminScenarios(q *tgbotapi.CallbackQuery) error {
	scenarios, err := a.db.Scenarios()
	if err != nil {
		return err
	}
	stories, err := a.db.AllStories()
	if err != nil {
		return err
	}
	rows := [][]tgbotapi.InlineKeyboardButton{}
	for _, s := range scenarios {
		rows = append(rows, row(
			btn("🎭 "+s.Name, fmt.Sprintf("adm_scen_%d", s.ID)),
			btn("✏️", fmt.Sprintf("adm_scen_edit_%d", s.ID)),
			btn("🗑", fmt.Sprintf("adm_scen_del_%d", s.ID)),
		))
	}
	rows = append(rows, row(btn("➕ Новый сценарий", "adm_scen_add")), backRow("admin_back"))
	return a.editScreen(q.Message.Chat.ID, q.Message.MessageID, screen{
		text: fmt.Sprintf("🎭 Сценарии: %d, кадров всего: %d.\nНажмите на сценарий, чтобы открыть его кадры.",
			len(scenarios), len(stories)),
		keyboard: keyboard(rows...),
	})
}

func (a *App) startAddScenario(q *tgbotapi.CallbackQuery) error {
	a.sessions.Set(q.From.ID, session.Session{Flow: session.FlowAddScenario, Step: stepScenarioName})
	return a.editScreen(q.Message.Chat.ID, q.Message.MessageID, screen{
		text:     "➕ Новый сценарий.\n\nНазвание?",
		keyboard: keyboard(backRow("admin_stories")),
	})
}

func (a *App) startEditScenario(q *tgbotapi.CallbackQuery) error {
	id, err := strconv.ParseInt(strings.TrimPrefix(q.Data, "adm_scen_edit_"), 10, 64)
	if err != nil {
		return nil
	}
	st := session.Session{Flow: session.FlowEditScenario, Step: stepScenarioName}
	st.Draft.ScenarioID = id
	a.sessions.Set(q.From.ID, st)
	return a.editScreen(q.Message.Chat.ID, q.Message.MessageID, screen{
		text:     "✏️ Новое название сценария? («пропустить» — оставить старое)",
		keyboard: keyboard(backRow("admin_stories")),
	})
}

// adminScenarioMessage ведёт оба диалога: создание и правку сценария.
func (a *App) adminScenarioMessage(m *tgbotapi.Message, st session.Session) error {
	if !a.isAdmin(m.From.ID) {
		a.sessions.Clear(m.From.ID)
		return a.sendScreen(m.Chat.ID, menuScreen())
	}
	value := strings.TrimSpace(m.Text)

	switch st.Step {
	case stepScenarioName:
		if st.Flow == session.FlowAddScenario && value == "" {
			return a.sendScreen(m.Chat.ID, screen{text: "Название не может быть пустым. Ещё раз?"})
		}
		st.Draft.Name = value
		st.Step = stepScenarioDesc
		a.sessions.Set(m.From.ID, st)
		return a.sendScreen(m.Chat.ID, screen{
			text:     "Описание сценария?",
			keyboard: keyboard(row(btn("Пропустить", "adm_scen_desc_skip"))),
		})

	case stepScenarioDesc:
		st.Draft.Description = value
		return a.commitScenario(m.Chat.ID, m.From.ID, st, true)
	}
	return nil
}

// scenarioSkipDescription завершает диалог без описания.
func (a *App) scenarioSkipDescription(q *tgbotapi.CallbackQuery) error {
	st := a.sessions.Get(q.From.ID)
	if (st.Flow != session.FlowAddScenario && st.Flow != session.FlowEditScenario) || st.Step != stepScenarioDesc {
		return nil
	}
	return a.commitScenario(q.Message.Chat.ID, q.From.ID, st, false)
}

func (a *App) commitScenario(chatID, tgID int64, st session.Session, withDesc bool) error {
	var err error
	switch st.Flow {
	case session.FlowAddScenario:
		_, err = a.db.CreateScenario(st.Draft.Name, st.Draft.Description)
	case session.FlowEditScenario:
		patch := models.ScenarioPatch{}
		if name := st.Draft.Name; name != "" && strings.ToLower(name) != "пропустить" {
			patch.Name = &name
		}
		if withDesc {
			desc := st.Draft.Description
			patch.Description = &desc
		}
		err = a.db.PatchScenario(st.Draft.ScenarioID, patch)
	}
	if err != nil {
		log.Printf("сохранение сценария: %v", err)
		return a.sendScreen(chatID, screen{text: "⚠️ Не получилось сохранить. Отправьте описание ещё раз."})
	}
	a.sessions.Clear(tgID)
	return a.sendScreen(chatID, screen{
		text:     "✅ Сценарий сохранён.",
		keyboard: keyboard(row(btn("🎭 К сценариям", "admin_stories"))),
	})
}

func (a *App) adminDeleteScenario(q *tgbotapi.CallbackQuery) error {
	id, err := strconv.ParseInt(strings.TrimPrefix(q.Data, "adm_scen_del_"), 10, 64)
	if err != nil {
		return nil
	}
	if err := a.db.DeleteScenario(id); err != nil {
		return err
	}
	a.answerCallback(q, "Сценарий и его кадры удалены")
	return a.showAdminScenarios(q)
}

// ---------- кадры сюжета ----------

func (a *App) showAdminStories(q *tgbotapi.CallbackQuery) error {
	id, err := strconv.ParseInt(strings.TrimPrefix(q.Data, "adm_scen_"), 10, 64)
	if err != nil {
		return nil
	}
	return a.renderAdminStories(q, id)
}

func (a *App) renderAdminStories(q *tgbotapi.CallbackQuery, scenarioID int64) error {
	sc, err := a.db.ScenarioByID(scenarioID)
	if err != nil {
		return err
	}
	if sc == nil {
		return a.showAdminScenarios(q)
	}
	stories, err := a.db.StoriesByScenario(scenarioID, false)
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🎭 %s: %d кадров.\nСтрелки меняют порядок показа.", sc.Name, len(stories))
	rows := [][]tgbotapi.InlineKeyboardButton{}
	for _, s := range stories {
		title := s.Title
		if title == "" {
			title = s.Content
		}
		if len([]rune(title)) > 20 {
			title = string([]rune(title)[:20]) + "…"
		}
		eye := "👁"
		if s.Hidden {
			eye = "🙈"
		}
		rows = append(rows, row(
			btn(fmt.Sprintf("%s %s", eye, title), fmt.Sprintf("adm_story_toggle_%d", s.ID)),
			btn("✏️", fmt.Sprintf("adm_story_edit_%d", s.ID)),
			btn("⬆️", fmt.Sprintf("adm_story_up_%d", s.ID)),
			btn("⬇️", fmt.Sprintf("adm_story_down_%d", s.ID)),
			btn("🗑", fmt.Sprintf("adm_story_del_%d", s.ID)),
		))
	}
	rows = append(rows,
		row(btn("➕ Добавить кадр", fmt.Sprintf("adm_story_add_%d", scenarioID))),
		row(btn("🎭 К сценариям", "admin_stories")),
	)
	return a.editScreen(q.Message.Chat.ID, q.Message.MessageID, screen{
		text:     b.String(),
		keyboard: keyboard(rows...),
	})
}

func (a *App) storyScenarioID(storyID int64) (int64, error) {
	s, err := a.db.StoryByID(storyID)
	if err != nil {
		return 0, err
	}
	if s == nil || s.ScenarioID == nil {
		return 0, nil
	}
	return *s.ScenarioID, nil
}

func (a *App) adminToggleStory(q *tgbotapi.CallbackQuery) error {
	id, err := strconv.ParseInt(strings.TrimPrefix(q.Data, "adm_story_toggle_"), 10, 64)
	if err != nil {
		return nil
	}
	scenID, err := a.storyScenarioID(id)
	if err != nil {
		return err
	}
	if _, err := a.db.ToggleStoryHidden(id); err != nil {
		return err
	}
	if scenID == 0 {
		return a.showAdminScenarios(q)
	}
	return a.renderAdminStories(q, scenID)
}

func (a *App) adminDeleteStory(q *tgbotapi.CallbackQuery) error {
	id, err := strconv.ParseInt(strings.TrimPrefix(q.Data, "adm_story_del_"), 10, 64)
	if err != nil {
		return nil
	}
	scenID, err := a.storyScenarioID(id)
	if err != nil {
		return err
	}
	if err := a.db.DeleteStory(id); err != nil {
		return err
	}
	if scenID == 0 {
		return a.showAdminScenarios(q)
	}
	return a.renderAdminStories(q, scenID)
}

// adminMoveStory меняет кадр местами с соседом; на краю списка - no-op.
func (a *App) adminMoveStory(q *tgbotapi.CallbackQuery, prefix, direction string) error {
	id, err := strconv.ParseInt(strings.TrimPrefix(q.Data, prefix), 10, 64)
	if err != nil {
		return nil
	}
	scenID, err := a.storyScenarioID(id)
	if err != nil {
		return err
	}
	if err := a.db.SwapStoryOrder(id, direction); err != nil {
		return err
	}
	if scenID == 0 {
		return a.showAdminScenarios(q)
	}
	return a.renderAdminStories(q, scenID)
}

func (a *App) startAddStory(q *tgbotapi.CallbackQuery) error {
	scenID, err := strconv.ParseInt(strings.TrimPrefix(q.Data, "adm_story_add_"), 10, 64)
	if err != nil {
		return nil
	}
	st := session.Session{Flow: session.FlowAddStory, Step: stepStoryContent}
	st.Draft.ScenarioID = scenID
	a.sessions.Set(q.From.ID, st)
	return a.editScreen(q.Message.Chat.ID, q.Message.MessageID, screen{
		text:     "➕ Текст кадра?",
		keyboard: keyboard(backRow("admin_stories")),
	})
}

func (a *App) adminAddStoryMessage(m *tgbotapi.Message, st session.Session) error {
	if !a.isAdmin(m.From.ID) {
		a.sessions.Clear(m.From.ID)
		return a.sendScreen(m.Chat.ID, menuScreen())
	}

	switch st.Step {
	case stepStoryContent:
		text := strings.TrimSpace(m.Text)
		if text == "" {
			return a.sendScreen(m.Chat.ID, screen{text: "Текст кадра не может быть пустым. Ещё раз?"})
		}
		st.Draft.Content = text
		st.Step = stepStoryImage
		a.sessions.Set(m.From.ID, st)
		return a.sendScreen(m.Chat.ID, screen{
			text:     "🖼 Пришлите картинку кадра (фото или ссылку).",
			keyboard: keyboard(row(btn("Без картинки", "adm_story_skip_image"))),
		})

	case stepStoryImage:
		image := strings.TrimSpace(m.Text)
		if len(m.Photo) > 0 {
			image = m.Photo[len(m.Photo)-1].FileID
		}
		st.Draft.ImageURL = image
		return a.commitStory(m.Chat.ID, m.From.ID, st)
	}
	return nil
}

func (a *App) startEditStory(q *tgbotapi.CallbackQuery) error {
	id, err := strconv.ParseInt(strings.TrimPrefix(q.Data, "adm_story_edit_"), 10, 64)
	if err != nil {
		return nil
	}
	s, err := a.db.StoryByID(id)
	if err != nil {
		return err
	}
	if s == nil {
		return a.showAdminScenarios(q)
	}
	st := session.Session{Flow: session.FlowEditStory, Step: stepStoryContent}
	st.Draft.EditID = id
	a.sessions.Set(q.From.ID, st)
	return a.editScreen(q.Message.Chat.ID, q.Message.MessageID, screen{
		text:     "✏️ Новый текст кадра? Фото заменит картинку.\n\nСейчас:\n" + s.Content,
		keyboard: keyboard(backRow("admin_stories")),
	})
}

// adminEditStoryMessage заменяет текст кадра, а присланное фото - его
// картинку. Название кадра следует за текстом.
func (a *App) adminEditStoryMessage(m *tgbotapi.Message, st session.Session) error {
	if !a.isAdmin(m.From.ID) {
		a.sessions.Clear(m.From.ID)
		return a.sendScreen(m.Chat.ID, menuScreen())
	}

	patch := models.StoryPatch{}
	if text := strings.TrimSpace(m.Text); text != "" {
		title := storyTitle(text)
		patch.Title = &title
		patch.Content = &text
	}
	if len(m.Photo) > 0 {
		image := m.Photo[len(m.Photo)-1].FileID
		patch.ImageURL = &image
	}
	if patch.Content == nil && patch.ImageURL == nil {
		return a.sendScreen(m.Chat.ID, screen{text: "Пришлите новый текст или фото."})
	}
	if err := a.db.PatchStory(st.Draft.EditID, patch); err != nil {
		log.Printf("правка кадра: %v", err)
		return a.sendScreen(m.Chat.ID, screen{text: "⚠️ Не получилось сохранить. Ещё раз?"})
	}
	a.sessions.Clear(m.From.ID)
	return a.sendScreen(m.Chat.ID, screen{
		text:     "✅ Кадр обновлён.",
		keyboard: keyboard(row(btn("🎭 К сценариям", "admin_stories"))),
	})
}

func (a *App) storySkipImage(q *tgbotapi.CallbackQuery) error {
	st := a.sessions.Get(q.From.ID)
	if st.Flow != session.FlowAddStory || st.Step != stepStoryImage {
		return nil
	}
	st.Draft.ImageURL = ""
	return a.commitStory(q.Message.Chat.ID, q.From.ID, st)
}

// storyTitle - подпись кадра для админских списков: первая строка текста.
func storyTitle(content string) string {
	return strings.TrimSpace(strings.SplitN(content, "\n", 2)[0])
}

// commitStory добавляет кадр в конец сценария.
func (a *App) commitStory(chatID, tgID int64, st session.Session) error {
	existing, err := a.db.StoriesByScenario(st.Draft.ScenarioID, false)
	if err != nil {
		return err
	}
	scenID := st.Draft.ScenarioID
	story := models.Story{
		Title:      storyTitle(st.Draft.Content),
		Content:    st.Draft.Content,
		ImageURL:   st.Draft.ImageURL,
		OrderNum:   len(existing),
		ScenarioID: &scenID,
	}
	if _, err := a.db.CreateStory(story); err != nil {
		log.Printf("создание кадра: %v", err)
		return a.sendScreen(chatID, screen{text: "⚠️ Не получилось сохранить кадр. Отправьте картинку ещё раз."})
	}
	a.sessions.Clear(tgID)
	return a.sendScreen(chatID, screen{
		text:     "✅ Кадр добавлен.",
		keyboard: keyboard(row(btn("🎭 К сценариям", "admin_stories"))),
	})
}
