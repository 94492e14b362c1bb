package tgbot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"quest-bot/internal/models"
	"quest-bot/internal/util"
)

func btn(text, data string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, data)
}

func urlBtn(text, url string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonURL(text, url)
}

func keyboard(rows ...[]tgbotapi.InlineKeyboardButton) *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

func row(buttons ...tgbotapi.InlineKeyboardButton) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(buttons...)
}

func backRow(data string) []tgbotapi.InlineKeyboardButton {
	return row(btn("⬅️ Назад", data))
}

// ---------- главное меню ----------

func menuScreen() screen {
	return screen{
		text: "🎭 Привет! Это бот квест-игр.\n\nВыберите, что вас интересует:",
		keyboard: keyboard(
			row(btn("🎲 Записаться на игру", "menu_record")),
			row(btn("📅 Расписание", "menu_schedule")),
			row(btn("❓ Что такое квест-игра", "menu_format")),
			row(btn("💬 Вопрос организатору", "menu_question")),
			row(btn("👥 Наш чат", "menu_chat")),
		),
	}
}

// ---------- расписание и формат ----------

// fmtGameLine собирает карточку игры для Markdown-экранов, поэтому
// введённые админом поля экранируются.
func fmtGameLine(g models.Game) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📅 *%s*", util.EscapeMarkdown(g.Name))
	if g.Date != "" {
		b.WriteString("\n🗓 " + g.Date)
		if g.Time != "" {
			b.WriteString(" " + g.Time)
		}
	}
	if g.Place != "" {
		b.WriteString("\n📍 " + util.EscapeMarkdown(g.Place))
	}
	if g.Price != "" {
		b.WriteString("\n💰 " + util.EscapeMarkdown(g.Price))
	}
	if g.Description != "" {
		b.WriteString("\n" + util.EscapeMarkdown(g.Description))
	}
	return b.String()
}

func scheduleScreen(games []models.Game) screen {
	var b strings.Builder
	if len(games) == 0 {
		b.WriteString("Пока нет запланированных игр. Загляните позже!")
	} else {
		b.WriteString("📅 *Ближайшие игры:*\n")
		for _, g := range games {
			b.WriteString("\n" + fmtGameLine(g) + "\n")
		}
	}
	return screen{
		text:     b.String(),
		markdown: true,
		keyboard: keyboard(
			row(btn("🎲 Записаться", "menu_record")),
			row(btn("🎭 Сюжеты игр", "menu_stories")),
			row(btn("🎉 Квест на праздник", "menu_holiday")),
			backRow("menu_back"),
		),
	}
}

func formatScreen(fi models.FormatInfo) screen {
	text := fi.Text
	if text == "" {
		text = "Квест-игра — это живой детектив, где каждый получает роль."
	}
	if fi.VideoURL != "" {
		text += "\n\n🎬 Видео о формате: " + fi.VideoURL
	}
	return screen{
		text:  text,
		photo: fi.ImageURL,
		keyboard: keyboard(
			row(btn("🎲 Записаться", "menu_record")),
			row(btn("🎉 Квест на праздник", "menu_holiday")),
			backRow("menu_back"),
		),
	}
}

func chatScreen(link string) screen {
	return screen{
		text: "👥 Наш чат — анонсы, фото с игр и обсуждения:",
		keyboard: keyboard(
			row(urlBtn("Перейти в чат", link)),
			backRow("menu_back"),
		),
	}
}

// ---------- запись на игру ----------

func signupGamesScreen(games []models.Game) screen {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(games)+1)
	for _, g := range games {
		label := g.Name
		if g.Date != "" {
			label = g.Date + " — " + g.Name
		}
		rows = append(rows, row(btn(label, fmt.Sprintf("rgame_%d", g.ID))))
	}
	rows = append(rows, backRow("rback_game"))
	return screen{
		text:     "🎲 Выберите игру:",
		keyboard: keyboard(rows...),
	}
}

func signupCountScreen(g *models.Game) screen {
	text := "Сколько вас будет?"
	if g != nil {
		text = fmt.Sprintf("Игра: %s\n\nСколько вас будет?", g.Name)
	}
	return screen{
		text: text,
		keyboard: keyboard(
			row(btn("1", "rcount_1"), btn("2", "rcount_2"), btn("3", "rcount_3"), btn("4", "rcount_4")),
			row(btn("5 и больше", "rcount_5")),
			backRow("rback_count"),
		),
	}
}

func signupContactScreen() screen {
	return screen{
		text: "📞 Оставьте телефон для связи (или нажмите «Пропустить»).\n" +
			"Можно отправить контакт кнопкой Telegram.",
		keyboard: keyboard(
			row(btn("Пропустить", "rskip_contact")),
			backRow("rback_contact"),
		),
	}
}

func signupCommentScreen() screen {
	return screen{
		text: "💬 Комментарий к заявке: пожелания, вопросы (или «Пропустить»).",
		keyboard: keyboard(
			row(btn("Пропустить", "rskip_comment")),
			backRow("rback_comment"),
		),
	}
}

func signupConfirmScreen(g *models.Game, count int, phone, comment string) screen {
	var b strings.Builder
	b.WriteString("✅ Проверьте заявку:\n")
	if g != nil {
		fmt.Fprintf(&b, "\n🎲 Игра: %s", g.Name)
		if g.Date != "" {
			fmt.Fprintf(&b, " (%s %s)", g.Date, g.Time)
		}
	}
	fmt.Fprintf(&b, "\n👥 Участников: %d", count)
	if phone != "" {
		fmt.Fprintf(&b, "\n📞 Телефон: %s", phone)
	}
	if comment != "" {
		fmt.Fprintf(&b, "\n💬 Комментарий: %s", comment)
	}
	b.WriteString("\n\nВсё верно?")
	return screen{
		text: b.String(),
		keyboard: keyboard(
			row(btn("✅ Отправить", "rconfirm_yes"), btn("❌ Отмена", "rconfirm_no")),
			backRow("rback_confirm"),
		),
	}
}

// ---------- сюжеты ----------

func scenarioListScreen(scenarios []models.Scenario) screen {
	if len(scenarios) == 0 {
		return screen{
			text:     "Сюжеты скоро появятся.",
			keyboard: keyboard(backRow("menu_back")),
		}
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(scenarios)+1)
	for _, s := range scenarios {
		rows = append(rows, row(btn("🎭 "+s.Name, fmt.Sprintf("scen_%d", s.ID))))
	}
	rows = append(rows, backRow("menu_back"))
	return screen{
		text:     "🎭 Наши сюжеты. Выберите, чтобы узнать подробнее:",
		keyboard: keyboard(rows...),
	}
}

func storyScreen(sc models.Scenario, stories []models.Story, idx int) screen {
	st := stories[idx]
	text := st.Content
	if sc.Name != "" {
		text = fmt.Sprintf("🎭 *%s*\n\n%s", util.EscapeMarkdown(sc.Name), util.EscapeMarkdown(st.Content))
	}
	nav := []tgbotapi.InlineKeyboardButton{}
	if idx > 0 {
		nav = append(nav, btn("⬅️", fmt.Sprintf("snav_%d_%d", sc.ID, idx-1)))
	}
	if idx < len(stories)-1 {
		nav = append(nav, btn("➡️", fmt.Sprintf("snav_%d_%d", sc.ID, idx+1)))
	}
	rows := [][]tgbotapi.InlineKeyboardButton{}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows,
		row(btn("🎲 Записаться", "menu_record")),
		row(btn("⬅️ К сюжетам", "stories_back")),
	)
	return screen{
		text:     text,
		photo:    st.ImageURL,
		markdown: sc.Name != "",
		keyboard: keyboard(rows...),
	}
}
