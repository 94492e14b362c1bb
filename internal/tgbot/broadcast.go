package tgbot

import (
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"quest-bot/internal/session"
	"quest-bot/internal/storage"
)

// Шаги рассылки.
const (
	stepBroadcastFilter = iota
	stepBroadcastText
	stepBroadcastPhoto
	stepBroadcastConfirm
)

// Пауза между сообщениями, чтобы не упереться в лимиты Telegram.
const broadcastPause = 35 * time.Millisecond

func (a *App) startBroadcast(q *tgbotapi.CallbackQuery) error {
	a.sessions.Set(q.From.ID, session.Session{Flow: session.FlowBroadcast, Step: stepBroadcastFilter})
	return a.editScreen(q.Message.Chat.ID, q.Message.MessageID, screen{
		text: "📣 Кому отправляем?",
		keyboard: keyboard(
			row(btn("Всем подписчикам", "bc_all")),
			row(btn("Только с заявками", "bc_with_lead")),
			row(btn("Без заявок", "bc_without_lead")),
			backRow("admin_back"),
		),
	})
}

func (a *App) broadcastCallback(q *tgbotapi.CallbackQuery) error {
	st := a.sessions.Get(q.From.ID)
	if st.Flow != session.FlowBroadcast {
		return nil
	}
	chatID := q.Message.Chat.ID
	msgID := q.Message.MessageID

	switch q.Data {
	case "bc_all", "bc_with_lead", "bc_without_lead":
		if st.Step != stepBroadcastFilter {
			return nil
		}
		switch q.Data {
		case "bc_all":
			st.Draft.Filter = storage.BroadcastAll
		case "bc_with_lead":
			st.Draft.Filter = storage.BroadcastWithLead
		case "bc_without_lead":
			st.Draft.Filter = storage.BroadcastWithoutLead
		}
		st.Step = stepBroadcastText
		a.sessions.Set(q.From.ID, st)
		return a.editScreen(chatID, msgID, screen{text: "✍️ Текст рассылки?"})

	case "bc_skip_photo":
		if st.Step != stepBroadcastPhoto {
			return nil
		}
		st.Draft.Photo = ""
		st.Step = stepBroadcastConfirm
		a.sessions.Set(q.From.ID, st)
		return a.showBroadcastConfirm(chatID, msgID, st)

	case "bc_send":
		if st.Step != stepBroadcastConfirm {
			return nil
		}
		ids, err := a.db.BroadcastRecipients(st.Draft.Filter)
		if err != nil {
			return err
		}
		a.sessions.Clear(q.From.ID)
		if err := a.editScreen(chatID, msgID, screen{
			text: fmt.Sprintf("📣 Отправляю %d получателям…", len(ids)),
		}); err != nil {
			log.Printf("экран рассылки: %v", err)
		}
		sent, failed := a.runBroadcast(ids, st.Draft.Text, st.Draft.Photo)
		return a.sendScreen(chatID, screen{
			text:     fmt.Sprintf("✅ Рассылка завершена.\nДоставлено: %d\nНе доставлено: %d", sent, failed),
			keyboard: keyboard(backRow("admin_back")),
		})

	case "bc_cancel":
		a.sessions.Clear(q.From.ID)
		return a.editScreen(chatID, msgID, adminPanelScreen())
	}
	return nil
}

func (a *App) broadcastMessage(m *tgbotapi.Message, st session.Session) error {
	if !a.isAdmin(m.From.ID) {
		a.sessions.Clear(m.From.ID)
		return a.sendScreen(m.Chat.ID, menuScreen())
	}

	switch st.Step {
	case stepBroadcastText:
		text := strings.TrimSpace(m.Text)
		if text == "" {
			return a.sendScreen(m.Chat.ID, screen{text: "Текст не может быть пустым. Ещё раз?"})
		}
		st.Draft.Text = text
		st.Step = stepBroadcastPhoto
		a.sessions.Set(m.From.ID, st)
		return a.sendScreen(m.Chat.ID, screen{
			text:     "🖼 Прикрепить картинку? Пришлите фото или нажмите «Без картинки».",
			keyboard: keyboard(row(btn("Без картинки", "bc_skip_photo"))),
		})

	case stepBroadcastPhoto:
		if len(m.Photo) == 0 {
			return a.sendScreen(m.Chat.ID, screen{
				text:     "Нужно именно фото. Или нажмите «Без картинки».",
				keyboard: keyboard(row(btn("Без картинки", "bc_skip_photo"))),
			})
		}
		st.Draft.Photo = m.Photo[len(m.Photo)-1].FileID
		st.Step = stepBroadcastConfirm
		a.sessions.Set(m.From.ID, st)
		return a.showBroadcastConfirm(m.Chat.ID, 0, st)
	}
	return nil
}

func (a *App) showBroadcastConfirm(chatID int64, msgID int, st session.Session) error {
	filterLabel := map[string]string{
		storage.BroadcastAll:         "всем подписчикам",
		storage.BroadcastWithLead:    "пользователям с заявками",
		storage.BroadcastWithoutLead: "пользователям без заявок",
	}[st.Draft.Filter]
	s := screen{
		text:  fmt.Sprintf("📣 Рассылка %s:\n\n%s\n\nОтправляем?", filterLabel, st.Draft.Text),
		photo: st.Draft.Photo,
		keyboard: keyboard(
			row(btn("🚀 Отправить", "bc_send"), btn("❌ Отмена", "bc_cancel")),
		),
	}
	if msgID == 0 {
		return a.sendScreen(chatID, s)
	}
	return a.editScreen(chatID, msgID, s)
}

// runBroadcast шлёт сообщения по одному; сбой на одном получателе не
// останавливает остальных.
func (a *App) runBroadcast(ids []int64, text, photo string) (sent, failed int) {
	for _, id := range ids {
		var err error
		if photo != "" {
			msg := tgbotapi.NewPhoto(id, photoFile(photo))
			msg.Caption = text
			_, err = a.bot.Send(msg)
		} else {
			_, err = a.bot.Send(tgbotapi.NewMessage(id, text))
		}
		if err != nil {
			failed++
		} else {
			sent++
		}
		time.Sleep(broadcastPause)
	}
	return sent, failed
}

// RunFollowUp - периодическое напоминание о ближайших играх тем, кто
// писал боту, но не оставил заявку. Выключается настройкой
// follow_up_enabled.
func (a *App) RunFollowUp() {
	enabled, err := a.db.Setting("follow_up_enabled", "1")
	if err != nil {
		log.Printf("чтение настройки напоминаний: %v", err)
		return
	}
	if enabled != "1" {
		return
	}

	games, err := a.db.VisibleGames()
	if err != nil {
		log.Printf("игры для напоминания: %v", err)
		return
	}
	if len(games) == 0 {
		return
	}

	var b strings.Builder
	b.WriteString("🔔 Напоминаем: скоро игры!\n")
	for _, g := range games {
		fmt.Fprintf(&b, "\n🎲 %s — %s %s", g.Name, g.Date, g.Time)
	}
	b.WriteString("\n\nЗаписаться: /start")

	ids, err := a.db.BroadcastRecipients(storage.BroadcastWithoutLead)
	if err != nil {
		log.Printf("получатели напоминания: %v", err)
		return
	}
	sent, failed := a.runBroadcast(ids, b.String(), "")
	log.Printf("напоминание отправлено: %d ок, %d сбоев", sent, failed)
}
