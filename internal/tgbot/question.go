package tgbot

import (
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"quest-bot/internal/models"
	"quest-bot/internal/session"
)

// Шаги заказа квест-праздника.
const (
	stepHolidayName = iota
	stepHolidayPhone
)

// ---------- вопрос организатору ----------

func (a *App) startQuestion(q *tgbotapi.CallbackQuery) error {
	a.sessions.Set(q.From.ID, session.Session{Flow: session.FlowQuestion})
	return a.editScreen(q.Message.Chat.ID, q.Message.MessageID, screen{
		text:     "❓ Напишите ваш вопрос одним сообщением, и организатор ответит вам лично.",
		keyboard: keyboard(backRow("question_back")),
	})
}

func (a *App) questionMessage(m *tgbotapi.Message, _ session.Session) error {
	text := strings.TrimSpace(m.Text)
	if text == "" {
		return a.sendScreen(m.Chat.ID, screen{text: "Напишите вопрос текстом, пожалуйста."})
	}

	user := m.From
	question := models.Question{
		TgID:     user.ID,
		Username: user.UserName,
		Name:     strings.TrimSpace(user.FirstName + " " + user.LastName),
		Text:     text,
	}
	if _, err := a.db.CreateQuestion(question); err != nil {
		log.Printf("сохранение вопроса: %v", err)
		return a.sendScreen(m.Chat.ID, screen{
			text: "⚠️ Не получилось отправить вопрос. Попробуйте ещё раз.",
		})
	}
	a.sessions.Clear(user.ID)

	notice := fmt.Sprintf("❓ Новый вопрос от %s", question.Name)
	if question.Username != "" {
		notice += " (@" + question.Username + ")"
	}
	notice += ":\n\n" + question.Text
	if err := a.notifyOperator(notice); err != nil {
		log.Printf("уведомление оператора: %v", err)
	}

	return a.sendScreen(m.Chat.ID, screen{
		text: "✅ Вопрос отправлен! Организатор ответит вам в личные сообщения.",
		keyboard: keyboard(
			row(btn("🏠 В меню", "menu_back")),
		),
	})
}

// ---------- квест на праздник ----------

func (a *App) startHoliday(q *tgbotapi.CallbackQuery) error {
	a.sessions.Set(q.From.ID, session.Session{Flow: session.FlowHoliday, Step: stepHolidayName})
	return a.editScreen(q.Message.Chat.ID, q.Message.MessageID, screen{
		text: "🎉 Проведём квест на вашем празднике: день рождения, корпоратив, выпускной.\n\n" +
			"Как к вам обращаться?",
		keyboard: keyboard(backRow("menu_back")),
	})
}

func (a *App) holidayMessage(m *tgbotapi.Message, st session.Session) error {
	switch st.Step {
	case stepHolidayName:
		name := strings.TrimSpace(m.Text)
		if name == "" {
			return a.sendScreen(m.Chat.ID, screen{text: "Напишите имя текстом, пожалуйста."})
		}
		st.Draft.Name = name
		st.Step = stepHolidayPhone
		a.sessions.Set(m.From.ID, st)
		return a.sendScreen(m.Chat.ID, screen{
			text: "📞 Оставьте телефон, мы перезвоним и всё расскажем.",
		})

	case stepHolidayPhone:
		phone := strings.TrimSpace(m.Text)
		if m.Contact != nil {
			phone = m.Contact.PhoneNumber
		}
		if phone == "" {
			return a.sendScreen(m.Chat.ID, screen{text: "Отправьте номер телефона, пожалуйста."})
		}

		user := m.From
		order := models.HolidayOrder{
			TgID:     user.ID,
			Username: user.UserName,
			Name:     st.Draft.Name,
			Phone:    phone,
		}
		orderID, err := a.db.CreateHolidayOrder(order)
		if err != nil {
			log.Printf("сохранение заказа праздника: %v", err)
			return a.sendScreen(m.Chat.ID, screen{
				text: "⚠️ Не получилось сохранить заявку. Отправьте телефон ещё раз.",
			})
		}
		order.ID = orderID
		a.sessions.Clear(user.ID)

		notice := fmt.Sprintf("🎉 Заказ квест-праздника!\n\n👤 %s", order.Name)
		if order.Username != "" {
			notice += " (@" + order.Username + ")"
		}
		notice += "\n📞 " + order.Phone
		if err := a.notifyOperator(notice); err != nil {
			log.Printf("уведомление оператора: %v", err)
		}
		if a.mirror != nil {
			if err := a.mirror.AppendHolidayOrder(order); err != nil {
				log.Printf("зеркало заказа: %v", err)
			}
		}

		return a.sendScreen(m.Chat.ID, screen{
			text: "✅ Принято! Мы свяжемся с вами в ближайшее время.",
			keyboard: keyboard(
				row(btn("🏠 В меню", "menu_back")),
			),
		})
	}
	return nil
}
