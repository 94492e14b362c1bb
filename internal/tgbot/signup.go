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

// Шаги записи на игру.
const (
	stepSignupGame = iota
	stepSignupCount
	stepSignupContact
	stepSignupComment
	stepSignupConfirm
)

func (a *App) startSignup(q *tgbotapi.CallbackQuery) error {
	games, err := a.db.VisibleGames()
	if err != nil {
		return err
	}
	if len(games) == 0 {
		return a.editScreen(q.Message.Chat.ID, q.Message.MessageID, screen{
			text:     "Пока нет открытых игр. Загляните позже!",
			keyboard: keyboard(backRow("menu_back")),
		})
	}
	a.sessions.Set(q.From.ID, session.Session{Flow: session.FlowSignup, Step: stepSignupGame})
	return a.editScreen(q.Message.Chat.ID, q.Message.MessageID, signupGamesScreen(games))
}

// signupCallback обрабатывает кнопки визарда записи. Колбэк от
// устаревшего экрана (шаг не совпадает) молча игнорируется.
func (a *App) signupCallback(q *tgbotapi.CallbackQuery) error {
	st := a.sessions.Get(q.From.ID)
	if st.Flow != session.FlowSignup {
		return nil
	}
	data := q.Data
	chatID := q.Message.Chat.ID
	msgID := q.Message.MessageID

	switch {
	case strings.HasPrefix(data, "rgame_"):
		if st.Step != stepSignupGame {
			return nil
		}
		id, err := strconv.ParseInt(strings.TrimPrefix(data, "rgame_"), 10, 64)
		if err != nil {
			return nil
		}
		game, err := a.db.GameByID(id)
		if err != nil {
			return err
		}
		if game == nil || game.Hidden {
			a.alertCallback(q, "Эта игра больше недоступна")
			return a.startSignup(q)
		}
		st.Draft.GameID = game.ID
		st.Draft.GameName = game.Name
		st.Step = stepSignupCount
		a.sessions.Set(q.From.ID, st)
		return a.editScreen(chatID, msgID, signupCountScreen(game))

	case strings.HasPrefix(data, "rcount_"):
		if st.Step != stepSignupCount {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimPrefix(data, "rcount_"))
		if err != nil || n < 1 {
			n = 1
		}
		st.Draft.Participants = n
		st.Step = stepSignupContact
		a.sessions.Set(q.From.ID, st)
		return a.editScreen(chatID, msgID, signupContactScreen())

	case data == "rskip_contact":
		if st.Step != stepSignupContact {
			return nil
		}
		st.Draft.Phone = ""
		st.Step = stepSignupComment
		a.sessions.Set(q.From.ID, st)
		return a.editScreen(chatID, msgID, signupCommentScreen())

	case data == "rskip_comment":
		if st.Step != stepSignupComment {
			return nil
		}
		st.Draft.Comment = ""
		st.Step = stepSignupConfirm
		a.sessions.Set(q.From.ID, st)
		return a.showSignupConfirm(chatID, msgID, st)

	case data == "rback_count":
		if st.Step != stepSignupCount {
			return nil
		}
		games, err := a.db.VisibleGames()
		if err != nil {
			return err
		}
		st.Step = stepSignupGame
		a.sessions.Set(q.From.ID, st)
		return a.editScreen(chatID, msgID, signupGamesScreen(games))

	case data == "rback_contact":
		if st.Step != stepSignupContact {
			return nil
		}
		game, err := a.db.GameByID(st.Draft.GameID)
		if err != nil {
			return err
		}
		st.Step = stepSignupCount
		a.sessions.Set(q.From.ID, st)
		return a.editScreen(chatID, msgID, signupCountScreen(game))

	case data == "rback_comment":
		if st.Step != stepSignupComment {
			return nil
		}
		st.Step = stepSignupContact
		a.sessions.Set(q.From.ID, st)
		return a.editScreen(chatID, msgID, signupContactScreen())

	case data == "rback_confirm":
		if st.Step != stepSignupConfirm {
			return nil
		}
		st.Step = stepSignupComment
		a.sessions.Set(q.From.ID, st)
		return a.editScreen(chatID, msgID, signupCommentScreen())

	case data == "rconfirm_yes":
		if st.Step != stepSignupConfirm {
			return nil
		}
		return a.commitSignup(q, st)

	case data == "rconfirm_no":
		a.sessions.Clear(q.From.ID)
		return a.editScreen(chatID, msgID, menuScreen())
	}

	return nil
}

// signupMessage принимает телефон и комментарий текстом; телефон
// можно отправить и контактом Telegram.
func (a *App) signupMessage(m *tgbotapi.Message, st session.Session) error {
	switch st.Step {
	case stepSignupContact:
		phone := strings.TrimSpace(m.Text)
		if m.Contact != nil {
			phone = m.Contact.PhoneNumber
		}
		if phone == "" {
			return a.sendScreen(m.Chat.ID, signupContactScreen())
		}
		st.Draft.Phone = phone
		st.Step = stepSignupComment
		a.sessions.Set(m.From.ID, st)
		return a.sendScreen(m.Chat.ID, signupCommentScreen())

	case stepSignupComment:
		st.Draft.Comment = strings.TrimSpace(m.Text)
		st.Step = stepSignupConfirm
		a.sessions.Set(m.From.ID, st)
		return a.showSignupConfirm(m.Chat.ID, 0, st)
	}
	return nil
}

func (a *App) showSignupConfirm(chatID int64, msgID int, st session.Session) error {
	game, err := a.db.GameByID(st.Draft.GameID)
	if err != nil {
		return err
	}
	s := signupConfirmScreen(game, st.Draft.Participants, st.Draft.Phone, st.Draft.Comment)
	if msgID == 0 {
		return a.sendScreen(chatID, s)
	}
	return a.editScreen(chatID, msgID, s)
}

// commitSignup сохраняет заявку. При сбое записи сессия остаётся на
// шаге подтверждения, чтобы пользователь мог нажать «Отправить» ещё раз.
func (a *App) commitSignup(q *tgbotapi.CallbackQuery, st session.Session) error {
	user := q.From
	utm, err := a.db.UserUTM(user.ID)
	if err != nil {
		log.Printf("чтение UTM: %v", err)
	}

	gameID := st.Draft.GameID
	lead := models.Lead{
		TgID:         user.ID,
		Username:     user.UserName,
		Name:         strings.TrimSpace(user.FirstName + " " + user.LastName),
		Phone:        st.Draft.Phone,
		GameID:       &gameID,
		GameName:     st.Draft.GameName,
		Participants: st.Draft.Participants,
		Comment:      st.Draft.Comment,
		UTMSource:    utm.Source,
		UTMMedium:    utm.Medium,
		UTMCampaign:  utm.Campaign,
	}

	leadID, err := a.db.CreateLead(lead)
	if err != nil {
		log.Printf("сохранение заявки: %v", err)
		return a.sendScreen(q.Message.Chat.ID, screen{
			text: "⚠️ Не получилось сохранить заявку. Попробуйте нажать «Отправить» ещё раз.",
		})
	}
	lead.ID = leadID
	a.sessions.Clear(user.ID)

	if err := a.notifyOperator(fmtLeadNotification(lead)); err != nil {
		log.Printf("уведомление оператора: %v", err)
	}
	if a.mirror != nil {
		if err := a.mirror.AppendLead(lead); err != nil {
			log.Printf("зеркало заявки: %v", err)
		}
	}

	return a.editScreen(q.Message.Chat.ID, q.Message.MessageID, screen{
		text: "🎉 Заявка принята! Мы свяжемся с вами для подтверждения.\n\n" +
			"А пока загляните в наш чат:",
		keyboard: keyboard(
			row(urlBtn("👥 Наш чат", a.cfg.ChatLink)),
			row(btn("🏠 В меню", "menu_back")),
		),
	})
}

func fmtLeadNotification(l models.Lead) string {
	var b strings.Builder
	b.WriteString("🆕 Новая заявка на игру!\n")
	fmt.Fprintf(&b, "\n👤 %s", l.Name)
	if l.Username != "" {
		fmt.Fprintf(&b, " (@%s)", l.Username)
	}
	fmt.Fprintf(&b, "\n🎲 %s", l.GameName)
	fmt.Fprintf(&b, "\n👥 Участников: %d", l.Participants)
	if l.Phone != "" {
		fmt.Fprintf(&b, "\n📞 %s", l.Phone)
	}
	if l.Comment != "" {
		fmt.Fprintf(&b, "\n💬 %s", l.Comment)
	}
	if l.UTMSource != "" {
		fmt.Fprintf(&b, "\n📊 UTM: %s / %s / %s", l.UTMSource, l.UTMMedium, l.UTMCampaign)
	}
	return b.String()
}
