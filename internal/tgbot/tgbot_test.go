package tgbot

import (
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"quest-bot/internal/config"
	"quest-bot/internal/session"
	"quest-bot/internal/storage"
)

const (
	testAdminID    = int64(99)
	testUserID     = int64(1)
	testOperatorCh = int64(-100500)
)

// fakeBot записывает все вызовы Telegram API вместо сети.
type fakeBot struct {
	sent      []tgbotapi.Chattable
	requests  []tgbotapi.Chattable
	failEdits bool
	failChats map[int64]bool
	nextMsgID int
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	switch v := c.(type) {
	case tgbotapi.EditMessageTextConfig:
		if f.failEdits {
			return tgbotapi.Message{}, errors.New("Bad Request: message can't be edited")
		}
	case tgbotapi.EditMessageMediaConfig:
		if f.failEdits {
			return tgbotapi.Message{}, errors.New("Bad Request: message can't be edited")
		}
	case tgbotapi.MessageConfig:
		if f.failChats[v.ChatID] {
			return tgbotapi.Message{}, errors.New("Forbidden: bot was blocked by the user")
		}
	case tgbotapi.PhotoConfig:
		if f.failChats[v.ChatID] {
			return tgbotapi.Message{}, errors.New("Forbidden: bot was blocked by the user")
		}
	}
	f.sent = append(f.sent, c)
	f.nextMsgID++
	return tgbotapi.Message{MessageID: f.nextMsgID}, nil
}

func (f *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// lastText - текст последнего отправленного сообщения или правки.
func (f *fakeBot) lastText() string {
	for i := len(f.sent) - 1; i >= 0; i-- {
		switch v := f.sent[i].(type) {
		case tgbotapi.MessageConfig:
			return v.Text
		case tgbotapi.EditMessageTextConfig:
			return v.Text
		case tgbotapi.PhotoConfig:
			return v.Caption
		}
	}
	return ""
}

// lastButtons - подписи кнопок последней отправленной клавиатуры.
func (f *fakeBot) lastButtons() []string {
	var markup *tgbotapi.InlineKeyboardMarkup
	for i := len(f.sent) - 1; i >= 0 && markup == nil; i-- {
		switch v := f.sent[i].(type) {
		case tgbotapi.MessageConfig:
			if m, ok := v.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup); ok {
				markup = &m
			}
		case tgbotapi.EditMessageTextConfig:
			markup = v.ReplyMarkup
		case tgbotapi.PhotoConfig:
			if m, ok := v.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup); ok {
				markup = &m
			}
		}
	}
	if markup == nil {
		return nil
	}
	var labels []string
	for _, r := range markup.InlineKeyboard {
		for _, b := range r {
			labels = append(labels, b.Text)
		}
	}
	return labels
}

// textsTo собирает тексты сообщений в конкретный чат.
func (f *fakeBot) textsTo(chatID int64) []string {
	out := []string{}
	for _, c := range f.sent {
		if v, ok := c.(tgbotapi.MessageConfig); ok && v.ChatID == chatID {
			out = append(out, v.Text)
		}
	}
	return out
}

func newTestApp(t *testing.T) (*App, *fakeBot) {
	t.Helper()
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("открытие БД: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.InitSchema(); err != nil {
		t.Fatalf("схема: %v", err)
	}

	bot := &fakeBot{failChats: map[int64]bool{}}
	app := &App{
		cfg: config.Config{
			AdminIDs:       map[int64]bool{testAdminID: true},
			OperatorIDs:    map[int64]bool{testAdminID: true},
			OperatorChatID: testOperatorCh,
			ChatLink:       "https://t.me/+test",
			ExportSecret:   "test-secret",
			BasePublicURL:  "https://bot.example.com",
		},
		bot:      bot,
		db:       db,
		sessions: session.NewMemoryStore(),
	}
	return app, bot
}

func msgUpdate(userID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: userID, UserName: "tester", FirstName: "Тест"},
		Chat:      &tgbotapi.Chat{ID: userID},
		Text:      text,
	}}
}

func cbUpdate(userID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb1",
		From: &tgbotapi.User{ID: userID, UserName: "tester", FirstName: "Тест"},
		Message: &tgbotapi.Message{
			MessageID: 10,
			Chat:      &tgbotapi.Chat{ID: userID},
		},
		Data: data,
	}}
}

func mustContain(t *testing.T, s, sub string) {
	t.Helper()
	if !strings.Contains(s, sub) {
		t.Errorf("ожидалась подстрока %q в %q", sub, s)
	}
}
