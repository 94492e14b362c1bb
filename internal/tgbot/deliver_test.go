package tgbot

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func TestEditScreenFallbackResends(t *testing.T) {
	app, bot := newTestApp(t)
	bot.failEdits = true

	s := screen{text: "экран", keyboard: keyboard(backRow("menu_back"))}
	if err := app.editScreen(testUserID, 10, s); err != nil {
		t.Fatalf("editScreen: %v", err)
	}

	// старое сообщение удалено
	var deleted bool
	for _, r := range bot.requests {
		if d, ok := r.(tgbotapi.DeleteMessageConfig); ok {
			if d.ChatID != testUserID || d.MessageID != 10 {
				t.Errorf("удалено не то сообщение: %+v", d)
			}
			deleted = true
		}
	}
	if !deleted {
		t.Error("сообщение не удалено при сбое правки")
	}

	// экран дошёл новым сообщением
	if bot.lastText() != "экран" {
		t.Errorf("новое сообщение: %q", bot.lastText())
	}
}

func TestEditScreenPrefersEdit(t *testing.T) {
	app, bot := newTestApp(t)

	if err := app.editScreen(testUserID, 10, screen{text: "экран"}); err != nil {
		t.Fatalf("editScreen: %v", err)
	}
	edit, ok := bot.sent[len(bot.sent)-1].(tgbotapi.EditMessageTextConfig)
	if !ok {
		t.Fatalf("ожидалась правка, отправлено %T", bot.sent[len(bot.sent)-1])
	}
	if edit.MessageID != 10 || edit.Text != "экран" {
		t.Errorf("правка: %+v", edit)
	}
	if len(bot.requests) != 0 {
		t.Errorf("лишние запросы: %d", len(bot.requests))
	}
}

func TestPhotoFile(t *testing.T) {
	if _, ok := photoFile("https://example.com/a.jpg").(tgbotapi.FileURL); !ok {
		t.Error("http-ссылка должна стать FileURL")
	}
	if _, ok := photoFile("AgACAgIAAxkBAAIB").(tgbotapi.FileID); !ok {
		t.Error("file_id должен стать FileID")
	}
}

func TestSendScreenPhoto(t *testing.T) {
	app, bot := newTestApp(t)
	err := app.sendScreen(testUserID, screen{text: "подпись", photo: "file42"})
	if err != nil {
		t.Fatalf("sendScreen: %v", err)
	}
	photo, ok := bot.sent[0].(tgbotapi.PhotoConfig)
	if !ok {
		t.Fatalf("ожидалось фото, отправлено %T", bot.sent[0])
	}
	if photo.Caption != "подпись" {
		t.Errorf("подпись: %q", photo.Caption)
	}
}
