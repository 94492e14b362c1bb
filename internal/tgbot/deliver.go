package tgbot

import (
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// screen - готовый к показу экран: текст, опциональная картинка
// и инлайн-клавиатура.
type screen struct {
	text     string
	photo    string // file_id или http-ссылка, пусто - без картинки
	keyboard *tgbotapi.InlineKeyboardMarkup
	markdown bool
}

func photoFile(ref string) tgbotapi.RequestFileData {
	if strings.HasPrefix(ref, "http") {
		return tgbotapi.FileURL(ref)
	}
	return tgbotapi.FileID(ref)
}

// sendScreen показывает экран новым сообщением.
func (a *App) sendScreen(chatID int64, s screen) error {
	if s.photo != "" {
		msg := tgbotapi.NewPhoto(chatID, photoFile(s.photo))
		msg.Caption = s.text
		if s.markdown {
			msg.ParseMode = tgbotapi.ModeMarkdown
		}
		if s.keyboard != nil {
			msg.ReplyMarkup = *s.keyboard
		}
		_, err := a.bot.Send(msg)
		return err
	}

	msg := tgbotapi.NewMessage(chatID, s.text)
	if s.markdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}
	if s.keyboard != nil {
		msg.ReplyMarkup = *s.keyboard
	}
	_, err := a.bot.Send(msg)
	return err
}

// editScreen переписывает существующее сообщение под новый экран.
// Telegram не даёт превратить текст в фото и наоборот, поэтому при
// ошибке редактирования старое сообщение удаляется и экран уходит
// новым сообщением.
func (a *App) editScreen(chatID int64, messageID int, s screen) error {
	var err error
	if s.photo != "" {
		media := tgbotapi.NewInputMediaPhoto(photoFile(s.photo))
		media.Caption = s.text
		if s.markdown {
			media.ParseMode = tgbotapi.ModeMarkdown
		}
		edit := tgbotapi.EditMessageMediaConfig{
			BaseEdit: tgbotapi.BaseEdit{
				ChatID:      chatID,
				MessageID:   messageID,
				ReplyMarkup: s.keyboard,
			},
			Media: media,
		}
		_, err = a.bot.Send(edit)
	} else {
		edit := tgbotapi.NewEditMessageText(chatID, messageID, s.text)
		if s.markdown {
			edit.ParseMode = tgbotapi.ModeMarkdown
		}
		edit.ReplyMarkup = s.keyboard
		_, err = a.bot.Send(edit)
	}
	if err == nil {
		return nil
	}

	if _, derr := a.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); derr != nil {
		log.Printf("удаление сообщения: %v", derr)
	}
	return a.sendScreen(chatID, s)
}
