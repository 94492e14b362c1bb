package tgbot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// notifyOperator шлёт служебное уведомление: в операторский чат, а при
// его отсутствии лично каждому оператору. Вызывающий решает, что делать
// с ошибкой; обычно её только логируют.
func (a *App) notifyOperator(text string) error {
	if a.cfg.OperatorChatID != 0 {
		_, err := a.bot.Send(tgbotapi.NewMessage(a.cfg.OperatorChatID, text))
		return err
	}

	var firstErr error
	sent := 0
	for id := range a.cfg.OperatorIDs {
		if _, err := a.bot.Send(tgbotapi.NewMessage(id, text)); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		sent++
	}
	if sent == 0 && firstErr != nil {
		return fmt.Errorf("уведомление операторов: %w", firstErr)
	}
	return nil
}
