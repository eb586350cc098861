// Package alert pushes operational alerts to a Telegram chat. When no bot
// token or chat id is configured, alerts degrade to a no-op so workflow code
// never has to check.
package alert

import (
	"context"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Notifier interface {
	Notify(ctx context.Context, text string)
}

// New returns a Telegram-backed notifier, or a noop one when unconfigured.
func New(botToken string, chatID int64) Notifier {
	if botToken == "" || chatID == 0 {
		return noopNotifier{}
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		log.Printf("alert: telegram bot init failed, alerts disabled: %v", err)
		return noopNotifier{}
	}

	return &telegramNotifier{bot: bot, chatID: chatID}
}

type telegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func (n *telegramNotifier) Notify(_ context.Context, text string) {
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		log.Printf("alert: telegram send failed: %v", err)
	}
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, string) {}
