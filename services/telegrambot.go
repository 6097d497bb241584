package services

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/savilov/binance-futures-cli/domain"
)

type telegramBotCredentials interface {
	GetTelegramBotAPIToken() string
	GetTelegramChatID() int64
}

type telegramBotLogger interface {
	Warnf(format string, args ...interface{})
}

// TelegramBot pushes order events to a single configured chat. It is an
// optional sink, a send failure is logged and swallowed so it can never
// interrupt trading.
type TelegramBot struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger telegramBotLogger
}

func NewTelegramBot(telegramBotCredentials telegramBotCredentials, telegramBotLogger telegramBotLogger) (*TelegramBot, error) {
	bot, err := tgbotapi.NewBotAPI(telegramBotCredentials.GetTelegramBotAPIToken())
	if err != nil {
		return nil, err
	}

	return &TelegramBot{
		bot:    bot,
		chatID: telegramBotCredentials.GetTelegramChatID(),
		logger: telegramBotLogger,
	}, nil
}

func (telegramBot *TelegramBot) SendOrderInfo(orderInfo *domain.OrderInfo) {
	template := "%s: %s %s %s at %s 💵\n%s ⏱"

	textSide := "Buy"
	if orderInfo.Side == domain.OrderSideSell {
		textSide = "Sell"
	}

	price := orderInfo.Price
	if price.IsZero() {
		price = orderInfo.AvgPrice
	}

	text := fmt.Sprintf(template, orderInfo.Status, textSide, orderInfo.Quantity, orderInfo.Symbol, price, orderInfo.PlacedAt.Format(time.RFC1123))

	msg := tgbotapi.NewMessage(telegramBot.chatID, text)
	if _, err := telegramBot.bot.Send(msg); err != nil {
		telegramBot.logger.Warnf("Could not send telegram notification: %v", err)
	}
}
