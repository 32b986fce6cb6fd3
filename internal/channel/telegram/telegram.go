package telegram

import (
	"context"
	"strconv"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/taskmind/taskmind-gateway/internal/channel"
)

// Adapter bridges Telegram chats into the gateway. Each Telegram chat ID
// becomes the user ID for conversation routing.
type Adapter struct {
	bot      *tgbotapi.BotAPI
	token    string
	incoming chan *channel.Message
	stopOnce sync.Once
	pump     sync.WaitGroup
}

func New(token string) *Adapter {
	return &Adapter{
		token:    token,
		incoming: make(chan *channel.Message, 100),
	}
}

func (a *Adapter) Name() string { return "telegram" }

func (a *Adapter) IsEnabled() bool { return a.token != "" }

func (a *Adapter) Start(ctx context.Context) error {
	bot, err := tgbotapi.NewBotAPI(a.token)
	if err != nil {
		return err
	}
	a.bot = bot

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := a.bot.GetUpdatesChan(u)

	a.pump.Add(1)
	go func() {
		defer a.pump.Done()
		for update := range updates {
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			a.incoming <- &channel.Message{
				ID:        strconv.Itoa(update.Message.MessageID),
				Channel:   "telegram",
				UserID:    strconv.FormatInt(update.Message.Chat.ID, 10),
				Content:   update.Message.Text,
				Metadata:  map[string]string{"from_id": strconv.FormatInt(update.Message.From.ID, 10)},
				Timestamp: int64(update.Message.Date),
			}
		}
	}()

	go func() {
		<-ctx.Done()
		a.stopUpdates()
	}()

	return nil
}

// Stop drains the update pump before closing the inbound channel, so the
// pump never sends on a closed channel.
func (a *Adapter) Stop() error {
	a.stopUpdates()
	a.pump.Wait()
	close(a.incoming)
	return nil
}

func (a *Adapter) stopUpdates() {
	a.stopOnce.Do(func() {
		if a.bot != nil {
			a.bot.StopReceivingUpdates()
		}
	})
}

func (a *Adapter) SendMessage(userID string, resp *channel.Response) error {
	chatID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return err
	}
	reply := tgbotapi.NewMessage(chatID, resp.Content)
	_, err = a.bot.Send(reply)
	return err
}

func (a *Adapter) Incoming() <-chan *channel.Message {
	return a.incoming
}
