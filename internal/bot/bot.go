package bot

import (
	"context"

	"wellness-bot/internal/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Bot long-polls Telegram and fans updates out to the handler
type Bot struct {
	api     *tgbotapi.BotAPI
	handler *Handler
	pool    *utils.WorkerPool
}

// NewBot creates the bot; workers bounds concurrent update handling
func NewBot(api *tgbotapi.BotAPI, handler *Handler, workers int) *Bot {
	logrus.WithFields(logrus.Fields{
		"username": api.Self.UserName,
		"bot_id":   api.Self.ID,
	}).Info("🔐 bot authorized")

	logrus.Warn("⚠️  if the bot misses commands in groups, check its privacy mode")
	logrus.Warn("📝 send /setprivacy to @BotFather and choose Disable")

	return &Bot{
		api:     api,
		handler: handler,
		pool:    utils.NewWorkerPool(workers),
	}
}

// Start receives updates until ctx is cancelled or Stop is called
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	logrus.Info("📡 listening for Telegram updates")

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.pool.Submit(func() { b.handleUpdate(ctx, update) })
		}
	}
}

// Stop stops polling and waits for in-flight updates
func (b *Bot) Stop() {
	b.api.StopReceivingUpdates()
	b.pool.Close()
	b.pool.Wait()
	logrus.Info("🛑 bot stopped")
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message != nil {
		message := update.Message
		logrus.WithFields(logrus.Fields{
			"message_id": message.MessageID,
			"is_command": message.IsCommand(),
			"chat_type":  message.Chat.Type,
			"chat_id":    message.Chat.ID,
		}).Debug("🔍 message received")

		if message.From == nil || message.From.IsBot {
			return
		}
		b.handler.RememberUser(ctx, message.From)

		if message.IsCommand() {
			b.handler.HandleMessage(ctx, message)
		} else {
			b.handler.HandleText(ctx, message)
		}
	}

	if update.CallbackQuery != nil {
		b.handler.RememberUser(ctx, update.CallbackQuery.From)
		b.handler.HandleCallback(ctx, update.CallbackQuery)
	}
}
