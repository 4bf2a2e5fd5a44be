package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/bowerhall/carydes/internal/logger"
)

type telegram struct {
	api     *tgbotapi.BotAPI
	handler Handler
}

func newTelegram(token string, handler Handler) (Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	logger.Info("telegram bot authorized", "username", api.Self.UserName)

	return &telegram{api: api, handler: handler}, nil
}

func (t *telegram) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			return ctx.Err()
		case update := <-updates:
			if update.Message == nil || update.Message.From == nil {
				continue
			}

			go t.handleMessage(ctx, update.Message)
		}
	}
}

func (t *telegram) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		logger.Info("command received", "user_id", userID, "command", msg.Command())

		reply, err := t.handler.Command(ctx, userID, msg.Command())
		if err != nil {
			reply = t.handler.ErrorReply(err)
		}
		t.deliver(chatID, reply)
		return
	}

	if msg.Text == "" {
		return
	}

	// Content never reaches the process log, only its size.
	logger.Info("message received", "user_id", userID, "chars", len(msg.Text))

	if err := t.SendTyping(chatID); err != nil {
		logger.Debug("typing indicator failed", "error", err)
	}

	reply, err := t.handler.Handle(ctx, userID, msg.Text)
	if err != nil {
		reply = t.handler.ErrorReply(err)
	}
	t.deliver(chatID, reply)
}

func (t *telegram) deliver(chatID int64, text string) {
	if text == "" {
		return
	}

	for _, chunk := range chunkMessage(text, telegramChunkSize) {
		if err := t.Send(chatID, chunk); err != nil {
			logger.Error("send failed", "error", err, "chat_id", chatID)
			return
		}
	}
}

// Send tries Markdown first and falls back to plain text, since model
// output regularly contains stray markdown tokens Telegram rejects.
func (t *telegram) Send(chatID int64, message string) error {
	msg := tgbotapi.NewMessage(chatID, message)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := t.api.Send(msg); err == nil {
		return nil
	}

	plain := tgbotapi.NewMessage(chatID, message)
	_, err := t.api.Send(plain)
	return err
}

func (t *telegram) SendTyping(chatID int64) error {
	action := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	_, err := t.api.Request(action)
	return err
}
