package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/bowerhall/carydes/internal/logger"
)

type discord struct {
	session *discordgo.Session
	handler Handler
	ctx     context.Context
}

func newDiscord(token string, handler Handler) (Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}

	d := &discord{session: session, handler: handler}
	session.AddHandler(d.handleMessage)
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	return d, nil
}

func (d *discord) Start(ctx context.Context) error {
	d.ctx = ctx

	if err := d.session.Open(); err != nil {
		return err
	}
	logger.Info("discord bot connected")

	<-ctx.Done()
	return d.session.Close()
}

func (d *discord) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.ID == s.State.User.ID {
		return
	}

	// Snowflake IDs are decimal strings; one that does not parse gets user
	// ID 0, which no whitelist contains, so it rides the unauthorized path.
	userID, err := strconv.ParseInt(m.Author.ID, 10, 64)
	if err != nil {
		logger.Warn("unparseable discord user id", "author_id", m.Author.ID)
		userID = 0
	}

	content := strings.TrimSpace(m.Content)
	if content == "" {
		return
	}

	if strings.HasPrefix(content, "/") {
		cmd := commandWord(content)
		logger.Info("command received", "user_id", userID, "command", cmd)

		reply, err := d.handler.Command(d.ctx, userID, cmd)
		if err != nil {
			reply = d.handler.ErrorReply(err)
		}
		d.deliver(s, m, reply)
		return
	}

	logger.Info("message received", "user_id", userID, "chars", len(content))

	if err := s.ChannelTyping(m.ChannelID); err != nil {
		logger.Debug("typing indicator failed", "error", err)
	}

	reply, err := d.handler.Handle(d.ctx, userID, content)
	if err != nil {
		reply = d.handler.ErrorReply(err)
	}
	d.deliver(s, m, reply)
}

// deliver sends a reply in order: the first chunk references the inbound
// message, the rest follow plain.
func (d *discord) deliver(s *discordgo.Session, m *discordgo.MessageCreate, text string) {
	if text == "" {
		return
	}

	for i, chunk := range chunkMessage(text, discordChunkSize) {
		var err error
		if i == 0 {
			_, err = s.ChannelMessageSendReply(m.ChannelID, chunk, m.Reference())
		} else {
			_, err = s.ChannelMessageSend(m.ChannelID, chunk)
		}
		if err != nil {
			logger.Error("discord send failed", "error", err, "channel_id", m.ChannelID)
			return
		}
	}
}

func (d *discord) Send(chatID int64, message string) error {
	channelID := fmt.Sprintf("%d", chatID)
	_, err := d.session.ChannelMessageSend(channelID, message)
	if err != nil {
		logger.Error("discord send failed", "error", err, "channel_id", channelID)
	}
	return err
}

func (d *discord) SendTyping(chatID int64) error {
	return d.session.ChannelTyping(fmt.Sprintf("%d", chatID))
}
