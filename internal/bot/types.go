package bot

import "context"

// Bot is the messaging transport: it pumps inbound messages through the
// Handler and delivers replies back to the chat.
type Bot interface {
	Start(ctx context.Context) error
	Send(chatID int64, message string) error
	SendTyping(chatID int64) error
}

// Handler is the session pipeline behind every transport. Transports stay
// thin: they parse the wire format, call the Handler, and render its errors
// through ErrorReply.
type Handler interface {
	Handle(ctx context.Context, userID int64, text string) (string, error)
	Command(ctx context.Context, userID int64, cmd string) (string, error)
	ErrorReply(err error) string
}

type Config struct {
	Provider string
	Token    string
}

// Per-transport message caps; replies longer than these are chunked.
const (
	telegramChunkSize = 4096
	discordChunkSize  = 2000
)
