// Package relay drives each inbound message through the session pipeline:
// authorization, validation, rate limiting, inference, then history and
// transcript writes. Ordering is the point: nothing is persisted until the
// model has answered, so a failed exchange leaves no trace anywhere.
package relay

import (
	"context"
	"strings"
	"time"

	"github.com/bowerhall/carydes/internal/alerts"
	"github.com/bowerhall/carydes/internal/chatlog"
	"github.com/bowerhall/carydes/internal/conversation"
	"github.com/bowerhall/carydes/internal/llm"
	"github.com/bowerhall/carydes/internal/logger"
	"github.com/bowerhall/carydes/internal/ratelimit"
	"github.com/bowerhall/carydes/internal/sanitize"
)

type Config struct {
	Whitelist        []int64
	MaxMessageLength int
}

// Controller owns the per-message pipeline and the command surface. One
// Controller serves every user; per-user serialization happens through the
// conversation store's locks.
type Controller struct {
	whitelist  map[int64]struct{}
	maxLen     int
	filter     *sanitize.Filter
	limiter    *ratelimit.Limiter
	store      *conversation.Store
	transcript *chatlog.Logger
	client     llm.Client
	alerter    *alerts.Alerter
	startedAt  time.Time
	now        func() time.Time
}

func New(cfg Config, store *conversation.Store, limiter *ratelimit.Limiter, filter *sanitize.Filter, transcript *chatlog.Logger, client llm.Client) *Controller {
	if cfg.MaxMessageLength <= 0 {
		cfg.MaxMessageLength = sanitize.DefaultMaxMessage
	}
	if filter == nil {
		filter = sanitize.NewFilter()
	}

	whitelist := make(map[int64]struct{}, len(cfg.Whitelist))
	for _, id := range cfg.Whitelist {
		whitelist[id] = struct{}{}
	}

	return &Controller{
		whitelist:  whitelist,
		maxLen:     cfg.MaxMessageLength,
		filter:     filter,
		limiter:    limiter,
		store:      store,
		transcript: transcript,
		client:     client,
		startedAt:  time.Now(),
		now:        time.Now,
	}
}

// SetAlerter wires operator alerting once a transport exists to carry it.
// Alerts before that point are dropped.
func (c *Controller) SetAlerter(a *alerts.Alerter) {
	c.alerter = a
}

// Handle relays one user message and returns the model's reply. Errors come
// from the package taxonomy; whichever step fails, no history or transcript
// state has changed.
func (c *Controller) Handle(ctx context.Context, userID int64, text string) (string, error) {
	if !c.authorized(userID) {
		logger.Warn("unauthorized message dropped", "user_id", userID)
		return "", ErrUnauthorized
	}

	clean, err := sanitize.ValidateMessage(text, c.maxLen)
	if err != nil {
		logger.Debug("message rejected", "user_id", userID, "reason", err)
		return "", &ValidationError{Reason: err}
	}

	clean = strings.TrimSpace(c.filter.Apply(clean))
	if clean == "" {
		logger.Debug("message rejected", "user_id", userID, "reason", "empty after injection filter")
		return "", &ValidationError{Reason: sanitize.ErrEmptyAfterTrim}
	}

	if d := c.limiter.Admit(userID, c.now()); !d.Allowed {
		logger.Info("rate limited", "user_id", userID, "retry_after", d.RetryAfter)
		return "", &RateLimitError{RetryAfter: d.RetryAfter}
	}

	// One in-flight exchange per user from here on. The snapshot, the model
	// call and the writes happen under the same lock so a concurrent message
	// from the same user cannot interleave turns.
	lock := c.store.Lock(userID)
	lock.Lock()
	defer lock.Unlock()

	history := c.store.Snapshot(userID)
	messages := make([]llm.Message, 0, len(history)+1)
	for _, turn := range history {
		messages = append(messages, llm.Message{Role: string(turn.Role), Content: turn.Content})
	}
	messages = append(messages, llm.Message{Role: string(conversation.RoleUser), Content: clean})

	reply, err := c.client.Chat(ctx, messages)
	if err != nil {
		logger.Error("inference call failed", "user_id", userID, "error", err)
		c.alerter.Warn("inference", "model call failing", err)
		return "", &UpstreamError{Err: err}
	}

	c.store.Append(userID, conversation.Turn{Role: conversation.RoleUser, Content: clean, Timestamp: c.now()})
	c.store.Append(userID, conversation.Turn{Role: conversation.RoleAssistant, Content: reply, Timestamp: c.now()})

	// Transcript failures degrade to a warning; the reply still goes out.
	if err := c.transcript.Record(userID, string(conversation.RoleUser), clean); err != nil {
		logger.Warn("transcript write failed", "user_id", userID, "error", err)
		c.alerter.Warn("chatlog", "transcript write failing", err)
	}
	if err := c.transcript.Record(userID, string(conversation.RoleAssistant), reply); err != nil {
		logger.Warn("transcript write failed", "user_id", userID, "error", err)
		c.alerter.Warn("chatlog", "transcript write failing", err)
	}

	return reply, nil
}

func (c *Controller) authorized(userID int64) bool {
	_, ok := c.whitelist[userID]
	return ok
}
