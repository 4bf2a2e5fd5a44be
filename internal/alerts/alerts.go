// Package alerts pushes operator notifications through the chat transport.
// Repeated alerts for the same component/message pair are suppressed for a
// cooldown so a flapping dependency cannot flood the operator's chat.
package alerts

import (
	"fmt"
	"sync"
	"time"

	"github.com/bowerhall/carydes/internal/logger"
)

type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarn
	SeverityCritical
)

// DefaultCooldown is the minimum gap between identical alerts.
const DefaultCooldown = time.Hour

// NotifyFunc delivers one rendered alert, typically a bot send to the
// operator chat.
type NotifyFunc func(message string)

type Alerter struct {
	mu        sync.Mutex
	notify    NotifyFunc
	cooldowns map[string]time.Time
	cooldown  time.Duration
	now       func() time.Time
}

// New builds an Alerter delivering through notify. A nil *Alerter is valid
// and drops everything, so callers never need to guard alert sites.
func New(notify NotifyFunc, cooldown time.Duration) *Alerter {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}

	return &Alerter{
		notify:    notify,
		cooldowns: make(map[string]time.Time),
		cooldown:  cooldown,
		now:       time.Now,
	}
}

func (a *Alerter) Alert(severity Severity, component, message string, err error) {
	if a == nil || a.notify == nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	key := fmt.Sprintf("%s:%s", component, message)

	if lastSent, ok := a.cooldowns[key]; ok {
		if a.now().Sub(lastSent) < a.cooldown {
			logger.Debug("alert suppressed (cooldown)", "component", component, "message", message)
			return
		}
	}

	var text string
	switch severity {
	case SeverityCritical:
		text = fmt.Sprintf("🚨 %s: %s", component, message)
	case SeverityWarn:
		text = fmt.Sprintf("⚠️ %s: %s", component, message)
	default:
		text = fmt.Sprintf("ℹ️ %s: %s", component, message)
	}

	if err != nil {
		text += fmt.Sprintf("\n\nError: %v", err)
	}

	a.notify(text)
	a.cooldowns[key] = a.now()
	logger.Info("alert sent", "component", component, "severity", severity)
}

func (a *Alerter) Critical(component, message string, err error) {
	a.Alert(SeverityCritical, component, message, err)
}

func (a *Alerter) Warn(component, message string, err error) {
	a.Alert(SeverityWarn, component, message, err)
}

func (a *Alerter) Info(component, message string) {
	a.Alert(SeverityInfo, component, message, nil)
}
