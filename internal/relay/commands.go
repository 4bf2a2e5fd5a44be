package relay

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/bowerhall/carydes/internal/logger"
)

const welcomeMessage = "👋 Hello! I'm **CARYDES**, your personal AI assistant.\n\n" +
	"I can help you with tasks, remind you of things, and have natural conversations. " +
	"Just send me a message!\n\n" +
	"**Commands:**\n" +
	"/start - Start CARYDES\n" +
	"/help - Show this help message\n" +
	"/new - Start a new conversation (saves previous)\n" +
	"/reset - Clear conversation context\n" +
	"/status - Check AI service status"

const helpMessage = "🤖 **Help Guide**\n\n" +
	"I'm your personal AI assistant powered by a local AI model.\n\n" +
	"**Usage:**\n" +
	"Simply send me any message and I'll respond.\n\n" +
	"**Commands:**\n" +
	"/start - Start CARYDES\n" +
	"/help - Show this help message\n" +
	"/new - Start a new conversation (saves previous context)\n" +
	"/reset - Clear conversation context (no save)\n" +
	"/status - Check AI service status"

// Command runs one slash command for an authorized user. Commands never
// consume rate budget and, apart from /new and /reset, never touch
// conversation state.
func (c *Controller) Command(ctx context.Context, userID int64, cmd string) (string, error) {
	if !c.authorized(userID) {
		logger.Warn("unauthorized command dropped", "user_id", userID, "command", cmd)
		return "", ErrUnauthorized
	}

	switch strings.ToLower(strings.TrimPrefix(cmd, "/")) {
	case "start":
		return welcomeMessage, nil
	case "help":
		return helpMessage, nil
	case "new":
		return c.newSession(userID)
	case "reset":
		return c.resetSession(userID), nil
	case "status":
		return c.status(ctx), nil
	default:
		return "❓ Unknown command. Use /help to see available commands.", nil
	}
}

// newSession marks a session boundary in the transcript, then clears the
// history. The marker lands strictly first; if it cannot be written the
// context is kept so the transcript never silently runs two sessions
// together.
func (c *Controller) newSession(userID int64) (string, error) {
	lock := c.store.Lock(userID)
	lock.Lock()
	defer lock.Unlock()

	sessionID := uuid.New().String()[:8]
	if err := c.transcript.RecordBoundary(userID, "NEW SESSION STARTED "+sessionID); err != nil {
		logger.Error("session boundary write failed", "user_id", userID, "error", err)
		c.alerter.Warn("chatlog", "session boundary write failing", err)
		return "", fmt.Errorf("record session boundary: %w", err)
	}

	c.store.Clear(userID)
	logger.Info("new session", "user_id", userID, "session_id", sessionID)

	return "✅ Starting a new conversation. Previous context has been saved.", nil
}

func (c *Controller) resetSession(userID int64) string {
	lock := c.store.Lock(userID)
	lock.Lock()
	defer lock.Unlock()

	c.store.Clear(userID)
	logger.Info("context reset", "user_id", userID)

	return "✅ Conversation context has been reset."
}

func (c *Controller) status(ctx context.Context) string {
	var b strings.Builder

	if err := c.client.Ping(ctx); err != nil {
		logger.Warn("status probe failed", "error", err)
		b.WriteString("⚠️ LM Studio is running but not responding correctly.\n")
	} else {
		b.WriteString("✅ LM Studio is running and responding.\n")
	}

	b.WriteString(c.hostStats())

	return b.String()
}

func (c *Controller) hostStats() string {
	hostname, _ := os.Hostname()

	cpuUsage := 0.0
	if percents, _ := cpu.Percent(time.Second, false); len(percents) > 0 {
		cpuUsage = percents[0]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\nHost: %s (%s/%s)\n", hostname, runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(&b, "CPU: %.1f%%\n", cpuUsage)
	if memInfo, err := mem.VirtualMemory(); err == nil {
		fmt.Fprintf(&b, "Memory: %.1f%% of %.1f GB\n", memInfo.UsedPercent, float64(memInfo.Total)/(1<<30))
	}
	if diskInfo, err := disk.Usage("/"); err == nil {
		fmt.Fprintf(&b, "Disk: %.1f GB free\n", float64(diskInfo.Free)/(1<<30))
	}
	fmt.Fprintf(&b, "Uptime: %s", c.now().Sub(c.startedAt).Round(time.Second))

	return b.String()
}
