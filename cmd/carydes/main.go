package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bowerhall/carydes/internal/alerts"
	"github.com/bowerhall/carydes/internal/backup"
	"github.com/bowerhall/carydes/internal/bot"
	"github.com/bowerhall/carydes/internal/chatlog"
	"github.com/bowerhall/carydes/internal/config"
	"github.com/bowerhall/carydes/internal/conversation"
	"github.com/bowerhall/carydes/internal/llm"
	"github.com/bowerhall/carydes/internal/logger"
	"github.com/bowerhall/carydes/internal/ratelimit"
	"github.com/bowerhall/carydes/internal/relay"
	"github.com/bowerhall/carydes/internal/sanitize"
)

func init() {
	godotenv.Load()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", "error", err)
	}

	if err := logger.Setup(cfg.Log.Level, cfg.Log.ToFile, cfg.Log.FilePath); err != nil {
		logger.Fatal("failed to set up logging", "error", err)
	}

	model, err := llm.New(llm.Config{
		BaseURL:      cfg.LLM.BaseURL,
		Model:        cfg.LLM.Model,
		MaxTokens:    cfg.LLM.MaxTokens,
		Temperature:  cfg.LLM.Temperature,
		SystemPrompt: cfg.LLM.SystemPrompt,
	})
	if err != nil {
		logger.Fatal("failed to create inference client", "error", err)
	}

	filter := sanitize.NewFilter()
	if cfg.FiltersFile != "" {
		filter, err = sanitize.LoadFilter(cfg.FiltersFile)
		if err != nil {
			logger.Fatal("failed to load injection filters", "error", err, "path", cfg.FiltersFile)
		}
		logger.Info("injection filters loaded", "path", cfg.FiltersFile)
	}

	controller := relay.New(
		relay.Config{
			Whitelist:        cfg.Whitelist,
			MaxMessageLength: cfg.Limits.MaxMessageLength,
		},
		conversation.NewStore(cfg.Limits.MaxHistory),
		ratelimit.New(cfg.Limits.RateMessages, cfg.Limits.RateWindow),
		filter,
		chatlog.New(cfg.ChatlogDir),
		model,
	)

	b, err := bot.New(bot.Config{Provider: cfg.Bot.Provider, Token: cfg.Bot.Token}, controller)
	if err != nil {
		logger.Fatal("failed to create bot", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var alerter *alerts.Alerter
	if cfg.AlertChatID != 0 {
		alerter = alerts.New(func(message string) {
			if err := b.Send(cfg.AlertChatID, message); err != nil {
				logger.Error("alert delivery failed", "error", err, "chat_id", cfg.AlertChatID)
			}
		}, alerts.DefaultCooldown)
		controller.SetAlerter(alerter)
		logger.Info("operator alerting enabled", "chat_id", cfg.AlertChatID)
	}

	if cfg.Storage.Enabled {
		runner, err := backup.New(backup.Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
			Bucket:    cfg.Storage.Bucket,
			Schedule:  cfg.Storage.Schedule,
			Dir:       cfg.ChatlogDir,
		}, alerter)
		if err != nil {
			logger.Error("failed to create backup runner", "error", err)
		} else {
			initCtx, cancelInit := context.WithTimeout(ctx, 10*time.Second)
			if err := runner.Init(initCtx); err != nil {
				logger.Error("failed to init backup bucket", "error", err)
			} else {
				go runner.Run(ctx)
				logger.Info("backup enabled", "endpoint", cfg.Storage.Endpoint, "schedule", cfg.Storage.Schedule)
			}
			cancelInit()
		}
	}

	// A dead endpoint at boot is worth knowing about, not worth dying for;
	// the model may simply not be loaded yet.
	pingCtx, cancelPing := context.WithTimeout(ctx, 10*time.Second)
	if err := model.Ping(pingCtx); err != nil {
		logger.Warn("inference endpoint not responding", "url", cfg.LLM.BaseURL, "error", err)
	} else {
		logger.Info("inference endpoint responding", "url", cfg.LLM.BaseURL)
	}
	cancelPing()

	go func() {
		if err := b.Start(ctx); err != nil && ctx.Err() == nil {
			logger.Fatal("bot stopped", "error", err)
		}
	}()

	logger.Info("carydes started",
		"provider", cfg.Bot.Provider,
		"users", len(cfg.Whitelist),
		"inference", cfg.LLM.BaseURL,
		"chatlogs", cfg.ChatlogDir,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	cancel()
}
