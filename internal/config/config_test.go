package config

import (
	"strings"
	"testing"
	"time"
)

var optionalKeys = []string{
	"LM_STUDIO_URL", "LM_STUDIO_MODEL", "SYSTEM_PROMPT",
	"MAX_TOKENS", "MAX_CONVERSATION_HISTORY", "MAX_MESSAGE_LENGTH", "TEMPERATURE",
	"RATE_LIMIT_MESSAGES", "RATE_LIMIT_WINDOW",
	"LOG_LEVEL", "LOG_TO_FILE", "LOG_FILE_PATH",
	"CHATLOG_DIR", "INJECTION_FILTERS_FILE", "ALERT_CHAT_ID",
	"MINIO_ENDPOINT", "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY", "MINIO_USE_SSL",
	"MINIO_BUCKET", "BACKUP_SCHEDULE",
}

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("BOT_PROVIDER", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123456:test-token")
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("USER_WHITELIST", "123456789")
	for _, key := range optionalKeys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Bot.Provider != "telegram" || cfg.Bot.Token != "123456:test-token" {
		t.Errorf("bot = %+v", cfg.Bot)
	}
	if len(cfg.Whitelist) != 1 || cfg.Whitelist[0] != 123456789 {
		t.Errorf("whitelist = %v", cfg.Whitelist)
	}
	if cfg.LLM.BaseURL != "http://127.0.0.1:1234" {
		t.Errorf("inference url = %q", cfg.LLM.BaseURL)
	}
	if cfg.LLM.MaxTokens != 1000 || cfg.LLM.Temperature != 0.7 {
		t.Errorf("llm = %+v", cfg.LLM)
	}
	if cfg.Limits.MaxHistory != 10 || cfg.Limits.MaxMessageLength != 2000 {
		t.Errorf("limits = %+v", cfg.Limits)
	}
	if cfg.Limits.RateMessages != 10 || cfg.Limits.RateWindow != 60*time.Second {
		t.Errorf("rate limits = %+v", cfg.Limits)
	}
	if cfg.Log.Level != "INFO" || !cfg.Log.ToFile || cfg.Log.FilePath != "logs/bot.log" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.ChatlogDir != "chatlogs" {
		t.Errorf("chatlog dir = %q", cfg.ChatlogDir)
	}
	if cfg.Storage.Enabled {
		t.Error("storage enabled without credentials")
	}
}

func TestLoadMissingToken(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "TELEGRAM_BOT_TOKEN") {
		t.Fatalf("error = %v, want TELEGRAM_BOT_TOKEN", err)
	}
}

func TestLoadDiscordProvider(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("BOT_PROVIDER", "discord")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("DISCORD_TOKEN", "discord-test-token")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Bot.Provider != "discord" || cfg.Bot.Token != "discord-test-token" {
		t.Errorf("bot = %+v", cfg.Bot)
	}

	t.Setenv("DISCORD_TOKEN", "")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "DISCORD_TOKEN") {
		t.Fatalf("error = %v, want DISCORD_TOKEN", err)
	}
}

func TestLoadUnknownProvider(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("BOT_PROVIDER", "irc")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "BOT_PROVIDER") {
		t.Fatalf("error = %v, want unknown BOT_PROVIDER", err)
	}
}

func TestLoadWhitelist(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("USER_WHITELIST", " 111, 222 ,333, ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []int64{111, 222, 333}
	if len(cfg.Whitelist) != len(want) {
		t.Fatalf("whitelist = %v, want %v", cfg.Whitelist, want)
	}
	for i, id := range want {
		if cfg.Whitelist[i] != id {
			t.Errorf("whitelist[%d] = %d, want %d", i, cfg.Whitelist[i], id)
		}
	}
}

func TestLoadWhitelistRejected(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"empty", ""},
		{"only commas", " , , "},
		{"not a number", "123,alice"},
		{"negative id", "123,-7"},
		{"zero id", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv("USER_WHITELIST", tt.value)

			if _, err := Load(); err == nil || !strings.Contains(err.Error(), "USER_WHITELIST") {
				t.Fatalf("error = %v, want USER_WHITELIST failure", err)
			}
		})
	}
}

func TestLoadRejectsUnsafeInferenceURL(t *testing.T) {
	for _, url := range []string{
		"https://127.0.0.1:1234",
		"http://api.example.com:1234",
		"http://93.184.216.34:1234",
	} {
		t.Run(url, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv("LM_STUDIO_URL", url)

			if _, err := Load(); err == nil || !strings.Contains(err.Error(), "LM_STUDIO_URL") {
				t.Fatalf("error = %v, want LM_STUDIO_URL failure", err)
			}
		})
	}
}

func TestLoadNumericFallbacks(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("MAX_TOKENS", "lots")
	t.Setenv("MAX_MESSAGE_LENGTH", "-3")
	t.Setenv("TEMPERATURE", "3.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.MaxTokens != 1000 {
		t.Errorf("MaxTokens = %d, want default 1000", cfg.LLM.MaxTokens)
	}
	if cfg.Limits.MaxMessageLength != 2000 {
		t.Errorf("MaxMessageLength = %d, want default 2000", cfg.Limits.MaxMessageLength)
	}
	if cfg.LLM.Temperature != 0.7 {
		t.Errorf("Temperature = %v, want default 0.7", cfg.LLM.Temperature)
	}
}

func TestLoadOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("LM_STUDIO_URL", "http://localhost:8080")
	t.Setenv("LM_STUDIO_MODEL", "qwen2.5-7b")
	t.Setenv("MAX_TOKENS", "512")
	t.Setenv("MAX_CONVERSATION_HISTORY", "20")
	t.Setenv("TEMPERATURE", "1.5")
	t.Setenv("RATE_LIMIT_MESSAGES", "5")
	t.Setenv("RATE_LIMIT_WINDOW", "30")
	t.Setenv("LOG_TO_FILE", "false")
	t.Setenv("CHATLOG_DIR", "/var/log/carydes")
	t.Setenv("ALERT_CHAT_ID", "987654321")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.BaseURL != "http://localhost:8080" || cfg.LLM.Model != "qwen2.5-7b" {
		t.Errorf("llm = %+v", cfg.LLM)
	}
	if cfg.LLM.MaxTokens != 512 || cfg.LLM.Temperature != 1.5 {
		t.Errorf("llm tuning = %+v", cfg.LLM)
	}
	if cfg.Limits.MaxHistory != 20 {
		t.Errorf("MaxHistory = %d", cfg.Limits.MaxHistory)
	}
	if cfg.Limits.RateMessages != 5 || cfg.Limits.RateWindow != 30*time.Second {
		t.Errorf("rate limits = %+v", cfg.Limits)
	}
	if cfg.Log.ToFile {
		t.Error("LOG_TO_FILE=false ignored")
	}
	if cfg.ChatlogDir != "/var/log/carydes" {
		t.Errorf("chatlog dir = %q", cfg.ChatlogDir)
	}
	if cfg.AlertChatID != 987654321 {
		t.Errorf("alert chat id = %d", cfg.AlertChatID)
	}
}

func TestLoadStorage(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("MINIO_ENDPOINT", "127.0.0.1:9000")
	t.Setenv("MINIO_ACCESS_KEY", "minioadmin")
	t.Setenv("MINIO_SECRET_KEY", "minioadmin")
	t.Setenv("BACKUP_SCHEDULE", "30 2 * * *")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Storage.Enabled {
		t.Fatal("storage not enabled with credentials present")
	}
	if cfg.Storage.Endpoint != "127.0.0.1:9000" || cfg.Storage.Bucket != "carydes-chatlogs" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Storage.Schedule != "30 2 * * *" {
		t.Errorf("schedule = %q", cfg.Storage.Schedule)
	}
	if cfg.Storage.UseSSL {
		t.Error("ssl enabled by default")
	}
}
