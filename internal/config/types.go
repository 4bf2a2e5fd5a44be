package config

import "time"

type Config struct {
	Bot         BotConfig
	Whitelist   []int64
	LLM         LLMConfig
	Limits      LimitsConfig
	Log         LogConfig
	ChatlogDir  string
	FiltersFile string
	AlertChatID int64
	Storage     StorageConfig
}

type BotConfig struct {
	Provider string
	Token    string
}

type LLMConfig struct {
	BaseURL      string
	Model        string
	MaxTokens    int
	Temperature  float64
	SystemPrompt string
}

type LimitsConfig struct {
	MaxHistory       int
	MaxMessageLength int
	RateMessages     int
	RateWindow       time.Duration
}

type LogConfig struct {
	Level    string
	ToFile   bool
	FilePath string
}

type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Schedule  string
}
