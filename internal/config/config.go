package config

import (
	"errors"
	"fmt"
	"io/fs"
	"okxbalance/types"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultOKXBaseURL      = "https://www.okx.com"
	DefaultTelegramBaseURL = "https://api.telegram.org"
	DefaultIntervalSec     = 300
	DefaultTimeoutSec      = 10

	DefaultLogFile     = "okx_balance.log"
	DefaultMaxSizeMB   = 1
	DefaultMaxBackups  = 4
	DefaultRedisKey    = "okxbalance:log"
	DefaultRedisMaxLen = 10000
)

// Load reads the optional YAML file at path, fills in defaults and
// overlays credentials from .env and the process environment.
func Load(path string) (*types.Config, error) {
	cfg, err := LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = &types.Config{}
	} else if err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	LoadEnv(cfg)

	switch cfg.TotalMode {
	case types.TotalLast, types.TotalSum:
	default:
		return nil, fmt.Errorf("unknown total_mode %q", cfg.TotalMode)
	}

	return cfg, nil
}

func LoadConfig(path string) (*types.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var cfg types.Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	return &cfg, nil
}

// LoadEnv fills credentials and destination. Missing values are left empty
// and surface later as authentication or delivery failures.
func LoadEnv(cfg *types.Config) {
	_ = godotenv.Load()

	cfg.Credentials = types.Credentials{
		APIKey:     env("EXCHANGE_API_KEY", "OKX_API_KEY"),
		SecretKey:  env("EXCHANGE_SECRET_KEY", "OKX_SECRET_KEY"),
		Passphrase: env("EXCHANGE_PASSPHRASE", "OKX_PASSPHRASE"),
	}
	cfg.Destination = types.Destination{
		BotToken: env("MESSAGING_BOT_TOKEN", "TELEGRAM_BOT_TOKEN"),
		ChatID:   env("MESSAGING_CHAT_ID", "TELEGRAM_CHAT_ID"),
	}

	if v := os.Getenv("OKXBALANCE_LOG_SINK"); v != "" {
		cfg.Log.Sink = v
	}
	if v := os.Getenv("OKXBALANCE_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
}

func applyDefaults(cfg *types.Config) {
	if cfg.OKXBaseURL == "" {
		cfg.OKXBaseURL = DefaultOKXBaseURL
	}
	if cfg.TelegramBaseURL == "" {
		cfg.TelegramBaseURL = DefaultTelegramBaseURL
	}
	if cfg.IntervalSec <= 0 {
		cfg.IntervalSec = DefaultIntervalSec
	}
	if cfg.RequestTimeoutSec <= 0 {
		cfg.RequestTimeoutSec = DefaultTimeoutSec
	}
	if cfg.TotalMode == "" {
		cfg.TotalMode = types.TotalLast
	}

	l := &cfg.Log
	if l.Sink == "" {
		l.Sink = "stdout"
	}
	if l.Level == "" {
		l.Level = "info"
	}
	if l.File == "" {
		l.File = DefaultLogFile
	}
	if l.MaxSizeMB <= 0 {
		l.MaxSizeMB = DefaultMaxSizeMB
	}
	if l.MaxBackups <= 0 {
		l.MaxBackups = DefaultMaxBackups
	}
	if l.RedisKey == "" {
		l.RedisKey = DefaultRedisKey
	}
	if l.RedisMaxLen <= 0 {
		l.RedisMaxLen = DefaultRedisMaxLen
	}
}

func env(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
