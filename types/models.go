package types

import "encoding/json"

type Config struct {
	OKXBaseURL        string    `yaml:"okx_base_url"`
	Simulated         bool      `yaml:"simulated"`
	TelegramBaseURL   string    `yaml:"telegram_base_url"`
	IntervalSec       int       `yaml:"interval_sec"`
	Schedule          string    `yaml:"schedule"`
	TotalMode         TotalMode `yaml:"total_mode"`
	RequestTimeoutSec int       `yaml:"request_timeout_sec"`
	MetricsAddr       string    `yaml:"metrics_addr"`
	Log               LogConfig `yaml:"log"`

	Credentials Credentials `yaml:"-"`
	Destination Destination `yaml:"-"`
}

type LogConfig struct {
	Sink        string `yaml:"sink"`
	Level       string `yaml:"level"`
	File        string `yaml:"file"`
	MaxSizeMB   int    `yaml:"max_size_mb"`
	MaxBackups  int    `yaml:"max_backups"`
	RedisAddr   string `yaml:"redis_addr"`
	RedisKey    string `yaml:"redis_key"`
	RedisMaxLen int64  `yaml:"redis_max_len"`
}

type Credentials struct {
	APIKey     string
	SecretKey  string
	Passphrase string
}

type Destination struct {
	BotToken string
	ChatID   string
}

// TotalMode selects which figure goes on the total equity line.
type TotalMode string

const (
	// TotalLast reports the totalEq of the last balance entry.
	TotalLast TotalMode = "last"
	// TotalSum reports the sum of every entry's totalEq.
	TotalSum TotalMode = "sum"
)

type BalanceSnapshot struct {
	Code string         `json:"code"`
	Msg  string         `json:"msg"`
	Data []BalanceEntry `json:"data"`

	Raw json.RawMessage `json:"-"`
}

type BalanceEntry struct {
	TotalEqRaw *string  `json:"totalEq"`
	Details    []Detail `json:"details"`
}

type Detail struct {
	CcyRaw     *string `json:"ccy"`
	AvailEqRaw *string `json:"availEq"`
}

func (e BalanceEntry) TotalEq() string {
	if e.TotalEqRaw == nil {
		return "0"
	}
	return *e.TotalEqRaw
}

func (d Detail) Ccy() string {
	if d.CcyRaw == nil {
		return ""
	}
	return *d.CcyRaw
}

func (d Detail) AvailEq() string {
	if d.AvailEqRaw == nil {
		return "0"
	}
	return *d.AvailEqRaw
}
