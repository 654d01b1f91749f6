package tg

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"okxbalance/types"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Notifier struct {
	baseURL string
	dest    types.Destination
	http    *http.Client
	log     zerolog.Logger
}

func NewNotifier(cfg *types.Config, log zerolog.Logger) *Notifier {
	return &Notifier{
		baseURL: strings.TrimRight(cfg.TelegramBaseURL, "/"),
		dest:    cfg.Destination,
		http:    &http.Client{Timeout: time.Duration(cfg.RequestTimeoutSec) * time.Second},
		log:     log.With().Str("component", "telegram").Logger(),
	}
}

// Deliver sends text to the configured chat and reports whether Telegram
// answered 200. It does not retry.
func (n *Notifier) Deliver(ctx context.Context, text string) bool {
	q := url.Values{}
	q.Set("chat_id", n.dest.ChatID)
	q.Set("text", text)
	endpoint := n.baseURL + "/bot" + n.dest.BotToken + "/sendMessage?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		n.log.Error().Err(err).Msg("error sending telegram notification")
		return false
	}

	res, err := n.http.Do(req)
	if err != nil {
		n.log.Error().Err(redact(err, n.dest.BotToken)).Msg("error sending telegram notification")
		return false
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		n.log.Error().
			Int("status", res.StatusCode).
			Str("body", strings.TrimSpace(string(body))).
			Msg("telegram api rejected notification")
		return false
	}

	return true
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

// redact keeps the bot token out of logged transport errors, which embed the request URL.
func redact(err error, token string) error {
	if token == "" {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), token, "<token>"), err: err}
}
