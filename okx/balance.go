package okx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"okxbalance/types"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const balancePath = "/api/v5/account/balance"

// ErrAPI marks a response whose OKX code is not "0".
var ErrAPI = errors.New("okx api error")

type Client struct {
	baseURL   string
	creds     types.Credentials
	simulated bool
	http      *http.Client
	log       zerolog.Logger
	now       func() time.Time
}

func NewClient(cfg *types.Config, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(cfg.OKXBaseURL, "/"),
		creds:     cfg.Credentials,
		simulated: cfg.Simulated,
		http:      &http.Client{Timeout: time.Duration(cfg.RequestTimeoutSec) * time.Second},
		log:       log.With().Str("component", "okx").Logger(),
		now:       time.Now,
	}
}

// Fetch returns the current balance snapshot, or nil when it could not be
// retrieved. Failures are logged, never returned.
func (c *Client) Fetch(ctx context.Context) *types.BalanceSnapshot {
	snapshot, err := c.FetchBalance(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("error getting account balance")
		return nil
	}

	c.log.Info().RawJSON("balance", snapshot.Raw).Msg("retrieved account balance")
	return snapshot
}

func (c *Client) FetchBalance(ctx context.Context) (*types.BalanceSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+balancePath, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.simulated {
		req.Header.Set("x-simulated-trading", "1")
	}
	signRequest(req, c.creds, c.now())

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch balance: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("okx returned status %s: %s", res.Status, strings.TrimSpace(string(body)))
	}

	var snapshot types.BalanceSnapshot
	if err := json.Unmarshal(body, &snapshot); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}

	if snapshot.Code != "" && snapshot.Code != "0" {
		return nil, fmt.Errorf("%w: code %s: %s", ErrAPI, snapshot.Code, snapshot.Msg)
	}

	snapshot.Raw = bytes.TrimSpace(body)
	return &snapshot, nil
}
