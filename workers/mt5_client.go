package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"trade-challenge-system/models"
)

// UpstreamError reports a failed broker-account read. The sync cycle
// records it per account and moves on; it never fails a whole batch.
type UpstreamError struct {
	AccountID  string
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("mt5 bridge returned %d for account %s: %s", e.StatusCode, e.AccountID, e.Message)
	}
	return fmt.Sprintf("mt5 bridge unreachable for account %s: %s", e.AccountID, e.Message)
}

// MT5Client reads account snapshots from the MT5 bridge service. Each
// fetch is bounded by FetchTimeout so one unresponsive account cannot
// stall an entire sync batch.
type MT5Client struct {
	BaseURL      string
	Token        string
	HTTPClient   *http.Client
	FetchTimeout time.Duration
}

func NewMT5Client() *MT5Client {
	baseURL := os.Getenv("MT5_BRIDGE_URL")
	if baseURL == "" {
		log.Fatal("MT5_BRIDGE_URL environment variable is required")
	}
	token := os.Getenv("MT5_SERVICE_TOKEN")
	if token == "" {
		log.Fatal("MT5_SERVICE_TOKEN environment variable is required")
	}

	fetchTimeout := 10 * time.Second
	if v := os.Getenv("MT5_FETCH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			fetchTimeout = d
		} else {
			log.Printf("⚠️  Invalid MT5_FETCH_TIMEOUT %q, using default %s", v, fetchTimeout)
		}
	}

	return &MT5Client{
		BaseURL:      baseURL,
		Token:        token,
		FetchTimeout: fetchTimeout,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// FetchSnapshot pulls the current balance/equity/margin figures for one
// account.
func (c *MT5Client) FetchSnapshot(ctx context.Context, accountID string) (models.MT5Snapshot, error) {
	var snap models.MT5Snapshot

	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return snap, fmt.Errorf("invalid MT5 bridge URL %q: %w", c.BaseURL, err)
	}
	endpoint := base.JoinPath("/api/v1/accounts", accountID, "snapshot")

	fetchCtx, cancel := context.WithTimeout(ctx, c.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, "GET", endpoint.String(), nil)
	if err != nil {
		return snap, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Service-Token", c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return snap, &UpstreamError{AccountID: accountID, Message: err.Error()}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return snap, &UpstreamError{AccountID: accountID, StatusCode: resp.StatusCode, Message: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return snap, &UpstreamError{AccountID: accountID, Message: "bad snapshot payload: " + err.Error()}
	}
	if snap.AccountID == "" {
		snap.AccountID = accountID
	}
	return snap, nil
}
