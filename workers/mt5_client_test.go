package workers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(server *httptest.Server, fetchTimeout time.Duration) *MT5Client {
	return &MT5Client{
		BaseURL:      server.URL,
		Token:        "test-token",
		HTTPClient:   server.Client(),
		FetchTimeout: fetchTimeout,
	}
}

func TestFetchSnapshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/accounts/acc-42/snapshot" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("X-Service-Token") != "test-token" {
			t.Errorf("missing or wrong service token: %q", r.Header.Get("X-Service-Token"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"account_id": "acc-42",
			"balance": 10450.5,
			"equity": 10300.25,
			"margin": 150,
			"free_margin": 10150.25,
			"margin_level": 6866.83
		}`))
	}))
	defer server.Close()

	client := newTestClient(server, 5*time.Second)
	snap, err := client.FetchSnapshot(context.Background(), "acc-42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.AccountID != "acc-42" {
		t.Errorf("account id = %q, want acc-42", snap.AccountID)
	}
	if snap.Balance != 10450.5 {
		t.Errorf("balance = %v, want 10450.5", snap.Balance)
	}
	if snap.FreeMargin != 10150.25 {
		t.Errorf("free margin = %v, want 10150.25", snap.FreeMargin)
	}
}

func TestFetchSnapshot_FillsMissingAccountID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"balance": 9000}`))
	}))
	defer server.Close()

	client := newTestClient(server, 5*time.Second)
	snap, err := client.FetchSnapshot(context.Background(), "acc-7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.AccountID != "acc-7" {
		t.Errorf("account id = %q, want acc-7", snap.AccountID)
	}
}

func TestFetchSnapshot_Non200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "terminal offline", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server, 5*time.Second)
	_, err := client.FetchSnapshot(context.Background(), "acc-1")

	var uerr *UpstreamError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if uerr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status code = %d, want 503", uerr.StatusCode)
	}
	if uerr.AccountID != "acc-1" {
		t.Errorf("account id = %q, want acc-1", uerr.AccountID)
	}
}

func TestFetchSnapshot_BoundedTimeout(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer server.Close()
	defer close(block)

	client := newTestClient(server, 30*time.Millisecond)

	start := time.Now()
	_, err := client.FetchSnapshot(context.Background(), "acc-slow")
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected a timeout error")
	}
	var uerr *UpstreamError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if elapsed > 2*time.Second {
		t.Errorf("fetch took %s; the per-account timeout did not bound it", elapsed)
	}
}
