package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testClient(url string) *Client {
	c := NewClient(url, "survey-sync", true, "default")
	c.maxRetries = 1
	c.baseDelay = time.Millisecond
	c.maxDelay = 5 * time.Millisecond
	return c
}

func TestSendPostsToTopic(t *testing.T) {
	var gotPath, gotBody, gotPriority string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotPriority = r.Header.Get("Priority")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
	}))
	defer server.Close()

	c := testClient(server.URL)
	if err := c.send(context.Background(), "Survey sync: 3 new responses imported"); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if gotPath != "/survey-sync" {
		t.Errorf("Unexpected path %q", gotPath)
	}
	if !strings.Contains(gotBody, "3 new responses") {
		t.Errorf("Unexpected body %q", gotBody)
	}
	if gotPriority != "default" {
		t.Errorf("Unexpected priority %q", gotPriority)
	}

	sent, failed := c.Metrics()
	if sent != 1 || failed != 0 {
		t.Errorf("Unexpected metrics sent=%d failed=%d", sent, failed)
	}
}

func TestSendRetriesServerErrors(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
	}))
	defer server.Close()

	c := testClient(server.URL)
	if err := c.send(context.Background(), "test"); err != nil {
		t.Fatalf("Expected retry to succeed, got %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected 2 attempts, got %d", calls)
	}
}

func TestSendGivesUpOnAuthError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	c := testClient(server.URL)
	err := c.send(context.Background(), "test")
	if err == nil {
		t.Fatal("Expected error for auth failure")
	}
	pushErr, ok := err.(*PushError)
	if !ok || pushErr.Type != "auth" || pushErr.IsRetryable() {
		t.Errorf("Expected non-retryable auth error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected no retries on auth error, got %d attempts", calls)
	}
}

func TestCircuitOpensAfterConsecutiveFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	c := testClient(server.URL)
	for i := 0; i < 5; i++ {
		c.send(context.Background(), "test")
	}

	err := c.send(context.Background(), "test")
	pushErr, ok := err.(*PushError)
	if !ok || pushErr.Type != "circuit_open" {
		t.Errorf("Expected circuit_open error, got %v", err)
	}
}

func TestDisabledClientSendsNothing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Disabled client must not post")
	}))
	defer server.Close()

	c := NewClient(server.URL, "survey-sync", false, "")
	c.SyncCompleted(context.Background(), 1, 0, 3)
	time.Sleep(20 * time.Millisecond)
}

func TestPushErrorRetryability(t *testing.T) {
	cases := map[string]bool{
		"network":    true,
		"server":     true,
		"timeout":    true,
		"rate_limit": true,
		"auth":       false,
		"client":     false,
	}
	for typ, want := range cases {
		e := &PushError{Type: typ}
		if e.IsRetryable() != want {
			t.Errorf("IsRetryable(%s) = %v, want %v", typ, !want, want)
		}
	}
}
