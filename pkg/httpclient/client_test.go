package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClient_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	client, err := New(Config{Timeout: 5 * time.Second, MaxRedirects: 5})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL, nil)
	resp, err := client.Do(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestClient_NilContext(t *testing.T) {
	client, _ := New(Config{})
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)

	//nolint:staticcheck // passing nil on purpose
	if _, err := client.Do(nil, req); err == nil {
		t.Fatal("expected error for nil context")
	}
}

func TestClient_MaxRedirects(t *testing.T) {
	var ts *httptest.Server
	hops := 0
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hops++
		http.Redirect(w, r, fmt.Sprintf("%s/hop-%d", ts.URL, hops), http.StatusFound)
	}))
	defer ts.Close()

	client, _ := New(Config{MaxRedirects: 3})
	req, _ := http.NewRequest(http.MethodGet, ts.URL, nil)

	_, err := client.Do(context.Background(), req)
	if err == nil || !strings.Contains(err.Error(), "redirects") {
		t.Fatalf("expected redirect limit error, got %v", err)
	}
}

func TestClient_NoRedirectsWhenNegative(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/elsewhere", http.StatusFound)
	}))
	defer ts.Close()

	client, _ := New(Config{MaxRedirects: -1})
	req, _ := http.NewRequest(http.MethodGet, ts.URL, nil)

	resp, err := client.Do(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		t.Errorf("status = %d, want the raw 302", resp.StatusCode)
	}
}

func TestClient_CookieJar(t *testing.T) {
	client, err := New(Config{UseCookieJar: true})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if client.Jar == nil {
		t.Fatal("expected cookie jar to be configured")
	}
}

func TestClient_ContextCancellation(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer ts.Close()

	client, _ := New(Config{Timeout: 5 * time.Second})
	req, _ := http.NewRequest(http.MethodGet, ts.URL, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := client.Do(ctx, req); err == nil {
		t.Fatal("expected context deadline error")
	}
}
