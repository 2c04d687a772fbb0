package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeLimiterStore struct {
	counts map[string]int64
	err    error
}

func (f *fakeLimiterStore) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	if f.counts == nil {
		f.counts = map[string]int64{}
	}
	f.counts[key]++
	return f.counts[key], nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestLinkRateLimitAllowsUnderLimit(t *testing.T) {
	policy := NewLinkRateLimitPolicy("share-link", time.Minute, 3)
	store := &fakeLimiterStore{}
	handler := LinkRateLimit(policy, store, nil)(okHandler())

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/public/shares/tok", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200 got %d", i+1, resp.Code)
		}
	}
}

func TestLinkRateLimitBlocksOverLimit(t *testing.T) {
	policy := NewLinkRateLimitPolicy("share-link", time.Minute, 1)
	store := &fakeLimiterStore{}
	handler := LinkRateLimit(policy, store, nil)(okHandler())

	first := httptest.NewRequest(http.MethodGet, "/api/public/shares/tok", nil)
	first.RemoteAddr = "10.0.0.1:1234"
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, first)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for first hit got %d", resp.Code)
	}

	second := httptest.NewRequest(http.MethodGet, "/api/public/shares/tok", nil)
	second.RemoteAddr = "10.0.0.1:1234"
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, second)
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", resp.Code)
	}
}

func TestLinkRateLimitUsesForwardedForHeader(t *testing.T) {
	policy := NewLinkRateLimitPolicy("share-link", time.Minute, 1)
	store := &fakeLimiterStore{}
	handler := LinkRateLimit(policy, store, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/public/shares/tok", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if _, ok := store.counts["rl:ip:share-link:203.0.113.9"]; !ok {
		t.Fatalf("expected counter keyed by forwarded IP, got %v", store.counts)
	}
}

func TestLinkRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	policy := NewLinkRateLimitPolicy("share-link", 0, 0)
	handler := LinkRateLimit(policy, nil, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/public/shares/tok", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}
