package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeLimiter struct {
	ok        bool
	remaining int64
	resetAt   time.Time

	gotKey string
}

func (l *fakeLimiter) Allow(key string) (bool, int64, time.Time) {
	l.gotKey = key
	return l.ok, l.remaining, l.resetAt
}

func Test_RateLimited_PassesThrough(t *testing.T) {
	limiter := &fakeLimiter{ok: true, remaining: 5, resetAt: time.Now().Add(time.Minute)}
	called := false
	handler := rateLimited(limiter, "quote", func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/v1/quote", nil)
	request.RemoteAddr = "10.0.0.1:51234"
	handler(recorder, request)

	if !called {
		t.Fatal("expected wrapped handler to be called")
	}
	if got := limiter.gotKey; got != "10.0.0.1|quote" {
		t.Errorf("unexpected limiter key: %s", got)
	}
	if got := recorder.Header().Get("X-RateLimit-Remaining"); got != "5" {
		t.Errorf("unexpected remaining header: %s", got)
	}
}

func Test_RateLimited_Rejects(t *testing.T) {
	limiter := &fakeLimiter{ok: false, remaining: 0, resetAt: time.Now().Add(time.Second * 30)}
	handler := rateLimited(limiter, "session", func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("wrapped handler must not be called")
	})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/v1/sessions", nil)
	request.RemoteAddr = "10.0.0.1:51234"
	handler(recorder, request)

	if recorder.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", recorder.Code)
	}
	if recorder.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

func Test_RateLimited_NilLimiter(t *testing.T) {
	called := false
	handler := rateLimited(nil, "quote", func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/quote", nil))

	if !called {
		t.Error("expected passthrough when limiter is nil")
	}
}

func Test_ClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		want       string
	}{
		{
			name:       "remote address",
			remoteAddr: "10.0.0.1:51234",
			want:       "10.0.0.1",
		},
		{
			name:       "forwarded header wins",
			remoteAddr: "10.0.0.1:51234",
			forwarded:  "203.0.113.7, 10.0.0.2",
			want:       "203.0.113.7",
		},
		{
			name:       "remote address without port",
			remoteAddr: "10.0.0.1",
			want:       "10.0.0.1",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/v1/quote", nil)
			request.RemoteAddr = tc.remoteAddr
			if tc.forwarded != "" {
				request.Header.Set("X-Forwarded-For", tc.forwarded)
			}

			if got := clientIP(request); got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}
