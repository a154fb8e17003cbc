package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimiter_AllowsUpToMaxRatePerWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)

	require.True(t, rl.Allow("1.2.3.4"))
	require.True(t, rl.Allow("1.2.3.4"))
	require.False(t, rl.Allow("1.2.3.4"))
}

func TestRateLimiter_TracksIPsIndependently(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)

	require.True(t, rl.Allow("1.1.1.1"))
	require.True(t, rl.Allow("2.2.2.2"))
	require.False(t, rl.Allow("1.1.1.1"))
}

func TestRateLimitMiddleware_Returns429WhenExceeded(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	handler := RateLimitMiddleware(rl, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/advance", nil)
	req.RemoteAddr = "9.9.9.9:5555"

	rec1 := httptest.NewRecorder()
	handler(rec1, req)
	require.Equal(t, http.StatusOK, rec1.Code)

	rec2 := httptest.NewRecorder()
	handler(rec2, req)
	require.Equal(t, http.StatusTooManyRequests, rec2.Code)
	require.NotEmpty(t, rec2.Header().Get("Retry-After"))
}

func TestRateLimitMiddleware_HonorsForwardedForHeader(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	handler := RateLimitMiddleware(rl, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req1 := httptest.NewRequest(http.MethodPost, "/api/v1/advance", nil)
	req1.RemoteAddr = "10.0.0.1:1111"
	req1.Header.Set("X-Forwarded-For", "8.8.8.8, 10.0.0.1")
	rec1 := httptest.NewRecorder()
	handler(rec1, req1)
	require.Equal(t, http.StatusOK, rec1.Code)

	req2 := httptest.NewRequest(http.MethodPost, "/api/v1/advance", nil)
	req2.RemoteAddr = "10.0.0.2:2222"
	req2.Header.Set("X-Forwarded-For", "8.8.8.8, 10.0.0.2")
	rec2 := httptest.NewRecorder()
	handler(rec2, req2)
	require.Equal(t, http.StatusTooManyRequests, rec2.Code)
}
