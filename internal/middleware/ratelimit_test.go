package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func testRateLimiterConfig(burst int) RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(0.001),
		GeneralBurst:    burst,
		PublicRate:      rate.Limit(0.001),
		PublicBurst:     burst,
		CleanupInterval: time.Hour,
	}
}

// 公開照会リミッターがバースト超過後に429を返すことを検証
func TestPublicMiddleware_LimitsPerIP(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(2))
	defer rl.Stop()

	handler := rl.PublicMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/public/members/m1", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("10.1.1.1:1234"); code != http.StatusOK {
		t.Errorf("request 1 status = %d", code)
	}
	if code := send("10.1.1.1:1234"); code != http.StatusOK {
		t.Errorf("request 2 status = %d", code)
	}
	if code := send("10.1.1.1:1234"); code != http.StatusTooManyRequests {
		t.Errorf("request 3 status = %d, want 429", code)
	}

	// 別IPは独立したリミッターを持つ
	if code := send("10.2.2.2:1234"); code != http.StatusOK {
		t.Errorf("other IP status = %d, want 200", code)
	}

	if rl.PublicLimiterCount() != 2 {
		t.Errorf("limiter count = %d, want 2", rl.PublicLimiterCount())
	}
}

// X-Forwarded-Forの先頭IPがキーになることを検証
func TestPublicMiddleware_UsesForwardedFor(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(1))
	defer rl.Stop()

	handler := rl.PublicMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(fwd string) int {
		req := httptest.NewRequest(http.MethodGet, "/public/members/m1", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		req.Header.Set("X-Forwarded-For", fwd)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("203.0.113.5, 10.0.0.1"); code != http.StatusOK {
		t.Errorf("first request status = %d", code)
	}
	if code := send("203.0.113.5, 10.0.0.2"); code != http.StatusTooManyRequests {
		t.Errorf("same client status = %d, want 429", code)
	}
	if code := send("203.0.113.9"); code != http.StatusOK {
		t.Errorf("different client status = %d, want 200", code)
	}
}

// 管理APIリミッターが認証主体をキーにすることを検証
func TestGeneralMiddleware_RequiresSubject(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(1))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// 認証主体なし → 401
	req := httptest.NewRequest(http.MethodGet, "/api/members", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}

	// 認証主体あり → バーストまで200、その後429
	authed := httptest.NewRequest(http.MethodGet, "/api/members", nil)
	authed = authed.WithContext(ContextWithSubject(authed.Context(), "admin"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authed)
	if rec.Code != http.StatusOK {
		t.Errorf("authed status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authed)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("burst exceeded status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header should be set")
	}
}
