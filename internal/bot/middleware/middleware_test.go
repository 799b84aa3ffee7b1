package middleware

import (
	"testing"
	"time"

	"github.com/mymmrac/telego"
)

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Close()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.Allow(1) || !rl.Allow(1) {
		t.Fatal("first two requests must pass")
	}
	if rl.Allow(1) {
		t.Fatal("third request within window must be limited")
	}
	if !rl.Allow(2) {
		t.Fatal("other user must not be limited")
	}

	now = now.Add(time.Minute + time.Second)
	if !rl.Allow(1) {
		t.Fatal("request after window must pass")
	}

	now = now.Add(2 * time.Minute)
	rl.sweep()
	rl.mu.Lock()
	left := len(rl.requests)
	rl.mu.Unlock()
	if left != 0 {
		t.Fatalf("sweep left %d users", left)
	}
}

func TestRecoverFromPanic(t *testing.T) {
	func() {
		defer RecoverFromPanic()
		panic("boom")
	}()
}

func TestLogMessageNilSafe(t *testing.T) {
	LogMessage(nil)
	LogMessage(&telego.Message{Text: "без отправителя"})
}
