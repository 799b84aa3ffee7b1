package admin

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mymmrac/telego"

	"sensune.app/story-bot/internal/catalog"
	"sensune.app/story-bot/internal/common"
	"sensune.app/story-bot/internal/config"
	"sensune.app/story-bot/internal/engine"
	"sensune.app/story-bot/internal/features/economy"
	"sensune.app/story-bot/internal/progress"
)

const adminID = 1

var fastHash = HashParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}

type testEnv struct {
	svc *Service
	now time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	hash, err := HashPassword("secret", fastHash)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	cat, err := catalog.Load("")
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	eng := engine.New(cat, engine.DefaultRules(), nil)
	econ := economy.NewService(progress.NewRepository(progress.NewMemoryStore(), eng.NewProgress), eng)

	cfg := &config.Config{AdminIDs: []int64{adminID}, AdminPasswordHash: hash}
	env := &testEnv{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	env.svc = NewService(NewMemoryRepository(), econ, cfg)
	env.svc.now = func() time.Time { return env.now }
	return env
}

func TestVerifyArgon2id(t *testing.T) {
	hash, err := HashPassword("пароль", fastHash)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$") {
		t.Fatalf("unexpected hash format: %s", hash)
	}

	tests := []struct {
		name     string
		password string
		hash     string
		want     bool
	}{
		{"correct", "пароль", hash, true},
		{"wrong", "парол", hash, false},
		{"malformed", "пароль", "$argon2id$broken", false},
		{"other algorithm", "пароль", strings.Replace(hash, "argon2id", "argon2i", 1), false},
		{"zero iterations", "пароль", strings.Replace(hash, "t=1,", "t=0,", 1), false},
		{"zero parallelism", "пароль", strings.Replace(hash, "p=1$", "p=0$", 1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := verifyArgon2id(tt.password, tt.hash); got != tt.want {
				t.Fatalf("verifyArgon2id = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoginLockout(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	if err := env.svc.Login(ctx, 99, "secret"); !errors.Is(err, common.ErrNotAdmin) {
		t.Fatalf("non-admin login: got %v", err)
	}

	for i := 0; i < MaxFailedAttempts; i++ {
		if err := env.svc.Login(ctx, adminID, "nope"); !errors.Is(err, common.ErrWrongPassword) {
			t.Fatalf("attempt %d: got %v", i+1, err)
		}
	}
	if err := env.svc.Login(ctx, adminID, "secret"); !errors.Is(err, common.ErrTooManyAttempts) {
		t.Fatalf("locked login: got %v", err)
	}

	env.now = env.now.Add(AttemptWindow + time.Minute)
	if err := env.svc.Login(ctx, adminID, "secret"); err != nil {
		t.Fatalf("login after window: %v", err)
	}
	if !env.svc.HasActiveSession(ctx, adminID) {
		t.Fatal("session not active after login")
	}
}

func TestSessionExpires(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	if _, err := env.svc.GrantCoins(ctx, adminID, 5, 100); !errors.Is(err, common.ErrSessionExpired) {
		t.Fatalf("grant without session: got %v", err)
	}
	if err := env.svc.Login(ctx, adminID, "secret"); err != nil {
		t.Fatal(err)
	}

	rec, err := env.svc.GrantCoins(ctx, adminID, 5, 100)
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if rec.Progress.Coins != 300 {
		t.Fatalf("coins = %d, want 300", rec.Progress.Coins)
	}

	env.now = env.now.Add(SessionTTL + time.Second)
	if _, err := env.svc.Inspect(ctx, adminID, 5); !errors.Is(err, common.ErrSessionExpired) {
		t.Fatalf("inspect after expiry: got %v", err)
	}
}

func TestResetUser(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	if err := env.svc.Login(ctx, adminID, "secret"); err != nil {
		t.Fatal(err)
	}
	if _, err := env.svc.GrantCoins(ctx, adminID, 5, 1000); err != nil {
		t.Fatal(err)
	}

	p, err := env.svc.ResetUser(ctx, adminID, 5)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if p.Coins != 200 {
		t.Fatalf("coins after reset = %d", p.Coins)
	}

	if err := env.svc.Logout(ctx, adminID); err != nil {
		t.Fatal(err)
	}
	if env.svc.HasActiveSession(ctx, adminID) {
		t.Fatal("session survived logout")
	}
}

func TestStateExpires(t *testing.T) {
	env := newTestEnv(t)
	env.svc.SetState(adminID, StateAwaitingPassword, 0)

	if st, ok := env.svc.GetState(adminID); !ok || st.Name != StateAwaitingPassword {
		t.Fatalf("state = %+v, %v", st, ok)
	}
	env.now = env.now.Add(StateTTL + time.Second)
	if _, ok := env.svc.GetState(adminID); ok {
		t.Fatal("state did not expire")
	}
}

type fakeSender struct {
	texts []string
}

func (f *fakeSender) SendMessage(_ context.Context, params *telego.SendMessageParams) (*telego.Message, error) {
	f.texts = append(f.texts, params.Text)
	return &telego.Message{}, nil
}

func (f *fakeSender) last() string {
	if len(f.texts) == 0 {
		return ""
	}
	return f.texts[len(f.texts)-1]
}

func TestHandlerDialog(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	sender := &fakeSender{}
	h := NewHandler(env.svc, sender)

	h.HandleLogin(ctx, 10, adminID, nil)
	if !strings.Contains(sender.last(), "Введите пароль") {
		t.Fatalf("login prompt: %q", sender.last())
	}
	if !h.HandleText(ctx, 10, adminID, "secret") {
		t.Fatal("password message was not consumed")
	}
	if !strings.Contains(sender.last(), "Вход выполнен") {
		t.Fatalf("login reply: %q", sender.last())
	}

	h.HandleResetUser(ctx, 10, adminID, []string{"7"})
	if !strings.Contains(sender.last(), "Ответьте «да»") {
		t.Fatalf("reset prompt: %q", sender.last())
	}
	if !h.HandleText(ctx, 10, adminID, "нет") || !strings.Contains(sender.last(), "отменён") {
		t.Fatalf("reset cancel: %q", sender.last())
	}

	h.HandleGrant(ctx, 10, adminID, []string{"7", "300"})
	if !strings.Contains(sender.last(), "Баланс: 500") {
		t.Fatalf("grant reply: %q", sender.last())
	}
	h.HandleInspect(ctx, 10, adminID, []string{"7"})
	if got := sender.last(); !strings.Contains(got, "Журнал") || !strings.Contains(got, "Начисление администратора") {
		t.Fatalf("inspect does not show the journal:\n%s", got)
	}

	h.HandleGrant(ctx, 10, adminID, []string{"7", "abc"})
	if !strings.Contains(sender.last(), "должны быть числами") {
		t.Fatalf("grant validation: %q", sender.last())
	}

	if h.HandleText(ctx, 10, adminID, "просто текст") {
		t.Fatal("message consumed without active state")
	}

	h.HandleLogin(ctx, 10, 42, []string{"secret"})
	if !strings.Contains(sender.last(), "Нет доступа") {
		t.Fatalf("non-admin login: %q", sender.last())
	}
}

func TestMemoryRepositoryPrunesOldAttempts(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	for i := range 50 {
		at := now.Add(-time.Duration(i+2) * time.Hour)
		if err := repo.LogAttempt(ctx, LoginAttempt{UserID: int64(i % 3), AttemptTime: at}); err != nil {
			t.Fatal(err)
		}
	}
	if err := repo.LogAttempt(ctx, LoginAttempt{UserID: 1, AttemptTime: now.Add(-time.Minute)}); err != nil {
		t.Fatal(err)
	}

	n, err := repo.FailedAttemptsSince(ctx, 1, now.Add(-AttemptWindow))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("failed attempts = %d, want 1", n)
	}
	if len(repo.attempts) != 1 {
		t.Fatalf("attempts kept = %d, want 1", len(repo.attempts))
	}
}
