package bot

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/mymmrac/telego"

	"sensune.app/story-bot/internal/bot/filters"
	"sensune.app/story-bot/internal/bot/middleware"
	"sensune.app/story-bot/internal/catalog"
	"sensune.app/story-bot/internal/common"
	"sensune.app/story-bot/internal/config"
	"sensune.app/story-bot/internal/engine"
	"sensune.app/story-bot/internal/features/admin"
	"sensune.app/story-bot/internal/features/checkin"
	"sensune.app/story-bot/internal/features/economy"
	"sensune.app/story-bot/internal/features/gacha"
	"sensune.app/story-bot/internal/progress"
)

func TestParseCommand(t *testing.T) {
	p := NewCommandParser()
	tests := []struct {
		text  string
		cmd   string
		args  []string
		isCmd bool
	}{
		{"!профиль", "профиль", nil, true},
		{".гача 10", "гача", []string{"10"}, true},
		{"/start@story_bot", "start", nil, true},
		{"  !ОТКРЫТЬ   kai ", "открыть", []string{"kai"}, true},
		{"привет", "", nil, false},
		{"!", "", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			cmd, args, ok := p.ParseCommand(tt.text)
			if cmd != tt.cmd || !reflect.DeepEqual(args, tt.args) || ok != tt.isCmd {
				t.Fatalf("ParseCommand(%q) = %q, %v, %v", tt.text, cmd, args, ok)
			}
		})
	}
}

type fakeSender struct {
	sent []*telego.SendMessageParams
}

func (f *fakeSender) SendMessage(_ context.Context, params *telego.SendMessageParams) (*telego.Message, error) {
	f.sent = append(f.sent, params)
	return &telego.Message{}, nil
}

func newTestBot(t *testing.T, cfg *config.Config) (*Bot, *fakeSender) {
	t.Helper()
	cat, err := catalog.Load("")
	if err != nil {
		t.Fatal(err)
	}
	eng := engine.New(cat, engine.DefaultRules(), engine.NewSeededRNG(1))
	repo := progress.NewRepository(progress.NewMemoryStore(), eng.NewProgress)
	sender := &fakeSender{}

	econ := economy.NewService(repo, eng)
	b := &Bot{
		sender:         sender,
		cfg:            cfg,
		chatFilter:     filters.NewChatFilter(cfg.AllowedChatID),
		rateLimiter:    middleware.NewRateLimiter(100, time.Minute),
		economyHandler: economy.NewHandler(econ, sender),
		gachaHandler:   gacha.NewHandler(gacha.NewService(repo, eng), sender),
		checkinHandler: checkin.NewHandler(checkin.NewService(repo, eng, common.NewClock(time.UTC)), sender),
		adminHandler:   admin.NewHandler(admin.NewService(admin.NewMemoryRepository(), econ, cfg), sender),
		parser:         NewCommandParser(),
		inflight:       make(chan struct{}, 1),
	}
	t.Cleanup(b.Close)
	return b, sender
}

func privateMessage(text string) *telego.Message {
	return &telego.Message{
		Chat: telego.Chat{ID: 5, Type: telego.ChatTypePrivate},
		From: &telego.User{ID: 5},
		Text: text,
	}
}

func groupMessage(text string) *telego.Message {
	return &telego.Message{
		Chat: telego.Chat{ID: -100, Type: telego.ChatTypeSupergroup},
		From: &telego.User{ID: 5},
		Text: text,
	}
}

func TestRouting(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		AllowedChatID:         -100,
		FeatureGachaEnabled:   false,
		FeatureCheckInEnabled: true,
		FeatureShopEnabled:    true,
		AdminIDs:              []int64{5},
	}

	tests := []struct {
		name string
		msg  *telego.Message
		want string
	}{
		{"help", privateMessage("!помощь"), "!персонажи"},
		{"profile", privateMessage("!профиль"), "Профиль"},
		{"gallery", privateMessage("!галерея"), "Галерея пуста"},
		{"history", privateMessage("!история"), "История пуста"},
		{"gacha disabled", privateMessage("!гача"), "Гача временно отключена"},
		{"check-in in group", groupMessage("!чекин"), "Отметка засчитана"},
		{"admin login in private", privateMessage("/login"), "Введите пароль"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, sender := newTestBot(t, cfg)
			b.handleMessage(ctx, tt.msg)
			if len(sender.sent) != 1 || !strings.Contains(sender.sent[0].Text, tt.want) {
				t.Fatalf("sent %d messages, want one containing %q", len(sender.sent), tt.want)
			}
		})
	}
}

func TestIgnoredMessages(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{AllowedChatID: -100, AdminIDs: []int64{5}}

	for _, msg := range []*telego.Message{
		groupMessage("/login secret"),
		privateMessage("просто текст"),
		{Chat: telego.Chat{ID: -300, Type: telego.ChatTypeGroup}, From: &telego.User{ID: 5}, Text: "!профиль"},
		privateMessage("!неизвестная"),
	} {
		b, sender := newTestBot(t, cfg)
		b.handleMessage(ctx, msg)
		if len(sender.sent) != 0 {
			t.Fatalf("message %q produced reply %q", msg.Text, sender.sent[0].Text)
		}
	}
}

func TestSendMessageToUser(t *testing.T) {
	b, sender := newTestBot(t, &config.Config{})
	b.SendMessageToUser(77, "напоминание")
	if len(sender.sent) != 1 || sender.sent[0].ChatID.ID != 77 {
		t.Fatalf("unexpected sends: %+v", sender.sent)
	}
}
