package checkin

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mymmrac/telego"

	"sensune.app/story-bot/internal/catalog"
	"sensune.app/story-bot/internal/common"
	"sensune.app/story-bot/internal/engine"
	"sensune.app/story-bot/internal/progress"
)

type testClock struct {
	now time.Time
}

func (c *testClock) advance(days int) { c.now = c.now.AddDate(0, 0, days) }

func newTestService(t *testing.T) (*Service, *testClock) {
	t.Helper()
	cat, err := catalog.Load("")
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	eng := engine.New(cat, engine.DefaultRules(), nil)
	loc := time.FixedZone("MSK", 3*60*60)
	tc := &testClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, loc)}
	clock := common.Clock{Loc: loc, Now: func() time.Time { return tc.now }}
	return NewService(progress.NewRepository(progress.NewMemoryStore(), eng.NewProgress), eng, clock), tc
}

func TestCheckInSameDay(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	rec, err := svc.CheckIn(ctx, 1)
	if err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if rec.Result.Status != engine.CheckedIn || rec.Progress.Coins != 210 || rec.Progress.CheckInStreak != 1 {
		t.Fatalf("first check-in: %+v", rec)
	}

	rec, err = svc.CheckIn(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Result.Status != engine.AlreadyCheckedIn || rec.Progress.Coins != 210 {
		t.Fatalf("second check-in same day: %+v", rec)
	}
}

func TestCheckInWeeklyCycle(t *testing.T) {
	ctx := context.Background()
	svc, clock := newTestService(t)

	var rec Receipt
	var err error
	for day := 0; day < 7; day++ {
		rec, err = svc.CheckIn(ctx, 1)
		if err != nil {
			t.Fatalf("day %d: %v", day+1, err)
		}
		clock.advance(1)
	}
	if rec.Result.Status != engine.CycleCompleted {
		t.Fatalf("day 7 status = %v", rec.Result.Status)
	}
	if rec.Progress.CheckInStreak != 0 || rec.Progress.GachaTickets != 2 || rec.Progress.Coins != 270 {
		t.Fatalf("after cycle: %+v", rec.Progress)
	}
	if !strings.Contains(rec.Result.Message, "7 дней подряд") {
		t.Fatalf("cycle message: %q", rec.Result.Message)
	}
}

func TestCheckInGapRestartsStreak(t *testing.T) {
	ctx := context.Background()
	svc, clock := newTestService(t)

	for i := 0; i < 3; i++ {
		if _, err := svc.CheckIn(ctx, 1); err != nil {
			t.Fatal(err)
		}
		clock.advance(1)
	}
	clock.advance(1) // пропуск дня

	st, err := svc.Status(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if st.Streak != 0 || st.CheckedToday {
		t.Fatalf("status after gap: %+v", st)
	}

	rec, err := svc.CheckIn(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Progress.CheckInStreak != 1 {
		t.Fatalf("streak after gap = %d, want 1", rec.Progress.CheckInStreak)
	}
}

func TestSendReminders(t *testing.T) {
	ctx := context.Background()
	svc, clock := newTestService(t)

	// 1 отметился вчера, 2 отметился вчера и сегодня, 3 никогда, 4 отметился позавчера
	if _, err := svc.CheckIn(ctx, 4); err != nil {
		t.Fatal(err)
	}
	clock.advance(1)
	for _, id := range []int64{1, 2} {
		if _, err := svc.CheckIn(ctx, id); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := svc.repo.Get(ctx, 3); err != nil {
		t.Fatal(err)
	}
	clock.advance(1)
	if _, err := svc.CheckIn(ctx, 2); err != nil {
		t.Fatal(err)
	}

	var got []int64
	sent, err := svc.SendReminders(ctx, func(userID int64, text string) {
		got = append(got, userID)
		if !strings.Contains(text, "!чекин") {
			t.Errorf("reminder text: %q", text)
		}
	})
	if err != nil {
		t.Fatalf("reminders: %v", err)
	}
	if sent != 1 || len(got) != 1 || got[0] != 1 {
		t.Fatalf("reminded %v (sent %d), want [1]", got, sent)
	}
}

type fakeSender struct {
	texts []string
}

func (f *fakeSender) SendMessage(_ context.Context, params *telego.SendMessageParams) (*telego.Message, error) {
	f.texts = append(f.texts, params.Text)
	return &telego.Message{}, nil
}

func TestHandleCheckIn(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	sender := &fakeSender{}
	h := NewHandler(svc, sender)

	h.HandleCheckIn(ctx, 9, 1)
	h.HandleCheckIn(ctx, 9, 1)

	if len(sender.texts) != 2 {
		t.Fatalf("replies: %q", sender.texts)
	}
	if !strings.Contains(sender.texts[0], "Отметка засчитана! +10 монет") {
		t.Errorf("first reply: %q", sender.texts[0])
	}
	if !strings.Contains(sender.texts[1], "Вы уже отметились сегодня!") {
		t.Errorf("second reply: %q", sender.texts[1])
	}
}

func TestCheckInJournal(t *testing.T) {
	ctx := context.Background()
	svc, clock := newTestService(t)

	for range 2 {
		if _, err := svc.CheckIn(ctx, 1); err != nil {
			t.Fatal(err)
		}
	}
	clock.advance(1)
	if _, err := svc.CheckIn(ctx, 1); err != nil {
		t.Fatal(err)
	}

	txs, err := svc.repo.History(ctx, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 2 {
		t.Fatalf("journal = %+v, want 2 entries (repeat on the same day is not recorded)", txs)
	}
	if txs[0].Type != progress.TxCheckIn || txs[0].Target != "2024-03-02" || txs[0].Coins != 10 {
		t.Fatalf("latest entry = %+v", txs[0])
	}
}
