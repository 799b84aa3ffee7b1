package gacha

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/mymmrac/telego"

	"sensune.app/story-bot/internal/catalog"
	"sensune.app/story-bot/internal/common"
	"sensune.app/story-bot/internal/engine"
	"sensune.app/story-bot/internal/progress"
)

// cycleRNG отдаёт значения по кругу: редкость, затем индекс карточки.
type cycleRNG struct {
	vals []float64
	i    int
}

func (r *cycleRNG) Float64() float64 {
	v := r.vals[r.i%len(r.vals)]
	r.i++
	return v
}

func newTestService(t *testing.T, rng engine.RandomSource) *Service {
	t.Helper()
	cat, err := catalog.Load("")
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	eng := engine.New(cat, engine.DefaultRules(), rng)
	return NewService(progress.NewRepository(progress.NewMemoryStore(), eng.NewProgress), eng)
}

func TestRollUsesTicketThenCoins(t *testing.T) {
	ctx := context.Background()
	// 0.99 → обычная, 0.0 → первая обычная карточка
	svc := newTestService(t, &cycleRNG{vals: []float64{0.99, 0.0}})

	rec, err := svc.Roll(ctx, 1, SingleRoll)
	if err != nil {
		t.Fatalf("first roll: %v", err)
	}
	if rec.ID == uuid.Nil {
		t.Fatal("roll id is empty")
	}
	if rec.Result.TicketsUsed != 1 || rec.Progress.Coins != 200 || rec.Progress.GachaTickets != 0 {
		t.Fatalf("ticket roll: %+v", rec)
	}
	if len(rec.Result.NewCards) != 1 || !rec.Progress.CollectedGachaCards.Has(rec.Result.NewCards[0].ID) {
		t.Fatalf("card not collected: %+v", rec.Result)
	}

	rec, err = svc.Roll(ctx, 1, SingleRoll)
	if err != nil {
		t.Fatalf("second roll: %v", err)
	}
	// 200 - 150 + 75 за дубликат
	if rec.Result.Duplicates != 1 || rec.Progress.Coins != 125 {
		t.Fatalf("duplicate roll: coins %d, result %+v", rec.Progress.Coins, rec.Result)
	}
}

func TestRollRejected(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, engine.NewSeededRNG(7))

	if _, err := svc.Roll(ctx, 1, 3); !errors.Is(err, common.ErrInvalidRollCount) {
		t.Fatalf("roll 3: got %v", err)
	}

	rec, err := svc.Roll(ctx, 1, TenRoll)
	if !errors.Is(err, common.ErrInsufficientCoins) {
		t.Fatalf("roll 10 without coins: got %v", err)
	}
	if rec.Progress.Coins != 200 || rec.Progress.GachaTickets != 1 || len(rec.Progress.CollectedGachaCards) != 0 {
		t.Fatalf("rejected roll changed state: %+v", rec.Progress)
	}
	if rec.Result.Price != 1350 {
		t.Fatalf("price = %d, want 1350", rec.Result.Price)
	}
}

func TestCollection(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, &cycleRNG{vals: []float64{0.99, 0.0}})

	if _, err := svc.Roll(ctx, 1, SingleRoll); err != nil {
		t.Fatal(err)
	}
	col, err := svc.Collection(ctx, 1)
	if err != nil {
		t.Fatalf("collection: %v", err)
	}
	if col.Owned != 1 || col.Total != 10 || col.Percent() != 10 {
		t.Fatalf("collection totals: %+v", col)
	}
	if col.ByRarity[0].Rarity != catalog.Legendary || col.ByRarity[3].Rarity != catalog.Common {
		t.Fatalf("rarity order: %+v", col.ByRarity)
	}
	if len(col.ByRarity[3].Owned) != 1 {
		t.Fatalf("common owned: %+v", col.ByRarity[3])
	}
}

type fakeSender struct {
	texts []string
}

func (f *fakeSender) SendMessage(_ context.Context, params *telego.SendMessageParams) (*telego.Message, error) {
	f.texts = append(f.texts, params.Text)
	return &telego.Message{}, nil
}

func TestHandleRoll(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"single", nil, "ГАЧА ×1"},
		{"bad count", []string{"5"}, "1 или 10"},
		{"not a number", []string{"много"}, "Формат"},
		{"ten without coins", []string{"10"}, "Недостаточно монет"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &fakeSender{}
			h := NewHandler(newTestService(t, engine.NewSeededRNG(1)), sender)
			h.HandleRoll(ctx, 5, 1, tt.args)
			if len(sender.texts) != 1 || !strings.Contains(sender.texts[0], tt.want) {
				t.Fatalf("replies %q, want one containing %q", sender.texts, tt.want)
			}
		})
	}
}

func TestRollReplyAndJournal(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{}
	svc := newTestService(t, &cycleRNG{vals: []float64{0.99, 0.0}})
	h := NewHandler(svc, sender)

	h.HandleRoll(ctx, 5, 1, nil)
	h.HandleRoll(ctx, 5, 1, nil)

	txs, err := svc.repo.History(ctx, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 2 {
		t.Fatalf("journal = %+v", txs)
	}
	// новые первыми: вторая крутка за монеты с дубликатом, первая по билету
	if txs[0].Type != progress.TxGachaRoll || txs[0].Coins != -75 || txs[0].Tickets != 0 {
		t.Fatalf("coin roll entry = %+v", txs[0])
	}
	if txs[1].Coins != 0 || txs[1].Tickets != -1 {
		t.Fatalf("ticket roll entry = %+v", txs[1])
	}

	for i, tx := range []progress.Transaction{txs[1], txs[0]} {
		if _, err := uuid.Parse(tx.Target); err != nil {
			t.Fatalf("entry target %q is not a roll id: %v", tx.Target, err)
		}
		if want := "🧾 Крутка " + tx.Target[:8]; !strings.Contains(sender.texts[i], want) {
			t.Fatalf("reply %d lacks %q:\n%s", i, want, sender.texts[i])
		}
	}
}
