package engine

import (
	"testing"

	"sensune.app/story-bot/internal/catalog"
	"sensune.app/story-bot/internal/progress"
)

func TestRarityFor(t *testing.T) {
	cases := []struct {
		x    float64
		want catalog.Rarity
	}{
		{0, catalog.Legendary},
		{4.999, catalog.Legendary},
		{5, catalog.Epic},
		{19.999, catalog.Epic},
		{20, catalog.Rare},
		{49.999, catalog.Rare},
		{50, catalog.Common},
		{99.999, catalog.Common},
	}
	for _, tc := range cases {
		if got := RarityFor(tc.x); got != tc.want {
			t.Fatalf("RarityFor(%v) = %s, want %s", tc.x, got, tc.want)
		}
	}
}

func TestRarityDistribution(t *testing.T) {
	rng := NewSeededRNG(42)
	const n = 200000
	counts := map[catalog.Rarity]int{}
	for i := 0; i < n; i++ {
		counts[RarityFor(rng.Float64()*100)]++
	}
	want := map[catalog.Rarity]float64{
		catalog.Legendary: 0.05, catalog.Epic: 0.15, catalog.Rare: 0.30, catalog.Common: 0.50,
	}
	for r, p := range want {
		freq := float64(counts[r]) / n
		if diff := freq - p; diff > 0.01 || diff < -0.01 {
			t.Fatalf("%s freq=%f not close to %f", r, freq, p)
		}
	}
}

func TestRollGachaFreshUserSingle(t *testing.T) {
	// common → c1
	rng := &scriptedRNG{vals: []float64{0.99, 0.0}}
	e := newTestEngine(t, rng)
	p := e.NewProgress(1)

	got, res := e.RollGacha(p, 1)
	if !res.Success || res.TicketsUsed != 1 || res.CoinsSpent != 0 {
		t.Fatalf("result: %+v", res)
	}
	if got.GachaTickets != 0 || got.Coins != 200 {
		t.Fatalf("tickets=%d coins=%d", got.GachaTickets, got.Coins)
	}
	if len(res.NewCards) != 1 || res.NewCards[0].ID != "c1" || !got.CollectedGachaCards.Has("c1") {
		t.Fatalf("new cards: %+v", res.NewCards)
	}
}

func TestRollGachaFreshUserDuplicate(t *testing.T) {
	rng := &scriptedRNG{vals: []float64{0.99, 0.0}}
	e := newTestEngine(t, rng)
	p := e.NewProgress(1)
	p.CollectedGachaCards = progress.NewIDSet("c1")

	got, res := e.RollGacha(p, 1)
	if !res.Success || res.Duplicates != 1 || len(res.NewCards) != 0 {
		t.Fatalf("result: %+v", res)
	}
	if got.Coins != 275 || got.GachaTickets != 0 {
		t.Fatalf("coins=%d tickets=%d", got.Coins, got.GachaTickets)
	}
	if len(got.CollectedGachaCards) != 1 {
		t.Fatalf("duplicate added to collection: %v", got.CollectedGachaCards)
	}
}

func TestRollGachaTicketPrecedence(t *testing.T) {
	e := newTestEngine(t, NewSeededRNG(7))
	p := progress.New(1, 5000, 3)

	got, res := e.RollGacha(p, 10)
	if !res.Success || res.TicketsUsed != 3 || res.CoinsSpent != 1050 {
		t.Fatalf("result: %+v", res)
	}
	if got.GachaTickets != 0 {
		t.Fatalf("tickets = %d", got.GachaTickets)
	}
	if got.Coins != 5000-1050+res.CoinsRefunded {
		t.Fatalf("coins = %d", got.Coins)
	}
}

func TestRollGachaTenWithoutTicketsUsesFixedPrice(t *testing.T) {
	e := newTestEngine(t, NewSeededRNG(7))
	p := progress.New(1, 1350, 0)

	got, res := e.RollGacha(p, 10)
	if !res.Success || res.CoinsSpent != 1350 {
		t.Fatalf("result: %+v", res)
	}
	if got.Coins != res.CoinsRefunded {
		t.Fatalf("coins = %d, refunded = %d", got.Coins, res.CoinsRefunded)
	}
}

func TestRollGachaInsufficientIsAtomic(t *testing.T) {
	e := newTestEngine(t, NewSeededRNG(1))

	cases := []struct {
		name    string
		coins   int64
		tickets int
		times   int
	}{
		{"single", 149, 0, 1},
		{"ten", 1349, 0, 10},
		{"ten with tickets", 1049, 3, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := progress.New(1, tc.coins, tc.tickets)
			got, res := e.RollGacha(p, tc.times)
			if res.Success || res.Outcome != InsufficientFunds {
				t.Fatalf("expected failure: %+v", res)
			}
			if !got.Equal(p) {
				t.Fatalf("record changed: %+v", got)
			}
			if len(res.Draws) != 0 {
				t.Fatalf("draws on failure: %d", len(res.Draws))
			}
		})
	}
}

func TestRollGachaInvalidTimes(t *testing.T) {
	e := newTestEngine(t, nil)
	p := e.NewProgress(1)
	for _, times := range []int{0, -1} {
		got, res := e.RollGacha(p, times)
		if res.Success || res.Outcome != InvalidAmount || !got.Equal(p) {
			t.Fatalf("times=%d accepted", times)
		}
	}
}

func TestRollGachaRepeatWithinBatchIsDuplicate(t *testing.T) {
	// Каждая крутка даёт c1
	rng := &scriptedRNG{vals: []float64{0.99, 0.0}}
	e := newTestEngine(t, rng)
	p := progress.New(1, 1350, 0)

	got, res := e.RollGacha(p, 10)
	if len(res.NewCards) != 1 || res.Duplicates != 9 {
		t.Fatalf("new=%d duplicates=%d", len(res.NewCards), res.Duplicates)
	}
	if res.CoinsRefunded != 9*75 || got.Coins != 9*75 {
		t.Fatalf("refund=%d coins=%d", res.CoinsRefunded, got.Coins)
	}
	if len(got.CollectedGachaCards) != 1 {
		t.Fatalf("collection = %v", got.CollectedGachaCards)
	}
}

func TestRollGachaAllDuplicatesStillSucceeds(t *testing.T) {
	rng := &scriptedRNG{vals: []float64{0.01, 0.0}} // legendary → l1
	e := newTestEngine(t, rng)
	p := progress.New(1, 150, 0)
	p.CollectedGachaCards = progress.NewIDSet("l1")

	got, res := e.RollGacha(p, 1)
	if !res.Success || len(res.NewCards) != 0 || res.Duplicates != 1 {
		t.Fatalf("result: %+v", res)
	}
	if got.Coins != 75 {
		t.Fatalf("coins = %d", got.Coins)
	}
}

func TestRollGachaBatchSize(t *testing.T) {
	e := newTestEngine(t, NewSeededRNG(99))
	p := progress.New(1, 1_000_000, 0)

	for i := 0; i < 200; i++ {
		next, res := e.RollGacha(p, 10)
		if !res.Success {
			t.Fatalf("roll %d failed: %s", i, res.Message)
		}
		if len(res.NewCards)+res.Duplicates != 10 || len(res.Draws) != 10 {
			t.Fatalf("roll %d: new=%d dup=%d", i, len(res.NewCards), res.Duplicates)
		}
		if len(next.CollectedGachaCards) != len(p.CollectedGachaCards)+len(res.NewCards) {
			t.Fatalf("roll %d: collection grew by %d, new cards %d",
				i, len(next.CollectedGachaCards)-len(p.CollectedGachaCards), len(res.NewCards))
		}
		p = next
	}
}

func TestRollGachaPicksCardWithinTier(t *testing.T) {
	// common, index 0.6 → второй common (c2)
	rng := &scriptedRNG{vals: []float64{0.75, 0.6}}
	e := newTestEngine(t, rng)
	_, res := e.RollGacha(progress.New(1, 150, 0), 1)
	if len(res.NewCards) != 1 || res.NewCards[0].ID != "c2" {
		t.Fatalf("cards = %+v", res.NewCards)
	}
}
