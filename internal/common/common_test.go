package common

import (
	"testing"
	"time"
)

func TestPluralizeCoins(t *testing.T) {
	cases := map[int64]string{
		0: "монет", 1: "монета", 2: "монеты", 4: "монеты", 5: "монет",
		11: "монет", 12: "монет", 21: "монета", 22: "монеты", 111: "монет", -1: "монета",
	}
	for n, want := range cases {
		if got := PluralizeCoins(n); got != want {
			t.Fatalf("PluralizeCoins(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestFormatting(t *testing.T) {
	if got := FormatCoins(1350); got != "1 350 монет" {
		t.Fatalf("FormatCoins(1350) = %q", got)
	}
	if got := FormatCoinsDelta(75); got != "+75 монет" {
		t.Fatalf("FormatCoinsDelta(75) = %q", got)
	}
	if got := FormatCoinsDelta(-150); got != "-150 монет" {
		t.Fatalf("FormatCoinsDelta(-150) = %q", got)
	}
	if got := FormatTickets(3); got != "3 билета" {
		t.Fatalf("FormatTickets(3) = %q", got)
	}
	if got := FormatNumber(1000005); got != "1 000 005" {
		t.Fatalf("FormatNumber = %q", got)
	}
}

func TestDayPrev(t *testing.T) {
	cases := []struct {
		day  Day
		want Day
	}{
		{"2024-03-01", "2024-02-29"},
		{"2025-01-01", "2024-12-31"},
		{"2025-06-15", "2025-06-14"},
		{"", ""},
		{"garbage", ""},
	}
	for _, tc := range cases {
		if got := tc.day.Prev(); got != tc.want {
			t.Fatalf("%q.Prev() = %q, want %q", tc.day, got, tc.want)
		}
	}
}

func TestClockToday(t *testing.T) {
	loc := time.FixedZone("MSK", 3*60*60)
	c := Clock{Loc: loc, Now: func() time.Time {
		return time.Date(2025, 5, 1, 22, 30, 0, 0, time.UTC)
	}}
	// 22:30 UTC — уже следующий день по Москве
	if got := c.Today(); got != "2025-05-02" {
		t.Fatalf("Today() = %q", got)
	}
}
