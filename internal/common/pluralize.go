// Package common — pluralize.go содержит склонение русских числительных
// и форматирование сумм для сообщений бота.
package common

import "fmt"

// plural выбирает форму слова для числа n по правилам русского языка:
//   - 1, 21, 31 (но не 11) → one
//   - 2-4, 22-24 (но не 12-14) → few
//   - остальные → many
func plural(n int64, one, few, many string) string {
	if n < 0 {
		n = -n
	}
	lastDigit := n % 10
	lastTwoDigits := n % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return one
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return few
	}
	return many
}

// PluralizeCoins — «монета».
//
//	PluralizeCoins(1)  → "монета"
//	PluralizeCoins(3)  → "монеты"
//	PluralizeCoins(11) → "монет"
func PluralizeCoins(n int64) string { return plural(n, "монета", "монеты", "монет") }

// PluralizeTickets — «билет».
func PluralizeTickets(n int) string { return plural(int64(n), "билет", "билета", "билетов") }

// PluralizeDays — «день».
func PluralizeDays(n int) string { return plural(int64(n), "день", "дня", "дней") }

// PluralizeCards — «карточка».
func PluralizeCards(n int) string { return plural(int64(n), "карточка", "карточки", "карточек") }

// PluralizeDuplicates — «дубликат».
func PluralizeDuplicates(n int) string { return plural(int64(n), "дубликат", "дубликата", "дубликатов") }

// FormatCoins — "150 монет".
func FormatCoins(n int64) string {
	return fmt.Sprintf("%s %s", FormatNumber(n), PluralizeCoins(n))
}

// FormatCoinsDelta — "+75 монет" или "-150 монет".
func FormatCoinsDelta(n int64) string {
	if n >= 0 {
		return "+" + FormatCoins(n)
	}
	return FormatCoins(n)
}

// FormatTickets — "1 билет".
func FormatTickets(n int) string {
	return fmt.Sprintf("%d %s", n, PluralizeTickets(n))
}

// FormatNumber форматирует число с разделителями тысяч (пробелами).
// Пример: FormatNumber(2350) → "2 350"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s %03d", FormatNumber(n/1000), n%1000)
}
