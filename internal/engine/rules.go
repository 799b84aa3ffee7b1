package engine

import (
	"errors"
	"strings"
)

// Rules — числовые параметры экономики.
type Rules struct {
	StartingCoins   int64
	StartingTickets int

	// Цена одной крутки и фиксированная цена пакета из десяти
	RollPrice    int64
	TenRollPrice int64
	// Сколько монет возвращается за каждый дубликат
	DuplicateRefund int64

	// Бонус за полное прохождение персонажа
	CompletionBonusCoins   int64
	CompletionBonusTickets int

	CheckInCoins int64
	// Длина цикла отметок и награда за его завершение
	CheckInCycle        int
	CheckInCycleTickets int
}

// DefaultRules возвращает стандартные параметры экономики.
func DefaultRules() Rules {
	return Rules{
		StartingCoins:          200,
		StartingTickets:        1,
		RollPrice:              150,
		TenRollPrice:           1350,
		DuplicateRefund:        75,
		CompletionBonusCoins:   50,
		CompletionBonusTickets: 1,
		CheckInCoins:           10,
		CheckInCycle:           7,
		CheckInCycleTickets:    1,
	}
}

// Validate проверяет, что параметры не отрицательны и цикл отметок не пуст.
func (r Rules) Validate() error {
	var errs []string
	for name, v := range map[string]int64{
		"starting coins":           r.StartingCoins,
		"starting tickets":         int64(r.StartingTickets),
		"roll price":               r.RollPrice,
		"ten-roll price":           r.TenRollPrice,
		"duplicate refund":         r.DuplicateRefund,
		"completion bonus coins":   r.CompletionBonusCoins,
		"completion bonus tickets": int64(r.CompletionBonusTickets),
		"check-in coins":           r.CheckInCoins,
		"check-in cycle tickets":   int64(r.CheckInCycleTickets),
	} {
		if v < 0 {
			errs = append(errs, name+" must be >= 0")
		}
	}
	if r.CheckInCycle < 1 {
		errs = append(errs, "check-in cycle must be >= 1")
	}
	if len(errs) > 0 {
		return errors.New("invalid rules: " + strings.Join(errs, "; "))
	}
	return nil
}

// priceTable — фиксированные цены пакетов круток.
func (r Rules) priceTable() map[int]int64 {
	return map[int]int64{1: r.RollPrice, 10: r.TenRollPrice}
}

// RollCost считает стоимость в монетах для пакета из times круток,
// из которых ticketsUsed оплачены билетами. Оставшиеся крутки стоят
// RollPrice каждая, но не дороже фиксированной цены пакета.
func (r Rules) RollCost(times, ticketsUsed int) int64 {
	paid := times - ticketsUsed
	if paid <= 0 {
		return 0
	}
	cost := int64(paid) * r.RollPrice
	if fixed, ok := r.priceTable()[times]; ok && fixed < cost {
		cost = fixed
	}
	return cost
}
