package engine

import (
	"fmt"
	"strings"

	"sensune.app/story-bot/internal/catalog"
	"sensune.app/story-bot/internal/common"
	"sensune.app/story-bot/internal/progress"
)

// Draw — одна выпавшая карточка.
type Draw struct {
	Card      catalog.GachaCard
	Duplicate bool
}

// GachaResult — итог пакета круток.
type GachaResult struct {
	Success bool
	Outcome Outcome
	// Draws — все выпавшие карточки по порядку
	Draws []Draw
	// NewCards — карточки, которых не было в коллекции
	NewCards      []catalog.GachaCard
	Duplicates    int
	TicketsUsed   int
	CoinsSpent    int64
	CoinsRefunded int64
	// Price — стоимость в монетах, которой не хватило (для InsufficientFunds)
	Price   int64
	Message string
}

// RarityFor переводит число из [0, 100) в редкость по накопленным порогам:
// legendary < 5, epic < 20, rare < 50, иначе common.
func RarityFor(x float64) catalog.Rarity {
	switch {
	case x < 5:
		return catalog.Legendary
	case x < 20:
		return catalog.Epic
	case x < 50:
		return catalog.Rare
	default:
		return catalog.Common
	}
}

// RollGacha крутит гачу times раз. Сначала тратятся билеты, остальные крутки
// оплачиваются монетами. Если монет не хватает, ничего не происходит.
//
// Карточка считается дубликатом, если она уже есть в коллекции или уже
// выпала раньше в этом же пакете. За каждый дубликат возвращается DuplicateRefund.
func (e *Engine) RollGacha(p progress.UserProgress, times int) (progress.UserProgress, GachaResult) {
	if times <= 0 {
		return p, GachaResult{Outcome: InvalidAmount, Message: "Число круток должно быть положительным"}
	}

	ticketsUsed := min(p.GachaTickets, times)
	coinCost := e.rules.RollCost(times, ticketsUsed)
	if coinCost > p.Coins {
		return p, GachaResult{
			Outcome: InsufficientFunds,
			Price:   coinCost,
			Message: fmt.Sprintf("Недостаточно монет! Нужно %s", common.FormatCoins(coinCost)),
		}
	}

	owned := make(map[string]bool, len(p.CollectedGachaCards)+times)
	for _, id := range p.CollectedGachaCards {
		owned[id] = true
	}

	res := GachaResult{
		Success:     true,
		Outcome:     Applied,
		Draws:       make([]Draw, 0, times),
		TicketsUsed: ticketsUsed,
		CoinsSpent:  coinCost,
	}
	var newIDs []string
	for i := 0; i < times; i++ {
		card, ok := e.drawCard()
		if !ok {
			return p, GachaResult{Outcome: UnknownEntity, Message: "В каталоге нет карточек нужной редкости"}
		}
		if owned[card.ID] {
			res.Duplicates++
			res.Draws = append(res.Draws, Draw{Card: card, Duplicate: true})
			continue
		}
		owned[card.ID] = true
		newIDs = append(newIDs, card.ID)
		res.NewCards = append(res.NewCards, card)
		res.Draws = append(res.Draws, Draw{Card: card})
	}
	res.CoinsRefunded = int64(res.Duplicates) * e.rules.DuplicateRefund

	next := p
	next.Coins = p.Coins - coinCost + res.CoinsRefunded
	next.GachaTickets = p.GachaTickets - ticketsUsed
	next.CollectedGachaCards = p.CollectedGachaCards.With(newIDs...)

	res.Message = gachaMessage(res)
	return next, res
}

// drawCard выбирает редкость, затем равновероятно карточку этой редкости.
func (e *Engine) drawCard() (catalog.GachaCard, bool) {
	rarity := RarityFor(e.rng.Float64() * 100)
	cards := e.catalog.CardsByRarity(rarity)
	if len(cards) == 0 {
		return catalog.GachaCard{}, false
	}
	i := int(e.rng.Float64() * float64(len(cards)))
	if i >= len(cards) {
		i = len(cards) - 1
	}
	return cards[i], true
}

func gachaMessage(res GachaResult) string {
	var b strings.Builder
	if res.TicketsUsed > 0 {
		fmt.Fprintf(&b, "Использовано %s! ", common.FormatTickets(res.TicketsUsed))
	}
	if n := len(res.NewCards); n > 0 {
		fmt.Fprintf(&b, "Вы получили %d %s!", n, common.PluralizeCards(n))
	} else {
		b.WriteString("Новых карточек нет.")
	}
	if res.Duplicates > 0 {
		fmt.Fprintf(&b, " %d %s → %s",
			res.Duplicates, common.PluralizeDuplicates(res.Duplicates), common.FormatCoinsDelta(res.CoinsRefunded))
	}
	return b.String()
}
