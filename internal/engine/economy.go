package engine

import (
	"sensune.app/story-bot/internal/catalog"
	"sensune.app/story-bot/internal/progress"
)

// UnlockCharacter открывает персонажа за его цену.
// Повторное открытие ничего не делает; при нехватке монет запись не меняется.
func (e *Engine) UnlockCharacter(p progress.UserProgress, characterID string) (progress.UserProgress, Result) {
	ch, ok := e.catalog.Character(characterID)
	if !ok {
		return p, Result{Outcome: UnknownEntity}
	}
	if p.UnlockedCharacters.Has(ch.ID) {
		return p, Result{Outcome: AlreadyDone}
	}
	if p.Coins < ch.UnlockCost {
		return p, Result{Outcome: InsufficientFunds, Price: ch.UnlockCost}
	}

	next := p
	next.Coins -= ch.UnlockCost
	next.UnlockedCharacters = p.UnlockedCharacters.With(ch.ID)
	return next, Result{Outcome: Applied, CoinsDelta: -ch.UnlockCost}
}

// CompleteChapter отмечает главу пройденной и выдаёт её награду.
// После этого проверяется полное прохождение персонажа.
func (e *Engine) CompleteChapter(p progress.UserProgress, chapterID string) (progress.UserProgress, Result) {
	ch, chapter, ok := e.catalog.ChapterOwner(chapterID)
	if !ok {
		return p, Result{Outcome: UnknownEntity}
	}
	if p.CompletedChapters.Has(chapter.ID) {
		return p, Result{Outcome: AlreadyDone}
	}

	next := p
	next.CompletedChapters = p.CompletedChapters.With(chapter.ID)
	next.Coins += chapter.Reward.Coins
	res := Result{Outcome: Applied, CoinsDelta: chapter.Reward.Coins}
	if chapter.Reward.GachaTicket {
		next.GachaTickets++
		res.TicketsDelta++
	}

	next = e.settleCompletion(p, next, ch, &res)
	return next, res
}

// PurchaseExtraChapter покупает экстра-главу и проверяет полное прохождение персонажа.
func (e *Engine) PurchaseExtraChapter(p progress.UserProgress, extraID string) (progress.UserProgress, Result) {
	ch, extra, ok := e.catalog.ExtraOwner(extraID)
	if !ok {
		return p, Result{Outcome: UnknownEntity}
	}
	if p.PurchasedExtraChapters.Has(extra.ID) {
		return p, Result{Outcome: AlreadyDone}
	}
	if p.Coins < extra.Cost {
		return p, Result{Outcome: InsufficientFunds, Price: extra.Cost}
	}

	next := p
	next.Coins -= extra.Cost
	next.PurchasedExtraChapters = p.PurchasedExtraChapters.With(extra.ID)
	res := Result{Outcome: Applied, CoinsDelta: -extra.Cost}

	next = e.settleCompletion(p, next, ch, &res)
	return next, res
}

// PurchasePackage начисляет монеты купленного пакета. Оплата не проводится.
func (e *Engine) PurchasePackage(p progress.UserProgress, coinAmount int64) (progress.UserProgress, Result) {
	if coinAmount <= 0 {
		return p, Result{Outcome: InvalidAmount}
	}
	next := p
	next.Coins += coinAmount
	return next, Result{Outcome: Applied, CoinsDelta: coinAmount}
}

// IsCharacterComplete сообщает, пройдены ли все главы и куплены ли все экстра-главы персонажа.
func IsCharacterComplete(p progress.UserProgress, ch catalog.Character) bool {
	for _, chapter := range ch.Chapters {
		if !p.CompletedChapters.Has(chapter.ID) {
			return false
		}
	}
	for _, extra := range ch.ExtraChapters {
		if !p.PurchasedExtraChapters.Has(extra.ID) {
			return false
		}
	}
	return true
}

// settleCompletion выдаёт бонус за полное прохождение персонажа.
// Решение принимается по записи before (до операции): если персонаж уже был
// отмечен пройденным, бонус не выдаётся повторно.
func (e *Engine) settleCompletion(before, next progress.UserProgress, ch catalog.Character, res *Result) progress.UserProgress {
	if before.CompletedCharacters.Has(ch.ID) || !IsCharacterComplete(next, ch) {
		return next
	}
	next.Coins += e.rules.CompletionBonusCoins
	next.GachaTickets += e.rules.CompletionBonusTickets
	next.CompletedCharacters = before.CompletedCharacters.With(ch.ID)

	res.CoinsDelta += e.rules.CompletionBonusCoins
	res.TicketsDelta += e.rules.CompletionBonusTickets
	res.CompletedCharacter = ch.ID
	return next
}
