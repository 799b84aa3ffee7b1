// Package gacha — service.go проводит крутку от списания до сохранения коллекции.
package gacha

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"sensune.app/story-bot/internal/catalog"
	"sensune.app/story-bot/internal/common"
	"sensune.app/story-bot/internal/engine"
	"sensune.app/story-bot/internal/progress"
)

// Service управляет гачей.
type Service struct {
	repo   *progress.Repository
	engine *engine.Engine
}

// NewService создаёт сервис гачи.
func NewService(repo *progress.Repository, eng *engine.Engine) *Service {
	return &Service{repo: repo, engine: eng}
}

// Rules возвращает параметры экономики (цены круток).
func (s *Service) Rules() engine.Rules { return s.engine.Rules() }

// Roll крутит гачу times раз (1 или 10).
// Неудачный пакет (нет монет) не меняет запись и возвращается с ошибкой из common.
func (s *Service) Roll(ctx context.Context, userID int64, times int) (RollReceipt, error) {
	if times != SingleRoll && times != TenRoll {
		return RollReceipt{}, common.ErrInvalidRollCount
	}

	rec := RollReceipt{ID: uuid.New()}
	next, err := s.repo.Update(ctx, userID, func(p progress.UserProgress) (progress.UserProgress, error) {
		var n progress.UserProgress
		n, rec.Result = s.engine.RollGacha(p, times)
		return n, nil
	})
	rec.Progress = next
	if err != nil {
		return rec, err
	}
	if err := rec.Result.Outcome.Err(); err != nil {
		log.WithFields(log.Fields{
			"roll_id": rec.ID,
			"user_id": userID,
			"times":   times,
			"outcome": rec.Result.Outcome,
		}).Debug("Крутка отклонена")
		return rec, err
	}

	s.repo.Record(ctx, progress.Transaction{
		UserID:  userID,
		Type:    progress.TxGachaRoll,
		Target:  rec.ID.String(),
		Coins:   rec.Result.CoinsRefunded - rec.Result.CoinsSpent,
		Tickets: -rec.Result.TicketsUsed,
		Description: fmt.Sprintf("Гача ×%d: новых %d, дубликатов %d",
			times, len(rec.Result.NewCards), rec.Result.Duplicates),
	})

	log.WithFields(log.Fields{
		"roll_id":    rec.ID,
		"user_id":    userID,
		"times":      times,
		"tickets":    rec.Result.TicketsUsed,
		"spent":      rec.Result.CoinsSpent,
		"new_cards":  len(rec.Result.NewCards),
		"duplicates": rec.Result.Duplicates,
	}).Info("Крутка гачи")
	return rec, nil
}

// Collection собирает коллекцию пользователя по редкостям.
func (s *Service) Collection(ctx context.Context, userID int64) (*Collection, error) {
	p, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return buildCollection(s.engine.Catalog(), p), nil
}

func buildCollection(cat *catalog.Catalog, p progress.UserProgress) *Collection {
	col := &Collection{}
	rarities := slices.Clone(catalog.Rarities)
	slices.Reverse(rarities)
	for _, r := range rarities {
		cards := cat.CardsByRarity(r)
		stat := RarityStat{Rarity: r, Total: len(cards)}
		for _, card := range cards {
			if p.CollectedGachaCards.Has(card.ID) {
				stat.Owned = append(stat.Owned, card)
			}
		}
		col.Owned += len(stat.Owned)
		col.Total += stat.Total
		col.ByRarity = append(col.ByRarity, stat)
	}
	return col
}
