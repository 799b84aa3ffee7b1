// Package economy — service.go связывает движок с хранилищем прогресса.
// Каждая операция: загрузить запись → применить правило движка → сохранить, если изменилась.
package economy

import (
	"context"

	log "github.com/sirupsen/logrus"

	"sensune.app/story-bot/internal/catalog"
	"sensune.app/story-bot/internal/common"
	"sensune.app/story-bot/internal/engine"
	"sensune.app/story-bot/internal/progress"
)

// Service управляет экономикой и прогрессом по историям.
type Service struct {
	repo   *progress.Repository
	engine *engine.Engine
}

// NewService создаёт сервис экономики.
func NewService(repo *progress.Repository, eng *engine.Engine) *Service {
	return &Service{repo: repo, engine: eng}
}

// Catalog возвращает каталог движка.
func (s *Service) Catalog() *catalog.Catalog { return s.engine.Catalog() }

// Profile собирает баланс и состояние всех персонажей.
func (s *Service) Profile(ctx context.Context, userID int64) (*Profile, error) {
	p, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	cat := s.engine.Catalog()
	prof := &Profile{
		Progress:   p,
		CardsOwned: len(p.CollectedGachaCards),
		CardsTotal: len(cat.Cards()),
	}
	for _, ch := range cat.Characters() {
		prof.Characters = append(prof.Characters, characterStatus(p, ch))
	}
	return prof, nil
}

func characterStatus(p progress.UserProgress, ch catalog.Character) CharacterStatus {
	st := CharacterStatus{
		Character:     ch,
		Unlocked:      p.UnlockedCharacters.Has(ch.ID),
		Completed:     p.CompletedCharacters.Has(ch.ID),
		ChaptersTotal: len(ch.Chapters),
		ExtrasTotal:   len(ch.ExtraChapters),
	}
	for _, chapter := range ch.Chapters {
		if p.CompletedChapters.Has(chapter.ID) {
			st.ChaptersDone++
		}
	}
	for _, extra := range ch.ExtraChapters {
		if p.PurchasedExtraChapters.Has(extra.ID) {
			st.ExtrasOwned++
		}
	}
	return st
}

// Character возвращает состояние одного персонажа.
func (s *Service) Character(ctx context.Context, userID int64, characterID string) (CharacterStatus, error) {
	ch, ok := s.engine.Catalog().Character(characterID)
	if !ok {
		return CharacterStatus{}, common.ErrUnknownEntity
	}
	p, err := s.repo.Get(ctx, userID)
	if err != nil {
		return CharacterStatus{}, err
	}
	return characterStatus(p, ch), nil
}

// UnlockCharacter открывает персонажа.
func (s *Service) UnlockCharacter(ctx context.Context, userID int64, characterID string) (Receipt, error) {
	return s.apply(ctx, userID, progress.TxUnlockCharacter, characterID, func(p progress.UserProgress) (progress.UserProgress, engine.Result, error) {
		next, res := s.engine.UnlockCharacter(p, characterID)
		return next, res, nil
	})
}

// CompleteChapter отмечает главу пройденной. Персонаж должен быть открыт.
func (s *Service) CompleteChapter(ctx context.Context, userID int64, chapterID string) (Receipt, error) {
	ch, _, ok := s.engine.Catalog().ChapterOwner(chapterID)
	if !ok {
		return Receipt{Result: engine.Result{Outcome: engine.UnknownEntity}}, common.ErrUnknownEntity
	}
	return s.apply(ctx, userID, progress.TxCompleteChapter, chapterID, func(p progress.UserProgress) (progress.UserProgress, engine.Result, error) {
		if !p.UnlockedCharacters.Has(ch.ID) {
			return p, engine.Result{}, common.ErrCharacterLocked
		}
		next, res := s.engine.CompleteChapter(p, chapterID)
		return next, res, nil
	})
}

// PurchaseExtraChapter покупает экстра-главу. Персонаж должен быть открыт.
func (s *Service) PurchaseExtraChapter(ctx context.Context, userID int64, extraID string) (Receipt, error) {
	ch, _, ok := s.engine.Catalog().ExtraOwner(extraID)
	if !ok {
		return Receipt{Result: engine.Result{Outcome: engine.UnknownEntity}}, common.ErrUnknownEntity
	}
	return s.apply(ctx, userID, progress.TxPurchaseExtra, extraID, func(p progress.UserProgress) (progress.UserProgress, engine.Result, error) {
		if !p.UnlockedCharacters.Has(ch.ID) {
			return p, engine.Result{}, common.ErrCharacterLocked
		}
		next, res := s.engine.PurchaseExtraChapter(p, extraID)
		return next, res, nil
	})
}

// BuyPackage начисляет монеты пакета магазина. Реальная оплата не проводится.
func (s *Service) BuyPackage(ctx context.Context, userID int64, packageID string) (Receipt, error) {
	pkg, ok := s.engine.Catalog().Package(packageID)
	if !ok {
		return Receipt{Result: engine.Result{Outcome: engine.UnknownEntity}}, common.ErrUnknownEntity
	}
	return s.credit(ctx, userID, pkg.Coins, progress.TxShopPackage, pkg.ID)
}

// Credit начисляет монеты от имени администратора. reason попадает в журнал.
func (s *Service) Credit(ctx context.Context, userID int64, amount int64, reason string) (Receipt, error) {
	return s.credit(ctx, userID, amount, progress.TxAdminGrant, reason)
}

func (s *Service) credit(ctx context.Context, userID, amount int64, txType, target string) (Receipt, error) {
	return s.apply(ctx, userID, txType, target, func(p progress.UserProgress) (progress.UserProgress, engine.Result, error) {
		next, res := s.engine.PurchasePackage(p, amount)
		return next, res, nil
	})
}

// Reset заменяет прогресс пользователя записью по умолчанию.
func (s *Service) Reset(ctx context.Context, userID int64) (progress.UserProgress, error) {
	var prev progress.UserProgress
	p, err := s.repo.Update(ctx, userID, func(cur progress.UserProgress) (progress.UserProgress, error) {
		prev = cur
		return s.engine.Reset(userID), nil
	})
	if err != nil {
		return progress.UserProgress{}, err
	}
	s.repo.Record(ctx, progress.Transaction{
		UserID:      userID,
		Type:        progress.TxReset,
		Coins:       p.Coins - prev.Coins,
		Tickets:     p.GachaTickets - prev.GachaTickets,
		Description: "Сброс прогресса",
	})
	log.WithField("user_id", userID).Info("Прогресс сброшен")
	return p, nil
}

// History возвращает последние операции пользователя.
func (s *Service) History(ctx context.Context, userID int64, limit int) ([]progress.Transaction, error) {
	return s.repo.History(ctx, userID, limit)
}

// ReadChapter возвращает отрезок главы для чтения. Персонаж должен быть открыт.
// Пустой choiceID — начало главы, иначе продолжение после выбранного варианта.
func (s *Service) ReadChapter(ctx context.Context, userID int64, chapterID, choiceID string) (*Reading, error) {
	ch, chapter, ok := s.engine.Catalog().ChapterOwner(chapterID)
	if !ok {
		return nil, common.ErrUnknownEntity
	}
	p, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !p.UnlockedCharacters.Has(ch.ID) {
		return nil, common.ErrCharacterLocked
	}
	r := &Reading{
		Character: ch,
		Title:     chapter.Title,
		Content:   chapter.Content,
		Script:    chapter.Script,
		Completed: p.CompletedChapters.Has(chapter.ID),
		ChapterID: chapter.ID,
		Command:   "!читать " + chapter.ID,
	}
	return r, r.walk(choiceID)
}

// ReadExtra возвращает отрезок купленной экстра-главы.
func (s *Service) ReadExtra(ctx context.Context, userID int64, extraID, choiceID string) (*Reading, error) {
	ch, extra, ok := s.engine.Catalog().ExtraOwner(extraID)
	if !ok {
		return nil, common.ErrUnknownEntity
	}
	p, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !p.PurchasedExtraChapters.Has(extra.ID) {
		return nil, common.ErrCharacterLocked
	}
	r := &Reading{
		Character: ch,
		Title:     extra.Title,
		Content:   extra.Content,
		Script:    extra.Script,
		Command:   "!экстра " + extra.ID,
	}
	return r, r.walk(choiceID)
}

// walk выбирает отрезок диалога.
func (r *Reading) walk(choiceID string) error {
	if choiceID == "" {
		r.Passage = r.Script.Start()
		return nil
	}
	opt, passage, ok := r.Script.Choose(choiceID)
	if !ok {
		return common.ErrUnknownEntity
	}
	r.Choice = &opt
	r.Passage = passage
	return nil
}

// Gallery возвращает картинки из пройденных глав и купленных экстра-глав.
func (s *Service) Gallery(ctx context.Context, userID int64) ([]GalleryImage, error) {
	p, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	var out []GalleryImage
	for _, ch := range s.engine.Catalog().Characters() {
		for _, chapter := range ch.Chapters {
			if !p.CompletedChapters.Has(chapter.ID) {
				continue
			}
			for _, img := range chapter.Script.Images() {
				out = append(out, GalleryImage{Character: ch.Name, Source: chapter.Title, Image: img})
			}
		}
		for _, extra := range ch.ExtraChapters {
			if !p.PurchasedExtraChapters.Has(extra.ID) {
				continue
			}
			for _, img := range extra.Script.Images() {
				out = append(out, GalleryImage{Character: ch.Name, Source: extra.Title, Image: img})
			}
		}
	}
	return out, nil
}

// apply выполняет правило движка над записью пользователя и сохраняет результат.
// Итог движка, отличный от Applied, возвращается как ошибка из common.
func (s *Service) apply(
	ctx context.Context,
	userID int64,
	txType, target string,
	rule func(progress.UserProgress) (progress.UserProgress, engine.Result, error),
) (Receipt, error) {
	var res engine.Result
	next, err := s.repo.Update(ctx, userID, func(p progress.UserProgress) (progress.UserProgress, error) {
		var (
			n       progress.UserProgress
			ruleErr error
		)
		n, res, ruleErr = rule(p)
		return n, ruleErr
	})
	if err != nil {
		return Receipt{Result: res, Progress: next}, err
	}
	if err := res.Outcome.Err(); err != nil {
		return Receipt{Result: res, Progress: next}, err
	}

	s.repo.Record(ctx, progress.Transaction{
		UserID:      userID,
		Type:        txType,
		Target:      target,
		Coins:       res.CoinsDelta,
		Tickets:     res.TicketsDelta,
		Description: s.describe(txType, target, res),
	})

	logger := log.WithFields(log.Fields{
		"user_id": userID,
		"op":      txType,
		"target":  target,
		"coins":   res.CoinsDelta,
		"tickets": res.TicketsDelta,
	})
	if res.CompletedCharacter != "" {
		logger = logger.WithField("completed", res.CompletedCharacter)
	}
	logger.Info("Операция экономики выполнена")

	return Receipt{Result: res, Progress: next}, nil
}

// describe строит текст записи журнала.
func (s *Service) describe(txType, target string, res engine.Result) string {
	cat := s.engine.Catalog()
	var text string
	switch txType {
	case progress.TxUnlockCharacter:
		ch, _ := cat.Character(target)
		text = "Открыт персонаж " + ch.Name
	case progress.TxCompleteChapter:
		_, chapter, _ := cat.ChapterOwner(target)
		text = "Пройдена глава «" + chapter.Title + "»"
	case progress.TxPurchaseExtra:
		_, extra, _ := cat.ExtraOwner(target)
		text = "Куплена экстра-глава «" + extra.Title + "»"
	case progress.TxShopPackage:
		text = "Пакет монет " + target
	case progress.TxAdminGrant:
		text = "Начисление администратора"
	default:
		text = txType
	}
	if res.CompletedCharacter != "" {
		text += ", бонус за полное прохождение"
	}
	return text
}
