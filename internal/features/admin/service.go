// Package admin — service.go содержит вход по паролю, сессии
// и действия администратора над прогрессом пользователей.
package admin

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"sensune.app/story-bot/internal/common"
	"sensune.app/story-bot/internal/config"
	"sensune.app/story-bot/internal/features/economy"
	"sensune.app/story-bot/internal/progress"
)

// Service управляет админ-доступом.
type Service struct {
	repo     Repository
	economy  *economy.Service
	cfg      *config.Config
	now      func() time.Time
	states   map[int64]State
	statesMu sync.Mutex
}

// NewService создаёт сервис админки.
func NewService(repo Repository, economyService *economy.Service, cfg *config.Config) *Service {
	return &Service{
		repo:    repo,
		economy: economyService,
		cfg:     cfg,
		now:     time.Now,
		states:  make(map[int64]State),
	}
}

// IsAdmin — пользователь указан в ADMIN_IDS.
func (s *Service) IsAdmin(userID int64) bool { return s.cfg.IsAdmin(userID) }

// Login проверяет пароль и открывает сессию на SessionTTL.
// После MaxFailedAttempts неудач за AttemptWindow вход блокируется.
func (s *Service) Login(ctx context.Context, userID int64, password string) error {
	if !s.IsAdmin(userID) {
		return common.ErrNotAdmin
	}
	now := s.now()

	failed, err := s.repo.FailedAttemptsSince(ctx, userID, now.Add(-AttemptWindow))
	if err != nil {
		return fmt.Errorf("ошибка проверки попыток: %w", err)
	}
	if failed >= MaxFailedAttempts {
		return common.ErrTooManyAttempts
	}

	match := verifyArgon2id(password, s.cfg.AdminPasswordHash)
	if err := s.repo.LogAttempt(ctx, LoginAttempt{UserID: userID, AttemptTime: now, Success: match}); err != nil {
		log.WithError(err).Warn("Не удалось записать попытку входа")
	}
	if !match {
		log.WithFields(log.Fields{"user_id": userID, "failed": failed + 1}).Warn("Неверный пароль администратора")
		return common.ErrWrongPassword
	}

	session := Session{
		UserID:          userID,
		Token:           generateSecureToken(),
		AuthenticatedAt: now,
		ExpiresAt:       now.Add(SessionTTL),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return err
	}
	log.WithField("user_id", userID).Info("Администратор вошёл")
	return nil
}

// Logout закрывает все сессии пользователя.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	s.ClearState(userID)
	return s.repo.DeactivateSessions(ctx, userID)
}

// authorize проверяет, что пользователь — админ с живой сессией.
func (s *Service) authorize(ctx context.Context, userID int64) error {
	if !s.IsAdmin(userID) {
		return common.ErrNotAdmin
	}
	now := s.now()
	if _, err := s.repo.ActiveSession(ctx, userID, now); err != nil {
		if errors.Is(err, ErrNoSession) {
			return common.ErrSessionExpired
		}
		return err
	}
	if err := s.repo.TouchSession(ctx, userID, now); err != nil {
		log.WithError(err).Debug("Не удалось обновить активность сессии")
	}
	return nil
}

// HasActiveSession сообщает, может ли пользователь выполнять админ-команды.
func (s *Service) HasActiveSession(ctx context.Context, userID int64) bool {
	return s.authorize(ctx, userID) == nil
}

// GrantCoins начисляет монеты пользователю.
func (s *Service) GrantCoins(ctx context.Context, adminID, userID, amount int64) (economy.Receipt, error) {
	if err := s.authorize(ctx, adminID); err != nil {
		return economy.Receipt{}, err
	}
	rec, err := s.economy.Credit(ctx, userID, amount, fmt.Sprintf("admin:%d", adminID))
	if err != nil {
		return rec, err
	}
	log.WithFields(log.Fields{"admin_id": adminID, "user_id": userID, "amount": amount}).Info("Админ начислил монеты")
	return rec, nil
}

// Inspect возвращает профиль пользователя.
func (s *Service) Inspect(ctx context.Context, adminID, userID int64) (*economy.Profile, error) {
	if err := s.authorize(ctx, adminID); err != nil {
		return nil, err
	}
	return s.economy.Profile(ctx, userID)
}

// History возвращает последние операции пользователя из журнала.
func (s *Service) History(ctx context.Context, adminID, userID int64, limit int) ([]progress.Transaction, error) {
	if err := s.authorize(ctx, adminID); err != nil {
		return nil, err
	}
	return s.economy.History(ctx, userID, limit)
}

// ResetUser сбрасывает прогресс пользователя.
func (s *Service) ResetUser(ctx context.Context, adminID, userID int64) (progress.UserProgress, error) {
	if err := s.authorize(ctx, adminID); err != nil {
		return progress.UserProgress{}, err
	}
	p, err := s.economy.Reset(ctx, userID)
	if err != nil {
		return p, err
	}
	log.WithFields(log.Fields{"admin_id": adminID, "user_id": userID}).Warn("Админ сбросил прогресс")
	return p, nil
}

// GetState возвращает текущий шаг диалога, если он не истёк.
func (s *Service) GetState(userID int64) (State, bool) {
	s.statesMu.Lock()
	defer s.statesMu.Unlock()

	st, ok := s.states[userID]
	if !ok {
		return State{}, false
	}
	if s.now().After(st.ExpiresAt) {
		delete(s.states, userID)
		return State{}, false
	}
	return st, true
}

// SetState устанавливает шаг диалога на StateTTL.
func (s *Service) SetState(userID int64, name string, target int64) {
	s.statesMu.Lock()
	defer s.statesMu.Unlock()
	s.states[userID] = State{Name: name, TargetUserID: target, ExpiresAt: s.now().Add(StateTTL)}
}

// ClearState сбрасывает шаг диалога.
func (s *Service) ClearState(userID int64) {
	s.statesMu.Lock()
	defer s.statesMu.Unlock()
	delete(s.states, userID)
}
