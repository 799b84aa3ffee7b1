// Package admin реализует админ-команды с парольной аутентификацией:
// выдачу монет, просмотр и сброс прогресса пользователей.
// models.go описывает сессии, попытки входа и состояние диалога.
package admin

import "time"

// Ограничения входа
const (
	MaxFailedAttempts = 3
	AttemptWindow     = time.Hour
	SessionTTL        = 24 * time.Hour
	StateTTL          = 5 * time.Minute
)

// Session — активная сессия администратора.
type Session struct {
	UserID          int64
	Token           string
	AuthenticatedAt time.Time
	ExpiresAt       time.Time
	LastActivity    time.Time
}

// LoginAttempt — попытка входа (для защиты от перебора).
type LoginAttempt struct {
	UserID      int64
	AttemptTime time.Time
	Success     bool
}

// State — шаг диалога с админом.
type State struct {
	Name string
	// TargetUserID — пользователь, над которым выполняется действие
	TargetUserID int64
	ExpiresAt    time.Time
}

// Возможные шаги диалога
const (
	StateNone             = ""
	StateAwaitingPassword = "awaiting_password"
	StateConfirmReset     = "confirm_reset"
)
