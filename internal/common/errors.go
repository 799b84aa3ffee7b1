// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Обработчики сравнивают их через errors.Is и отвечают понятным текстом.
package common

import "errors"

// Ошибки экономики
var (
	// ErrInsufficientCoins — не хватает монет
	ErrInsufficientCoins = errors.New("недостаточно монет")
	// ErrInvalidAmount — некорректная сумма (ноль или отрицательная)
	ErrInvalidAmount = errors.New("сумма должна быть положительной")
	// ErrUnknownEntity — персонаж, глава, экстра или пакет не найдены в каталоге
	ErrUnknownEntity = errors.New("не найдено в каталоге")
	// ErrAlreadyDone — действие уже было выполнено раньше
	ErrAlreadyDone = errors.New("уже выполнено")
	// ErrCharacterLocked — персонаж ещё не открыт
	ErrCharacterLocked = errors.New("персонаж ещё не открыт")
)

// Ошибки гачи
var (
	// ErrInvalidRollCount — недопустимое число круток
	ErrInvalidRollCount = errors.New("можно крутить 1 или 10 раз")
	// ErrGachaDisabled — гача отключена в настройках
	ErrGachaDisabled = errors.New("гача временно отключена")
)

// Ошибки админки
var (
	// ErrNotAdmin — пользователь не является администратором
	ErrNotAdmin = errors.New("у вас нет прав администратора")
	// ErrWrongPassword — неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrTooManyAttempts — слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("слишком много попыток, подождите 1 час")
	// ErrSessionExpired — сессия истекла
	ErrSessionExpired = errors.New("сессия истекла, авторизуйтесь заново")
)
