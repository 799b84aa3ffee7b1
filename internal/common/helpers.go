// Package common содержит общие утилиты, используемые во всём проекте:
// ошибки, склонение числительных, часовой пояс и календарные дни.
package common

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// LoadLocation загружает часовой пояс по имени.
// Если tzdata недоступна (минимальный контейнер) — используем UTC+3.
func LoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.WithError(err).WithField("tz", name).Warn("Не удалось загрузить часовой пояс, используем UTC+3")
		return time.FixedZone("MSK", 3*60*60)
	}
	return loc
}

// Clock отдаёт текущее время в заданном часовом поясе.
// В тестах подменяется через Now.
type Clock struct {
	Loc *time.Location
	Now func() time.Time
}

// NewClock создаёт часы для часового пояса.
func NewClock(loc *time.Location) Clock {
	return Clock{Loc: loc, Now: time.Now}
}

// Time возвращает текущее время в часовом поясе часов.
func (c Clock) Time() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	if c.Loc == nil {
		return now()
	}
	return now().In(c.Loc)
}

// Today возвращает текущий календарный день.
func (c Clock) Today() Day { return DayOf(c.Time()) }

// FormatDateTime форматирует время как "02.01.2006 15:04".
func FormatDateTime(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format("02.01.2006 15:04")
}
