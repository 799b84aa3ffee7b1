package common

import "time"

// DayLayout — формат календарного дня в записях прогресса.
const DayLayout = "2006-01-02"

// Day — календарный день без времени ("2006-01-02"). Пустое значение — «никогда».
type Day string

// DayOf берёт дату из времени в его собственном часовом поясе.
func DayOf(t time.Time) Day { return Day(t.Format(DayLayout)) }

// IsZero сообщает, что день не задан.
func (d Day) IsZero() bool { return d == "" }

// Time разбирает день в полночь UTC.
func (d Day) Time() (time.Time, error) { return time.Parse(DayLayout, string(d)) }

// Prev возвращает предыдущий день. Для пустого или некорректного дня — пустой.
func (d Day) Prev() Day {
	t, err := d.Time()
	if err != nil {
		return ""
	}
	return DayOf(t.AddDate(0, 0, -1))
}

// String нужен для логов.
func (d Day) String() string { return string(d) }
