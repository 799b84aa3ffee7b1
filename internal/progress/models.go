// Package progress хранит запись прогресса пользователя и всё, что нужно,
// чтобы её загрузить и сохранить: интерфейс Store, реализации для памяти,
// SQLite и PostgreSQL, и Repository с сериализацией записей одного пользователя.
package progress

import (
	"encoding/json"
	"slices"
	"time"

	"sensune.app/story-bot/internal/common"
)

// UserProgress — прогресс одного пользователя. Запись всегда читается и пишется целиком.
// Множества id только растут; сбросить их можно лишь полным сбросом прогресса.
type UserProgress struct {
	UserID                 int64      `json:"userId"`
	Coins                  int64      `json:"coins"`
	GachaTickets           int        `json:"gachaTickets"`
	UnlockedCharacters     IDSet      `json:"unlockedCharacters"`
	CompletedChapters      IDSet      `json:"completedChapters"`
	PurchasedExtraChapters IDSet      `json:"purchasedExtraChapters"`
	CompletedCharacters    IDSet      `json:"completedCharacters"`
	CollectedGachaCards    IDSet      `json:"collectedGachaCards"`
	CheckInStreak          int        `json:"checkInStreak"`
	LastCheckIn            common.Day `json:"lastCheckIn,omitempty"`
	UpdatedAt              time.Time  `json:"updatedAt"`
}

// New создаёт начальную запись с заданным стартовым балансом.
func New(userID int64, coins int64, tickets int) UserProgress {
	return UserProgress{
		UserID:                 userID,
		Coins:                  coins,
		GachaTickets:           tickets,
		UnlockedCharacters:     IDSet{},
		CompletedChapters:      IDSet{},
		PurchasedExtraChapters: IDSet{},
		CompletedCharacters:    IDSet{},
		CollectedGachaCards:    IDSet{},
	}
}

// Equal сравнивает состояние двух записей. UpdatedAt не учитывается.
func (p UserProgress) Equal(o UserProgress) bool {
	return p.UserID == o.UserID &&
		p.Coins == o.Coins &&
		p.GachaTickets == o.GachaTickets &&
		slices.Equal(p.UnlockedCharacters, o.UnlockedCharacters) &&
		slices.Equal(p.CompletedChapters, o.CompletedChapters) &&
		slices.Equal(p.PurchasedExtraChapters, o.PurchasedExtraChapters) &&
		slices.Equal(p.CompletedCharacters, o.CompletedCharacters) &&
		slices.Equal(p.CollectedGachaCards, o.CollectedGachaCards) &&
		p.CheckInStreak == o.CheckInStreak &&
		p.LastCheckIn == o.LastCheckIn
}

// IDSet — отсортированное множество строковых id без повторов.
// Значение никогда не меняется на месте: With возвращает новый срез,
// поэтому одну и ту же IDSet можно безопасно держать в нескольких записях.
type IDSet []string

// NewIDSet строит множество из произвольного списка.
func NewIDSet(ids ...string) IDSet {
	out := make(IDSet, 0, len(ids))
	out = append(out, ids...)
	slices.Sort(out)
	return slices.Compact(out)
}

// Has проверяет принадлежность id множеству.
func (s IDSet) Has(id string) bool {
	_, found := slices.BinarySearch(s, id)
	return found
}

// HasAll проверяет, что все id принадлежат множеству.
func (s IDSet) HasAll(ids []string) bool {
	for _, id := range ids {
		if !s.Has(id) {
			return false
		}
	}
	return true
}

// With возвращает новое множество с добавленными id. Исходное не меняется.
func (s IDSet) With(ids ...string) IDSet {
	out := make(IDSet, 0, len(s)+len(ids))
	out = append(out, s...)
	out = append(out, ids...)
	slices.Sort(out)
	return slices.Compact(out)
}

// MarshalJSON пишет пустое множество как [], а не null.
func (s IDSet) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(s))
}

// UnmarshalJSON нормализует входные данные: сортирует и убирает повторы.
func (s *IDSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewIDSet(ids...)
	return nil
}
