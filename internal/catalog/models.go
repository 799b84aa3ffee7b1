// Package catalog описывает неизменяемый каталог контента: персонажей,
// главы, экстра-главы, карточки гачи и пакеты магазина.
// Каталог загружается один раз при старте и дальше только читается.
package catalog

// Rarity — редкость карточки гачи. Уровни упорядочены: common < rare < epic < legendary.
type Rarity string

const (
	Common    Rarity = "common"
	Rare      Rarity = "rare"
	Epic      Rarity = "epic"
	Legendary Rarity = "legendary"
)

// Rarities — все уровни редкости от младшего к старшему.
var Rarities = []Rarity{Common, Rare, Epic, Legendary}

// Rank возвращает порядковый номер редкости (0 для common) или -1 для неизвестной.
func (r Rarity) Rank() int {
	for i, v := range Rarities {
		if v == r {
			return i
		}
	}
	return -1
}

// Valid сообщает, является ли значение одной из четырёх редкостей.
func (r Rarity) Valid() bool { return r.Rank() >= 0 }

// Title — название редкости для сообщений пользователю.
func (r Rarity) Title() string {
	switch r {
	case Common:
		return "обычная"
	case Rare:
		return "редкая"
	case Epic:
		return "эпическая"
	case Legendary:
		return "легендарная"
	}
	return string(r)
}

// Reward — награда за прохождение главы.
type Reward struct {
	Coins       int64 `yaml:"coins"`
	GachaTicket bool  `yaml:"gachaTicket"`
}

// Chapter — основная глава персонажа.
type Chapter struct {
	ID      string `yaml:"id"`
	Number  int    `yaml:"number"`
	Title   string `yaml:"title"`
	Content string `yaml:"content"`
	IsFinal bool   `yaml:"isFinal"`
	Reward  Reward `yaml:"reward"`
	Script  Script `yaml:"chat"`
}

// ExtraChapter — платная дополнительная глава без порядка относительно основных.
type ExtraChapter struct {
	ID      string `yaml:"id"`
	Title   string `yaml:"title"`
	Theme   string `yaml:"theme"`
	Cost    int64  `yaml:"cost"`
	Content string `yaml:"content"`
	Script  Script `yaml:"chat"`
}

// Character — персонаж с главами и экстра-главами.
type Character struct {
	ID            string         `yaml:"id"`
	Name          string         `yaml:"name"`
	Style         string         `yaml:"style"`
	Description   string         `yaml:"description"`
	UnlockCost    int64          `yaml:"unlockCost"`
	Chapters      []Chapter      `yaml:"chapters"`
	ExtraChapters []ExtraChapter `yaml:"extraChapters"`
}

// GachaCard — коллекционная карточка.
type GachaCard struct {
	ID            string `yaml:"id"`
	CharacterID   string `yaml:"characterId"`
	CharacterName string `yaml:"characterName"`
	Rarity        Rarity `yaml:"rarity"`
}

// ShopPackage — пакет монет в магазине. Price только отображается, оплата не проводится.
type ShopPackage struct {
	ID    string `yaml:"id"`
	Coins int64  `yaml:"coins"`
	Price string `yaml:"price"`
}
