package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCatalog []byte

// document — корень YAML-файла каталога.
type document struct {
	Characters []Character   `yaml:"characters"`
	Cards      []GachaCard   `yaml:"cards"`
	Packages   []ShopPackage `yaml:"packages"`
}

// chapterRef и extraRef указывают на главу внутри персонажа.
type chapterRef struct{ char, chapter int }
type extraRef struct{ char, extra int }

// Catalog — загруженный и проверенный каталог. После создания не меняется,
// поэтому его можно разделять между горутинами без блокировок.
type Catalog struct {
	characters []Character
	cards      []GachaCard
	packages   []ShopPackage

	charByID    map[string]int
	chapterByID map[string]chapterRef
	extraByID   map[string]extraRef
	cardByID    map[string]int
	packageByID map[string]int
	byRarity    map[Rarity][]GachaCard
}

// Load читает каталог из YAML-файла. Пустой путь — встроенный каталог по умолчанию.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(defaultCatalog)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение каталога %s: %w", path, err)
	}
	return Parse(data)
}

// Parse разбирает YAML и строит каталог. Неизвестные поля считаются ошибкой.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("разбор каталога: %w", err)
	}
	return New(doc.Characters, doc.Cards, doc.Packages)
}

// New проверяет данные и строит индексы. Слайсы копируются.
func New(characters []Character, cards []GachaCard, packages []ShopPackage) (*Catalog, error) {
	c := &Catalog{
		characters:  append([]Character(nil), characters...),
		cards:       append([]GachaCard(nil), cards...),
		packages:    append([]ShopPackage(nil), packages...),
		charByID:    make(map[string]int),
		chapterByID: make(map[string]chapterRef),
		extraByID:   make(map[string]extraRef),
		cardByID:    make(map[string]int),
		packageByID: make(map[string]int),
		byRarity:    make(map[Rarity][]GachaCard),
	}

	for i, ch := range c.characters {
		c.charByID[ch.ID] = i
		for j, chapter := range ch.Chapters {
			c.chapterByID[chapter.ID] = chapterRef{i, j}
		}
		for j, extra := range ch.ExtraChapters {
			c.extraByID[extra.ID] = extraRef{i, j}
		}
	}
	for i := range c.cards {
		card := &c.cards[i]
		if card.CharacterName == "" {
			if idx, ok := c.charByID[card.CharacterID]; ok {
				card.CharacterName = c.characters[idx].Name
			}
		}
		c.cardByID[card.ID] = i
		c.byRarity[card.Rarity] = append(c.byRarity[card.Rarity], *card)
	}
	for i, p := range c.packages {
		c.packageByID[p.ID] = i
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// validate собирает все нарушения и возвращает их одной ошибкой.
func (c *Catalog) validate() error {
	var errs []string
	ids := make(map[string]string)
	claim := func(kind, id string) {
		if strings.TrimSpace(id) == "" {
			errs = append(errs, fmt.Sprintf("%s без id", kind))
			return
		}
		if prev, ok := ids[id]; ok {
			errs = append(errs, fmt.Sprintf("id %q используется дважды (%s и %s)", id, prev, kind))
			return
		}
		ids[id] = kind
	}

	for _, ch := range c.characters {
		claim("персонаж", ch.ID)
		if ch.UnlockCost < 0 {
			errs = append(errs, fmt.Sprintf("персонаж %q: отрицательная цена открытия", ch.ID))
		}
		for _, chapter := range ch.Chapters {
			claim("глава", chapter.ID)
			if chapter.Reward.Coins < 0 {
				errs = append(errs, fmt.Sprintf("глава %q: отрицательная награда", chapter.ID))
			}
			errs = append(errs, chapter.Script.validate("глава "+chapter.ID)...)
		}
		for _, extra := range ch.ExtraChapters {
			claim("экстра-глава", extra.ID)
			if extra.Cost < 0 {
				errs = append(errs, fmt.Sprintf("экстра-глава %q: отрицательная цена", extra.ID))
			}
			errs = append(errs, extra.Script.validate("экстра-глава "+extra.ID)...)
		}
	}

	for _, card := range c.cards {
		claim("карточка", card.ID)
		if !card.Rarity.Valid() {
			errs = append(errs, fmt.Sprintf("карточка %q: неизвестная редкость %q", card.ID, card.Rarity))
		}
		if _, ok := c.charByID[card.CharacterID]; !ok {
			errs = append(errs, fmt.Sprintf("карточка %q: нет персонажа %q", card.ID, card.CharacterID))
		}
	}
	for _, r := range Rarities {
		if len(c.byRarity[r]) == 0 {
			errs = append(errs, fmt.Sprintf("нет карточек редкости %s", r))
		}
	}

	for _, p := range c.packages {
		claim("пакет", p.ID)
		if p.Coins <= 0 {
			errs = append(errs, fmt.Sprintf("пакет %q: количество монет должно быть > 0", p.ID))
		}
	}

	if len(errs) > 0 {
		return errors.New("invalid catalog: " + strings.Join(errs, "; "))
	}
	return nil
}

// Списки отдаются копиями. Вложенные главы и диалоги общие с каталогом: только для чтения.

// Characters возвращает персонажей в порядке каталога.
func (c *Catalog) Characters() []Character { return slices.Clone(c.characters) }

// Cards возвращает все карточки.
func (c *Catalog) Cards() []GachaCard { return slices.Clone(c.cards) }

// Packages возвращает пакеты магазина.
func (c *Catalog) Packages() []ShopPackage { return slices.Clone(c.packages) }

// Character ищет персонажа по id.
func (c *Catalog) Character(id string) (Character, bool) {
	i, ok := c.charByID[id]
	if !ok {
		return Character{}, false
	}
	return c.characters[i], true
}

// ChapterOwner ищет главу и её персонажа.
func (c *Catalog) ChapterOwner(chapterID string) (Character, Chapter, bool) {
	ref, ok := c.chapterByID[chapterID]
	if !ok {
		return Character{}, Chapter{}, false
	}
	ch := c.characters[ref.char]
	return ch, ch.Chapters[ref.chapter], true
}

// ExtraOwner ищет экстра-главу и её персонажа.
func (c *Catalog) ExtraOwner(extraID string) (Character, ExtraChapter, bool) {
	ref, ok := c.extraByID[extraID]
	if !ok {
		return Character{}, ExtraChapter{}, false
	}
	ch := c.characters[ref.char]
	return ch, ch.ExtraChapters[ref.extra], true
}

// Card ищет карточку по id.
func (c *Catalog) Card(id string) (GachaCard, bool) {
	i, ok := c.cardByID[id]
	if !ok {
		return GachaCard{}, false
	}
	return c.cards[i], true
}

// CardsByRarity возвращает карточки одного уровня редкости в порядке каталога.
func (c *Catalog) CardsByRarity(r Rarity) []GachaCard { return slices.Clone(c.byRarity[r]) }

// Package ищет пакет магазина по id.
func (c *Catalog) Package(id string) (ShopPackage, bool) {
	i, ok := c.packageByID[id]
	if !ok {
		return ShopPackage{}, false
	}
	return c.packages[i], true
}
