package catalog

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Line — одна реплика диалога главы. Реализации: CharacterLine, UserLine, ChoiceBranch.
type Line interface {
	lineID() string
}

// CharacterLine — реплика персонажа. Image, если задан, открывает картинку в галерее.
type CharacterLine struct {
	ID    string
	Text  string
	Image string
}

// UserLine — реплика пользователя.
type UserLine struct {
	ID   string
	Text string
}

// ChoiceBranch — развилка, где пользователь выбирает один из вариантов.
type ChoiceBranch struct {
	ID      string
	Options []Choice
}

// Choice — вариант ответа. Next указывает id реплики, к которой ведёт выбор.
type Choice struct {
	ID   string `yaml:"id"`
	Text string `yaml:"text"`
	Next string `yaml:"next"`
}

func (l CharacterLine) lineID() string { return l.ID }
func (l UserLine) lineID() string      { return l.ID }
func (l ChoiceBranch) lineID() string  { return l.ID }

// Теги реплик в YAML
const (
	lineCharacter = "character"
	lineUser      = "user"
	lineChoice    = "choice"
)

// Script — упорядоченный диалог главы.
type Script []Line

// rawLine — форма реплики в YAML до разбора по типу.
type rawLine struct {
	Type    string   `yaml:"type"`
	ID      string   `yaml:"id"`
	Text    string   `yaml:"text"`
	Image   string   `yaml:"image"`
	Options []Choice `yaml:"options"`
}

// UnmarshalYAML превращает список реплик с полем type в конкретные варианты Line.
func (s *Script) UnmarshalYAML(node *yaml.Node) error {
	var raw []rawLine
	if err := node.Decode(&raw); err != nil {
		return err
	}

	out := make(Script, 0, len(raw))
	for i, r := range raw {
		switch r.Type {
		case lineCharacter:
			out = append(out, CharacterLine{ID: r.ID, Text: r.Text, Image: r.Image})
		case lineUser:
			out = append(out, UserLine{ID: r.ID, Text: r.Text})
		case lineChoice:
			out = append(out, ChoiceBranch{ID: r.ID, Options: r.Options})
		default:
			return fmt.Errorf("реплика %d (%q): неизвестный тип %q", i, r.ID, r.Type)
		}
	}
	*s = out
	return nil
}

// Find возвращает реплику по id.
func (s Script) Find(id string) (Line, bool) {
	for _, l := range s {
		if l.lineID() == id {
			return l, true
		}
	}
	return nil, false
}

// Images возвращает картинки, которые открывает диалог, в порядке появления.
func (s Script) Images() []string { return images(s) }

func images(lines []Line) []string {
	var out []string
	for _, l := range lines {
		if cl, ok := l.(CharacterLine); ok && cl.Image != "" {
			out = append(out, cl.Image)
		}
	}
	return out
}

// Passage — отрезок диалога до ближайшей развилки или до конца.
type Passage struct {
	Lines []Line
	// Branch — развилка, на которой отрезок остановился. nil, если диалог закончился.
	Branch *ChoiceBranch
}

// Images возвращает картинки, открытые в этом отрезке.
func (p Passage) Images() []string { return images(p.Lines) }

// Start возвращает первый отрезок диалога.
func (s Script) Start() Passage { return s.passage(0, nil) }

// Choose продолжает диалог после выбора варианта choiceID.
// Отрезок начинается с реплики opt.Next и не заходит в ветки других вариантов той же развилки.
// Вариант без Next продолжает диалог со следующей после развилки реплики.
func (s Script) Choose(choiceID string) (Choice, Passage, bool) {
	for i, l := range s {
		cb, ok := l.(ChoiceBranch)
		if !ok {
			continue
		}
		for _, opt := range cb.Options {
			if opt.ID != choiceID {
				continue
			}
			stop := make(map[string]bool, len(cb.Options))
			for _, other := range cb.Options {
				if other.ID != opt.ID && other.Next != "" && other.Next != opt.Next {
					stop[other.Next] = true
				}
			}
			from := i + 1
			if opt.Next != "" {
				from = s.index(opt.Next)
				if from < 0 {
					return Choice{}, Passage{}, false
				}
			}
			return opt, s.passage(from, stop), true
		}
	}
	return Choice{}, Passage{}, false
}

func (s Script) index(id string) int {
	for i, l := range s {
		if l.lineID() == id {
			return i
		}
	}
	return -1
}

// passage собирает реплики начиная с from до развилки, конца диалога
// или реплики из stop (начала чужой ветки).
func (s Script) passage(from int, stop map[string]bool) Passage {
	var p Passage
	for i := from; i < len(s); i++ {
		l := s[i]
		if i > from && stop[l.lineID()] {
			break
		}
		if cb, ok := l.(ChoiceBranch); ok {
			p.Branch = &cb
			break
		}
		p.Lines = append(p.Lines, l)
	}
	return p
}

func (s Script) validate(owner string) []string {
	var errs []string
	seen := make(map[string]bool, len(s))
	for _, l := range s {
		if id := l.lineID(); id != "" {
			if seen[id] {
				errs = append(errs, fmt.Sprintf("%s: повтор id реплики %q", owner, id))
			}
			seen[id] = true
		}
	}
	for _, l := range s {
		cb, ok := l.(ChoiceBranch)
		if !ok {
			continue
		}
		if len(cb.Options) == 0 {
			errs = append(errs, fmt.Sprintf("%s: развилка %q без вариантов", owner, cb.ID))
		}
		for _, opt := range cb.Options {
			if opt.Next != "" && !seen[opt.Next] {
				errs = append(errs, fmt.Sprintf("%s: вариант %q ведёт к несуществующей реплике %q", owner, opt.ID, opt.Next))
			}
		}
	}
	return errs
}
