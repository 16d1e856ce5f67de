package character

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// BaseScore is the score of a category with no attribute points.
const BaseScore = 10

// Attribute is a named stat inside a category. Value is a signed running
// ledger and may go negative.
type Attribute struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Category groups attributes. Score is always BaseScore plus the sum of
// all attribute values.
type Category struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Icon        string      `json:"icon"`
	Gradient    [2]string   `json:"gradient"`
	Score       int         `json:"score"`
	Stats       []Attribute `json:"stats"`
}

// Stat returns the attribute with the given name.
func (c *Category) Stat(name string) (Attribute, bool) {
	if i := c.statIndex(name); i >= 0 {
		return c.Stats[i], true
	}
	return Attribute{}, false
}

func (c *Category) statIndex(name string) int {
	for i := range c.Stats {
		if c.Stats[i].Name == name {
			return i
		}
	}
	return -1
}

func (c *Category) recomputeScore() {
	score := BaseScore
	for _, a := range c.Stats {
		score += a.Value
	}
	c.Score = score
}

func (c *Category) clone() *Category {
	cp := *c
	cp.Stats = append([]Attribute(nil), c.Stats...)
	return &cp
}

// CharacterSheet is the root aggregate. Categories are keyed by id and
// iterate in insertion order, which is display order.
type CharacterSheet struct {
	Categories *orderedmap.OrderedMap[string, *Category] `json:"categories"`
}

// NewCharacterSheet returns an empty sheet.
func NewCharacterSheet() *CharacterSheet {
	return &CharacterSheet{Categories: orderedmap.New[string, *Category]()}
}

// Category returns the category with the given id.
func (s *CharacterSheet) Category(id string) (*Category, bool) {
	return s.Categories.Get(id)
}

// List returns the categories in display order.
func (s *CharacterSheet) List() []Category {
	out := make([]Category, 0, s.Categories.Len())
	for pair := s.Categories.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, *pair.Value.clone())
	}
	return out
}

// Clone returns a deep copy.
func (s *CharacterSheet) Clone() *CharacterSheet {
	cp := NewCharacterSheet()
	for pair := s.Categories.Oldest(); pair != nil; pair = pair.Next() {
		cp.Categories.Set(pair.Key, pair.Value.clone())
	}
	return cp
}

// UnmarshalJSON tolerates a missing categories object.
func (s *CharacterSheet) UnmarshalJSON(data []byte) error {
	var raw struct {
		Categories *orderedmap.OrderedMap[string, *Category] `json:"categories"`
	}
	raw.Categories = orderedmap.New[string, *Category]()
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Categories == nil {
		raw.Categories = orderedmap.New[string, *Category]()
	}
	s.Categories = raw.Categories
	return nil
}

// StatList holds the attribute names an activity applies to. It decodes from
// either a single JSON string or an array of strings, and encodes a single
// name back as a plain string.
type StatList []string

func (l StatList) MarshalJSON() ([]byte, error) {
	if len(l) == 1 {
		return json.Marshal(l[0])
	}
	return json.Marshal([]string(l))
}

// UnmarshalJSON leaves l unchanged for a JSON null.
func (l *StatList) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*l = StatList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("stat must be a string or a list of strings: %w", err)
	}
	*l = StatList(many)
	return nil
}

// Normalize trims every name and drops blanks and repeats. The first
// occurrence of a name keeps its position.
func (l StatList) Normalize() StatList {
	out := make(StatList, 0, len(l))
	seen := make(map[string]bool, len(l))
	for _, name := range l {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

func (l StatList) clone() []string {
	return append([]string(nil), l...)
}

// ActivityLogEntry records one logged activity. Points were applied in full
// to every stat in Stat within Category.
type ActivityLogEntry struct {
	ID       string    `json:"id"`
	Date     time.Time `json:"date"`
	Activity string    `json:"activity"`
	Category string    `json:"category"`
	Stat     StatList  `json:"stat"`
	Points   int       `json:"points"`
}

func (e ActivityLogEntry) clone() ActivityLogEntry {
	e.Stat = e.Stat.clone()
	return e
}

// NewCategory is the input to AddCategory.
type NewCategory struct {
	Name        string
	Description string
	Icon        string
	Gradient    [2]string
	Stats       []Attribute
}

// CategoryUpdate is a partial update. Nil fields are left unchanged; a
// non-nil Stats replaces the whole attribute list.
type CategoryUpdate struct {
	Name        *string
	Description *string
	Icon        *string
	Gradient    *[2]string
	Stats       []Attribute
}

// ActivityUpdate is a partial update of a log entry. Nil fields are left
// unchanged.
type ActivityUpdate struct {
	Activity *string
	Category *string
	Stat     StatList
	Points   *int
	Date     *time.Time
}
