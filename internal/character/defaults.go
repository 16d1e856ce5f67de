package character

type defaultCategory struct {
	id          string
	name        string
	description string
	icon        string
	gradient    [2]string
	stats       []string
}

var defaultCategories = []defaultCategory{
	{"physical", "Physical", "Body, fitness and health", "dumbbell", [2]string{"#ef4444", "#f97316"}, []string{"Strength", "Endurance", "Flexibility"}},
	{"mind", "Mind", "Focus, learning and creative work", "brain", [2]string{"#3b82f6", "#8b5cf6"}, []string{"Focus", "Learning", "Creativity"}},
	{"social", "Social", "Relationships and communication", "users", [2]string{"#10b981", "#14b8a6"}, []string{"Connection", "Empathy", "Communication"}},
}

// DefaultSheet is the sheet a first launch starts from. Every attribute
// starts at zero, so every category starts at BaseScore.
func DefaultSheet() *CharacterSheet {
	sheet := NewCharacterSheet()
	for _, d := range defaultCategories {
		c := &Category{
			ID:          d.id,
			Name:        d.name,
			Description: d.description,
			Icon:        d.icon,
			Gradient:    d.gradient,
		}
		for _, name := range d.stats {
			c.Stats = append(c.Stats, Attribute{Name: name})
		}
		c.recomputeScore()
		sheet.Categories.Set(c.ID, c)
	}
	return sheet
}
