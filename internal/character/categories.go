package character

import "strings"

// UpdateStat adds delta to the named attribute and recomputes the category
// score. A missing category or attribute is a silent no-op and reports false.
// UpdateStat emits no events.
func (s *Store) UpdateStat(categoryID, statName string, delta int) bool {
	s.mu.Lock()
	ok := s.updateStatLocked(categoryID, statName, delta)
	s.mu.Unlock()

	if ok {
		s.sheetChanged()
	}
	return ok
}

func (s *Store) updateStatLocked(categoryID, statName string, delta int) bool {
	c, ok := s.sheet.Category(categoryID)
	if !ok {
		return false
	}
	i := c.statIndex(statName)
	if i < 0 {
		return false
	}
	c.Stats[i].Value += delta
	c.recomputeScore()
	return true
}

// AddCategory stores a new category and returns its generated id.
func (s *Store) AddCategory(nc NewCategory) string {
	c := &Category{
		ID:          newID(),
		Name:        nc.Name,
		Description: nc.Description,
		Icon:        nc.Icon,
		Gradient:    nc.Gradient,
		Stats:       normalizeStats(nc.Stats),
	}
	c.recomputeScore()

	s.mu.Lock()
	s.sheet.Categories.Set(c.ID, c)
	s.mu.Unlock()

	s.sheetChanged()
	s.emit(Event{Kind: CategoryAdded, CategoryID: c.ID})
	return c.ID
}

// UpdateCategory applies a partial update. It reports false for an unknown id.
func (s *Store) UpdateCategory(id string, upd CategoryUpdate) bool {
	s.mu.Lock()
	c, ok := s.sheet.Category(id)
	if !ok {
		s.mu.Unlock()
		return false
	}
	if upd.Name != nil {
		c.Name = *upd.Name
	}
	if upd.Description != nil {
		c.Description = *upd.Description
	}
	if upd.Icon != nil {
		c.Icon = *upd.Icon
	}
	if upd.Gradient != nil {
		c.Gradient = *upd.Gradient
	}
	if upd.Stats != nil {
		c.Stats = normalizeStats(upd.Stats)
	}
	c.recomputeScore()
	s.mu.Unlock()

	s.sheetChanged()
	s.emit(Event{Kind: CategoryUpdated, CategoryID: id})
	return true
}

// DeleteCategory removes the category. Activity entries and decay settings
// that reference it are left in place.
func (s *Store) DeleteCategory(id string) bool {
	s.mu.Lock()
	_, ok := s.sheet.Categories.Delete(id)
	s.mu.Unlock()
	if !ok {
		return false
	}

	s.sheetChanged()
	s.emit(Event{Kind: CategoryDeleted, CategoryID: id})
	return true
}

// AddStat appends a zero-valued attribute. It reports false if the category
// is missing, the name is blank, or the attribute already exists.
func (s *Store) AddStat(categoryID, name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	return s.editStats(categoryID, func(c *Category) bool {
		if c.statIndex(name) >= 0 {
			return false
		}
		c.Stats = append(c.Stats, Attribute{Name: name})
		return true
	})
}

// RenameStat renames an attribute, keeping its value. Decay settings are keyed
// by name, so a setting for the old name no longer matches anything.
func (s *Store) RenameStat(categoryID, oldName, newName string) bool {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return false
	}
	return s.editStats(categoryID, func(c *Category) bool {
		i := c.statIndex(oldName)
		if i < 0 || (newName != oldName && c.statIndex(newName) >= 0) {
			return false
		}
		c.Stats[i].Name = newName
		return true
	})
}

// RemoveStat deletes an attribute; its points leave the category score.
func (s *Store) RemoveStat(categoryID, name string) bool {
	return s.editStats(categoryID, func(c *Category) bool {
		i := c.statIndex(name)
		if i < 0 {
			return false
		}
		c.Stats = append(c.Stats[:i:i], c.Stats[i+1:]...)
		return true
	})
}

func (s *Store) editStats(categoryID string, fn func(*Category) bool) bool {
	s.mu.Lock()
	c, ok := s.sheet.Category(categoryID)
	if !ok || !fn(c) {
		s.mu.Unlock()
		return false
	}
	c.recomputeScore()
	s.mu.Unlock()

	s.sheetChanged()
	s.emit(Event{Kind: CategoryUpdated, CategoryID: categoryID})
	return true
}

// normalizeStats trims names and drops blanks and duplicates; the first
// occurrence of a name wins.
func normalizeStats(in []Attribute) []Attribute {
	out := make([]Attribute, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, a := range in {
		a.Name = strings.TrimSpace(a.Name)
		if a.Name == "" || seen[a.Name] {
			continue
		}
		seen[a.Name] = true
		out = append(out, a)
	}
	return out
}
