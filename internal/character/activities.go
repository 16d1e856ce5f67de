package character

// LogActivity records an activity and adds points to every named stat in the
// category. Each stat receives the full amount. Names are normalized first.
// Stats that do not exist are skipped, but the entry is still recorded.
func (s *Store) LogActivity(description, categoryID string, stats []string, points int) ActivityLogEntry {
	entry := ActivityLogEntry{
		ID:       newID(),
		Date:     s.clock.Now().UTC(),
		Activity: description,
		Category: categoryID,
		Stat:     StatList(stats).Normalize(),
		Points:   points,
	}

	s.mu.Lock()
	s.log = append(s.log, entry)
	applied := false
	for _, stat := range entry.Stat {
		if s.updateStatLocked(categoryID, stat, points) {
			applied = true
		}
	}
	s.mu.Unlock()

	s.logChanged()
	if applied {
		s.sheetChanged()
	}
	s.emit(Event{Kind: ActivityLogged, CategoryID: categoryID, Stats: entry.Stat.clone(), Points: points})
	return entry.clone()
}

// EditActivity merges upd into the entry. The old points are first removed
// from the old stats, then the new points are added to the new stats, so a
// change to both stats and points never double counts.
func (s *Store) EditActivity(id string, upd ActivityUpdate) bool {
	s.mu.Lock()
	i := s.activityIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	old := s.log[i]
	for _, stat := range old.Stat {
		s.updateStatLocked(old.Category, stat, -old.Points)
	}

	merged := old.clone()
	if upd.Activity != nil {
		merged.Activity = *upd.Activity
	}
	if upd.Category != nil {
		merged.Category = *upd.Category
	}
	// A stat list with no usable names leaves the stats unchanged.
	if names := upd.Stat.Normalize(); len(names) > 0 {
		merged.Stat = names
	}
	if upd.Points != nil {
		merged.Points = *upd.Points
	}
	if upd.Date != nil {
		merged.Date = upd.Date.UTC()
	}
	for _, stat := range merged.Stat {
		s.updateStatLocked(merged.Category, stat, merged.Points)
	}
	s.log[i] = merged
	s.mu.Unlock()

	s.logChanged()
	s.sheetChanged()
	s.emit(Event{Kind: ActivityEdited, CategoryID: merged.Category, Stats: merged.Stat.clone(), Points: merged.Points})
	return true
}

// DeleteActivity removes the entry from the log. Points it contributed stay
// on the sheet: attribute values are a running ledger, not a sum of the log.
func (s *Store) DeleteActivity(id string) bool {
	s.mu.Lock()
	i := s.activityIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.log = append(s.log[:i:i], s.log[i+1:]...)
	s.mu.Unlock()

	s.logChanged()
	return true
}

func (s *Store) activityIndex(id string) int {
	for i := range s.log {
		if s.log[i].ID == id {
			return i
		}
	}
	return -1
}
