package store

import (
	"fmt"
	"time"
)

// DecayEvent is one applied decay batch: Cycles whole intervals were
// consumed and Points were deducted in total.
type DecayEvent struct {
	ID         int64  `json:"id"`
	CategoryID string `json:"categoryId"`
	StatName   string `json:"statName"`
	Points     int    `json:"points"`
	Cycles     int64  `json:"cycles"`
	AppliedAt  int64  `json:"appliedAt"` // unix millis
}

// RecordDecayEvent appends an event. AppliedAt defaults to now.
func (db *DB) RecordDecayEvent(ev *DecayEvent) error {
	if ev.AppliedAt == 0 {
		ev.AppliedAt = time.Now().UnixMilli()
	}
	result, err := db.Exec(`
		INSERT INTO decay_events (category_id, stat_name, points, cycles, applied_at)
		VALUES (?, ?, ?, ?, ?)
	`, ev.CategoryID, ev.StatName, ev.Points, ev.Cycles, ev.AppliedAt)
	if err != nil {
		return fmt.Errorf("record decay event: %w", err)
	}
	id, _ := result.LastInsertId()
	ev.ID = id
	return nil
}

// RecentDecayEvents returns the newest events first.
func (db *DB) RecentDecayEvents(limit int) ([]DecayEvent, error) {
	rows, err := db.Query(`
		SELECT id, category_id, stat_name, points, cycles, applied_at
		FROM decay_events ORDER BY applied_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent decay events: %w", err)
	}
	defer rows.Close()

	var events []DecayEvent
	for rows.Next() {
		var e DecayEvent
		if err := rows.Scan(&e.ID, &e.CategoryID, &e.StatName, &e.Points, &e.Cycles, &e.AppliedAt); err != nil {
			return nil, fmt.Errorf("scan decay event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// PruneDecayEvents keeps only the newest keep events and returns how many
// rows were removed.
func (db *DB) PruneDecayEvents(keep int) (int, error) {
	result, err := db.Exec(`
		DELETE FROM decay_events WHERE id NOT IN (
			SELECT id FROM decay_events ORDER BY applied_at DESC, id DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune decay events: %w", err)
	}
	n, _ := result.RowsAffected()
	return int(n), nil
}
