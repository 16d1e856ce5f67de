package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Fixed document keys. Each holds one whole JSON document.
const (
	KeyCharacterSheet = "characterSheet"
	KeyActivityLog    = "activityLog"
	KeyDecaySettings  = "decaySettings"
)

// GetDocument returns the raw value stored under key. ok is false when
// nothing has been written under that key yet.
func (db *DB) GetDocument(key string) (value []byte, ok bool, err error) {
	var s string
	err = db.QueryRow(`SELECT value FROM kv_documents WHERE key = ?`, key).Scan(&s)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get document %s: %w", key, err)
	}
	return []byte(s), true, nil
}

// PutDocument replaces the value stored under key.
func (db *DB) PutDocument(key string, value []byte) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO kv_documents (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, string(value), now)
	if err != nil {
		return fmt.Errorf("put document %s: %w", key, err)
	}
	return nil
}

// DeleteDocument removes key. Deleting a missing key is not an error.
func (db *DB) DeleteDocument(key string) error {
	if _, err := db.Exec(`DELETE FROM kv_documents WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete document %s: %w", key, err)
	}
	return nil
}

// ListDocumentKeys returns every stored key in lexical order.
func (db *DB) ListDocumentKeys() ([]string, error) {
	rows, err := db.Query(`SELECT key FROM kv_documents ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list document keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan document key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
