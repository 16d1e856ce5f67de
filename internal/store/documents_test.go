package store

import (
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGetDocumentMissing(t *testing.T) {
	db := testDB(t)

	v, ok, err := db.GetDocument(KeyCharacterSheet)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if ok {
		t.Errorf("ok = true for missing key, value %q", v)
	}
}

func TestPutGetDocument(t *testing.T) {
	db := testDB(t)

	if err := db.PutDocument(KeyActivityLog, []byte(`[{"id":"a"}]`)); err != nil {
		t.Fatalf("PutDocument: %v", err)
	}
	v, ok, err := db.GetDocument(KeyActivityLog)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if !ok {
		t.Fatal("ok = false after put")
	}
	if string(v) != `[{"id":"a"}]` {
		t.Errorf("value = %s", v)
	}
}

func TestPutDocumentOverwrites(t *testing.T) {
	db := testDB(t)

	db.PutDocument(KeyDecaySettings, []byte(`{}`))
	if err := db.PutDocument(KeyDecaySettings, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("second PutDocument: %v", err)
	}
	v, _, _ := db.GetDocument(KeyDecaySettings)
	if string(v) != `{"a":1}` {
		t.Errorf("value = %s, want overwritten", v)
	}

	var count int
	db.QueryRow(`SELECT COUNT(*) FROM kv_documents`).Scan(&count)
	if count != 1 {
		t.Errorf("rows = %d, want 1", count)
	}
}

func TestDeleteAndListDocuments(t *testing.T) {
	db := testDB(t)

	db.PutDocument(KeyCharacterSheet, []byte(`{}`))
	db.PutDocument(KeyActivityLog, []byte(`[]`))

	keys, err := db.ListDocumentKeys()
	if err != nil {
		t.Fatalf("ListDocumentKeys: %v", err)
	}
	if len(keys) != 2 || keys[0] != KeyActivityLog || keys[1] != KeyCharacterSheet {
		t.Errorf("keys = %v", keys)
	}

	if err := db.DeleteDocument(KeyActivityLog); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if err := db.DeleteDocument("never-written"); err != nil {
		t.Fatalf("DeleteDocument missing: %v", err)
	}
	if _, ok, _ := db.GetDocument(KeyActivityLog); ok {
		t.Error("document still present after delete")
	}
}

func TestDecayEventsHistory(t *testing.T) {
	db := testDB(t)

	for i := 1; i <= 5; i++ {
		ev := &DecayEvent{CategoryID: "mind", StatName: "Focus", Points: 3 * i, Cycles: int64(i), AppliedAt: int64(i * 1000)}
		if err := db.RecordDecayEvent(ev); err != nil {
			t.Fatalf("RecordDecayEvent: %v", err)
		}
		if ev.ID == 0 {
			t.Error("ID not set")
		}
	}

	events, err := db.RecentDecayEvents(3)
	if err != nil {
		t.Fatalf("RecentDecayEvents: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("len = %d, want 3", len(events))
	}
	if events[0].AppliedAt != 5000 || events[0].Points != 15 {
		t.Errorf("newest = %+v", events[0])
	}

	removed, err := db.PruneDecayEvents(2)
	if err != nil {
		t.Fatalf("PruneDecayEvents: %v", err)
	}
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}
	events, _ = db.RecentDecayEvents(10)
	if len(events) != 2 {
		t.Errorf("remaining = %d, want 2", len(events))
	}
}

func TestRecordDecayEventDefaultsTime(t *testing.T) {
	db := testDB(t)

	ev := &DecayEvent{CategoryID: "c", StatName: "s", Points: 1, Cycles: 1}
	if err := db.RecordDecayEvent(ev); err != nil {
		t.Fatalf("RecordDecayEvent: %v", err)
	}
	if ev.AppliedAt == 0 {
		t.Error("AppliedAt not defaulted")
	}
}
