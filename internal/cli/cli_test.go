package cli

import (
	"bytes"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmccallister93/Daily-Digits/internal/character"
	"github.com/jmccallister93/Daily-Digits/internal/decay"
	"github.com/jmccallister93/Daily-Digits/internal/notify"
	"github.com/jmccallister93/Daily-Digits/internal/server"
	"github.com/jmccallister93/Daily-Digits/internal/store"
)

func liveServer(t *testing.T) (string, *character.Store) {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	chars := character.New(db)
	chars.Load()
	feed := notify.NewFeed(10, nil)
	sched := decay.New(chars, db, feed, decay.WithHistory(db))
	chars.Subscribe(sched.HandleEvent)
	sched.Load()

	ts := httptest.NewServer(server.New(db, chars, sched, feed, "test"))
	t.Cleanup(func() {
		ts.Close()
		sched.Close()
		chars.Close()
		db.Close()
	})
	return ts.URL, chars
}

func run(t *testing.T, url string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--server", url}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestStatusShowsDefaultSheet(t *testing.T) {
	url, _ := liveServer(t)

	out, err := run(t, url, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, want := range []string{"Physical", "Mind", "Social", "Strength", "Communication"} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}
}

func TestLogCreditsEveryStat(t *testing.T) {
	url, chars := liveServer(t)

	out, err := run(t, url, "log", "morning run", "--category", "physical", "--stat", "Strength", "--stat", "Endurance", "--points", "2")
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	if !strings.Contains(out, "morning run") {
		t.Errorf("log output = %q", out)
	}

	cat, _ := chars.Category("physical")
	if cat.Score != 14 {
		t.Errorf("physical score = %d, want 14", cat.Score)
	}

	out, err = run(t, url, "activity", "list", "--limit", "5")
	if err != nil {
		t.Fatalf("activity list: %v", err)
	}
	if !strings.Contains(out, "morning run") {
		t.Errorf("activity list output = %q", out)
	}
}

func TestStatAdjustAndRename(t *testing.T) {
	url, chars := liveServer(t)

	if _, err := run(t, url, "stat", "adjust", "mind", "Focus", "--", "-3"); err != nil {
		t.Fatalf("stat adjust: %v", err)
	}
	if _, err := run(t, url, "stat", "rename", "mind", "Focus", "Attention"); err != nil {
		t.Fatalf("stat rename: %v", err)
	}

	cat, _ := chars.Category("mind")
	a, ok := cat.Stat("Attention")
	if !ok || a.Value != -3 {
		t.Errorf("Attention = %+v, %v; want -3", a, ok)
	}
	if cat.Score != 7 {
		t.Errorf("mind score = %d, want 7", cat.Score)
	}

	if _, err := run(t, url, "stat", "adjust", "mind", "Attention", "lots"); err == nil {
		t.Error("non-integer delta accepted")
	}
}

func TestDecayCommands(t *testing.T) {
	url, _ := liveServer(t)

	out, err := run(t, url, "decay", "set", "social", "Empathy", "--points", "2", "--every", "3", "--unit", "days")
	if err != nil {
		t.Fatalf("decay set: %v", err)
	}
	if !strings.Contains(out, "social-Empathy") || !strings.Contains(out, "enabled") {
		t.Errorf("decay set output = %q", out)
	}

	if out, err = run(t, url, "decay", "disable", "social", "Empathy"); err != nil {
		t.Fatalf("decay disable: %v", err)
	}
	if !strings.Contains(out, "disabled") {
		t.Errorf("decay disable output = %q", out)
	}

	if out, err = run(t, url, "decay", "next", "social", "Empathy"); err != nil {
		t.Fatalf("decay next: %v", err)
	}
	if !strings.Contains(out, "disabled") {
		t.Errorf("decay next output = %q", out)
	}

	if out, err = run(t, url, "decay", "reconcile"); err != nil {
		t.Fatalf("decay reconcile: %v", err)
	}
	if !strings.Contains(out, "nothing due") {
		t.Errorf("decay reconcile output = %q", out)
	}

	if _, err = run(t, url, "decay", "remove", "social", "Empathy"); err != nil {
		t.Fatalf("decay remove: %v", err)
	}
	if out, err = run(t, url, "decay", "next", "social", "Empathy"); err != nil {
		t.Fatalf("decay next after remove: %v", err)
	}
	if !strings.Contains(out, "no decay configured") {
		t.Errorf("decay next output = %q", out)
	}
}

func TestDecaySetRejectsBadUnit(t *testing.T) {
	url, _ := liveServer(t)

	_, err := run(t, url, "decay", "set", "social", "Empathy", "--unit", "weeks")
	if err == nil {
		t.Fatal("unit weeks accepted")
	}
	if !strings.Contains(err.Error(), "400") {
		t.Errorf("err = %v, want a 400", err)
	}
}

func TestCategoryAddRejectsLongGradient(t *testing.T) {
	url, _ := liveServer(t)

	if _, err := run(t, url, "category", "add", "Craft", "--gradient", "#a,#b,#c"); err == nil {
		t.Error("three-color gradient accepted")
	}
}

func TestDataKeysAndReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "digits.db")
	t.Setenv("DIGITS_DB", path)

	db, err := store.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	chars := character.New(db)
	chars.Load()
	chars.Close()
	if err := db.RecordDecayEvent(&store.DecayEvent{CategoryID: "mind", StatName: "Focus", Points: 1, Cycles: 1}); err != nil {
		t.Fatalf("RecordDecayEvent: %v", err)
	}
	db.Close()

	out, err := run(t, "", "data", "keys")
	if err != nil {
		t.Fatalf("data keys: %v", err)
	}
	if !strings.Contains(out, store.KeyCharacterSheet) {
		t.Errorf("data keys output = %q", out)
	}

	if _, err := run(t, "", "data", "reset"); err == nil {
		t.Error("reset without --yes succeeded")
	}
	if _, err := run(t, "", "data", "reset", "--yes"); err != nil {
		t.Fatalf("data reset: %v", err)
	}

	db, err = store.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	keys, err := db.ListDocumentKeys()
	if err != nil || len(keys) != 0 {
		t.Errorf("keys after reset = %v, %v", keys, err)
	}
	events, err := db.RecentDecayEvents(10)
	if err != nil || len(events) != 0 {
		t.Errorf("events after reset = %v, %v", events, err)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "digits ") || !strings.Contains(out, "commit: "+Commit) {
		t.Errorf("version output = %q", out)
	}
}
