// Package decay deducts points from attributes that go untouched for too
// long. One driver loop sleeps until the earliest due setting and then runs a
// reconciliation pass, which applies every elapsed cycle, including cycles
// that elapsed while the process was not running.
package decay

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mudler/xlog"

	"github.com/jmccallister93/Daily-Digits/internal/character"
	"github.com/jmccallister93/Daily-Digits/internal/notify"
	"github.com/jmccallister93/Daily-Digits/internal/persist"
	"github.com/jmccallister93/Daily-Digits/internal/store"
)

// DefaultMaxSleep bounds a single driver sleep.
const DefaultMaxSleep = time.Minute

// CharacterStore is the part of the Character Store the scheduler uses.
type CharacterStore interface {
	UpdateStat(categoryID, statName string, delta int) bool
	StatExists(categoryID, statName string) bool
}

// Recorder keeps a history of applied deductions.
type Recorder interface {
	RecordDecayEvent(ev *store.DecayEvent) error
}

// Applied describes the deduction made for one setting in one pass.
type Applied struct {
	CategoryID string    `json:"categoryId"`
	StatName   string    `json:"statName"`
	Points     int       `json:"points"`
	Cycles     int64     `json:"cycles"`
	LastUpdate time.Time `json:"lastUpdate"`
}

// ReconcileResult is the outcome of one reconciliation pass. Pruned holds the
// keys of settings removed because their attribute no longer exists.
type ReconcileResult struct {
	Applied []Applied `json:"applied"`
	Pruned  []string  `json:"pruned"`
}

// Option configures a Scheduler.
type Option func(*Scheduler)

func WithClock(c clockwork.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

func WithMaxSleep(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.maxSleep = d
		}
	}
}

// WithHistory records every applied deduction.
func WithHistory(r Recorder) Option {
	return func(s *Scheduler) { s.history = r }
}

// Scheduler owns the decay settings. All methods are safe for concurrent use.
// The scheduler calls into the Character Store while holding its own lock,
// never the other way round.
type Scheduler struct {
	mu       sync.Mutex
	settings map[string]*Setting

	chars    CharacterStore
	docs     persist.Documents
	notifier notify.Notifier
	history  Recorder
	clock    clockwork.Clock
	maxSleep time.Duration

	loading atomic.Bool
	writer  *persist.Writer
	wake    chan struct{}
}

// New creates a scheduler. It reports IsLoading until Load returns.
func New(chars CharacterStore, docs persist.Documents, notifier notify.Notifier, opts ...Option) *Scheduler {
	s := &Scheduler{
		settings: make(map[string]*Setting),
		chars:    chars,
		docs:     docs,
		notifier: notifier,
		clock:    clockwork.NewRealClock(),
		maxSleep: DefaultMaxSleep,
		wake:     make(chan struct{}, 1),
	}
	if s.notifier == nil {
		s.notifier = notify.Log{}
	}
	for _, o := range opts {
		o(s)
	}
	s.loading.Store(true)
	s.writer = persist.NewWriter(docs, store.KeyDecaySettings, s.snapshot)
	return s
}

// Load reads the persisted settings, dropping malformed entries, and then
// runs a reconciliation pass to catch up on time spent offline.
func (s *Scheduler) Load() ReconcileResult {
	settings := s.readSettings()

	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()

	s.loading.Store(false)
	xlog.Info("Decay settings loaded", "count", len(settings))

	return s.Reconcile(s.clock.Now())
}

func (s *Scheduler) readSettings() map[string]*Setting {
	out := make(map[string]*Setting)

	data, ok, err := s.docs.GetDocument(store.KeyDecaySettings)
	if err != nil {
		xlog.Error("Failed to read decay settings", "error", err)
		return out
	}
	if !ok {
		return out
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		xlog.Error("Failed to parse decay settings", "error", err)
		return out
	}
	for key, msg := range raw {
		var set Setting
		if err := json.Unmarshal(msg, &set); err != nil {
			xlog.Warn("Dropping malformed decay setting", "key", key, "error", err)
			continue
		}
		if err := set.validate(); err != nil {
			xlog.Warn("Dropping invalid decay setting", "key", key, "error", err)
			continue
		}
		if set.LastUpdate.IsZero() {
			xlog.Warn("Dropping decay setting without lastUpdate", "key", key)
			continue
		}
		out[set.Key()] = &set
	}
	return out
}

// IsLoading reports whether Load has not yet completed.
func (s *Scheduler) IsLoading() bool {
	return s.loading.Load()
}

// Close flushes any pending write.
func (s *Scheduler) Close() {
	s.writer.Close()
}

// Wake makes the driver loop re-evaluate its schedule now. It never blocks.
func (s *Scheduler) Wake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) changed() {
	if !s.loading.Load() {
		s.writer.Kick()
	}
	s.Wake()
}

func (s *Scheduler) snapshot() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.Marshal(s.settings)
}

// AddDecaySetting validates and stores a setting for an existing attribute,
// replacing any previous setting for it. The countdown starts now.
func (s *Scheduler) AddDecaySetting(ns NewSetting) (Setting, error) {
	set := Setting{
		CategoryID: ns.CategoryID,
		StatName:   ns.StatName,
		Points:     ns.Points,
		TimeValue:  ns.TimeValue,
		TimeUnit:   ns.TimeUnit,
		LastUpdate: s.clock.Now(),
		Enabled:    true,
	}
	if err := set.validate(); err != nil {
		return Setting{}, err
	}
	if !s.chars.StatExists(set.CategoryID, set.StatName) {
		return Setting{}, fmt.Errorf("attribute %s/%s: %w", set.CategoryID, set.StatName, ErrNotFound)
	}

	s.mu.Lock()
	s.settings[set.Key()] = &set
	s.mu.Unlock()

	xlog.Info("Decay setting added", "key", set.Key(), "points", set.Points, "interval", set.Interval())
	s.changed()
	return set, nil
}

// UpdateDecaySetting applies a partial update. Enabling a disabled setting
// restarts its countdown from now.
func (s *Scheduler) UpdateDecaySetting(categoryID, statName string, upd SettingUpdate) (Setting, error) {
	s.mu.Lock()
	cur, ok := s.settings[Key(categoryID, statName)]
	if !ok {
		s.mu.Unlock()
		return Setting{}, fmt.Errorf("decay setting %s: %w", Key(categoryID, statName), ErrNotFound)
	}

	next := *cur
	if upd.Points != nil {
		next.Points = *upd.Points
	}
	if upd.TimeValue != nil {
		next.TimeValue = *upd.TimeValue
	}
	if upd.TimeUnit != nil {
		next.TimeUnit = *upd.TimeUnit
	}
	if upd.Enabled != nil {
		if *upd.Enabled && !cur.Enabled {
			next.LastUpdate = s.clock.Now()
		}
		next.Enabled = *upd.Enabled
	}
	if err := next.validate(); err != nil {
		s.mu.Unlock()
		return Setting{}, err
	}
	*cur = next
	s.mu.Unlock()

	s.changed()
	return next, nil
}

// RemoveDecaySetting deletes a setting. It reports false if there was none.
func (s *Scheduler) RemoveDecaySetting(categoryID, statName string) bool {
	key := Key(categoryID, statName)
	s.mu.Lock()
	_, ok := s.settings[key]
	delete(s.settings, key)
	s.mu.Unlock()

	if ok {
		xlog.Info("Decay setting removed", "key", key)
		s.changed()
	}
	return ok
}

// ResetTimer restarts the countdown of a setting after activity on its
// attribute, whatever the sign of the points.
func (s *Scheduler) ResetTimer(categoryID, statName string, pointsAdded int) {
	key := Key(categoryID, statName)
	s.mu.Lock()
	set, ok := s.settings[key]
	if ok {
		set.LastUpdate = s.clock.Now()
	}
	s.mu.Unlock()

	if ok {
		xlog.Debug("Decay timer reset", "key", key, "points", pointsAdded)
		s.changed()
	}
}

// GetDecaySettingForStat returns the setting for an attribute.
func (s *Scheduler) GetDecaySettingForStat(categoryID, statName string) (Setting, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.settings[Key(categoryID, statName)]
	if !ok {
		return Setting{}, false
	}
	return *set, true
}

// GetTimeUntilNextDecay returns how long until the next deduction. It reports
// false for a missing or disabled setting. An overdue setting returns zero.
func (s *Scheduler) GetTimeUntilNextDecay(categoryID, statName string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.settings[Key(categoryID, statName)]
	if !ok || !set.Enabled {
		return 0, false
	}
	return max(set.NextDue().Sub(s.clock.Now()), 0), true
}

// Settings returns every setting sorted by key.
func (s *Scheduler) Settings() []Setting {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Setting, 0, len(s.settings))
	for _, key := range s.sortedKeysLocked() {
		out = append(out, *s.settings[key])
	}
	return out
}

func (s *Scheduler) sortedKeysLocked() []string {
	keys := make([]string, 0, len(s.settings))
	for k := range s.settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// HandleEvent keeps settings in step with the Character Store. A logged or
// edited activity resets the timers of the attributes it now credits;
// category changes prune settings whose attribute is gone.
func (s *Scheduler) HandleEvent(ev character.Event) {
	switch ev.Kind {
	case character.ActivityLogged, character.ActivityEdited:
		for _, stat := range ev.Stats {
			s.ResetTimer(ev.CategoryID, stat, ev.Points)
		}
	case character.CategoryUpdated, character.CategoryDeleted:
		s.Prune()
	}
}

// Prune removes settings whose attribute no longer exists.
func (s *Scheduler) Prune() []string {
	s.mu.Lock()
	var pruned []string
	for _, key := range s.sortedKeysLocked() {
		set := s.settings[key]
		if !s.chars.StatExists(set.CategoryID, set.StatName) {
			delete(s.settings, key)
			pruned = append(pruned, key)
		}
	}
	s.mu.Unlock()

	if len(pruned) > 0 {
		xlog.Info("Pruned orphaned decay settings", "keys", pruned)
		s.changed()
	}
	return pruned
}

// Reconcile applies every whole cycle that has elapsed by now and prunes
// orphaned settings. Each setting is deducted in a single call and its
// LastUpdate advances by exactly the consumed cycles, so running it again
// with the same now deducts nothing.
func (s *Scheduler) Reconcile(now time.Time) ReconcileResult {
	var res ReconcileResult

	s.mu.Lock()
	for _, key := range s.sortedKeysLocked() {
		set := s.settings[key]
		if !s.chars.StatExists(set.CategoryID, set.StatName) {
			delete(s.settings, key)
			res.Pruned = append(res.Pruned, key)
			continue
		}
		if !set.Enabled {
			continue
		}

		interval := set.Interval()
		elapsed := now.Sub(set.LastUpdate)
		if elapsed < interval {
			continue
		}
		cycles := int64(elapsed / interval)
		points := deduction(set.Points, cycles)

		// The attribute can vanish between the check above and here.
		if !s.chars.UpdateStat(set.CategoryID, set.StatName, -points) {
			delete(s.settings, key)
			res.Pruned = append(res.Pruned, key)
			continue
		}
		set.LastUpdate = set.LastUpdate.Add(time.Duration(cycles) * interval)
		res.Applied = append(res.Applied, Applied{
			CategoryID: set.CategoryID,
			StatName:   set.StatName,
			Points:     points,
			Cycles:     cycles,
			LastUpdate: set.LastUpdate,
		})
	}
	s.mu.Unlock()

	if len(res.Pruned) > 0 {
		xlog.Info("Pruned orphaned decay settings", "keys", res.Pruned)
	}
	if len(res.Applied) == 0 && len(res.Pruned) == 0 {
		return res
	}
	if !s.loading.Load() {
		s.writer.Kick()
	}

	for _, a := range res.Applied {
		xlog.Info("Decay applied", "category", a.CategoryID, "stat", a.StatName, "points", a.Points, "cycles", a.Cycles)
		s.record(a, now)
		s.notify(a, now)
	}
	return res
}

// deduction is points*cycles, saturated at MaxPoints.
func deduction(points int, cycles int64) int {
	if points <= 0 || cycles <= 0 {
		return 0
	}
	if cycles > int64(MaxPoints/points) {
		return MaxPoints
	}
	return points * int(cycles)
}

// ReconcileNow runs Reconcile at the scheduler clock's current time.
func (s *Scheduler) ReconcileNow() ReconcileResult {
	return s.Reconcile(s.clock.Now())
}

func (s *Scheduler) record(a Applied, now time.Time) {
	if s.history == nil {
		return
	}
	ev := &store.DecayEvent{
		CategoryID: a.CategoryID,
		StatName:   a.StatName,
		Points:     a.Points,
		Cycles:     a.Cycles,
		AppliedAt:  now.UnixMilli(),
	}
	if err := s.history.RecordDecayEvent(ev); err != nil {
		xlog.Error("Failed to record decay event", "category", a.CategoryID, "stat", a.StatName, "error", err)
	}
}

func (s *Scheduler) notify(a Applied, now time.Time) {
	n := notify.Notification{
		Title: a.StatName + " decayed",
		Body:  fmt.Sprintf("%s lost %d %s from inactivity.", a.StatName, a.Points, plural(a.Points, "point")),
		Data: map[string]string{
			"categoryId": a.CategoryID,
			"statName":   a.StatName,
		},
		At: now,
	}
	if err := s.notifier.Notify(context.Background(), n); err != nil {
		xlog.Warn("Failed to deliver decay notification", "stat", a.StatName, "error", err)
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// Run drives the scheduler until ctx is cancelled. Each iteration reconciles
// and then sleeps until the earliest enabled setting is due, for at most the
// configured max sleep, or until Wake is called.
func (s *Scheduler) Run(ctx context.Context) {
	xlog.Info("Decay scheduler started", "max_sleep", s.maxSleep)
	defer xlog.Info("Decay scheduler stopped")

	for {
		s.Reconcile(s.clock.Now())

		timer := s.clock.NewTimer(s.nextWait())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.wake:
			timer.Stop()
		case <-timer.Chan():
		}
	}
}

func (s *Scheduler) nextWait() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	wait := s.maxSleep
	for _, set := range s.settings {
		if !set.Enabled {
			continue
		}
		if d := set.NextDue().Sub(now); d < wait {
			wait = d
		}
	}
	return max(wait, 0)
}
