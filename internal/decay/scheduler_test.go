package decay_test

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/jonboulle/clockwork"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jmccallister93/Daily-Digits/internal/character"
	"github.com/jmccallister93/Daily-Digits/internal/decay"
	"github.com/jmccallister93/Daily-Digits/internal/notify"
	"github.com/jmccallister93/Daily-Digits/internal/store"
)

const day = 24 * time.Hour

var _ = Describe("Scheduler", func() {
	var (
		start   time.Time
		clock   *clockwork.FakeClock
		docs    *memDocs
		chars   *character.Store
		feed    *notify.Feed
		history *memHistory
		sched   *decay.Scheduler
	)

	focus := func() int {
		c, ok := chars.Category("mind")
		Expect(ok).To(BeTrue())
		a, ok := c.Stat("Focus")
		Expect(ok).To(BeTrue())
		return a.Value
	}

	newScheduler := func(opts ...decay.Option) *decay.Scheduler {
		opts = append([]decay.Option{decay.WithClock(clock), decay.WithHistory(history)}, opts...)
		s := decay.New(chars, docs, feed, opts...)
		chars.Subscribe(s.HandleEvent)
		return s
	}

	addFocus := func(points int, timeValue float64, unit decay.TimeUnit) decay.Setting {
		set, err := sched.AddDecaySetting(decay.NewSetting{
			CategoryID: "mind",
			StatName:   "Focus",
			Points:     points,
			TimeValue:  timeValue,
			TimeUnit:   unit,
		})
		Expect(err).NotTo(HaveOccurred())
		return set
	}

	BeforeEach(func() {
		start = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
		clock = clockwork.NewFakeClockAt(start)
		docs = newMemDocs()
		feed = notify.NewFeed(20, clock)
		history = &memHistory{}

		chars = character.New(docs, character.WithClock(clock))
		chars.Load()
		sched = newScheduler()
		Expect(sched.IsLoading()).To(BeTrue())
		sched.Load()
		Expect(sched.IsLoading()).To(BeFalse())
	})

	AfterEach(func() {
		sched.Close()
		chars.Close()
	})

	Describe("Catch-up", func() {
		It("applies every elapsed cycle in one deduction", func() {
			addFocus(3, 2, decay.Days)

			clock.Advance(7 * day)
			res := sched.Reconcile(clock.Now())

			Expect(res.Applied).To(HaveLen(1))
			Expect(res.Applied[0].Cycles).To(Equal(int64(3)))
			Expect(res.Applied[0].Points).To(Equal(9))
			Expect(focus()).To(Equal(-9))

			set, ok := sched.GetDecaySettingForStat("mind", "Focus")
			Expect(ok).To(BeTrue())
			Expect(set.LastUpdate).To(BeTemporally("==", start.Add(6*day)))

			left, ok := sched.GetTimeUntilNextDecay("mind", "Focus")
			Expect(ok).To(BeTrue())
			Expect(left).To(Equal(day))

			c, _ := chars.Category("mind")
			Expect(c.Score).To(Equal(character.BaseScore - 9))
		})

		It("saturates a large catch-up instead of overflowing", func() {
			addFocus(decay.MaxPoints, 1, decay.Minutes)

			clock.Advance(2 * time.Minute)
			res := sched.Reconcile(clock.Now())

			Expect(res.Applied).To(HaveLen(1))
			Expect(res.Applied[0].Cycles).To(Equal(int64(2)))
			Expect(res.Applied[0].Points).To(Equal(decay.MaxPoints))
			Expect(focus()).To(Equal(-decay.MaxPoints))
			events := history.all()
			Expect(events).To(HaveLen(1))
			Expect(events[0].Points).To(Equal(decay.MaxPoints))
		})

		It("is idempotent for the same now", func() {
			addFocus(3, 2, decay.Days)
			clock.Advance(7 * day)
			now := clock.Now()

			sched.Reconcile(now)
			res := sched.Reconcile(now)

			Expect(res.Applied).To(BeEmpty())
			Expect(focus()).To(Equal(-9))
		})

		It("does nothing before the first cycle completes", func() {
			addFocus(1, 30, decay.Minutes)
			clock.Advance(29 * time.Minute)

			Expect(sched.Reconcile(clock.Now()).Applied).To(BeEmpty())
			Expect(focus()).To(Equal(0))
		})

		It("supports fractional intervals", func() {
			addFocus(2, 1.5, decay.Hours)
			clock.Advance(4 * time.Hour)

			res := sched.Reconcile(clock.Now())
			Expect(res.Applied).To(HaveLen(1))
			Expect(res.Applied[0].Cycles).To(Equal(int64(2)))
			Expect(focus()).To(Equal(-4))
		})

		It("catches up on load after time offline", func() {
			addFocus(2, 1, decay.Days)
			sched.Close()

			clock.Advance(3*day + time.Hour)
			reloaded := newScheduler()
			res := reloaded.Load()
			defer reloaded.Close()

			Expect(res.Applied).To(HaveLen(1))
			Expect(res.Applied[0].Points).To(Equal(6))
			Expect(focus()).To(Equal(-6))
		})
	})

	Describe("Side effects", func() {
		It("notifies and records each deduction", func() {
			addFocus(3, 1, decay.Days)
			clock.Advance(2 * day)
			sched.Reconcile(clock.Now())

			recent := feed.Recent(0)
			Expect(recent).To(HaveLen(1))
			Expect(recent[0].Title).To(Equal("Focus decayed"))
			Expect(recent[0].Body).To(ContainSubstring("6 points"))
			Expect(recent[0].Data).To(HaveKeyWithValue("categoryId", "mind"))
			Expect(recent[0].Data).To(HaveKeyWithValue("statName", "Focus"))

			events := history.all()
			Expect(events).To(HaveLen(1))
			Expect(events[0].Points).To(Equal(6))
			Expect(events[0].Cycles).To(Equal(int64(2)))
		})

		It("still deducts when notification delivery fails", func() {
			failing := notify.Func(func(context.Context, notify.Notification) error {
				return errors.New("no display")
			})
			s := decay.New(chars, newMemDocs(), failing, decay.WithClock(clock))
			s.Load()
			defer s.Close()

			_, err := s.AddDecaySetting(decay.NewSetting{CategoryID: "mind", StatName: "Focus", Points: 1, TimeValue: 1, TimeUnit: decay.Hours})
			Expect(err).NotTo(HaveOccurred())
			clock.Advance(time.Hour)

			Expect(s.Reconcile(clock.Now()).Applied).To(HaveLen(1))
			Expect(focus()).To(Equal(-1))
		})
	})

	Describe("Validation", func() {
		DescribeTable("rejects invalid settings",
			func(ns decay.NewSetting, field string) {
				_, err := sched.AddDecaySetting(ns)
				Expect(err).To(MatchError(decay.ErrInvalidSetting))
				var verr *decay.ValidationError
				Expect(errors.As(err, &verr)).To(BeTrue())
				Expect(verr.Field).To(Equal(field))
				Expect(sched.Settings()).To(BeEmpty())
			},
			Entry("zero interval", decay.NewSetting{CategoryID: "mind", StatName: "Focus", Points: 1, TimeValue: 0, TimeUnit: decay.Days}, "timeValue"),
			Entry("negative interval", decay.NewSetting{CategoryID: "mind", StatName: "Focus", Points: 1, TimeValue: -2, TimeUnit: decay.Days}, "timeValue"),
			Entry("NaN interval", decay.NewSetting{CategoryID: "mind", StatName: "Focus", Points: 1, TimeValue: math.NaN(), TimeUnit: decay.Days}, "timeValue"),
			Entry("infinite interval", decay.NewSetting{CategoryID: "mind", StatName: "Focus", Points: 1, TimeValue: math.Inf(1), TimeUnit: decay.Days}, "timeValue"),
			Entry("unknown unit", decay.NewSetting{CategoryID: "mind", StatName: "Focus", Points: 1, TimeValue: 1, TimeUnit: "weeks"}, "timeUnit"),
			Entry("zero points", decay.NewSetting{CategoryID: "mind", StatName: "Focus", Points: 0, TimeValue: 1, TimeUnit: decay.Days}, "points"),
			Entry("huge points", decay.NewSetting{CategoryID: "mind", StatName: "Focus", Points: math.MaxInt64/2 + 1, TimeValue: 1, TimeUnit: decay.Minutes}, "points"),
			Entry("missing stat", decay.NewSetting{CategoryID: "mind", Points: 1, TimeValue: 1, TimeUnit: decay.Days}, "statName"),
		)

		It("rejects settings for attributes that do not exist", func() {
			_, err := sched.AddDecaySetting(decay.NewSetting{CategoryID: "mind", StatName: "Ghost", Points: 1, TimeValue: 1, TimeUnit: decay.Days})
			Expect(err).To(MatchError(decay.ErrNotFound))
		})

		It("rejects invalid updates and keeps the old setting", func() {
			addFocus(2, 1, decay.Days)
			zero := 0.0
			_, err := sched.UpdateDecaySetting("mind", "Focus", decay.SettingUpdate{TimeValue: &zero})
			Expect(err).To(MatchError(decay.ErrInvalidSetting))

			set, _ := sched.GetDecaySettingForStat("mind", "Focus")
			Expect(set.TimeValue).To(Equal(1.0))
		})

		It("reports missing settings on update", func() {
			points := 2
			_, err := sched.UpdateDecaySetting("mind", "Learning", decay.SettingUpdate{Points: &points})
			Expect(err).To(MatchError(decay.ErrNotFound))
		})
	})

	Describe("Timers", func() {
		It("resets on logged activity", func() {
			addFocus(3, 2, decay.Days)
			clock.Advance(day + 12*time.Hour)
			chars.LogActivity("deep work", "mind", []string{"Focus"}, 1)

			set, _ := sched.GetDecaySettingForStat("mind", "Focus")
			Expect(set.LastUpdate).To(BeTemporally("==", clock.Now()))

			clock.Advance(day + 12*time.Hour)
			Expect(sched.Reconcile(clock.Now()).Applied).To(BeEmpty())
			Expect(focus()).To(Equal(1))
		})

		It("resets on negative and zero-point activity", func() {
			addFocus(1, 1, decay.Days)
			clock.Advance(12 * time.Hour)
			chars.LogActivity("doomscrolling", "mind", []string{"Focus"}, -2)
			set, _ := sched.GetDecaySettingForStat("mind", "Focus")
			Expect(set.LastUpdate).To(BeTemporally("==", clock.Now()))

			clock.Advance(12 * time.Hour)
			chars.LogActivity("noted", "mind", []string{"Focus"}, 0)
			set, _ = sched.GetDecaySettingForStat("mind", "Focus")
			Expect(set.LastUpdate).To(BeTemporally("==", clock.Now()))
		})

		It("resets the stat an edited activity moves onto", func() {
			entry := chars.LogActivity("reading", "mind", []string{"Learning"}, 2)
			addFocus(1, 1, decay.Days)
			clock.Advance(20 * time.Hour)

			Expect(chars.EditActivity(entry.ID, character.ActivityUpdate{Stat: character.StatList{"Focus"}})).To(BeTrue())
			set, _ := sched.GetDecaySettingForStat("mind", "Focus")
			Expect(set.LastUpdate).To(BeTemporally("==", clock.Now()))

			clock.Advance(20 * time.Hour)
			Expect(sched.Reconcile(clock.Now()).Applied).To(BeEmpty())
			Expect(focus()).To(Equal(2))
		})

		It("skips disabled settings and restarts them when enabled", func() {
			addFocus(1, 1, decay.Days)
			off, on := false, true
			_, err := sched.UpdateDecaySetting("mind", "Focus", decay.SettingUpdate{Enabled: &off})
			Expect(err).NotTo(HaveOccurred())

			clock.Advance(5 * day)
			Expect(sched.Reconcile(clock.Now()).Applied).To(BeEmpty())
			_, ok := sched.GetTimeUntilNextDecay("mind", "Focus")
			Expect(ok).To(BeFalse())

			set, err := sched.UpdateDecaySetting("mind", "Focus", decay.SettingUpdate{Enabled: &on})
			Expect(err).NotTo(HaveOccurred())
			Expect(set.LastUpdate).To(BeTemporally("==", clock.Now()))
			Expect(sched.Reconcile(clock.Now()).Applied).To(BeEmpty())
			Expect(focus()).To(Equal(0))
		})

		It("removes settings", func() {
			addFocus(1, 1, decay.Days)
			Expect(sched.RemoveDecaySetting("mind", "Focus")).To(BeTrue())
			Expect(sched.RemoveDecaySetting("mind", "Focus")).To(BeFalse())

			clock.Advance(3 * day)
			Expect(sched.Reconcile(clock.Now()).Applied).To(BeEmpty())
			Expect(focus()).To(Equal(0))
		})
	})

	Describe("Orphans", func() {
		It("prunes settings when the attribute is removed", func() {
			addFocus(1, 1, decay.Days)
			Expect(chars.RemoveStat("mind", "Focus")).To(BeTrue())

			_, ok := sched.GetDecaySettingForStat("mind", "Focus")
			Expect(ok).To(BeFalse())
		})

		It("prunes settings when the category is deleted", func() {
			addFocus(1, 1, decay.Days)
			Expect(chars.DeleteCategory("mind")).To(BeTrue())
			Expect(sched.Settings()).To(BeEmpty())
		})

		It("orphans a setting when its attribute is renamed", func() {
			addFocus(1, 1, decay.Days)
			Expect(chars.RenameStat("mind", "Focus", "Attention")).To(BeTrue())

			Expect(sched.Settings()).To(BeEmpty())
		})

		It("prunes during reconciliation when events were missed", func() {
			s := decay.New(chars, newMemDocs(), feed, decay.WithClock(clock))
			s.Load()
			defer s.Close()

			_, err := s.AddDecaySetting(decay.NewSetting{CategoryID: "mind", StatName: "Learning", Points: 1, TimeValue: 1, TimeUnit: decay.Days})
			Expect(err).NotTo(HaveOccurred())
			chars.RemoveStat("mind", "Learning")

			clock.Advance(2 * day)
			res := s.Reconcile(clock.Now())
			Expect(res.Applied).To(BeEmpty())
			Expect(res.Pruned).To(ConsistOf(decay.Key("mind", "Learning")))
		})
	})

	Describe("Persistence", func() {
		It("round-trips settings", func() {
			addFocus(4, 12, decay.Hours)
			sched.Close()

			reloaded := newScheduler()
			reloaded.Load()
			defer reloaded.Close()

			set, ok := reloaded.GetDecaySettingForStat("mind", "Focus")
			Expect(ok).To(BeTrue())
			Expect(set.Points).To(Equal(4))
			Expect(set.TimeUnit).To(Equal(decay.Hours))
			Expect(set.LastUpdate).To(BeTemporally("==", start))
		})

		It("drops malformed entries and keeps the rest", func() {
			fresh := newMemDocs()
			fresh.put(store.KeyDecaySettings, `{
				"mind-Focus": {"categoryId":"mind","statName":"Focus","points":2,"timeValue":1,"timeUnit":"days","lastUpdate":"2026-05-01T08:00:00Z","enabled":true},
				"mind-Learning": {"categoryId":"mind","statName":"Learning","points":"lots"},
				"mind-Creativity": {"categoryId":"mind","statName":"Creativity","points":1,"timeValue":0,"timeUnit":"days","lastUpdate":"2026-05-01T08:00:00Z","enabled":true},
				"social-Empathy": {"categoryId":"social","statName":"Empathy","points":1,"timeValue":1,"timeUnit":"days","enabled":true}
			}`)
			s := decay.New(chars, fresh, feed, decay.WithClock(clock))
			s.Load()
			defer s.Close()

			settings := s.Settings()
			Expect(settings).To(HaveLen(1))
			Expect(settings[0].Key()).To(Equal("mind-Focus"))
		})

		It("starts empty when the document is unreadable", func() {
			fresh := newMemDocs()
			fresh.put(store.KeyDecaySettings, `[not json`)
			s := decay.New(chars, fresh, feed, decay.WithClock(clock))
			s.Load()
			defer s.Close()

			Expect(s.Settings()).To(BeEmpty())
			Expect(s.IsLoading()).To(BeFalse())
		})
	})

	Describe("Run", func() {
		It("wakes when the earliest setting is due", func() {
			s := newScheduler(decay.WithMaxSleep(30 * day))
			s.Load()
			defer s.Close()
			_, err := s.AddDecaySetting(decay.NewSetting{CategoryID: "mind", StatName: "Focus", Points: 3, TimeValue: 2, TimeUnit: decay.Days})
			Expect(err).NotTo(HaveOccurred())

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			go func() {
				defer close(done)
				s.Run(ctx)
			}()

			Expect(clock.BlockUntilContext(ctx, 1)).To(Succeed())
			clock.Advance(2 * day)
			Eventually(focus).Should(Equal(-3))

			cancel()
			Eventually(done).Should(BeClosed())
		})

		It("re-plans when woken", func() {
			s := newScheduler(decay.WithMaxSleep(30 * day))
			s.Load()
			defer s.Close()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go s.Run(ctx)

			Expect(clock.BlockUntilContext(ctx, 1)).To(Succeed())
			_, err := s.AddDecaySetting(decay.NewSetting{CategoryID: "mind", StatName: "Focus", Points: 1, TimeValue: 1, TimeUnit: decay.Hours})
			Expect(err).NotTo(HaveOccurred())

			Eventually(func() time.Duration {
				left, _ := s.GetTimeUntilNextDecay("mind", "Focus")
				return left
			}).Should(Equal(time.Hour))
			Expect(clock.BlockUntilContext(ctx, 1)).To(Succeed())
			clock.Advance(time.Hour)
			Eventually(focus).Should(Equal(-1))
		})
	})
})
