package decay

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrInvalidSetting matches every *ValidationError.
	ErrInvalidSetting = errors.New("invalid decay setting")
	// ErrNotFound is returned when a setting or its attribute does not exist.
	ErrNotFound = errors.New("not found")
)

// ValidationError reports a rejected field of a decay setting.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid decay setting: %s %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidSetting
}

// TimeUnit is the unit of a decay interval.
type TimeUnit string

const (
	Minutes TimeUnit = "minutes"
	Hours   TimeUnit = "hours"
	Days    TimeUnit = "days"
)

// Duration returns the length of one unit.
func (u TimeUnit) Duration() (time.Duration, bool) {
	switch u {
	case Minutes:
		return time.Minute, true
	case Hours:
		return time.Hour, true
	case Days:
		return 24 * time.Hour, true
	}
	return 0, false
}

// Setting is the decay configuration of one attribute. Points are deducted
// once per interval of TimeValue TimeUnits, measured from LastUpdate.
type Setting struct {
	CategoryID string    `json:"categoryId"`
	StatName   string    `json:"statName"`
	Points     int       `json:"points"`
	TimeValue  float64   `json:"timeValue"`
	TimeUnit   TimeUnit  `json:"timeUnit"`
	LastUpdate time.Time `json:"lastUpdate"`
	Enabled    bool      `json:"enabled"`
}

// Key returns the composite key settings are stored under.
func Key(categoryID, statName string) string {
	return categoryID + "-" + statName
}

func (s Setting) Key() string {
	return Key(s.CategoryID, s.StatName)
}

// Interval is the length of one decay cycle. It is only meaningful for a
// setting that passed validation.
func (s Setting) Interval() time.Duration {
	unit, _ := s.TimeUnit.Duration()
	return time.Duration(s.TimeValue * float64(unit))
}

// NextDue is when the next cycle completes.
func (s Setting) NextDue() time.Time {
	return s.LastUpdate.Add(s.Interval())
}

// NewSetting is the input to AddDecaySetting. New settings start enabled.
type NewSetting struct {
	CategoryID string   `json:"categoryId"`
	StatName   string   `json:"statName"`
	Points     int      `json:"points"`
	TimeValue  float64  `json:"timeValue"`
	TimeUnit   TimeUnit `json:"timeUnit"`
}

// SettingUpdate is a partial update. Nil fields are left unchanged.
type SettingUpdate struct {
	Points    *int      `json:"points,omitempty"`
	TimeValue *float64  `json:"timeValue,omitempty"`
	TimeUnit  *TimeUnit `json:"timeUnit,omitempty"`
	Enabled   *bool     `json:"enabled,omitempty"`
}

// MaxPoints bounds Points and the total deducted by one reconciliation pass.
const MaxPoints = math.MaxInt32

// validate rejects settings that would arm a zero, negative or unbounded
// wake-up.
func (s Setting) validate() error {
	if s.CategoryID == "" {
		return &ValidationError{Field: "categoryId", Message: "is required"}
	}
	if s.StatName == "" {
		return &ValidationError{Field: "statName", Message: "is required"}
	}
	if s.Points < 1 || s.Points > MaxPoints {
		return &ValidationError{Field: "points", Message: fmt.Sprintf("must be between 1 and %d", MaxPoints)}
	}
	unit, ok := s.TimeUnit.Duration()
	if !ok {
		return &ValidationError{Field: "timeUnit", Message: fmt.Sprintf("must be one of minutes, hours, days (got %q)", s.TimeUnit)}
	}
	if math.IsNaN(s.TimeValue) || math.IsInf(s.TimeValue, 0) || s.TimeValue <= 0 {
		return &ValidationError{Field: "timeValue", Message: "must be a positive finite number"}
	}
	interval := s.TimeValue * float64(unit)
	if interval < float64(time.Second) || interval > float64(math.MaxInt64/2) {
		return &ValidationError{Field: "timeValue", Message: "is out of range"}
	}
	return nil
}
