package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// Digits theme for CLI output.

const (
	IconSheet    = "📊"
	IconActivity = "📝"
	IconDecay    = "⏳"
	IconBell     = "🔔"
	IconPlus     = "➕"
	IconDone     = "✅"
	IconWarn     = "⚠️"
	IconError    = "🧨"
)

var (
	cPrimary = lipgloss.Color("63")  // blue
	cAccent  = lipgloss.Color("205") // magenta
	cGood    = lipgloss.Color("42")  // green
	cWarn    = lipgloss.Color("214") // orange
	cBad     = lipgloss.Color("196") // red
	cMuted   = lipgloss.Color("244") // gray
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(cAccent)
	H2    = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Muted = lipgloss.NewStyle().Foreground(cMuted)
	Key   = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Good  = lipgloss.NewStyle().Bold(true).Foreground(cGood)
	Warn  = lipgloss.NewStyle().Bold(true).Foreground(cWarn)
	Bad   = lipgloss.NewStyle().Bold(true).Foreground(cBad)

	Panel = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(cMuted).Padding(0, 1)
)

func Heading(icon string, title string) string {
	icon = strings.TrimSpace(icon)
	if icon != "" {
		icon += " "
	}
	return Title.Render(icon + title)
}

func LabelValue(label string, value any) string {
	return fmt.Sprintf("%s %v", Key.Render(label+":"), value)
}

// Signed renders a point value with its sign, green when positive and red
// when negative.
func Signed(n int) string {
	switch {
	case n > 0:
		return Good.Render(fmt.Sprintf("+%d", n))
	case n < 0:
		return Bad.Render(fmt.Sprintf("%d", n))
	default:
		return Muted.Render("0")
	}
}

// Score renders a category score relative to the base score of 10.
func Score(score int) string {
	s := fmt.Sprintf("%d", score)
	switch {
	case score > 10:
		return Good.Render(s)
	case score < 10:
		return Bad.Render(s)
	default:
		return H2.Render(s)
	}
}

// Ago renders t relative to now, e.g. "3 hours ago".
func Ago(t time.Time, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}

// In renders a remaining duration, e.g. "2 days from now".
func In(d time.Duration) string {
	if d <= 0 {
		return Warn.Render("due now")
	}
	now := time.Now()
	return humanize.RelTime(now.Add(d), now, "ago", "from now")
}

// Enabled renders an on/off flag.
func Enabled(on bool) string {
	if on {
		return Good.Render("enabled")
	}
	return Muted.Render("disabled")
}
