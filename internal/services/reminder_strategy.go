// Package services holds the application services: the transaction write
// path, memoized statistics, overdue reminders and the Sheets resync loop.
package services

import (
	"fmt"
	"sort"
	"time"
)

// ReminderPolicy decides whether an overdue invoice gets another reminder.
// lastReminded is zero when no reminder has been sent yet.
type ReminderPolicy interface {
	ShouldRemind(lastReminded, now time.Time, delayDays int) bool
}

// DailyReminder reminds once per UTC calendar day.
type DailyReminder struct{}

func (DailyReminder) ShouldRemind(lastReminded, now time.Time, _ int) bool {
	if lastReminded.IsZero() {
		return true
	}
	return lastReminded.UTC().Format("2006-01-02") != now.UTC().Format("2006-01-02")
}

// WeeklyReminder reminds when 7 or more days have passed since the last reminder.
type WeeklyReminder struct{}

func (WeeklyReminder) ShouldRemind(lastReminded, now time.Time, _ int) bool {
	if lastReminded.IsZero() {
		return true
	}
	return now.Sub(lastReminded) >= 7*24*time.Hour
}

// EscalatingReminder reminds when the invoice first becomes overdue and again
// as the delay crosses each milestone; past the last one it repeats every
// Interval days.
type EscalatingReminder struct {
	Milestones []int
	Interval   int
}

// DefaultEscalatingReminder reminds at 1, 7, 14 and 30 days late, then monthly.
func DefaultEscalatingReminder() EscalatingReminder {
	return EscalatingReminder{Milestones: []int{1, 7, 14, 30}, Interval: 30}
}

func (e EscalatingReminder) ShouldRemind(lastReminded, now time.Time, delayDays int) bool {
	if lastReminded.IsZero() {
		return true
	}
	// Delay at the time of the last reminder, on the same day grid as delayDays.
	sinceLast := int(now.Sub(lastReminded).Hours() / 24)
	prevDelay := delayDays - sinceLast
	if sinceLast == 0 {
		return false
	}
	return e.stage(delayDays) > e.stage(prevDelay)
}

// stage numbers the milestone reached by delay; beyond the last milestone each
// full Interval counts as one more stage.
func (e EscalatingReminder) stage(delay int) int {
	ms := append([]int(nil), e.Milestones...)
	sort.Ints(ms)
	n := sort.SearchInts(ms, delay+1)
	if len(ms) == 0 || delay < ms[len(ms)-1] || e.Interval <= 0 {
		return n
	}
	return n + (delay-ms[len(ms)-1])/e.Interval
}

var reminderPolicies = map[string]ReminderPolicy{
	"daily":      DailyReminder{},
	"weekly":     WeeklyReminder{},
	"escalating": DefaultEscalatingReminder(),
}

// GetReminderPolicy returns the policy registered under name.
func GetReminderPolicy(name string) (ReminderPolicy, error) {
	p, ok := reminderPolicies[name]
	if !ok {
		return nil, fmt.Errorf("unknown reminder policy: %s", name)
	}
	return p, nil
}

// ReminderPolicyNames lists the registered policy names, sorted.
func ReminderPolicyNames() []string {
	names := make([]string, 0, len(reminderPolicies))
	for n := range reminderPolicies {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
