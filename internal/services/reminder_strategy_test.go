package services

import (
	"testing"
	"time"
)

func TestDailyReminder_ShouldRemind(t *testing.T) {
	r := DailyReminder{}
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		lastReminded time.Time
		want         bool
	}{
		{"never reminded", time.Time{}, true},
		{"reminded today", time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC), false},
		{"reminded yesterday", time.Date(2024, 1, 14, 23, 0, 0, 0, time.UTC), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.ShouldRemind(tt.lastReminded, now, 3); got != tt.want {
				t.Errorf("ShouldRemind() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWeeklyReminder_ShouldRemind(t *testing.T) {
	r := WeeklyReminder{}
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		lastReminded time.Time
		want         bool
	}{
		{"never reminded", time.Time{}, true},
		{"six days ago", now.AddDate(0, 0, -6), false},
		{"exactly seven days ago", now.AddDate(0, 0, -7), true},
		{"a month ago", now.AddDate(0, -1, 0), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.ShouldRemind(tt.lastReminded, now, 20); got != tt.want {
				t.Errorf("ShouldRemind() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEscalatingReminder_ShouldRemind(t *testing.T) {
	r := DefaultEscalatingReminder()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	daysAgo := func(n int) time.Time { return now.AddDate(0, 0, -n) }

	tests := []struct {
		name         string
		lastReminded time.Time
		delay        int
		want         bool
	}{
		{"first reminder", time.Time{}, 3, true},
		{"same day", now.Add(-time.Hour), 7, false},
		{"still before the 7 day milestone", daysAgo(3), 6, false},
		{"crossed the 7 day milestone", daysAgo(3), 8, true},
		{"crossed 14", daysAgo(2), 14, true},
		{"between 14 and 30", daysAgo(5), 25, false},
		{"crossed 30", daysAgo(5), 31, true},
		{"within the monthly interval", daysAgo(20), 50, false},
		{"monthly repeat", daysAgo(20), 61, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.ShouldRemind(tt.lastReminded, now, tt.delay); got != tt.want {
				t.Errorf("ShouldRemind(delay=%d) = %v, want %v", tt.delay, got, tt.want)
			}
		})
	}
}

func TestGetReminderPolicy(t *testing.T) {
	for _, name := range ReminderPolicyNames() {
		if _, err := GetReminderPolicy(name); err != nil {
			t.Errorf("GetReminderPolicy(%q): %v", name, err)
		}
	}
	if _, err := GetReminderPolicy("hourly"); err == nil {
		t.Error("expected error for unknown policy")
	}
	if got := ReminderPolicyNames(); len(got) != 3 || got[0] != "daily" {
		t.Errorf("ReminderPolicyNames() = %v", got)
	}
}
