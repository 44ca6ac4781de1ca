// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package domain

import (
	"testing"
	"time"
)

func TestShouldRun_FirstRunAlwaysFires(t *testing.T) {
	now := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	if !ShouldRun(TierHourly, TierConfig{Enabled: true, IntervalHours: 1}, nil, now) {
		t.Fatal("expected first run to fire regardless of tier")
	}
}

func TestShouldRun_Hourly(t *testing.T) {
	cfg := TierConfig{Enabled: true, IntervalHours: 1}
	last := time.Date(2026, 7, 30, 9, 0, 0, 0, time.UTC)

	at45min := last.Add(45 * time.Minute)
	if ShouldRun(TierHourly, cfg, &last, at45min) {
		t.Fatal("expected hourly not to fire before interval elapses")
	}

	at60min := last.Add(60 * time.Minute)
	if !ShouldRun(TierHourly, cfg, &last, at60min) {
		t.Fatal("expected hourly to fire once interval elapses")
	}
}

func TestShouldRun_DailyInclusiveLowerBound(t *testing.T) {
	cfg := TierConfig{Enabled: true, Time: "02:00"}
	last := time.Date(2026, 7, 29, 2, 0, 0, 0, time.UTC)

	scheduled := time.Date(2026, 7, 30, 2, 0, 0, 0, time.UTC)
	if !ShouldRun(TierDaily, cfg, &last, scheduled) {
		t.Fatal("expected daily tier to fire exactly at the scheduled time")
	}

	justBefore := scheduled.Add(-time.Second)
	if ShouldRun(TierDaily, cfg, &last, justBefore) {
		t.Fatal("expected daily tier not to fire one second before scheduled time")
	}
}

func TestShouldRun_DailyAlreadyRanToday(t *testing.T) {
	cfg := TierConfig{Enabled: true, Time: "02:00"}
	last := time.Date(2026, 7, 30, 2, 0, 0, 0, time.UTC)
	later := time.Date(2026, 7, 30, 14, 0, 0, 0, time.UTC)
	if ShouldRun(TierDaily, cfg, &last, later) {
		t.Fatal("expected daily tier not to re-fire after already running today")
	}
}

func TestShouldRun_WeeklyWrongDay(t *testing.T) {
	cfg := TierConfig{Enabled: true, DayOfWeek: 0, Time: "03:00"} // Sunday
	monday := time.Date(2026, 7, 27, 3, 0, 0, 0, time.UTC)       // a Monday
	last := time.Date(2026, 7, 20, 3, 0, 0, 0, time.UTC)
	if ShouldRun(TierWeekly, cfg, &last, monday) {
		t.Fatal("expected weekly tier not to fire on a non-matching weekday")
	}
}

func TestShouldRun_WeeklyCorrectDay(t *testing.T) {
	cfg := TierConfig{Enabled: true, DayOfWeek: 0, Time: "02:00"} // Sunday
	sunday := time.Date(2026, 8, 2, 2, 0, 0, 0, time.UTC)
	if sunday.Weekday() != time.Sunday {
		t.Fatalf("test fixture error: expected Sunday, got %s", sunday.Weekday())
	}
	last := time.Date(2026, 7, 26, 2, 0, 0, 0, time.UTC)
	if !ShouldRun(TierWeekly, cfg, &last, sunday) {
		t.Fatal("expected weekly tier to fire on its configured day at the scheduled time")
	}
}

func TestShouldRun_MonthlyAndYearly(t *testing.T) {
	monthlyCfg := TierConfig{Enabled: true, DayOfMonth: 1, Time: "04:00"}
	firstOfMonth := time.Date(2026, 8, 1, 4, 0, 0, 0, time.UTC)
	last := time.Date(2026, 6, 1, 4, 0, 0, 0, time.UTC)
	if !ShouldRun(TierMonthly, monthlyCfg, &last, firstOfMonth) {
		t.Fatal("expected monthly tier to fire on its configured day-of-month")
	}

	secondOfMonth := time.Date(2026, 8, 2, 4, 0, 0, 0, time.UTC)
	if ShouldRun(TierMonthly, monthlyCfg, &last, secondOfMonth) {
		t.Fatal("expected monthly tier not to fire on a non-matching day")
	}

	yearlyCfg := TierConfig{Enabled: true, Month: 1, DayOfMonth: 1, Time: "05:00"}
	newYear := time.Date(2027, 1, 1, 5, 0, 0, 0, time.UTC)
	lastYear := time.Date(2026, 1, 1, 5, 0, 0, 0, time.UTC)
	if !ShouldRun(TierYearly, yearlyCfg, &lastYear, newYear) {
		t.Fatal("expected yearly tier to fire on its configured month/day")
	}
}
