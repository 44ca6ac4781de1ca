// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package domain

import (
	"fmt"
	"time"
)

// Tier is one schedule+retention unit within a BackupPolicy.
type Tier string

const (
	TierHourly  Tier = "hourly"
	TierDaily   Tier = "daily"
	TierWeekly  Tier = "weekly"
	TierMonthly Tier = "monthly"
	TierYearly  Tier = "yearly"
)

// TierOrder is the fixed evaluation order the scheduler walks each tick;
// the first tier whose predicate fires wins and evaluation stops (§4.1
// step 4b).
var TierOrder = []Tier{TierHourly, TierDaily, TierWeekly, TierMonthly, TierYearly}

// TierConfig is one tier's enablement, retention count, and schedule
// parameters. Not every field applies to every tier; unused fields are
// simply left at their zero value.
type TierConfig struct {
	Enabled      bool   `json:"enabled"`
	KeepCount    int    `json:"keep_count"`
	IntervalHours int   `json:"interval_hours,omitempty"` // hourly
	Time         string `json:"time,omitempty"`           // daily/weekly/monthly/yearly, "HH:MM"
	DayOfWeek    int    `json:"day_of_week,omitempty"`     // weekly, 0=Sunday..6=Saturday
	DayOfMonth   int    `json:"day_of_month,omitempty"`    // monthly/yearly, 1..28
	Month        int    `json:"month,omitempty"`           // yearly, 1..12
}

// Validate checks the tier-specific parameter ranges from §3.
func (c TierConfig) Validate(tier Tier) error {
	if c.KeepCount < 0 {
		return NewValidationError(fmt.Sprintf("%s.keep_count must be >= 0", tier))
	}
	switch tier {
	case TierHourly:
		if c.IntervalHours < 1 || c.IntervalHours > 12 {
			return NewValidationError("hourly.interval_hours must be in [1,12]")
		}
	case TierWeekly:
		if c.DayOfWeek < 0 || c.DayOfWeek > 6 {
			return NewValidationError("weekly.day_of_week must be in [0,6]")
		}
	case TierMonthly:
		if c.DayOfMonth < 1 || c.DayOfMonth > 28 {
			return NewValidationError("monthly.day_of_month must be in [1,28]")
		}
	case TierYearly:
		if c.Month < 1 || c.Month > 12 {
			return NewValidationError("yearly.month must be in [1,12]")
		}
		if c.DayOfMonth < 1 || c.DayOfMonth > 28 {
			return NewValidationError("yearly.day_of_month must be in [1,28]")
		}
	}
	return nil
}

// BackupPolicy bundles five TierConfigs into a named, shareable policy.
type BackupPolicy struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	IsSystem    bool       `json:"is_system"`
	Hourly      TierConfig `json:"hourly"`
	Daily       TierConfig `json:"daily"`
	Weekly      TierConfig `json:"weekly"`
	Monthly     TierConfig `json:"monthly"`
	Yearly      TierConfig `json:"yearly"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// PolicyPartition is the fixed partition key for the BackupPolicy table.
const PolicyPartition = "backup_policy"

// PolicyRow is the (partition, row_key) pair for p: partition
// "backup_policy", row = id, per §3.
func (p *BackupPolicy) PolicyRow() (partition, row string) {
	return PolicyPartition, p.ID
}

// TierConfig returns the TierConfig for tier, or the zero value for an
// unrecognized tier.
func (p *BackupPolicy) TierConfig(tier Tier) TierConfig {
	switch tier {
	case TierHourly:
		return p.Hourly
	case TierDaily:
		return p.Daily
	case TierWeekly:
		return p.Weekly
	case TierMonthly:
		return p.Monthly
	case TierYearly:
		return p.Yearly
	default:
		return TierConfig{}
	}
}

// Summary renders a short human-readable retention summary, e.g.
// "24h/15d/8w/4m/2y", matching the source's get_summary() convention.
func (p *BackupPolicy) Summary() string {
	return fmt.Sprintf("%dh/%dd/%dw/%dm/%dy",
		tierKeep(p.Hourly), tierKeep(p.Daily), tierKeep(p.Weekly), tierKeep(p.Monthly), tierKeep(p.Yearly))
}

func tierKeep(c TierConfig) int {
	if !c.Enabled {
		return 0
	}
	return c.KeepCount
}

// SystemPolicies are the three built-in policies the catalog seeds on
// first startup (§3).
func SystemPolicies() []*BackupPolicy {
	now := Now()
	mk := func(id, name string, hourly, daily, weekly, monthly, yearly int) *BackupPolicy {
		return &BackupPolicy{
			ID:       id,
			Name:     name,
			IsSystem: true,
			Hourly:   TierConfig{Enabled: true, KeepCount: hourly, IntervalHours: 1},
			Daily:    TierConfig{Enabled: true, KeepCount: daily, Time: "02:00"},
			Weekly:   TierConfig{Enabled: true, KeepCount: weekly, DayOfWeek: 0, Time: "03:00"},
			Monthly:  TierConfig{Enabled: monthly > 0, KeepCount: monthly, DayOfMonth: 1, Time: "04:00"},
			Yearly:   TierConfig{Enabled: yearly > 0, KeepCount: yearly, Month: 1, DayOfMonth: 1, Time: "05:00"},
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	critical := mk("production-critical", "Production Critical", 24, 15, 8, 4, 2)
	standard := mk("production-standard", "Production Standard", 12, 7, 4, 2, 1)
	dev := mk("development", "Development", 0, 7, 2, 0, 0)
	dev.Hourly = TierConfig{Enabled: false, KeepCount: 0, IntervalHours: 1}
	dev.Monthly = TierConfig{Enabled: false, KeepCount: 0, DayOfMonth: 1, Time: "04:00"}
	dev.Yearly = TierConfig{Enabled: false, KeepCount: 0, Month: 1, DayOfMonth: 1, Time: "05:00"}
	return []*BackupPolicy{critical, standard, dev}
}
