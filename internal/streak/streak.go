// Package streak folds accepted daily completions into streak and badge tiers.
package streak

import (
	"slices"

	"leaderboard-sync/internal/calendar"
	"leaderboard-sync/internal/constants"
	"leaderboard-sync/internal/domain"
)

// Compute returns the badge status for the accepted challenge keys as of today.
// Invalid keys are dropped; an invalid today is an error.
func Compute(acceptedKeys []string, today string) (domain.DailyBadgeStatus, error) {
	todayDay, err := calendar.DayNumber(today)
	if err != nil {
		return domain.DailyBadgeStatus{}, err
	}

	days := uniqueDays(acceptedKeys)
	maxStreak, latestRun := runs(days)

	current := 0
	if n := len(days); n > 0 {
		if gap := todayDay - days[n-1]; gap == 0 || gap == 1 {
			current = latestRun
		}
	}

	status := domain.DailyBadgeStatus{CurrentStreak: current, MaxStreak: maxStreak}

	highest, ok := HighestBadgePower(maxStreak)
	if ok {
		status.HighestBadgePower = intPtr(highest)
		status.HighestBadgeDays = intPtr(1 << highest)
	}

	next, ok := NextBadgePower(highest, ok)
	if ok {
		status.NextBadgePower = intPtr(next)
		status.NextBadgeDays = intPtr(1 << next)
		status.DaysToNextBadge = intPtr(max(0, (1<<next)-current))
	}

	return status, nil
}

// HighestBadgePower is the largest p <= MaxBadgePower with 2^p <= streak.
func HighestBadgePower(streak int) (int, bool) {
	if streak < 1 {
		return 0, false
	}
	power := 0
	for power < constants.MaxBadgePower && 1<<(power+1) <= streak {
		power++
	}
	return power, true
}

// NextBadgePower is 0 before the first badge, and absent at the top tier.
func NextBadgePower(highest int, hasBadge bool) (int, bool) {
	if !hasBadge {
		return 0, true
	}
	if highest >= constants.MaxBadgePower {
		return 0, false
	}
	return highest + 1, true
}

func uniqueDays(keys []string) []int64 {
	seen := make(map[int64]struct{}, len(keys))
	days := make([]int64, 0, len(keys))
	for _, key := range keys {
		day, err := calendar.DayNumber(key)
		if err != nil {
			continue
		}
		if _, dup := seen[day]; dup {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	slices.Sort(days)
	return days
}

// runs returns the longest run of consecutive days and the run ending at the last day.
func runs(days []int64) (longest, latest int) {
	for i, day := range days {
		if i > 0 && day-days[i-1] == 1 {
			latest++
		} else {
			latest = 1
		}
		longest = max(longest, latest)
	}
	return longest, latest
}

func intPtr(v int) *int {
	return &v
}
