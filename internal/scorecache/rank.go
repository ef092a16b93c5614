package scorecache

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"

	"leaderboard-sync/internal/constants"
	"leaderboard-sync/internal/domain"
)

// compareRank orders by score desc, level desc, date desc. User name and skill
// usage only break remaining ties so the order is total and stable.
func compareRank(a, b domain.ScoreEntry) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Level, a.Level); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Date, a.Date); c != 0 {
		return c
	}
	if c := cmp.Compare(a.User, b.User); c != 0 {
		return c
	}
	return cmp.Compare(skillUsageJSON(a.SkillUsage), skillUsageJSON(b.SkillUsage))
}

func skillUsageJSON(items []domain.SkillUsage) string {
	if len(items) == 0 {
		return "[]"
	}
	data, err := json.Marshal(items)
	if err != nil {
		return ""
	}
	return string(data)
}

func dedupeKey(e domain.ScoreEntry) string {
	return fmt.Sprintf("%s::%d::%d::%s::%s", e.User, e.Score, e.Level, e.Date, skillUsageJSON(e.SkillUsage))
}

// SortAndDedupe ranks entries and collapses exact duplicates. A collapsed
// entry is marked IsMe if any of its duplicates was.
func SortAndDedupe(entries []domain.ScoreEntry) []domain.ScoreEntry {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, compareRank)

	index := make(map[string]int, len(sorted))
	out := make([]domain.ScoreEntry, 0, len(sorted))
	for _, e := range sorted {
		key := dedupeKey(e)
		if i, ok := index[key]; ok {
			out[i].IsMe = out[i].IsMe || e.IsMe
			continue
		}
		index[key] = len(out)
		out = append(out, e)
	}
	return out
}

// Truncate keeps the top CacheMaxEntries of an already ranked list.
func Truncate(entries []domain.ScoreEntry) []domain.ScoreEntry {
	if len(entries) > constants.CacheMaxEntries {
		return entries[:constants.CacheMaxEntries]
	}
	return entries
}

// Merge combines the cached snapshot with incoming entries.
func Merge(existing, incoming []domain.ScoreEntry) []domain.ScoreEntry {
	combined := make([]domain.ScoreEntry, 0, len(existing)+len(incoming))
	combined = append(combined, existing...)
	combined = append(combined, incoming...)
	return Truncate(SortAndDedupe(combined))
}

// Top returns at most limit entries from a ranked list.
func Top(entries []domain.ScoreEntry, limit int) []domain.ScoreEntry {
	if limit < len(entries) {
		return entries[:limit]
	}
	return entries
}
