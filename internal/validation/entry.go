package validation

import (
	"strings"

	"leaderboard-sync/internal/constants"
	"leaderboard-sync/internal/domain"

	"golang.org/x/text/unicode/norm"
)

// SanitizeEntry normalizes a submitted score entry. The returned entry always
// has IsMe=false; callers mark local submissions themselves.
func SanitizeEntry(entry domain.ScoreEntry) (domain.ScoreEntry, error) {
	user := clip(entry.User, constants.MaxUserNameLen)
	if user == "" {
		return domain.ScoreEntry{}, domain.NewValidationError(domain.CodeEmptyUserName, "score entry user is empty")
	}

	return domain.ScoreEntry{
		User:       user,
		Score:      max(entry.Score, 0),
		Level:      max(entry.Level, 0),
		Date:       strings.TrimSpace(entry.Date),
		SkillUsage: sanitizeSkillUsage(entry.SkillUsage),
		IsMe:       false,
	}, nil
}

func sanitizeSkillUsage(items []domain.SkillUsage) []domain.SkillUsage {
	if len(items) > constants.MaxSkillUsageItems {
		items = items[:constants.MaxSkillUsageItems]
	}

	seen := make(map[string]struct{}, len(items))
	out := make([]domain.SkillUsage, 0, len(items))
	for _, usage := range items {
		name := clip(usage.Name, constants.MaxSkillNameLen)
		if name == "" {
			continue
		}
		hotkey := clipOptional(usage.Hotkey, constants.MaxSkillHotkeyLen)
		command := clipOptional(usage.Command, constants.MaxSkillCommandLen)

		key := SkillUsageKey(domain.SkillUsage{Name: name, Hotkey: hotkey, Command: command})
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		out = append(out, domain.SkillUsage{Name: name, Hotkey: hotkey, Command: command})
	}
	return out
}

// SkillUsageKey is the (name, hotkey, command) uniqueness key.
func SkillUsageKey(u domain.SkillUsage) string {
	return u.Name + "::" + deref(u.Hotkey) + "::" + deref(u.Command)
}

// clip NFC-normalizes, trims and truncates s to limit runes.
func clip(s string, limit int) string {
	s = strings.TrimSpace(norm.NFC.String(s))
	runes := []rune(s)
	if len(runes) > limit {
		runes = runes[:limit]
	}
	return string(runes)
}

func clipOptional(s *string, limit int) *string {
	if s == nil {
		return nil
	}
	v := clip(*s, limit)
	if v == "" {
		return nil
	}
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
