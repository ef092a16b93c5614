package validation

import (
	"fmt"
	"strings"
	"testing"

	"leaderboard-sync/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestSanitizeEntryRejectsBlankUser(t *testing.T) {
	_, err := SanitizeEntry(domain.ScoreEntry{User: "   \t "})
	require.Error(t, err)
	assert.True(t, domain.HasValidationCode(err, domain.CodeEmptyUserName))
}

func TestSanitizeEntryTruncatesLongUser(t *testing.T) {
	got, err := SanitizeEntry(domain.ScoreEntry{User: "  " + strings.Repeat("é", 25) + "  "})
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("é", 20), got.User)
}

func TestSanitizeEntryClampsNumbersAndTrimsDate(t *testing.T) {
	got, err := SanitizeEntry(domain.ScoreEntry{
		User:  "ada",
		Score: -50,
		Level: -1,
		Date:  "  2024-01-01T10:00:00Z ",
		IsMe:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Score)
	assert.Equal(t, int64(0), got.Level)
	assert.Equal(t, "2024-01-01T10:00:00Z", got.Date)
	assert.False(t, got.IsMe)
}

func TestSanitizeEntrySkillUsage(t *testing.T) {
	items := []domain.SkillUsage{
		{Name: "  dash ", Hotkey: strPtr(" Q "), Command: strPtr("  ")},
		{Name: "dash", Hotkey: strPtr("Q")},
		{Name: "   ", Hotkey: strPtr("W")},
		{Name: "blink", Hotkey: strPtr(""), Command: strPtr(strings.Repeat("x", 130))},
		{Name: strings.Repeat("n", 30), Hotkey: strPtr(strings.Repeat("h", 20))},
	}

	got, err := SanitizeEntry(domain.ScoreEntry{User: "ada", SkillUsage: items})
	require.NoError(t, err)
	require.Len(t, got.SkillUsage, 3)

	assert.Equal(t, "dash", got.SkillUsage[0].Name)
	assert.Equal(t, "Q", *got.SkillUsage[0].Hotkey)
	assert.Nil(t, got.SkillUsage[0].Command)

	assert.Equal(t, "blink", got.SkillUsage[1].Name)
	assert.Nil(t, got.SkillUsage[1].Hotkey)
	assert.Len(t, *got.SkillUsage[1].Command, 120)

	assert.Len(t, got.SkillUsage[2].Name, 20)
	assert.Len(t, *got.SkillUsage[2].Hotkey, 16)
}

func TestSanitizeEntryCapsSkillUsageBeforeFiltering(t *testing.T) {
	var items []domain.SkillUsage
	for i := 0; i < 25; i++ {
		items = append(items, domain.SkillUsage{Name: fmt.Sprintf("skill-%d", i)})
	}

	got, err := SanitizeEntry(domain.ScoreEntry{User: "ada", SkillUsage: items})
	require.NoError(t, err)
	require.Len(t, got.SkillUsage, 20)
	assert.Equal(t, "skill-0", got.SkillUsage[0].Name)
	assert.Equal(t, "skill-19", got.SkillUsage[19].Name)
}

func TestSanitizeEntryNormalizesUnicode(t *testing.T) {
	// "e" + combining acute accent composes to a single rune under NFC
	got, err := SanitizeEntry(domain.ScoreEntry{User: "Rene\u0301"})
	require.NoError(t, err)
	assert.Equal(t, "Ren\u00e9", got.User)
}

func TestSanitizeEntryClipsComposedName(t *testing.T) {
	// 19 letters, a decomposed "é" and one more letter: the accent survives
	// because composition happens before the name is cut to 20 runes
	name := strings.Repeat("a", 19) + "e\u0301" + "x"
	got, err := SanitizeEntry(domain.ScoreEntry{User: name})
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("a", 19)+"\u00e9", got.User)
}
