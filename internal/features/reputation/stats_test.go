package reputation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/reputation-bot/internal/common"
)

func userRecord(id string, cats map[Category]int64) UserRecord {
	rec := newRecord(t0)
	for c, v := range cats {
		rec.Categories[c] = v
		rec.Total += v
	}
	return UserRecord{UserID: id, Record: rec}
}

func TestBuildLeaderboard(t *testing.T) {
	users := []UserRecord{
		userRecord("zero", nil),
		userRecord("neg", map[Category]int64{Helpfulness: -2}),
		userRecord("first3", map[Category]int64{Helpfulness: 3}),
		userRecord("five", map[Category]int64{Helpfulness: 1, Creativity: 4}),
		userRecord("second3", map[Category]int64{Legacy: 3}),
	}

	entries, err := buildLeaderboard(users, CategoryTotal, 0)
	require.NoError(t, err)
	var ids []string
	for _, e := range entries {
		ids = append(ids, e.UserID)
	}
	// нулевые и отрицательные не попадают, при равенстве — порядок создания
	assert.Equal(t, []string{"five", "first3", "second3"}, ids)
	assert.Equal(t, int64(5), entries[0].Score)

	entries, err = buildLeaderboard(users, Helpfulness, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "first3", entries[0].UserID)
	assert.Equal(t, int64(3), entries[0].Score)
	assert.Equal(t, "five", entries[1].UserID)
	assert.Equal(t, int64(5), entries[1].Total)

	entries, err = buildLeaderboard(users, CategoryTotal, 1)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = buildLeaderboard(users, Category("karma"), 10)
	assert.ErrorIs(t, err, common.ErrInvalidCategory)
}

func TestBuildScopeStats(t *testing.T) {
	users := []UserRecord{
		userRecord("a", map[Category]int64{Creativity: 1}),
		userRecord("b", map[Category]int64{Community: 1}),
		userRecord("c", map[Category]int64{Creativity: 1, Community: 1}),
	}

	stats := buildScopeStats(users)
	assert.Equal(t, 3, stats.UserCount)
	assert.Equal(t, int64(4), stats.TotalReputation)
	assert.Equal(t, 1.3, stats.AverageReputation)
	assert.Equal(t, int64(2), stats.PerCategoryTotals[Creativity])
	assert.Equal(t, int64(0), stats.PerCategoryTotals[Legacy])
	// равенство решает канонический порядок
	assert.Equal(t, Creativity, stats.MostActiveCategory)
}

func TestBuildScopeStats_Empty(t *testing.T) {
	stats := buildScopeStats(nil)
	assert.Equal(t, 0, stats.UserCount)
	assert.Zero(t, stats.AverageReputation)
	assert.Equal(t, Helpfulness, stats.MostActiveCategory)
	assert.Len(t, stats.PerCategoryTotals, len(Categories))
}

func TestBuildScopeStats_NegativeTotals(t *testing.T) {
	users := []UserRecord{
		userRecord("a", map[Category]int64{Helpfulness: -3}),
		userRecord("b", map[Category]int64{Legacy: -1}),
	}
	stats := buildScopeStats(users)
	assert.Equal(t, int64(-4), stats.TotalReputation)
	assert.Equal(t, -2.0, stats.AverageReputation)
	assert.Equal(t, Creativity, stats.MostActiveCategory)
}
