// Package reputation — stats.go строит рейтинги и сводную статистику.
// Только чтение: функции работают с копиями записей.
package reputation

import (
	"math"
	"sort"

	"serotonyl.ru/reputation-bot/internal/common"
)

// buildLeaderboard сортирует пользователей по очкам категории (или сумме).
//
// Правила:
//   - в рейтинг попадают только score > 0;
//   - сортировка по убыванию score;
//   - при равенстве — порядок создания записей (users уже в этом порядке);
//   - limit <= 0 — без обрезки.
func buildLeaderboard(users []UserRecord, category Category, limit int) ([]LeaderboardEntry, error) {
	if category != CategoryTotal && !category.Valid() {
		return nil, common.ErrInvalidCategory
	}

	entries := make([]LeaderboardEntry, 0, len(users))
	for _, u := range users {
		score := u.Record.Total
		if category != CategoryTotal {
			score = u.Record.Categories[category]
		}
		if score <= 0 {
			continue
		}
		entries = append(entries, LeaderboardEntry{
			UserID:     u.UserID,
			Score:      score,
			Total:      u.Record.Total,
			Categories: u.Record.Categories,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// buildScopeStats считает сводку по всем записям scope.
// MostActiveCategory — категория с наибольшей суммой; при равенстве побеждает
// более ранняя в каноническом порядке, поэтому при нулях это helpfulness.
func buildScopeStats(users []UserRecord) ScopeStats {
	stats := ScopeStats{
		UserCount:          len(users),
		PerCategoryTotals:  make(map[Category]int64, len(Categories)),
		MostActiveCategory: Helpfulness,
	}
	for _, c := range Categories {
		stats.PerCategoryTotals[c] = 0
	}

	for _, u := range users {
		stats.TotalReputation += u.Record.Total
		for c, v := range u.Record.Categories {
			stats.PerCategoryTotals[c] += v
		}
	}

	if stats.UserCount > 0 {
		avg := float64(stats.TotalReputation) / float64(stats.UserCount)
		stats.AverageReputation = math.Round(avg*10) / 10
	}

	best := stats.PerCategoryTotals[Helpfulness]
	for _, c := range Categories[1:] {
		if v := stats.PerCategoryTotals[c]; v > best {
			best = v
			stats.MostActiveCategory = c
		}
	}
	return stats
}
