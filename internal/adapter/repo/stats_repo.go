package repo

import (
	"context"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

const activityWindowDays = 7

// StatsRepositoryPG computes the admin rollups directly in the database.
type StatsRepositoryPG struct {
	runner *infra.SQLRunner
}

// NewStatsRepository creates a new StatsRepositoryPG.
func NewStatsRepository(runner *infra.SQLRunner) *StatsRepositoryPG {
	return &StatsRepositoryPG{runner: runner}
}

// Summary returns the totals plus per-day activity for the trailing week.
func (r *StatsRepositoryPG) Summary(ctx context.Context) (*domain.SystemStats, error) {
	var stats domain.SystemStats
	row := r.runner.QueryRow(ctx, sqlinline.QStatsSummary)
	if err := row.Scan(&stats.TotalAccounts, &stats.TotalJobs, &stats.TotalCoinsSpent); err != nil {
		return nil, err
	}

	rows, err := r.runner.Query(ctx, sqlinline.QStatsActivity, activityWindowDays)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var day domain.DailyActivity
		if err := rows.Scan(&day.Day, &day.Generations, &day.NewAccounts); err != nil {
			return nil, err
		}
		stats.ActivityByDay = append(stats.ActivityByDay, day)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &stats, nil
}

var _ domain.StatsRepository = (*StatsRepositoryPG)(nil)
