// Package admin provides the read-only rollups and privileged mutations
// behind the admin dashboard. It holds no state of its own; everything is
// computed from, or delegated to, the account and job stores.
package admin

import (
	"context"
	"sort"
	"strings"
	"time"

	"server/internal/domain"
	"server/internal/infra"
)

const activityWindowDays = 7

// Aggregator routes admin reads and mutations. RootEmail identifies the
// protected account: ban and coin grants against it are silent no-ops.
type Aggregator struct {
	accounts  domain.AccountRepository
	jobs      domain.JobRepository
	stats     domain.StatsRepository
	rootEmail string
	logger    infra.Logger
}

// Options bundles the aggregator's collaborators. Stats is optional; when
// nil the rollup is computed from store snapshots.
type Options struct {
	Accounts  domain.AccountRepository
	Jobs      domain.JobRepository
	Stats     domain.StatsRepository
	RootEmail string
	Logger    infra.Logger
}

func New(opts Options) *Aggregator {
	return &Aggregator{
		accounts:  opts.Accounts,
		jobs:      opts.Jobs,
		stats:     opts.Stats,
		rootEmail: strings.ToLower(strings.TrimSpace(opts.RootEmail)),
		logger:    opts.Logger,
	}
}

// Stats returns the system rollup. Per-country signups always come from the
// account snapshot; the rest comes from the stats repository when one is
// configured.
func (a *Aggregator) Stats(ctx context.Context) (*domain.SystemStats, error) {
	var stats *domain.SystemStats
	var err error
	if a.stats != nil {
		stats, err = a.stats.Summary(ctx)
	} else {
		stats, err = a.computeFromSnapshots(ctx)
	}
	if err != nil {
		return nil, err
	}
	if stats.SignupsByCountry == nil {
		accounts, err := a.accounts.List(ctx)
		if err != nil {
			return nil, err
		}
		stats.SignupsByCountry = countByCountry(accounts)
	}
	return stats, nil
}

func countByCountry(accounts []domain.Account) map[string]int {
	byCountry := make(map[string]int)
	for _, account := range accounts {
		country := account.Country
		if country == "" {
			country = "unknown"
		}
		byCountry[country]++
	}
	return byCountry
}

// ListAccounts returns every account, oldest first.
func (a *Aggregator) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	return a.accounts.List(ctx)
}

// ListJobs returns every job, newest first.
func (a *Aggregator) ListJobs(ctx context.Context) ([]domain.Job, error) {
	return a.jobs.ListAll(ctx)
}

// Ban sets or clears the suspension flag. Targeting the protected root
// account is a silent no-op.
func (a *Aggregator) Ban(ctx context.Context, accountID string, banned bool) error {
	account, err := a.accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if a.isRoot(account) {
		a.logger.Warn().Str("account_id", accountID).Msg("admin: ban of root account ignored")
		return nil
	}
	if err := a.accounts.SetSuspended(ctx, accountID, banned); err != nil {
		return err
	}
	a.logger.Info().Str("account_id", accountID).Bool("banned", banned).Msg("admin: suspension updated")
	return nil
}

// GrantCoins credits the account; suspended accounts may still be credited.
// Targeting the protected root account is a silent no-op.
func (a *Aggregator) GrantCoins(ctx context.Context, accountID string, amount int) (int, error) {
	account, err := a.accounts.GetByID(ctx, accountID)
	if err != nil {
		return 0, err
	}
	if a.isRoot(account) {
		a.logger.Warn().Str("account_id", accountID).Msg("admin: coin grant to root account ignored")
		return account.Coins, nil
	}
	balance, err := a.accounts.Credit(ctx, accountID, amount)
	if err != nil {
		return 0, err
	}
	a.logger.Info().Str("account_id", accountID).Int("amount", amount).Int("balance", balance).Msg("admin: coins granted")
	return balance, nil
}

func (a *Aggregator) isRoot(account *domain.Account) bool {
	return a.rootEmail != "" && strings.EqualFold(account.Email, a.rootEmail)
}

func (a *Aggregator) computeFromSnapshots(ctx context.Context) (*domain.SystemStats, error) {
	accounts, err := a.accounts.List(ctx)
	if err != nil {
		return nil, err
	}
	jobs, err := a.jobs.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	stats := &domain.SystemStats{
		TotalAccounts: len(accounts),
		TotalJobs:     len(jobs),
	}

	byDay := make(map[time.Time]*domain.DailyActivity)
	cutoff := time.Now().UTC().AddDate(0, 0, -activityWindowDays).Truncate(24 * time.Hour)
	dayOf := func(ts time.Time) (time.Time, bool) {
		day := ts.UTC().Truncate(24 * time.Hour)
		return day, !day.Before(cutoff)
	}
	activity := func(day time.Time) *domain.DailyActivity {
		if entry, ok := byDay[day]; ok {
			return entry
		}
		entry := &domain.DailyActivity{Day: day}
		byDay[day] = entry
		return entry
	}

	for _, job := range jobs {
		stats.TotalCoinsSpent += job.Cost
		if day, ok := dayOf(job.CreatedAt); ok {
			activity(day).Generations++
		}
	}
	for _, account := range accounts {
		if day, ok := dayOf(account.CreatedAt); ok {
			activity(day).NewAccounts++
		}
	}

	for _, entry := range byDay {
		stats.ActivityByDay = append(stats.ActivityByDay, *entry)
	}
	sort.Slice(stats.ActivityByDay, func(i, j int) bool {
		return stats.ActivityByDay[i].Day.Before(stats.ActivityByDay[j].Day)
	})
	return stats, nil
}
