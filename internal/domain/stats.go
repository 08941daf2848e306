package domain

import "time"

// DailyActivity aggregates generation and signup counts for one day.
type DailyActivity struct {
	Day         time.Time
	Generations int
	NewAccounts int
}

// SystemStats is the read-only admin rollup over accounts and jobs.
type SystemStats struct {
	TotalAccounts    int
	TotalJobs        int
	TotalCoinsSpent  int
	ActivityByDay    []DailyActivity
	SignupsByCountry map[string]int
}
