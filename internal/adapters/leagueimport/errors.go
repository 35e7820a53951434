package leagueimport

import "errors"

var (
	// ErrNoData means the feed could not supply activity for the league.
	// Callers treat it as "metrics absent".
	ErrNoData = errors.New("league activity unavailable")
	// ErrNotConfigured is returned when no base URL was set.
	ErrNotConfigured = errors.New("league import not configured")
)
