package model

import "time"

// ClassError records one class's recalibration failure.
type ClassError struct {
	LeagueClass LeagueClass `json:"league_class"`
	Message     string      `json:"message"`
}

// RecalibrationReport summarizes a recalibration run. Errors holds at most
// the first 20 failures; TotalErrors counts all of them.
type RecalibrationReport struct {
	RunID            string       `json:"run_id"`
	Season           int          `json:"season"`
	ClassesProcessed int          `json:"classes_processed"`
	ClassesSkipped   int          `json:"classes_skipped"`
	Errors           []ClassError `json:"errors"`
	TotalErrors      int          `json:"total_errors"`
	Cancelled        bool         `json:"cancelled"`
	StartedAt        time.Time    `json:"started_at"`
	FinishedAt       time.Time    `json:"finished_at"`
}
