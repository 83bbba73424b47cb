package domain

import (
	"math"
	"time"
)

type ImportStatus string

const (
	ImportInitializing ImportStatus = "initializing"
	ImportProcessing   ImportStatus = "processing"
	ImportCompleted    ImportStatus = "completed"
	ImportError        ImportStatus = "error"
)

// MaxImportErrors bounds the error details kept per job.
const MaxImportErrors = 10

// ImportJob is the live state of one bulk product upload. It only exists in
// memory and is mutated exclusively by the worker that owns it.
type ImportJob struct {
	ID         string
	FileName   string
	Username   string
	Status     ImportStatus
	Total      int
	Processed  int
	Succeeded  int
	Failed     int
	Duplicate  int
	Errors     []string
	Message    string
	StartedAt  time.Time
	FinishedAt *time.Time
}

func (j ImportJob) Terminal() bool {
	return j.Status == ImportCompleted || j.Status == ImportError
}

// Progress returns processed/total as a percentage rounded to two decimals.
func (j ImportJob) Progress() float64 {
	if j.Total <= 0 {
		if j.Status == ImportCompleted {
			return 100
		}
		return 0
	}
	p := float64(j.Processed) / float64(j.Total) * 100
	return math.Round(p*100) / 100
}

// AddError records a row error, dropping it once the bound is reached.
func (j *ImportJob) AddError(msg string) {
	if len(j.Errors) < MaxImportErrors {
		j.Errors = append(j.Errors, msg)
	}
}

// Clone returns a deep copy safe to hand to readers.
func (j ImportJob) Clone() ImportJob {
	c := j
	if j.Errors != nil {
		c.Errors = append([]string(nil), j.Errors...)
	}
	if j.FinishedAt != nil {
		t := *j.FinishedAt
		c.FinishedAt = &t
	}
	return c
}

// Finish moves the job into a terminal state.
func (j *ImportJob) Finish(status ImportStatus, message string, at time.Time) {
	j.Status = status
	j.Message = message
	j.FinishedAt = &at
}
