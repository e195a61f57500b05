// Package core provides the domain models and interfaces for the jobs package.
package core

import (
	"time"
)

// Job represents a unit of work to be processed.
//
// A job with a nil DueAt is inactive: it is kept in the store but never
// selected for processing again.
type Job struct {
	ID          string     `gorm:"primaryKey;size:36"`
	Data        []byte     `gorm:"type:bytes"`
	DueAt       *time.Time `gorm:"index"`
	ProcessedAt *time.Time
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// Active reports whether the job is still scheduled to run.
func (j *Job) Active() bool {
	return j.DueAt != nil
}

// IsDue reports whether the job is active and its due time is not after now.
func (j *Job) IsDue(now time.Time) bool {
	return j.DueAt != nil && !j.DueAt.After(now)
}

// Clone returns a deep copy of the job.
func (j *Job) Clone() *Job {
	c := *j
	if j.Data != nil {
		c.Data = append([]byte(nil), j.Data...)
	}
	if j.DueAt != nil {
		t := *j.DueAt
		c.DueAt = &t
	}
	if j.ProcessedAt != nil {
		t := *j.ProcessedAt
		c.ProcessedAt = &t
	}
	return &c
}

// DueAfter converts an optional delay into an optional due time relative to now.
// A nil delay yields a nil due time (inactive). Negative delays mean "now".
func DueAfter(now time.Time, delay *time.Duration) *time.Time {
	if delay == nil {
		return nil
	}
	d := *delay
	if d < 0 {
		d = 0
	}
	due := now.Add(d)
	return &due
}
