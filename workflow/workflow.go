// Package workflow defines the content status set and the scheduling rule.
package workflow

import (
	"time"

	"stanza/apierr"
)

const (
	StatusDraft     = "draft"
	StatusInReview  = "inReview"
	StatusScheduled = "scheduled"
	StatusPublished = "published"
)

// Statuses is the closed set of workflow states. Transitions between them
// are unrestricted; only permissions gate who may move what where. An
// external job is expected to flip scheduled content to published at its
// scheduledAt; nothing in-process runs a timer for that.
var Statuses = []string{StatusDraft, StatusInReview, StatusScheduled, StatusPublished}

func ValidStatus(status string) bool {
	for _, s := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// CheckSchedule enforces the one structural rule of the machine: entering
// the scheduled state requires a scheduledAt in the future. A scheduledAt
// on any other state is carried as-is; published content is visible
// regardless of it.
func CheckSchedule(status string, scheduledAt *time.Time, now time.Time) error {
	if status != StatusScheduled {
		return nil
	}
	if scheduledAt == nil {
		return apierr.Invalid("scheduled_at", "required when status is scheduled")
	}
	if !scheduledAt.After(now) {
		return apierr.Invalid("scheduled_at", "must be in the future")
	}
	return nil
}
