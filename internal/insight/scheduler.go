package insight

import (
	"fmt"
	"time"

	"gitlab.com/timkado/api/daisi-crm-insights/internal/model"
	"gitlab.com/timkado/api/daisi-crm-insights/pkg/utils"
)

// ScheduleFollowUp picks the next suggested contact date and explains why.
//
// An explicit follow-up already scheduled in the future always wins and is
// returned verbatim. Otherwise the date is derived from the engagement tier
// and the average gap between consecutive interactions, pushed out by a few
// days when the customer was contacted very recently.
func ScheduleFollowUp(history []model.Interaction, level model.EngagementLevel, now time.Time) (time.Time, string) {
	if next, ok := earliestScheduledFollowUp(history, now); ok {
		return *next.FollowUpAt, fmt.Sprintf(scheduledReason, next.Title)
	}

	avg := averageGapDays(history)

	var days int
	var reason string
	switch level {
	case model.EngagementHigh:
		days = clamp(int(avg/2), 3, 7)
		reason = highReason
	case model.EngagementMedium:
		days = clamp(int(avg*0.7), 7, 14)
		reason = mediumReason
	default:
		days = clamp(int(avg), 14, 30)
		reason = lowReason
	}

	if latest, ok := mostRecent(history); ok && utils.DaysBetween(latest, now) < recentFollowUpGap {
		days += recentFollowUpGap
		reason += recentAdjustment
	}

	return utils.AddDays(now, days), reason
}

func earliestScheduledFollowUp(history []model.Interaction, now time.Time) (model.Interaction, bool) {
	var best model.Interaction
	found := false
	for _, rec := range history {
		if !rec.HasFollowUpAfter(now) {
			continue
		}
		if !found ||
			rec.FollowUpAt.Before(*best.FollowUpAt) ||
			(rec.FollowUpAt.Equal(*best.FollowUpAt) && rec.ID < best.ID) {
			best = rec
			found = true
		}
	}
	return best, found
}

// averageGapDays averages the whole-day gaps between consecutive
// interactions, ignoring gaps outside [0, 60]. It falls back to 14.
func averageGapDays(history []model.Interaction) float64 {
	if len(history) < 2 {
		return defaultAvgGapDays
	}
	sorted := oldestFirst(history)
	sum, n := 0, 0
	for i := 1; i < len(sorted); i++ {
		gap := utils.DaysBetween(sorted[i-1].OccurredAt, sorted[i].OccurredAt)
		if gap < 0 || gap > maxGapDays {
			continue
		}
		sum += gap
		n++
	}
	if n == 0 {
		return defaultAvgGapDays
	}
	return float64(sum) / float64(n)
}

func mostRecent(history []model.Interaction) (time.Time, bool) {
	var latest time.Time
	for i, rec := range history {
		if i == 0 || rec.OccurredAt.After(latest) {
			latest = rec.OccurredAt
		}
	}
	return latest, len(history) > 0
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
