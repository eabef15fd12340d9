package insight

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gitlab.com/timkado/api/daisi-crm-insights/internal/model"
)

func withFollowUp(r model.Interaction, title string, at time.Time) model.Interaction {
	r.Title = title
	r.FollowUpNeeded = true
	r.FollowUpAt = &at
	return r
}

func TestScheduleFollowUp_ExplicitFutureFollowUpWins(t *testing.T) {
	exact := testNow.Add(5*24*time.Hour + 90*time.Minute + 250*time.Millisecond)
	history := []model.Interaction{
		withFollowUp(rec("1", "call", daysAgo(1), "completed", ""), "Quarterly review", testNow.AddDate(0, 0, 10)),
		withFollowUp(rec("2", "call", daysAgo(2), "completed", ""), "Renewal call", exact),
		withFollowUp(rec("3", "call", daysAgo(3), "completed", ""), "Past follow-up", testNow.AddDate(0, 0, -1)),
	}

	for _, level := range []model.EngagementLevel{model.EngagementHigh, model.EngagementMedium, model.EngagementLow} {
		date, reason := ScheduleFollowUp(history, level, testNow)
		assert.Equal(t, exact, date)
		assert.Equal(t, "Already scheduled follow-up for Renewal call", reason)
	}
}

func TestScheduleFollowUp_IgnoresFollowUpWithoutFlag(t *testing.T) {
	at := testNow.AddDate(0, 0, 2)
	r := rec("1", "call", daysAgo(10), "completed", "")
	r.FollowUpAt = &at

	date, reason := ScheduleFollowUp([]model.Interaction{r}, model.EngagementLow, testNow)
	assert.Equal(t, testNow.AddDate(0, 0, 14), date)
	assert.Equal(t, "Re-engagement attempt recommended", reason)
}

func TestScheduleFollowUp_FollowUpTiebreakByID(t *testing.T) {
	at := testNow.AddDate(0, 0, 3)
	history := []model.Interaction{
		withFollowUp(rec("b", "call", daysAgo(1), "completed", ""), "Second", at),
		withFollowUp(rec("a", "call", daysAgo(1), "completed", ""), "First", at),
	}
	_, reason := ScheduleFollowUp(history, model.EngagementLow, testNow)
	assert.Equal(t, "Already scheduled follow-up for First", reason)
}

func TestScheduleFollowUp_Tiers(t *testing.T) {
	tests := []struct {
		name         string
		history      []model.Interaction
		level        model.EngagementLevel
		expectedDays int
		reason       string
	}{
		{
			name: "gaps over sixty days fall back to fourteen",
			history: []model.Interaction{
				rec("1", "call", daysAgo(10), "completed", ""),
				rec("2", "call", daysAgo(100), "completed", ""),
				rec("3", "call", daysAgo(200), "completed", ""),
			},
			level:        model.EngagementLow,
			expectedDays: 14,
			reason:       "Re-engagement attempt recommended",
		},
		{
			name: "low tier uses the average gap",
			history: []model.Interaction{
				rec("1", "call", daysAgo(10), "completed", ""),
				rec("2", "call", daysAgo(30), "completed", ""),
				rec("3", "call", daysAgo(50), "completed", ""),
			},
			level:        model.EngagementLow,
			expectedDays: 20,
			reason:       "Re-engagement attempt recommended",
		},
		{
			name: "low tier is capped at thirty",
			history: []model.Interaction{
				rec("1", "call", daysAgo(5), "completed", ""),
				rec("2", "call", daysAgo(60), "completed", ""),
			},
			level:        model.EngagementLow,
			expectedDays: 30,
			reason:       "Re-engagement attempt recommended",
		},
		{
			name: "medium tier scales the average gap",
			history: []model.Interaction{
				rec("1", "call", daysAgo(5), "completed", ""),
				rec("2", "call", daysAgo(15), "completed", ""),
				rec("3", "call", daysAgo(25), "completed", ""),
				rec("4", "call", daysAgo(35), "completed", ""),
				rec("5", "call", daysAgo(45), "completed", ""),
				rec("6", "call", daysAgo(55), "completed", ""),
			},
			level:        model.EngagementMedium,
			expectedDays: 7,
			reason:       "Medium engagement customer, timely follow-up recommended",
		},
		{
			name: "medium tier upper bound",
			history: []model.Interaction{
				rec("1", "call", daysAgo(5), "completed", ""),
				rec("2", "call", daysAgo(55), "completed", ""),
			},
			level:        model.EngagementMedium,
			expectedDays: 14,
			reason:       "Medium engagement customer, timely follow-up recommended",
		},
		{
			name: "high tier with recent interaction is pushed out",
			history: []model.Interaction{
				rec("1", "call", daysAgo(1), "completed", ""),
				rec("2", "call", daysAgo(3), "completed", ""),
				rec("3", "call", daysAgo(5), "completed", ""),
			},
			level:        model.EngagementHigh,
			expectedDays: 6,
			reason:       "High engagement customer, regular follow-up recommended (adjusted for recent interaction)",
		},
		{
			name: "high tier upper bound",
			history: []model.Interaction{
				rec("1", "call", daysAgo(10), "completed", ""),
				rec("2", "call", daysAgo(40), "completed", ""),
			},
			level:        model.EngagementHigh,
			expectedDays: 7,
			reason:       "High engagement customer, regular follow-up recommended",
		},
		{
			name: "single record uses the default average",
			history: []model.Interaction{
				rec("1", "call", daysAgo(3), "completed", ""),
			},
			level:        model.EngagementHigh,
			expectedDays: 7,
			reason:       "High engagement customer, regular follow-up recommended",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			date, reason := ScheduleFollowUp(tc.history, tc.level, testNow)
			assert.Equal(t, testNow.AddDate(0, 0, tc.expectedDays), date)
			assert.Equal(t, tc.reason, reason)
		})
	}
}

func TestScheduleFollowUp_TruncatesToSecond(t *testing.T) {
	now := testNow.Add(750 * time.Millisecond)
	date, _ := ScheduleFollowUp([]model.Interaction{rec("1", "call", daysAgo(10), "completed", "")}, model.EngagementLow, now)
	assert.Equal(t, testNow.AddDate(0, 0, 14), date)
}

func TestAverageGapDays(t *testing.T) {
	assert.Equal(t, 14.0, averageGapDays(nil))
	assert.Equal(t, 14.0, averageGapDays([]model.Interaction{rec("1", "call", daysAgo(1), "completed", "")}))

	sameDay := []model.Interaction{
		rec("1", "call", daysAgo(1), "completed", ""),
		rec("2", "call", daysAgo(1).Add(time.Hour), "completed", ""),
	}
	assert.Equal(t, 0.0, averageGapDays(sameDay))

	mixed := []model.Interaction{
		rec("1", "call", daysAgo(0), "completed", ""),
		rec("2", "call", daysAgo(3), "completed", ""),
		rec("3", "call", daysAgo(8), "completed", ""),
		rec("4", "call", daysAgo(100), "completed", ""),
	}
	assert.Equal(t, 4.0, averageGapDays(mixed))
}
