package insight

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/timkado/api/daisi-crm-insights/internal/model"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return testNow.AddDate(0, 0, -n)
}

func rec(id, typ string, at time.Time, status, notes string) model.Interaction {
	return model.Interaction{
		ID:         id,
		CustomerID: "cust-1",
		OwnerID:    "owner-1",
		Type:       typ,
		OccurredAt: at,
		Title:      "Interaction " + id,
		Notes:      notes,
		Status:     status,
	}
}

func TestCompute_EmptyHistory(t *testing.T) {
	profile := NewEngine(time.UTC).Compute(nil, testNow)

	assert.Equal(t, model.EngagementNew, profile.EngagementLevel)
	assert.Equal(t, []string{
		"Schedule an introductory call",
		"Send a welcome message",
		"Add notes from your initial contact",
	}, profile.RecommendedActions)
	assert.Equal(t, "Business hours (10:00 AM - 5:00 PM)", profile.BestContactTime)
	assert.Equal(t, "Call", profile.PreferredCommunication)
	assert.Equal(t, []string{"Initial Assessment Required"}, profile.PotentialServices)
	assert.Equal(t, "Not enough data to assess", profile.RiskAssessment)
	assert.Equal(t, testNow.AddDate(0, 0, 1), profile.SuggestedFollowUpDate)
	assert.Equal(t, "New customer, immediate follow-up recommended", profile.FollowUpSuggestionReason)
	assert.Empty(t, profile.InsightsSummary)
}

func TestCompute_SinglePendingCall(t *testing.T) {
	history := []model.Interaction{rec("1", "call", daysAgo(10), "pending", "")}
	history[0].Title = "Intro"

	profile := NewEngine(time.UTC).Compute(history, testNow)

	assert.Equal(t, model.EngagementLow, profile.EngagementLevel)
	assert.Equal(t, []string{
		"Complete pending interaction: Intro",
		"Schedule a follow-up call",
		"Share new policy benefits relevant to their needs",
	}, profile.RecommendedActions)
	assert.Equal(t, "Call", profile.PreferredCommunication)
	assert.Equal(t, []string{"Life Insurance", "Health Insurance"}, profile.PotentialServices)
	assert.Equal(t, "New customer, needs nurturing", profile.RiskAssessment)
	assert.Equal(t, "Business hours (10:00 AM - 5:00 PM)", profile.BestContactTime)
	assert.Equal(t, "Analysis based on 1 interactions showing low engagement level", profile.InsightsSummary)
}

func TestClassifyEngagement(t *testing.T) {
	build := func(n, startDaysAgo, step int) []model.Interaction {
		out := make([]model.Interaction, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, rec(string(rune('a'+i)), "call", daysAgo(startDaysAgo+i*step), "completed", ""))
		}
		return out
	}

	tests := []struct {
		name     string
		history  []model.Interaction
		expected model.EngagementLevel
	}{
		{"more than ten old interactions is high", build(11, 40, 5), model.EngagementHigh},
		{"six recent interactions is high", build(6, 1, 2), model.EngagementHigh},
		{"six old interactions is medium", build(6, 40, 5), model.EngagementMedium},
		{"three recent interactions is medium", build(3, 1, 5), model.EngagementMedium},
		{"exactly thirty days counts as recent", build(3, 30, 0), model.EngagementMedium},
		{"thirty one days is not recent", build(3, 31, 0), model.EngagementLow},
		{"two interactions is low", build(2, 1, 1), model.EngagementLow},
		{"nothing is new", nil, model.EngagementNew},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ClassifyEngagement(tc.history, testNow))
		})
	}
}

func TestCompute_HighEngagementRisk(t *testing.T) {
	history := make([]model.Interaction, 0, 11)
	for i := 0; i < 11; i++ {
		history = append(history, rec(string(rune('a'+i)), "meeting", daysAgo(40+i*5), "completed", ""))
	}

	profile := NewEngine(time.UTC).Compute(history, testNow)
	assert.Equal(t, model.EngagementHigh, profile.EngagementLevel)
	assert.Equal(t, "Loyal customer with strong engagement", profile.RiskAssessment)
	assert.Equal(t, "Meeting", profile.PreferredCommunication)
	assert.Contains(t, profile.RecommendedActions, "Schedule an in-person meeting")
	assert.Equal(t, []string{"Term Life Insurance", "Family Health Plan", "Investment Plans"}, profile.PotentialServices)
}

func TestCompute_MediumRenewalRisk(t *testing.T) {
	history := []model.Interaction{
		rec("1", "email", daysAgo(5), "completed", "Policy RENEWAL due next month"),
		rec("2", "email", daysAgo(15), "completed", ""),
		rec("3", "call", daysAgo(25), "completed", ""),
	}

	profile := NewEngine(time.UTC).Compute(history, testNow)
	assert.Equal(t, model.EngagementMedium, profile.EngagementLevel)
	assert.Equal(t, "Stable customer approaching renewal decision", profile.RiskAssessment)

	history[0].Notes = "Discussed premiums"
	profile = NewEngine(time.UTC).Compute(history, testNow)
	assert.Equal(t, "Engaged customer, moderate retention risk", profile.RiskAssessment)
}

func TestCompute_LowMultipleInteractionsIsAtRisk(t *testing.T) {
	history := []model.Interaction{
		rec("1", "sms", daysAgo(50), "completed", ""),
		rec("2", "sms", daysAgo(90), "completed", ""),
	}
	profile := NewEngine(time.UTC).Compute(history, testNow)
	assert.Equal(t, "At-risk customer, needs re-engagement", profile.RiskAssessment)
	assert.Equal(t, "Sms", profile.PreferredCommunication)
	assert.Equal(t, "Send an SMS with a brief update", profile.RecommendedActions[0])
}

func TestCompute_InterestsAndActions(t *testing.T) {
	history := []model.Interaction{
		rec("1", "WhatsApp", daysAgo(2), "completed", "Interested in Health Insurance and a two-wheeler policy"),
		rec("2", "whatsapp", daysAgo(20), "completed", "Asked about ULIP"),
		rec("3", "call", daysAgo(40), "completed", "health insurance again"),
	}

	profile := NewEngine(time.UTC).Compute(history, testNow)
	assert.Equal(t, []string{"Health Insurance", "Two-Wheeler", "Ulip"}, profile.PotentialServices)
	assert.Equal(t, "Whatsapp", profile.PreferredCommunication)
	assert.Equal(t, []string{
		"Send personalized offer based on expressed interest",
		"Send a follow-up WhatsApp message with latest offers",
		"Share new policy benefits relevant to their needs",
	}, profile.RecommendedActions)
}

func TestCompute_InterestsCappedAtThree(t *testing.T) {
	history := []model.Interaction{
		rec("1", "call", daysAgo(3), "completed", "ulip, car insurance, life insurance and health insurance"),
	}
	profile := NewEngine(time.UTC).Compute(history, testNow)
	assert.Equal(t, []string{"Health Insurance", "Life Insurance", "Car Insurance"}, profile.PotentialServices)
}

func TestCompute_UnknownChannelFillsGenericActions(t *testing.T) {
	history := []model.Interaction{
		rec("1", "social_media", daysAgo(3), "completed", ""),
	}
	profile := NewEngine(time.UTC).Compute(history, testNow)
	assert.Equal(t, "Social_media", profile.PreferredCommunication)
	assert.Equal(t, []string{
		"Share new policy benefits relevant to their needs",
		"Check if any family members need coverage",
		"Review current policies for potential upgrades",
	}, profile.RecommendedActions)
	assert.Len(t, profile.RecommendedActions, 3)
}

func TestDominantChannel_TieGoesToNewest(t *testing.T) {
	ordered := NewestFirst([]model.Interaction{
		rec("1", "call", daysAgo(10), "completed", ""),
		rec("2", "email", daysAgo(1), "completed", ""),
	})
	assert.Equal(t, "email", dominantChannel(ordered))
	assert.Equal(t, "call", dominantChannel([]model.Interaction{rec("1", "  ", daysAgo(1), "completed", "")}))
}

func TestCompute_OrderIndependent(t *testing.T) {
	history := []model.Interaction{
		rec("b", "email", daysAgo(1), "pending", "thinking about a family plan"),
		rec("a", "call", daysAgo(1), "pending", ""),
		rec("c", "call", daysAgo(12), "completed", ""),
		rec("d", "email", daysAgo(33), "completed", "renewal"),
	}
	reversed := []model.Interaction{history[3], history[2], history[1], history[0]}

	engine := NewEngine(time.UTC)
	first := engine.Compute(history, testNow)
	second := engine.Compute(reversed, testNow)
	require.Equal(t, first, second)
	assert.Equal(t, "Complete pending interaction: Interaction a", first.RecommendedActions[0])
}

func TestCompute_DoesNotMutateInput(t *testing.T) {
	history := []model.Interaction{
		rec("1", "call", daysAgo(30), "completed", ""),
		rec("2", "call", daysAgo(1), "completed", ""),
	}
	NewEngine(time.UTC).Compute(history, testNow)
	assert.Equal(t, "1", history[0].ID)
}

func TestTextHelpers(t *testing.T) {
	assert.Equal(t, "Two-Wheeler", TitleCase("two-wheeler"))
	assert.Equal(t, "Ulip", TitleCase("ulip"))
	assert.Equal(t, "Health Insurance", TitleCase("health insurance"))
	assert.Equal(t, "Video_call", capitalize("video_call"))
	assert.Equal(t, "Whatsapp", capitalize("WhatsApp"))
	assert.Equal(t, "", capitalize(""))
}
