package enrichment

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/timkado/api/daisi-crm-insights/internal/model"
)

func heuristicProfile() model.InsightProfile {
	return model.InsightProfile{
		EngagementLevel:          model.EngagementLow,
		RecommendedActions:       []string{"Schedule a follow-up call"},
		BestContactTime:          "Morning (10:00)",
		PreferredCommunication:   "Call",
		PotentialServices:        []string{"Life Insurance", "Health Insurance"},
		RiskAssessment:           "New customer, needs nurturing",
		SuggestedFollowUpDate:    time.Date(2024, 6, 29, 12, 0, 0, 0, time.UTC),
		FollowUpSuggestionReason: "Re-engagement attempt recommended",
		InsightsSummary:          "Analysis based on 1 interactions showing low engagement level",
	}
}

func decodeFields(t *testing.T, s string) map[string]json.RawMessage {
	t.Helper()
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(s), &fields))
	return fields
}

func TestMerge_NeverOverridesFollowUp(t *testing.T) {
	base := heuristicProfile()
	fields := decodeFields(t, `{
		"suggested_follow_up_date": "2030-01-01T00:00:00Z",
		"follow_up_suggestion_reason": "Because the model said so",
		"risk_assessment": "Moderate risk"
	}`)

	merged, used := Merge(base, fields)
	assert.True(t, used)
	assert.Equal(t, base.SuggestedFollowUpDate, merged.SuggestedFollowUpDate)
	assert.Equal(t, base.FollowUpSuggestionReason, merged.FollowUpSuggestionReason)
	assert.Equal(t, "Moderate risk", merged.RiskAssessment)
}

func TestMerge_FieldRules(t *testing.T) {
	base := heuristicProfile()
	fields := decodeFields(t, `{
		"engagement_level": "very high",
		"recommended_actions": ["Call back", "", "Call back", 42, "Send brochure", "Visit", "Extra"],
		"best_contact_time": "   ",
		"preferred_communication": null,
		"potential_services": "Term Plan",
		"insights_summary": "Warm lead interested in term cover."
	}`)

	merged, used := Merge(base, fields)
	require.True(t, used)
	assert.Equal(t, model.EngagementLow, merged.EngagementLevel, "unknown tiers are ignored")
	assert.Equal(t, []string{"Call back", "Send brochure", "Visit"}, merged.RecommendedActions)
	assert.Equal(t, base.BestContactTime, merged.BestContactTime, "blank strings are ignored")
	assert.Equal(t, base.PreferredCommunication, merged.PreferredCommunication, "null is ignored")
	assert.Equal(t, []string{"Term Plan"}, merged.PotentialServices)
	assert.Equal(t, "Warm lead interested in term cover.", merged.InsightsSummary)
}

func TestMerge_ValidTierIsNormalised(t *testing.T) {
	merged, used := Merge(heuristicProfile(), decodeFields(t, `{"engagement_level": "medium"}`))
	assert.True(t, used)
	assert.Equal(t, model.EngagementMedium, merged.EngagementLevel)
}

func TestMerge_NothingUsable(t *testing.T) {
	base := heuristicProfile()
	merged, used := Merge(base, decodeFields(t, `{"unrelated": "x", "recommended_actions": []}`))
	assert.False(t, used)
	assert.Equal(t, base, merged)
}

func TestMerge_DoesNotAliasBaseSlices(t *testing.T) {
	base := heuristicProfile()
	merged, _ := Merge(base, decodeFields(t, `{"risk_assessment": "x"}`))
	merged.RecommendedActions[0] = "changed"
	assert.Equal(t, "Schedule a follow-up call", base.RecommendedActions[0])
}
