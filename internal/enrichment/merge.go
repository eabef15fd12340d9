package enrichment

import (
	"encoding/json"
	"strings"

	"gitlab.com/timkado/api/daisi-crm-insights/internal/model"
)

const maxMergedListLength = 3

// Merge overlays generated fields onto base. Only present, non-empty values
// replace base values. The follow-up date and reason always stay from base.
// It reports whether any field was taken from generated.
func Merge(base model.InsightProfile, generated map[string]json.RawMessage) (model.InsightProfile, bool) {
	merged := base
	merged.RecommendedActions = append([]string(nil), base.RecommendedActions...)
	merged.PotentialServices = append([]string(nil), base.PotentialServices...)
	used := false

	if s, ok := stringField(generated, "engagement_level"); ok {
		if level, valid := model.ParseEngagementLevel(s); valid {
			merged.EngagementLevel = level
			used = true
		}
	}
	if list, ok := listField(generated, "recommended_actions"); ok {
		merged.RecommendedActions = list
		used = true
	}
	if s, ok := stringField(generated, "best_contact_time"); ok {
		merged.BestContactTime = s
		used = true
	}
	if s, ok := stringField(generated, "preferred_communication"); ok {
		merged.PreferredCommunication = s
		used = true
	}
	if list, ok := listField(generated, "potential_services"); ok {
		merged.PotentialServices = list
		used = true
	}
	if s, ok := stringField(generated, "risk_assessment"); ok {
		merged.RiskAssessment = s
		used = true
	}
	if s, ok := stringField(generated, "insights_summary"); ok {
		merged.InsightsSummary = s
		used = true
	}

	return merged, used
}

func stringField(fields map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := fields[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// listField accepts an array of strings or a single string. Blank entries
// and duplicates are dropped and the result is capped.
func listField(fields map[string]json.RawMessage, key string) ([]string, bool) {
	raw, ok := fields[key]
	if !ok {
		return nil, false
	}

	var items []interface{}
	if err := json.Unmarshal(raw, &items); err != nil {
		var single string
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil, false
		}
		items = []interface{}{single}
	}

	out := make([]string, 0, maxMergedListLength)
	for _, item := range items {
		s, isString := item.(string)
		if !isString {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" || contains(out, s) {
			continue
		}
		out = append(out, s)
		if len(out) == maxMergedListLength {
			break
		}
	}
	return out, len(out) > 0
}

func contains(list []string, s string) bool {
	for _, existing := range list {
		if existing == s {
			return true
		}
	}
	return false
}
