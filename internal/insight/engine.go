// Package insight derives a deterministic engagement profile from a
// customer's interaction history.
package insight

import (
	"fmt"
	"strings"
	"time"

	"gitlab.com/timkado/api/daisi-crm-insights/internal/model"
	"gitlab.com/timkado/api/daisi-crm-insights/pkg/utils"
)

// Engine computes heuristic insight profiles. It holds no per-request state
// and is safe for concurrent use.
type Engine struct {
	loc *time.Location
}

// NewEngine returns an Engine that reads hour-of-day in loc. A nil loc keeps
// each timestamp's own location.
func NewEngine(loc *time.Location) *Engine {
	return &Engine{loc: loc}
}

// Compute builds the profile for history as observed at now. It never
// fails; an empty history yields the fixed new-customer profile.
func (e *Engine) Compute(history []model.Interaction, now time.Time) model.InsightProfile {
	if len(history) == 0 {
		return NewCustomerProfile(now)
	}

	ordered := NewestFirst(history)
	level := ClassifyEngagement(ordered, now)
	channel := dominantChannel(ordered)
	followUp, reason := ScheduleFollowUp(ordered, level, now)

	return model.InsightProfile{
		EngagementLevel:          level,
		RecommendedActions:       recommendedActions(ordered, channel),
		BestContactTime:          EstimateBestContactWindow(ordered, e.loc),
		PreferredCommunication:   capitalize(channel),
		PotentialServices:        potentialServices(ordered),
		RiskAssessment:           assessRisk(ordered, level),
		SuggestedFollowUpDate:    followUp,
		FollowUpSuggestionReason: reason,
		InsightsSummary:          HeuristicSummary(len(history), level),
	}
}

// NewCustomerProfile is the profile of a customer with no recorded interactions.
func NewCustomerProfile(now time.Time) model.InsightProfile {
	return model.InsightProfile{
		EngagementLevel:          model.EngagementNew,
		RecommendedActions:       append([]string(nil), newCustomerActions...),
		BestContactTime:          defaultContactWindow,
		PreferredCommunication:   capitalize(defaultChannel),
		PotentialServices:        append([]string(nil), newCustomerServices...),
		RiskAssessment:           newCustomerRisk,
		SuggestedFollowUpDate:    utils.AddDays(now, 1),
		FollowUpSuggestionReason: newCustomerReason,
	}
}

// HeuristicSummary is the one-line summary used when no generated summary is available.
func HeuristicSummary(total int, level model.EngagementLevel) string {
	return fmt.Sprintf(summaryFormat, total, strings.ToLower(string(level)))
}

// ClassifyEngagement assigns a tier from the total number of interactions
// and the number within the last 30 days.
func ClassifyEngagement(history []model.Interaction, now time.Time) model.EngagementLevel {
	total := len(history)
	recent := 0
	for _, rec := range history {
		if utils.DaysBetween(rec.OccurredAt, now) <= recentWindowDays {
			recent++
		}
	}

	switch {
	case total > 10 || recent > 5:
		return model.EngagementHigh
	case total > 5 || recent > 2:
		return model.EngagementMedium
	case total > 0:
		return model.EngagementLow
	default:
		return model.EngagementNew
	}
}

// dominantChannel is the most frequent normalised type, first seen wins ties.
func dominantChannel(ordered []model.Interaction) string {
	counts := make(map[string]int)
	var seen []string
	for _, rec := range ordered {
		t := rec.NormalizedType()
		if t == "" {
			continue
		}
		if counts[t] == 0 {
			seen = append(seen, t)
		}
		counts[t]++
	}
	if len(seen) == 0 {
		return defaultChannel
	}
	return rankedKeys(seen, counts)[0]
}

func potentialServices(ordered []model.Interaction) []string {
	var interests []string
	for _, rec := range ordered {
		if rec.Notes == "" {
			continue
		}
		note := strings.ToLower(rec.Notes)
		for _, product := range productVocabulary {
			if strings.Contains(note, product) {
				interests = appendUnique(interests, TitleCase(product), len(productVocabulary))
			}
		}
	}

	if len(interests) == 0 {
		if len(ordered) < 3 {
			return append([]string(nil), starterServices...)
		}
		return append([]string(nil), establishedServices...)
	}
	if len(interests) > maxProfileListLength {
		interests = interests[:maxProfileListLength]
	}
	return interests
}

func assessRisk(ordered []model.Interaction, level model.EngagementLevel) string {
	switch level {
	case model.EngagementHigh:
		return riskHigh
	case model.EngagementMedium:
		if anyNoteContains(ordered, []string{renewalKeyword}) {
			return riskRenewal
		}
		return riskMedium
	default:
		if len(ordered) <= 1 {
			return riskNewCustomer
		}
		return riskReEngagement
	}
}

func recommendedActions(ordered []model.Interaction, channel string) []string {
	actions := make([]string, 0, maxProfileListLength)

	for _, rec := range ordered {
		if rec.IsPending() {
			actions = appendUnique(actions, fmt.Sprintf(pendingActionFormat, rec.Title), maxProfileListLength)
			break
		}
	}

	if anyNoteContains(ordered, interestKeywords) {
		actions = appendUnique(actions, interestAction, maxProfileListLength)
	}

	if action, ok := channelActions[channel]; ok {
		actions = appendUnique(actions, action, maxProfileListLength)
	}

	for _, action := range genericActions {
		actions = appendUnique(actions, action, maxProfileListLength)
	}
	return actions
}

func anyNoteContains(ordered []model.Interaction, keywords []string) bool {
	for _, rec := range ordered {
		if rec.Notes != "" && containsAny(strings.ToLower(rec.Notes), keywords) {
			return true
		}
	}
	return false
}
