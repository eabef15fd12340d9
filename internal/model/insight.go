package model

import (
	"strings"
	"time"
)

// EngagementLevel is the coarse engagement tier assigned to a customer.
type EngagementLevel string

const (
	EngagementNew    EngagementLevel = "New"
	EngagementLow    EngagementLevel = "Low"
	EngagementMedium EngagementLevel = "Medium"
	EngagementHigh   EngagementLevel = "High"
)

// ParseEngagementLevel maps s onto a known tier, ignoring case and surrounding space.
func ParseEngagementLevel(s string) (EngagementLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "new":
		return EngagementNew, true
	case "low":
		return EngagementLow, true
	case "medium":
		return EngagementMedium, true
	case "high":
		return EngagementHigh, true
	}
	return "", false
}

// InsightProfile is the structured engagement summary for one customer.
// It is computed per request and never persisted.
type InsightProfile struct {
	EngagementLevel          EngagementLevel `json:"engagement_level"`
	RecommendedActions       []string        `json:"recommended_actions"`
	BestContactTime          string          `json:"best_contact_time"`
	PreferredCommunication   string          `json:"preferred_communication"`
	PotentialServices        []string        `json:"potential_services"`
	RiskAssessment           string          `json:"risk_assessment"`
	SuggestedFollowUpDate    time.Time       `json:"suggested_follow_up_date"`
	FollowUpSuggestionReason string          `json:"follow_up_suggestion_reason"`
	InsightsSummary          string          `json:"insights_summary,omitempty"`
}

// InsightRequest asks for the insights of one customer on behalf of its owner.
type InsightRequest struct {
	CustomerID string `json:"customer_id" validate:"required"`
	OwnerID    string `json:"owner_id" validate:"required"`
}

// InteractionSummary is the condensed view of an interaction returned with insights.
type InteractionSummary struct {
	ID             string     `json:"id"`
	Type           string     `json:"type"`
	Date           string     `json:"date"`
	Title          string     `json:"title"`
	Notes          string     `json:"notes,omitempty"`
	Status         string     `json:"status"`
	FollowUpNeeded bool       `json:"follow_up_needed"`
	FollowUpDate   *time.Time `json:"follow_up_date,omitempty"`
}

// InsightContext echoes the customer data the insights were derived from.
type InsightContext struct {
	CustomerName  string               `json:"customer_name"`
	ContactInfo   string               `json:"contact_info"`
	Notes         string               `json:"notes"`
	LastContacted string               `json:"last_contacted"`
	Interactions  []InteractionSummary `json:"interactions"`
}

// InsightResponse is the produced result of an insight request.
type InsightResponse struct {
	CustomerID string         `json:"customer_id"`
	Insights   InsightProfile `json:"insights"`
	Context    InsightContext `json:"context"`
	AIPowered  bool           `json:"ai_powered"`
}

// ErrorReply is returned over request/reply transports when an insight request fails.
type ErrorReply struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}
