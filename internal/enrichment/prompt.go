package enrichment

import (
	"fmt"
	"strings"
	"time"

	"gitlab.com/timkado/api/daisi-crm-insights/internal/insight"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/model"
	"gitlab.com/timkado/api/daisi-crm-insights/pkg/utils"
)

const (
	promptInteractionLimit = 5
	promptNoteLimit        = 100
)

const promptIntro = "You are an AI assistant helping an insurance agent in India analyze customer data. " +
	"Please provide insights about this customer based on their interaction history."

const promptInstructions = `Based on this data, please provide a JSON response with the following structure:
{
    "engagement_level": "High/Medium/Low",
    "recommended_actions": ["action1", "action2", "action3"],
    "best_contact_time": "suggested time with reason",
    "preferred_communication": "Call/WhatsApp/Email/Meeting based on history",
    "potential_services": ["service1", "service2", "service3"],
    "risk_assessment": "assessment with reasoning",
    "insights_summary": "2-3 sentence summary of key insights"
}

Consider:
1. Interaction frequency and recency for engagement level
2. Communication preferences based on interaction types
3. Potential insurance needs for Indian customers
4. Risk factors for customer retention
5. Actionable next steps for the insurance agent

Provide only the JSON response without any markdown formatting.`

// BuildPrompt renders the enrichment prompt for a customer as of now.
// history may be in any order; the newest records are listed first.
func BuildPrompt(customer model.Customer, history []model.Interaction, profile model.InsightProfile, now time.Time) string {
	var b strings.Builder

	b.WriteString(promptIntro)
	b.WriteString("\n\nCustomer Profile:\n")
	fmt.Fprintf(&b, "- Name: %s\n", customer.Name)
	fmt.Fprintf(&b, "- Contact: %s\n", customer.ContactInfo)
	fmt.Fprintf(&b, "- Notes: %s\n", orDefault(customer.Notes, "No additional notes"))
	fmt.Fprintf(&b, "- Last contacted: %s\n", LastContactedLabel(customer))
	fmt.Fprintf(&b, "- Total interactions: %d\n", len(history))
	fmt.Fprintf(&b, "- Engagement level: %s\n", profile.EngagementLevel)
	fmt.Fprintf(&b, "- Current date: %s\n", utils.FormatDate(now))

	if len(history) > 0 {
		fmt.Fprintf(&b, "\nRecent interactions (%d total):\n", len(history))
		for i, rec := range newest(history, promptInteractionLimit) {
			fmt.Fprintf(&b, "%d. %s on %s: %s\n", i+1, insight.TitleCase(rec.Type), utils.FormatDate(rec.OccurredAt), rec.Title)
			if rec.Notes != "" {
				fmt.Fprintf(&b, "   Notes: %s\n", truncateNote(rec.Notes))
			}
			if rec.FollowUpNeeded {
				b.WriteString("   Follow-up needed: Yes\n")
			}
		}
	}

	b.WriteString("\n")
	b.WriteString(promptInstructions)
	return b.String()
}

// LastContactedLabel formats the customer's last contact date, or "Never".
func LastContactedLabel(customer model.Customer) string {
	if customer.LastContacted == nil || customer.LastContacted.IsZero() {
		return "Never"
	}
	return utils.FormatISO8601(*customer.LastContacted)
}

func truncateNote(note string) string {
	runes := []rune(note)
	if len(runes) <= promptNoteLimit {
		return note
	}
	return string(runes[:promptNoteLimit]) + "..."
}

func newest(history []model.Interaction, limit int) []model.Interaction {
	ordered := insight.NewestFirst(history)
	if len(ordered) > limit {
		ordered = ordered[:limit]
	}
	return ordered
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
