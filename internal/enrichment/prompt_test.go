package enrichment

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gitlab.com/timkado/api/daisi-crm-insights/internal/model"
)

func TestBuildPrompt(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	customer := model.Customer{ID: "c1", Name: "Vikram Shah", ContactInfo: "vikram@example.com"}

	var history []model.Interaction
	for i := 0; i < 7; i++ {
		history = append(history, model.Interaction{
			ID:         fmt.Sprintf("i%d", i),
			Type:       "video_call",
			OccurredAt: now.AddDate(0, 0, -i-1),
			Title:      fmt.Sprintf("Touchpoint %d", i),
			Status:     "completed",
		})
	}
	history[0].Notes = strings.Repeat("a", 150)
	history[1].Notes = "short note"
	history[1].FollowUpNeeded = true

	prompt := BuildPrompt(customer, history, model.InsightProfile{EngagementLevel: model.EngagementMedium}, now)

	assert.Contains(t, prompt, "- Name: Vikram Shah")
	assert.Contains(t, prompt, "- Notes: No additional notes")
	assert.Contains(t, prompt, "- Last contacted: Never")
	assert.Contains(t, prompt, "- Total interactions: 7")
	assert.Contains(t, prompt, "- Engagement level: Medium")
	assert.Contains(t, prompt, "- Current date: 2024-06-15")
	assert.Contains(t, prompt, "Recent interactions (7 total):")
	assert.Contains(t, prompt, "1. Video_Call on 2024-06-14: Touchpoint 0")
	assert.Contains(t, prompt, "   Notes: "+strings.Repeat("a", 100)+"...\n")
	assert.Contains(t, prompt, "   Notes: short note\n")
	assert.Contains(t, prompt, "   Follow-up needed: Yes")
	assert.Contains(t, prompt, "5. Video_Call on 2024-06-10: Touchpoint 4")
	assert.NotContains(t, prompt, "Touchpoint 5")
	assert.True(t, strings.HasSuffix(prompt, "Provide only the JSON response without any markdown formatting."))
}

func TestLastContactedLabel(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, "Never", LastContactedLabel(model.Customer{}))
	assert.Equal(t, "2024-05-01T09:30:00Z", LastContactedLabel(model.Customer{LastContacted: &at}))
}
