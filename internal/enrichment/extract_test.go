package enrichment

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/timkado/api/daisi-crm-insights/internal/apperrors"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		found    bool
	}{
		{"raw object", `{"a":1}`, `{"a":1}`, true},
		{"wrapped in prose", `Sure! Here you go: {"a":1} Hope it helps.`, `{"a":1}`, true},
		{"code fence", "```json\n{\"a\": [\"x\", \"y\"]}\n```", `{"a": ["x", "y"]}`, true},
		{"nested objects", `x {"a": {"b": {"c": 1}}, "d": 2} y`, `{"a": {"b": {"c": 1}}, "d": 2}`, true},
		{"braces inside strings", `{"a": "}{", "b": "{"}`, `{"a": "}{", "b": "{"}`, true},
		{"escaped quote inside string", `{"a": "say \"}\" now"} tail`, `{"a": "say \"}\" now"}`, true},
		{"first of two objects", `{"a":1} {"b":2}`, `{"a":1}`, true},
		{"unclosed prefix hides later object", `note { not closed {"a":1}`, "", false},
		{"truncated object with nested child", `{"engagement_level":"High","details":{"risk_assessment":"x"},"recommended_actions":["a"`, "", false},
		{"prose brace before object", `close } first {"a":1}`, `{"a":1}`, true},
		{"truncated object", `{"engagement_level": "High", "recommended_actions": ["x"`, "", false},
		{"no braces", `no json here`, "", false},
		{"empty", ``, "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractJSONObject(tc.input)
			assert.Equal(t, tc.found, ok)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestParseGenerated(t *testing.T) {
	fields, err := parseGenerated("```json\n{\"risk_assessment\": \"low\", \"nested\": {\"k\": [1, 2]}}\n```")
	require.NoError(t, err)
	assert.Contains(t, fields, "risk_assessment")
	assert.Contains(t, fields, "nested")

	_, err = parseGenerated(`{"a": }`)
	assert.ErrorIs(t, err, apperrors.ErrEnrichmentParse)

	_, err = parseGenerated(`nothing`)
	assert.ErrorIs(t, err, apperrors.ErrEnrichmentParse)

	fields, err = parseGenerated(`{"engagement_level":"High","details":{"risk_assessment":"x"},"recommended_actions":["a"`)
	assert.ErrorIs(t, err, apperrors.ErrEnrichmentParse)
	assert.Nil(t, fields)
}

func TestExtractJSONObject_UnbalancedInputIsLinear(t *testing.T) {
	input := strings.Repeat("{", 2_000_000)

	done := make(chan bool, 1)
	go func() {
		_, ok := ExtractJSONObject(input)
		done <- ok
	}()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("extraction of unbalanced input did not finish")
	}
}
