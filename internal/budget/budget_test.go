package budget_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conduit/internal/budget"
)

func TestWithinBudget_UnlimitedByDefault(t *testing.T) {
	tr := budget.New()
	assert.True(t, tr.IsWithinBudget("ollama"))
}

func TestRecord_ThenSummaryObservesIncrement(t *testing.T) {
	tr := budget.New()
	tr.Configure("openai", 10, 1000)
	tr.Record("openai", 42)

	summary := tr.Summary()["openai"]
	require.Equal(t, 1, summary.RequestsToday)
	require.Equal(t, 42, summary.TokensToday)
	assert.True(t, summary.WithinBudget)
}

func TestRequestLimitExhausted(t *testing.T) {
	tr := budget.New()
	tr.Configure("gemini", 1, 0)
	tr.Record("gemini", 5)
	assert.False(t, tr.IsWithinBudget("gemini"))
}
