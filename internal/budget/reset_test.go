package budget

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMidnightReset_FirstReadSeesZero(t *testing.T) {
	tr := New()
	tr.Configure("ollama", 0, 0)

	day1 := time.Date(2026, 1, 1, 23, 59, 0, 0, time.UTC)
	tr.now = func() time.Time { return day1 }
	tr.Record("ollama", 100)

	day2 := time.Date(2026, 1, 2, 0, 1, 0, 0, time.UTC)
	tr.now = func() time.Time { return day2 }

	summary := tr.Summary()["ollama"]
	assert.Equal(t, 0, summary.RequestsToday)
	assert.Equal(t, 0, summary.TokensToday)
}
