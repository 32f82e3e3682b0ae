package conversation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTL_PruningOnNextAccess(t *testing.T) {
	s := New(20, time.Minute)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return start }
	s.Add("u1", "user", "old")

	s.now = func() time.Time { return start.Add(2 * time.Minute) }
	assert.Empty(t, s.Get("u1"))
}
