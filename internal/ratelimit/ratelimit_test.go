package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCheck_AllowsUpToMax(t *testing.T) {
	l := New(2, time.Hour)
	allowed, _ := l.Check("u1")
	assert.True(t, allowed)
	allowed, _ = l.Check("u1")
	assert.True(t, allowed)
	allowed, secs := l.Check("u1")
	assert.False(t, allowed)
	assert.Greater(t, secs, 0)
}

func TestCheck_WindowSlidesOut(t *testing.T) {
	l := New(1, time.Minute)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return start }
	allowed, _ := l.Check("u1")
	assert.True(t, allowed)

	l.now = func() time.Time { return start.Add(30 * time.Second) }
	allowed, _ = l.Check("u1")
	assert.False(t, allowed)

	l.now = func() time.Time { return start.Add(90 * time.Second) }
	allowed, _ = l.Check("u1")
	assert.True(t, allowed)
}
