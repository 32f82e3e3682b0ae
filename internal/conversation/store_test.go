package conversation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conduit/internal/conversation"
)

func TestAddThenGet(t *testing.T) {
	s := conversation.New(20, time.Hour)
	s.Add("u1", "user", "hello")
	s.Add("u1", "assistant", "hi")

	entries := s.Get("u1")
	require.Len(t, entries, 2)
	assert.Equal(t, "hello", entries[0].Content)
}

func TestClear_ThenGetEmptyUntilNextAdd(t *testing.T) {
	s := conversation.New(20, time.Hour)
	s.Add("u1", "user", "hello")
	s.Clear("u1")
	assert.Empty(t, s.Get("u1"))

	s.Add("u1", "user", "again")
	assert.Len(t, s.Get("u1"), 1)
}

func TestCapacity_DiscardsFromFront(t *testing.T) {
	s := conversation.New(2, time.Hour)
	s.Add("u1", "user", "1")
	s.Add("u1", "user", "2")
	s.Add("u1", "user", "3")

	entries := s.Get("u1")
	require.Len(t, entries, 2)
	assert.Equal(t, "2", entries[0].Content)
	assert.Equal(t, "3", entries[1].Content)
}
