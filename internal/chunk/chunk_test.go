package chunk_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"conduit/internal/chunk"
)

func TestSplit_ExactLimitIsOneChunk(t *testing.T) {
	text := strings.Repeat("a", 4096)
	assert.Len(t, chunk.Split(text, 4096), 1)
}

func TestSplit_OverLimitByOneIsTwoChunks(t *testing.T) {
	text := strings.Repeat("a", 4097)
	assert.Len(t, chunk.Split(text, 4096), 2)
}

func TestSplit_PrefersParagraphBreak(t *testing.T) {
	para := strings.Repeat("a", 10) + "\n\n" + strings.Repeat("b", 10)
	chunks := chunk.Split(para, 15)
	assert.Equal(t, strings.Repeat("a", 10), chunks[0])
}

func TestSplit_FallsBackToLineBreak(t *testing.T) {
	text := strings.Repeat("a", 10) + "\n" + strings.Repeat("b", 10)
	chunks := chunk.Split(text, 15)
	assert.Equal(t, strings.Repeat("a", 10), chunks[0])
}

func TestSplit_HardCutWhenNoBreaks(t *testing.T) {
	text := strings.Repeat("a", 30)
	chunks := chunk.Split(text, 10)
	assert.Len(t, chunks[0], 10)
}

func TestSplit_EmptyText(t *testing.T) {
	assert.Nil(t, chunk.Split("", 10))
}
