package kb_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conduit/internal/kb"
	"conduit/internal/llmprovider"
)

type fakeVision struct {
	text string
	err  error
}

func (f *fakeVision) CompleteVision(ctx context.Context, providers []string, prompt string, img llmprovider.Image) (llmprovider.Response, error) {
	if f.err != nil {
		return llmprovider.Response{}, f.err
	}
	return llmprovider.Response{Text: f.text}, nil
}

func TestPipeline_InsertsNewAtomWhenNoCandidate(t *testing.T) {
	store := kb.NewStore()
	vision := &fakeVision{text: `{"vendor":"Siemens","product":"3RT Contactor","part_number":"3RT1234","component_type":"contactor","confidence":"high"}`}
	p := kb.NewPipeline(store, vision)

	result := p.Run(context.Background(), "photo-1", llmprovider.Image{Data: []byte("x"), MimeType: "image/jpeg"}, "")
	require.NoError(t, result.Err)
	assert.True(t, result.Inserted)
	assert.NotEmpty(t, result.AtomID)
	assert.Contains(t, result.Title, "Siemens")
}

func TestPipeline_RepairsFencedJSON(t *testing.T) {
	store := kb.NewStore()
	vision := &fakeVision{text: "```json\n{'vendor': 'ABB', 'product': 'X1', 'part_number': 'P1', 'component_type': 'relay', 'confidence': 'medium'}\n```"}
	p := kb.NewPipeline(store, vision)

	result := p.Run(context.Background(), "photo-2", llmprovider.Image{}, "")
	require.NoError(t, result.Err)
	assert.Contains(t, result.Title, "ABB")
}

func TestPipeline_ConflictingWiringSetsNeedsReview(t *testing.T) {
	store := kb.NewStore()
	store.Seed(&kb.Atom{
		Vendor: "Siemens", PartNumber: "3RT1234", Title: "3RT Contactor",
		WiringModel: map[string]any{"coil": "A1-A2"},
		Keywords:    map[string]struct{}{},
	})
	vision := &fakeVision{text: `{"vendor":"Siemens","product":"3RT","part_number":"3RT1234","component_type":"contactor","confidence":"high","wiring_diagram":{"coil":"A2-A1"}}`}
	p := kb.NewPipeline(store, vision)

	result := p.Run(context.Background(), "photo-3", llmprovider.Image{}, "")
	require.NoError(t, result.Err)
	assert.False(t, result.Inserted)
	assert.True(t, result.NeedsReview)
}

func TestPipeline_VisionFailureDegradesToSkeleton(t *testing.T) {
	store := kb.NewStore()
	vision := &fakeVision{err: assertErr{}}
	p := kb.NewPipeline(store, vision)

	result := p.Run(context.Background(), "photo-4", llmprovider.Image{}, "")
	require.NoError(t, result.Err)
	assert.Equal(t, "Unidentified component", result.Title)
}

type assertErr struct{}

func (assertErr) Error() string { return "vision unavailable" }
