package kb_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conduit/internal/kb"
)

func TestStore_SearchByFaultCode_ExactMatchScoresOne(t *testing.T) {
	store := kb.NewStore()
	store.Seed(&kb.Atom{
		Type:     kb.TypeFaultCode,
		Title:    "Overcurrent trip",
		Keywords: map[string]struct{}{"e001": {}},
		Fixes:    []string{"Reset breaker"},
	})

	atoms, err := store.SearchByFaultCode(context.Background(), "E001", 5)
	require.NoError(t, err)
	require.Len(t, atoms, 1)
	assert.Equal(t, 1.0, atoms[0].Score)
}

func TestStore_SearchByFaultCode_NoMatch(t *testing.T) {
	store := kb.NewStore()
	atoms, err := store.SearchByFaultCode(context.Background(), "Z999", 5)
	require.NoError(t, err)
	assert.Empty(t, atoms)
}

func TestStore_Search_RanksByTokenOverlap(t *testing.T) {
	store := kb.NewStore()
	store.Seed(&kb.Atom{Title: "Conveyor belt slipping", Summary: "tension adjustment"})
	store.Seed(&kb.Atom{Title: "Conveyor belt motor fault overheating"})

	atoms, err := store.Search(context.Background(), "conveyor belt overheating", 5)
	require.NoError(t, err)
	require.Len(t, atoms, 2)
	assert.Greater(t, atoms[0].Score, atoms[1].Score)
}

func TestStore_Search_EmptyQueryReturnsNil(t *testing.T) {
	store := kb.NewStore()
	store.Seed(&kb.Atom{Title: "anything"})
	atoms, err := store.Search(context.Background(), "   ", 5)
	require.NoError(t, err)
	assert.Nil(t, atoms)
}

func TestStore_FindByPart(t *testing.T) {
	store := kb.NewStore()
	store.Seed(&kb.Atom{Vendor: "Siemens", PartNumber: "3RT2", Title: "Contactor"})

	a, err := store.FindByPart(context.Background(), "siemens", "3RT2")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "Contactor", a.Title)
}

func TestStore_FindByPart_Miss(t *testing.T) {
	store := kb.NewStore()
	a, err := store.FindByPart(context.Background(), "nobody", "nothing")
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestStore_InsertAtom_ThenUpdateAtom(t *testing.T) {
	store := kb.NewStore()
	id, err := store.InsertAtom(context.Background(), &kb.Atom{Title: "Draft"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	err = store.UpdateAtom(context.Background(), id, map[string]any{"title": "Final"}, kb.Provenance{Source: "photo"}, true)
	require.NoError(t, err)

	atoms, err := store.GetByType(context.Background(), "", 10)
	require.NoError(t, err)
	require.Len(t, atoms, 1)
	assert.Equal(t, "Final", atoms[0].Title)
	assert.True(t, atoms[0].NeedsReview)
	assert.Len(t, atoms[0].Provenance, 1)
}

func TestStore_UpdateAtom_UnknownIDErrors(t *testing.T) {
	store := kb.NewStore()
	err := store.UpdateAtom(context.Background(), "missing", map[string]any{}, kb.Provenance{}, false)
	assert.Error(t, err)
}

func TestStore_HealthCheck_RequiresConnect(t *testing.T) {
	store := kb.NewStore()
	assert.Error(t, store.HealthCheck(context.Background()))
	require.NoError(t, store.Connect(context.Background()))
	assert.NoError(t, store.HealthCheck(context.Background()))
}
