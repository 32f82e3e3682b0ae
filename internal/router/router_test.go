package router_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conduit/internal/budget"
	"conduit/internal/health"
	"conduit/internal/intent"
	"conduit/internal/llmprovider"
	"conduit/internal/router"
)

type fakeProvider struct {
	name       string
	fail       bool
	vision     bool
	jsonMode   bool
	available  bool
	calls      int
}

func (f *fakeProvider) Name() string           { return f.name }
func (f *fakeProvider) IsAvailable() bool      { return f.available }
func (f *fakeProvider) SupportsVision() bool   { return f.vision }
func (f *fakeProvider) SupportsJSONMode() bool { return f.jsonMode }

func (f *fakeProvider) Complete(ctx context.Context, messages []llmprovider.Message, opts llmprovider.CompleteOptions) (llmprovider.Response, error) {
	f.calls++
	if f.fail {
		return llmprovider.Response{}, llmprovider.NewError(f.name, llmprovider.ErrTransport, errors.New("boom"))
	}
	return llmprovider.Response{Text: "ok from " + f.name, Provider: f.name, Tokens: 10}, nil
}

func (f *fakeProvider) CompleteWithVision(ctx context.Context, messages []llmprovider.Message, images []llmprovider.Image, opts llmprovider.CompleteOptions) (llmprovider.Response, error) {
	return f.Complete(ctx, messages, opts)
}

func newFixture(providers map[string]*fakeProvider, table *router.Table) *router.Router {
	pm := map[string]llmprovider.Provider{}
	for k, v := range providers {
		v.available = true
		pm[k] = v
	}
	return router.New(pm, table, budget.New(), health.NewRegistry(), nil)
}

func TestRoute_FallbackChain(t *testing.T) {
	primary := &fakeProvider{name: "primary", fail: true}
	backup := &fakeProvider{name: "backup", fail: false}
	table := &router.Table{Routes: map[intent.Intent]router.Route{
		intent.Chat: {Primary: "primary", Fallbacks: []string{"backup"}},
	}}
	r := newFixture(map[string]*fakeProvider{"primary": primary, "backup": backup}, table)

	resp, err := r.Route(context.Background(), intent.Chat, nil, "", router.CallOptions{})
	require.NoError(t, err)
	assert.Equal(t, "backup", resp.Provider)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, backup.calls)
}

func TestRoute_NoProviderAvailable(t *testing.T) {
	p := &fakeProvider{name: "only", fail: true}
	table := &router.Table{Routes: map[intent.Intent]router.Route{intent.Chat: {Primary: "only"}}}
	r := newFixture(map[string]*fakeProvider{"only": p}, table)

	_, err := r.Route(context.Background(), intent.Chat, nil, "", router.CallOptions{})
	require.Error(t, err)
	var npa *router.NoProviderAvailable
	assert.ErrorAs(t, err, &npa)
}

func TestRoute_VisionCapabilitySkip(t *testing.T) {
	noVision := &fakeProvider{name: "text-only", vision: false}
	vision := &fakeProvider{name: "vision-ok", vision: true}
	table := &router.Table{Routes: map[intent.Intent]router.Route{
		intent.Photo: {Primary: "text-only", Fallbacks: []string{"vision-ok"}},
	}}
	r := newFixture(map[string]*fakeProvider{"text-only": noVision, "vision-ok": vision}, table)

	resp, err := r.Route(context.Background(), intent.Photo, nil, "", router.CallOptions{
		Images: []llmprovider.Image{{Data: []byte("x"), MimeType: "image/png"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "vision-ok", resp.Provider)
	assert.Equal(t, 0, noVision.calls)
}

func TestRoute_CircuitOpensAfterThreeFailures(t *testing.T) {
	flaky := &fakeProvider{name: "flaky", fail: true}
	backup := &fakeProvider{name: "backup", fail: false}
	table := &router.Table{Routes: map[intent.Intent]router.Route{
		intent.Chat: {Primary: "flaky", Fallbacks: []string{"backup"}},
	}}
	r := newFixture(map[string]*fakeProvider{"flaky": flaky, "backup": backup}, table)

	for i := 0; i < 3; i++ {
		_, err := r.Route(context.Background(), intent.Chat, nil, "", router.CallOptions{})
		require.NoError(t, err) // backup always rescues the call
	}
	callsBefore := flaky.calls
	_, err := r.Route(context.Background(), intent.Chat, nil, "", router.CallOptions{})
	require.NoError(t, err)
	// Once the circuit is open, flaky must not be attempted again.
	assert.Equal(t, callsBefore, flaky.calls)
}
