package skill

import (
	"context"
	"fmt"

	"conduit/internal/intent"
	"conduit/internal/llmprovider"
	"conduit/internal/router"
)

// RouterVision adapts a Router into kb.VisionCaller: for each named provider
// in order it calls Route with that provider in the Prefer slot (so
// capability gating/budget/circuit checks still apply), stopping at the
// first success. Each Route call that cannot use the preferred provider
// falls through to the PHOTO route's own candidates, so a later name is
// tried only when that whole chain also fails.
type RouterVision struct {
	Router *router.Router
}

func NewRouterVision(r *router.Router) *RouterVision {
	return &RouterVision{Router: r}
}

func (v *RouterVision) CompleteVision(ctx context.Context, providerOrder []string, prompt string, image llmprovider.Image) (llmprovider.Response, error) {
	messages := []llmprovider.Message{{Role: llmprovider.RoleUser, Content: prompt}}
	var lastErr error
	for _, name := range providerOrder {
		resp, err := v.Router.Route(ctx, intent.Photo, messages, "", router.CallOptions{
			Prefer: name,
			Images: []llmprovider.Image{image},
		})
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("skill: no vision providers configured")
	}
	return llmprovider.Response{}, lastErr
}
