package skill

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"conduit/internal/connector/cmms"
	"conduit/internal/connector/gist"
	"conduit/internal/intent"
	"conduit/internal/llmprovider"
	"conduit/internal/message"
	"conduit/internal/router"
)

const workOrderExtractPrompt = `Extract a maintenance work order from the technician's request. Respond with ONLY a JSON object with these exact keys: title, description, priority (one of "low","medium","high","critical"), asset_name, asset_id, location, work_type, category, failure_code. Use empty strings for anything not mentioned.`

// WorkOrder implements the WORK_ORDER skill: JSON-mode extraction of a
// structured work order, filed against the CMMS connector when configured,
// otherwise published as a portable document via the gist connector.
type WorkOrder struct{}

func NewWorkOrder() *WorkOrder { return &WorkOrder{} }

func (*WorkOrder) Name() string             { return "work_order" }
func (*WorkOrder) Intents() []intent.Intent { return []intent.Intent{intent.WorkOrder} }

func (w *WorkOrder) Handle(ctx context.Context, in *message.Inbound, sc *Context) message.Outbound {
	messages := []llmprovider.Message{{Role: llmprovider.RoleUser, Content: workOrderExtractPrompt + "\n\nRequest: " + in.Text}}
	resp, err := sc.Router.Route(ctx, intent.WorkOrder, messages, sc.SystemPrompt, router.CallOptions{JSONMode: true, MaxTokens: 400, Temperature: 0})
	if err != nil {
		return message.NewOutbound(in, "I couldn't extract a work order from that request; please try rephrasing with the asset and issue.")
	}

	var wo cmms.WorkOrder
	if err := json.Unmarshal([]byte(resp.Text), &wo); err != nil {
		return message.NewOutbound(in, "I had trouble structuring that work order; please include the asset name and a short description.")
	}
	if wo.FailureCode == "" {
		wo.FailureCode = fallbackFailureCode(in)
	}

	if sc.CMMS != nil {
		if id, err := sc.CMMS.CreateWorkOrder(ctx, wo); err == nil {
			return message.NewOutbound(in, fmt.Sprintf("Work order %s created: %s", id, wo.Title))
		}
	}

	return w.publishPortable(ctx, in, wo, sc)
}

func (w *WorkOrder) publishPortable(ctx context.Context, in *message.Inbound, wo cmms.WorkOrder, sc *Context) message.Outbound {
	id := generateWorkOrderID()
	doc := fmt.Sprintf("# Work Order %s\n\n**Title:** %s\n**Priority:** %s\n**Asset:** %s (%s)\n**Location:** %s\n**Type:** %s / %s\n**Failure code:** %s\n\n%s\n",
		id, wo.Title, wo.Priority, wo.AssetName, wo.AssetID, wo.Location, wo.WorkType, wo.Category, wo.FailureCode, wo.Description)

	if sc.Gist == nil {
		return message.NewOutbound(in, fmt.Sprintf("Work order %s drafted (no CMMS or document service configured):\n\n%s", id, doc))
	}
	url, err := sc.Gist.Publish(ctx, "Work order "+id, []gist.File{{Name: id + ".md", Content: doc}})
	if err != nil {
		return message.NewOutbound(in, fmt.Sprintf("Work order %s drafted, but I couldn't publish it: %s", id, doc))
	}
	return message.NewOutbound(in, fmt.Sprintf("Work order %s created: %s", id, url))
}

func fallbackFailureCode(in *message.Inbound) string {
	if code, ok := in.Metadata["fault_code"].(string); ok {
		return code
	}
	return ""
}

// generateWorkOrderID mints a WO-YYYY-MMDD-NNN style identifier. The NNN
// component is the current time's nanosecond field modulo 1000, not a
// counter, so two IDs minted on the same day can collide.
func generateWorkOrderID() string {
	now := time.Now()
	return fmt.Sprintf("WO-%04d-%02d%02d-%03d", now.Year(), now.Month(), now.Day(), now.Nanosecond()%1000)
}
