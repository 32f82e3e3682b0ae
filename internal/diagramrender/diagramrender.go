// Package diagramrender provides the default DiagramRenderer wired into the
// DIAGRAM skill. Rendering diagram geometry into an image is an external
// collaborator per the system's scope boundary; this package's Stub renderer
// satisfies the skill's DiagramRenderer contract by packaging the validated
// specification as a readable document attachment rather than rasterizing
// it, so deployments that need real rendering can inject their own
// implementation without touching the skill.
package diagramrender

import (
	"context"
	"encoding/json"
	"fmt"

	"conduit/internal/message"
)

// Stub renders a diagram specification into a pretty-printed JSON document
// attachment. It is not a substitute for symbol/wiring rendering geometry.
type Stub struct{}

func NewStub() *Stub { return &Stub{} }

func (s *Stub) Render(ctx context.Context, spec json.RawMessage) (message.Attachment, error) {
	var pretty interface{}
	if err := json.Unmarshal(spec, &pretty); err != nil {
		return message.Attachment{}, fmt.Errorf("diagramrender: invalid spec: %w", err)
	}
	data, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return message.Attachment{}, fmt.Errorf("diagramrender: marshal: %w", err)
	}
	return message.Attachment{
		Type:     message.AttachmentDocument,
		Data:     data,
		MimeType: "application/json",
		Filename: "diagram.json",
	}, nil
}
