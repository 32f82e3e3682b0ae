package channel

import (
	"testing"

	"conduit/internal/message"
)

func TestToResponse_EncodesAttachmentData(t *testing.T) {
	out := message.Outbound{
		Text: "hello",
		Attachments: []message.Attachment{
			{Type: message.AttachmentImage, Data: []byte("abc"), MimeType: "image/png"},
		},
	}
	resp := toResponse(out)
	if resp.Text != "hello" {
		t.Fatalf("expected text to round-trip, got %q", resp.Text)
	}
	if len(resp.Attachments) != 1 {
		t.Fatalf("expected 1 attachment, got %d", len(resp.Attachments))
	}
	if resp.Attachments[0].Data == "" {
		t.Fatal("expected base64 data to be populated")
	}
}

func TestToResponse_NoAttachments(t *testing.T) {
	out := message.Outbound{Text: "plain"}
	resp := toResponse(out)
	if len(resp.Attachments) != 0 {
		t.Fatalf("expected no attachments, got %d", len(resp.Attachments))
	}
}

func TestHTTPAPI_ChannelKind(t *testing.T) {
	h := &HTTPAPI{}
	if h.channelKind() != message.ChannelHTTPAPI {
		t.Fatalf("expected ChannelHTTPAPI, got %v", h.channelKind())
	}
}
