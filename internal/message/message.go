// Package message defines the wire-independent envelope types that flow
// through the dispatch core: inbound messages arriving from a channel
// adapter, and outbound messages handed back to one.
package message

import "time"

// Channel identifies the ingress/egress surface a message travelled over.
type Channel string

const (
	ChannelTelegram  Channel = "TELEGRAM"
	ChannelWhatsApp  Channel = "WHATSAPP"
	ChannelHTTPAPI   Channel = "HTTP_API"
	ChannelWebSocket Channel = "WEBSOCKET"
)

// AttachmentType classifies the payload carried by an Attachment.
type AttachmentType string

const (
	AttachmentImage    AttachmentType = "image"
	AttachmentAudio    AttachmentType = "audio"
	AttachmentVideo    AttachmentType = "video"
	AttachmentDocument AttachmentType = "document"
)

// Attachment is a single file-like payload riding alongside a message.
// Exactly one of Data or URL is expected to be populated.
type Attachment struct {
	Type     AttachmentType
	Data     []byte
	URL      string
	MimeType string
	Filename string
}

// ParseMode hints how a channel adapter should render an OutboundMessage.
type ParseMode string

const (
	ParseModeMarkdown ParseMode = "markdown"
	ParseModePlain    ParseMode = "plain"
)

// Inbound is the normalized representation of one message arriving from any
// channel adapter. The zero value's Intent is empty, which dispatch treats
// like the UNKNOWN sentinel; the intent classifier assigns a concrete value
// during dispatch if it is still unknown when dispatch begins.
type Inbound struct {
	ID          string
	Channel     Channel
	UserID      string
	DisplayName string
	Text        string
	Attachments []Attachment
	ArrivedAt   time.Time
	Metadata    map[string]any
	Intent      string // set by the intent package; kept as string to avoid an import cycle
	NodeID      string
}

// HasImage reports whether m carries at least one image attachment.
func (m *Inbound) HasImage() bool {
	for _, a := range m.Attachments {
		if a.Type == AttachmentImage {
			return true
		}
	}
	return false
}

// History returns the conversation history injected by the channel adapter
// via metadata, if any. The dispatch core itself never populates this key.
func (m *Inbound) History() []HistoryEntry {
	raw, ok := m.Metadata["history"]
	if !ok {
		return nil
	}
	entries, ok := raw.([]HistoryEntry)
	if !ok {
		return nil
	}
	return entries
}

// HistoryEntry is the shape a channel adapter uses to inject prior turns via
// Inbound.Metadata["history"].
type HistoryEntry struct {
	Role    string
	Content string
}

// Outbound is the normalized reply a skill hands back to the dispatch core,
// which in turn hands it to the originating channel adapter.
type Outbound struct {
	Channel     Channel
	UserID      string
	Text        string
	Attachments []Attachment
	ParseMode   ParseMode
	Metadata    map[string]any
}

// NewOutbound builds a plain-text reply addressed back to the same
// channel/user as the triggering Inbound message (Testable Property 8).
func NewOutbound(in *Inbound, text string) Outbound {
	return Outbound{
		Channel:   in.Channel,
		UserID:    in.UserID,
		Text:      text,
		ParseMode: ParseModeMarkdown,
		Metadata:  map[string]any{},
	}
}
