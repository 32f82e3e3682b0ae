package channel

import (
	"testing"

	"conduit/internal/message"
)

func TestTelegram_AllowedWithEmptyList(t *testing.T) {
	tg := &Telegram{}
	if !tg.allowed("anyone") {
		t.Fatal("expected empty allow list to permit everyone")
	}
}

func TestTelegram_AllowedRespectsList(t *testing.T) {
	tg := &Telegram{allowList: []string{"42"}}
	if !tg.allowed("42") {
		t.Fatal("expected listed user to be allowed")
	}
	if tg.allowed("99") {
		t.Fatal("expected unlisted user to be rejected")
	}
}

func TestChatIDFromOutbound_PrefersMetadata(t *testing.T) {
	out := message.Outbound{UserID: "7", Metadata: map[string]any{"chat_id": int64(555)}}
	id, err := chatIDFromOutbound(out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 555 {
		t.Fatalf("expected 555, got %d", id)
	}
}

func TestChatIDFromOutbound_FallsBackToUserID(t *testing.T) {
	out := message.Outbound{UserID: "123"}
	id, err := chatIDFromOutbound(out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 123 {
		t.Fatalf("expected 123, got %d", id)
	}
}

func TestChatIDFromOutbound_InvalidUserID(t *testing.T) {
	out := message.Outbound{UserID: "not-a-number"}
	if _, err := chatIDFromOutbound(out); err == nil {
		t.Fatal("expected error for non-numeric user id")
	}
}

func TestTelegram_ChannelKind(t *testing.T) {
	tg := &Telegram{}
	if tg.channelKind() != message.ChannelTelegram {
		t.Fatalf("expected ChannelTelegram, got %v", tg.channelKind())
	}
}
