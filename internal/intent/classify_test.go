package intent_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"conduit/internal/intent"
	"conduit/internal/message"
)

func msg(text string, hasImage bool) *message.Inbound {
	m := &message.Inbound{Text: text}
	if hasImage {
		m.Attachments = []message.Attachment{{Type: message.AttachmentImage}}
	}
	return m
}

func TestClassify_RegressionSet(t *testing.T) {
	cases := []struct {
		text string
		img  bool
		want intent.Intent
	}{
		{"Why is the conveyor stopped?", false, intent.Diagnose},
		{"Show me current status", false, intent.Status},
		{"Create a work order for motor repair", false, intent.WorkOrder},
		{"/health", false, intent.Admin},
		{"hello how are you", false, intent.Chat},
		{"", true, intent.Photo},
	}
	for _, c := range cases {
		got := intent.Classify(msg(c.text, c.img))
		assert.Equalf(t, c.want, got, "text=%q img=%v", c.text, c.img)
	}
}

func TestClassify_ImageAlwaysWinsOverText(t *testing.T) {
	m := msg("please create a work order", true)
	assert.Equal(t, intent.Photo, intent.Classify(m))
}

func TestClassify_EmptyTextNoImage(t *testing.T) {
	assert.Equal(t, intent.Unknown, intent.Classify(msg("   ", false)))
}

func TestClassify_EmptyTextWithNonImageAttachment(t *testing.T) {
	m := &message.Inbound{Text: "", Attachments: []message.Attachment{{Type: message.AttachmentAudio}}}
	assert.Equal(t, intent.Unknown, intent.Classify(m))
}

func TestClassify_CommandPrefixBoundary(t *testing.T) {
	assert.Equal(t, intent.Help, intent.Classify(msg("/help", false)))
	// "/helpmenu" is not a recognized command and does not match any
	// regex pattern either, so it falls through to CHAT.
	assert.Equal(t, intent.Chat, intent.Classify(msg("/helpmenu", false)))
}

func TestClassify_UnknownSlashCommandFallsThrough(t *testing.T) {
	got := intent.Classify(msg("/banana why is the motor down", false))
	assert.Equal(t, intent.Diagnose, got)
}
