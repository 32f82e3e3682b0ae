package dispatch_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conduit/internal/dispatch"
	"conduit/internal/intent"
	"conduit/internal/message"
	"conduit/internal/ratelimit"
	"conduit/internal/skill"
)

type recordingSkill struct {
	intents []intent.Intent
	calls   int
	panics  bool
}

func (s *recordingSkill) Name() string             { return "recording" }
func (s *recordingSkill) Intents() []intent.Intent { return s.intents }
func (s *recordingSkill) Handle(ctx context.Context, in *message.Inbound, sc *skill.Context) message.Outbound {
	s.calls++
	if s.panics {
		panic("boom")
	}
	return message.NewOutbound(in, "handled")
}

type stubMetrics struct {
	outcomes []string
}

func (m *stubMetrics) RecordDispatch(intentName, outcome string) {
	m.outcomes = append(m.outcomes, outcome)
}

func TestDispatch_ClassifiesWhenIntentUnset(t *testing.T) {
	reg := skill.NewRegistry()
	s := &recordingSkill{intents: []intent.Intent{intent.Chat}}
	reg.Register(s)

	core := dispatch.New(reg, &skill.Context{}, nil, nil)
	in := &message.Inbound{UserID: "u1", Text: "hello there"}
	out := core.Dispatch(context.Background(), in)

	assert.Equal(t, "handled", out.Text)
	assert.Equal(t, 1, s.calls)
	assert.Equal(t, string(intent.Chat), in.Intent)
}

func TestDispatch_FallsBackToChatWhenNoSkillRegistered(t *testing.T) {
	reg := skill.NewRegistry()
	chatSkill := &recordingSkill{intents: []intent.Intent{intent.Chat}}
	reg.Register(chatSkill)

	core := dispatch.New(reg, &skill.Context{}, nil, nil)
	in := &message.Inbound{UserID: "u1", Text: "diagnose the conveyor fault"}
	core.Dispatch(context.Background(), in)

	assert.Equal(t, 1, chatSkill.calls)
}

func TestDispatch_RecoversFromPanic(t *testing.T) {
	reg := skill.NewRegistry()
	s := &recordingSkill{intents: []intent.Intent{intent.Chat}, panics: true}
	reg.Register(s)
	m := &stubMetrics{}

	core := dispatch.New(reg, &skill.Context{}, nil, m)
	in := &message.Inbound{UserID: "u1", Text: "hello"}
	out := core.Dispatch(context.Background(), in)

	require.NotEmpty(t, out.Text)
	assert.Contains(t, m.outcomes, "panic")
}

func TestDispatch_RateLimitRejects(t *testing.T) {
	reg := skill.NewRegistry()
	s := &recordingSkill{intents: []intent.Intent{intent.Chat}}
	reg.Register(s)
	rl := ratelimit.New(1, time.Hour)

	core := dispatch.New(reg, &skill.Context{}, rl, nil)
	in := &message.Inbound{UserID: "u1", Text: "hello"}
	core.Dispatch(context.Background(), in)
	out := core.Dispatch(context.Background(), in)

	assert.Equal(t, 1, s.calls)
	assert.Contains(t, out.Text, "hourly request limit")
}
