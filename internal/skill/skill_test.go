package skill_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conduit/internal/intent"
	"conduit/internal/message"
	"conduit/internal/skill"
)

type stubSkill struct {
	name    string
	intents []intent.Intent
}

func (s stubSkill) Name() string              { return s.name }
func (s stubSkill) Intents() []intent.Intent  { return s.intents }
func (s stubSkill) Handle(ctx context.Context, in *message.Inbound, sc *skill.Context) message.Outbound {
	return message.NewOutbound(in, s.name)
}

func TestRegistry_LastRegistrationWins(t *testing.T) {
	reg := skill.NewRegistry()
	reg.Register(stubSkill{name: "first", intents: []intent.Intent{intent.Chat}})
	reg.Register(stubSkill{name: "second", intents: []intent.Intent{intent.Chat}})

	got, ok := reg.Lookup(intent.Chat)
	require.True(t, ok)
	assert.Equal(t, "second", got.Name())
}

func TestRegistry_LookupMiss(t *testing.T) {
	reg := skill.NewRegistry()
	_, ok := reg.Lookup(intent.Diagnose)
	assert.False(t, ok)
}

func TestContext_AllowedWithEmptyAllowList(t *testing.T) {
	sc := &skill.Context{}
	assert.True(t, sc.Allowed("anyone"))
}

func TestContext_AllowedRespectsList(t *testing.T) {
	sc := &skill.Context{AllowList: []string{"tech-1"}}
	assert.True(t, sc.Allowed("tech-1"))
	assert.False(t, sc.Allowed("tech-2"))
}

func TestContext_ShellAllowed(t *testing.T) {
	sc := &skill.Context{ShellAllowList: []string{"tech-1"}}
	assert.True(t, sc.ShellAllowed("tech-1"))
	assert.False(t, sc.ShellAllowed("tech-2"))
}
