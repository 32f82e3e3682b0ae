// Package channel implements the transport adapters (Telegram, WebSocket,
// HTTP API) that translate platform-specific traffic into the Dispatch
// Core's normalized message envelope and back, per the channel adapter
// contract in §5: start/stop/send, allow-list enforcement, reply chunking,
// attachments-before-text ordering, and Markdown-with-plain-text-fallback
// rendering.
package channel

import (
	"context"

	"conduit/internal/message"
)

// Handler is the Dispatch Core's entry point as seen by a channel adapter.
type Handler interface {
	Dispatch(ctx context.Context, in *message.Inbound) message.Outbound
}

// Adapter is the capability set every channel implements, mirroring
// Genesis's gateway.Channel lifecycle contract.
type Adapter interface {
	ID() string
	Start(ctx context.Context, handler Handler) error
	Stop(ctx context.Context) error
	Send(ctx context.Context, out message.Outbound) error
}

// Notifier adapts a running set of adapters into the skill package's
// Notifier interface, routing an out-of-band Outbound to whichever adapter
// owns its Channel.
type Notifier struct {
	byChannel map[message.Channel]Adapter
}

func NewNotifier(adapters ...Adapter) *Notifier {
	n := &Notifier{byChannel: map[message.Channel]Adapter{}}
	for _, a := range adapters {
		n.Register(a)
	}
	return n
}

// selfDescribing is implemented by adapters that know their own Channel
// kind, letting Register bind them without an explicit RegisterFor call.
type selfDescribing interface {
	channelKind() message.Channel
}

// Register associates an adapter with the channel kind it reports through
// channelKind(); an adapter that does not implement it is not bound (use
// RegisterFor instead).
func (n *Notifier) Register(a Adapter) {
	if sd, ok := a.(selfDescribing); ok {
		n.byChannel[sd.channelKind()] = a
	}
}

// RegisterFor explicitly binds an adapter to a channel kind, for adapters
// that don't self-describe via channelKind().
func (n *Notifier) RegisterFor(ch message.Channel, a Adapter) {
	n.byChannel[ch] = a
}

func (n *Notifier) Notify(ctx context.Context, out message.Outbound) error {
	a, ok := n.byChannel[out.Channel]
	if !ok {
		return nil
	}
	return a.Send(ctx, out)
}
