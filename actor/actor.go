// Package actor is a minimal single-process actor runtime: actors are
// goroutines with a private mailbox, messages are processed one at a time,
// and a panic in one actor never brings down another.
package actor

// PID addresses a spawned actor. It is comparable and safe to share across
// goroutines; the only operations on it are Engine methods.
type PID struct {
	id string
}

func (p *PID) String() string {
	if p == nil {
		return "<nil>"
	}
	return p.id
}

// Receiver is implemented by actor state. Receive is invoked once per
// message, never concurrently with itself.
type Receiver interface {
	Receive(ctx *Context)
}

// Producer constructs a fresh Receiver for a newly spawned actor.
type Producer func() Receiver

// Props bundles everything the engine needs to spawn an actor.
type Props struct {
	Produce Producer
	// Mailbox is the buffered channel depth. Zero uses the engine default.
	Mailbox int
}

// PropsFromProducer builds Props with the default mailbox size.
func PropsFromProducer(p Producer) *Props {
	return &Props{Produce: p}
}

// Lifecycle messages. Every actor receives Started once before any user
// message, and Stopped once after processing its last message.
type (
	Started  struct{}
	Stopping struct{}
	Stopped  struct{}
)
