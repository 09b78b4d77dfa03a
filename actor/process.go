package actor

import (
	"fmt"
	"runtime/debug"
	"sync"
)

const defaultMailboxSize = 256

type envelope struct {
	sender    *PID
	message   interface{}
	requestID string
}

// process is the running instance of a spawned actor: its goroutine, its
// mailbox, and the state returned by Props.Produce.
type process struct {
	engine   *Engine
	pid      *PID
	recv     Receiver
	mailbox  chan envelope
	stopCh   chan struct{}
	stopOnce sync.Once
}

func newProcess(e *Engine, pid *PID, props *Props) *process {
	size := props.Mailbox
	if size <= 0 {
		size = defaultMailboxSize
	}
	return &process{
		engine:  e,
		pid:     pid,
		mailbox: make(chan envelope, size),
		stopCh:  make(chan struct{}),
	}
}

func (p *process) send(env envelope) {
	select {
	case p.mailbox <- env:
	default:
		fmt.Printf("actor %s: mailbox full, dropping %T\n", p.pid, env.message)
	}
}

// stop signals the run loop to deliver Stopping and exit. Safe to call from
// any goroutine, any number of times.
func (p *process) stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
}

func (p *process) run(props *Props) {
	defer func() {
		p.invoke(Stopped{}, nil, "")
		p.engine.remove(p.pid)
	}()
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("actor %s panicked: %v\n%s\n", p.pid, r, debug.Stack())
			p.stop()
		}
	}()

	p.recv = props.Produce()
	if p.recv == nil {
		panic(fmt.Sprintf("actor %s: Produce returned nil", p.pid))
	}
	p.invoke(Started{}, nil, "")

	for {
		select {
		case <-p.stopCh:
			p.invoke(Stopping{}, nil, "")
			return
		case env := <-p.mailbox:
			p.invoke(env.message, env.sender, env.requestID)
		}
	}
}

func (p *process) invoke(msg interface{}, sender *PID, requestID string) {
	ctx := &Context{engine: p.engine, self: p.pid, sender: sender, message: msg, requestID: requestID}
	p.recv.Receive(ctx)
}
