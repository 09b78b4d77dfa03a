// Package recorder models the external tournament recorder
// collaborator: delivery of a finished match's outcome is
// best-effort and fire-and-forget, never on the critical path of ending a
// match.
package recorder

import (
	"fmt"

	"github.com/Talkashi1111/ft-transcendence-sub000/wire"
)

// Recorder accepts finished-match outcomes for best-effort handoff.
type Recorder interface {
	Record(outcome wire.RecorderOutcome)
}

// LoggingRecorder is the default Recorder: it logs the outcome and drops it.
// A real deployment would swap this for a collaborator that ships the
// outcome to the blockchain submission path, which is explicitly out of
// scope for this service.
type LoggingRecorder struct {
	queue chan wire.RecorderOutcome
	done  chan struct{}
}

// NewLoggingRecorder starts a worker goroutine draining a small buffered
// queue; outcomes submitted while the queue is full are dropped rather
// than blocking the caller (the match worker ending a match).
func NewLoggingRecorder() *LoggingRecorder {
	r := &LoggingRecorder{
		queue: make(chan wire.RecorderOutcome, 32),
		done:  make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *LoggingRecorder) Record(outcome wire.RecorderOutcome) {
	select {
	case r.queue <- outcome:
	default:
		fmt.Printf("recorder: queue full, dropping outcome for winner %s\n", outcome.WinnerID)
	}
}

func (r *LoggingRecorder) run() {
	for {
		select {
		case o := <-r.queue:
			fmt.Printf("recorder: match finished %s vs %s: %d-%d, winner=%s\n",
				o.Player1, o.Player2, o.Score1, o.Score2, o.WinnerID)
		case <-r.done:
			return
		}
	}
}

// Close stops the worker goroutine. Outcomes still queued are dropped.
func (r *LoggingRecorder) Close() { close(r.done) }
