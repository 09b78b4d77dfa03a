package broadcaster

import (
	"sync"

	"github.com/Talkashi1111/ft-transcendence-sub000/wire"
)

// isCritical reports whether a frame must never be dropped by the bounded
// queue: game:start, game:end, and error frames may bypass the bound
// by growing the queue once.
func isCritical(event string) bool {
	switch event {
	case wire.EventGameStart, wire.EventGameEnd, wire.EventError:
		return true
	default:
		return false
	}
}

// connQueue is a bounded, drop-oldest outbound frame queue for one
// connection. game:state snapshots are absolute state, so losing one is
// acceptable; critical frames are never dropped.
type connQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	frames []wire.Frame
	maxLen int
	closed bool
}

func newConnQueue(maxLen int) *connQueue {
	q := &connQueue{maxLen: maxLen}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push enqueues a frame. When the queue is full and the incoming frame is
// not critical, the oldest queued game:state snapshot is dropped (or, with
// none queued, the oldest non-critical frame); a critical incoming frame
// grows the queue by one slot instead, as does any frame arriving when
// every queued frame is critical.
func (q *connQueue) push(f wire.Frame) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	if len(q.frames) >= q.maxLen && !isCritical(f.Event) {
		drop := -1
		for i, queued := range q.frames {
			if queued.Event == wire.EventGameState {
				drop = i
				break
			}
			if drop < 0 && !isCritical(queued.Event) {
				drop = i
			}
		}
		if drop >= 0 {
			q.frames = append(q.frames[:drop], q.frames[drop+1:]...)
		}
	}
	q.frames = append(q.frames, f)
	q.cond.Signal()
}

// pop blocks until a frame is available or the queue is closed.
func (q *connQueue) pop() (wire.Frame, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.frames) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.frames) == 0 {
		return wire.Frame{}, false
	}
	f := q.frames[0]
	q.frames = q.frames[1:]
	return f, true
}

func (q *connQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()
}
