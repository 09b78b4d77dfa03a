package actor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoActor struct {
	got chan interface{}
}

func (e *echoActor) Receive(ctx *Context) {
	switch msg := ctx.Message().(type) {
	case string:
		e.got <- msg
		ctx.Reply("echo:" + msg)
	}
}

func TestSendDeliversMessage(t *testing.T) {
	e := NewEngine()
	got := make(chan interface{}, 1)
	pid := e.Spawn(PropsFromProducer(func() Receiver { return &echoActor{got: got} }))
	require.NotNil(t, pid)

	e.Send(pid, "hello", nil)

	select {
	case v := <-got:
		assert.Equal(t, "hello", v)
	case <-time.After(time.Second):
		t.Fatal("message never delivered")
	}
}

func TestAskReturnsReply(t *testing.T) {
	e := NewEngine()
	got := make(chan interface{}, 1)
	pid := e.Spawn(PropsFromProducer(func() Receiver { return &echoActor{got: got} }))

	reply, err := e.Ask(pid, "world", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "echo:world", reply)
}

func TestAskTimesOutWhenNoReply(t *testing.T) {
	e := NewEngine()
	silent := e.Spawn(PropsFromProducer(func() Receiver { return silentActor{} }))
	_, err := e.Ask(silent, "ping", 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

type silentActor struct{}

func (silentActor) Receive(ctx *Context) {}

func TestStopPreventsFurtherDelivery(t *testing.T) {
	e := NewEngine()
	got := make(chan interface{}, 4)
	pid := e.Spawn(PropsFromProducer(func() Receiver { return &echoActor{got: got} }))
	e.Stop(pid)
	time.Sleep(20 * time.Millisecond)
	e.Send(pid, "late", nil)
	select {
	case <-got:
		t.Fatal("message delivered to stopped actor")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestShutdownStopsAllActors(t *testing.T) {
	e := NewEngine()
	got := make(chan interface{}, 4)
	for i := 0; i < 3; i++ {
		e.Spawn(PropsFromProducer(func() Receiver { return &echoActor{got: got} }))
	}
	e.Shutdown(time.Second)
	e.mu.RLock()
	n := len(e.actors)
	e.mu.RUnlock()
	assert.Equal(t, 0, n)
}
