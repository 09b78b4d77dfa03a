package actor

// Context is handed to Receive for exactly one message.
type Context struct {
	engine    *Engine
	self      *PID
	sender    *PID
	message   interface{}
	requestID string
}

func (c *Context) Self() *PID { return c.self }

func (c *Context) Sender() *PID { return c.sender }

func (c *Context) Message() interface{} { return c.message }

// Engine exposes the owning engine so handlers can Spawn/Send/Ask children.
func (c *Context) Engine() *Engine { return c.engine }

// RequestID is non-empty only when this message was delivered via Ask; a
// handler that wants to answer calls Reply with the same id implicitly.
func (c *Context) RequestID() string { return c.requestID }

// Reply answers a pending Ask. It is a no-op if the message did not arrive
// via Ask (RequestID() == "").
func (c *Context) Reply(v interface{}) {
	if c.requestID == "" {
		return
	}
	c.engine.reply(c.requestID, v)
}
