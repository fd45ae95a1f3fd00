package relay

import (
	"context"
	"errors"
	"sync"

	"github.com/GriffinCanCode/TxGate/internal/infrastructure/logging"
	"github.com/GriffinCanCode/TxGate/internal/shared/types"
	"go.uber.org/zap"
)

var (
	// ErrNotAttached means the receiving context is not currently alive.
	ErrNotAttached = errors.New("receiving context is not attached")
	// ErrQueueFull means the receiver is alive but its inbox overflowed.
	ErrQueueFull = errors.New("receiver inbox is full")
)

// DefaultQueueSize bounds each inbox.
const DefaultQueueSize = 64

// Delivery pairs a message with an optional reply channel.
type Delivery struct {
	Msg   types.Message
	reply chan *types.Result
}

// Reply answers a Call delivery. Replying to a Post is a no-op, as is
// replying twice; the reply channel holds exactly one result.
func (d Delivery) Reply(res *types.Result) {
	if d.reply == nil {
		return
	}
	select {
	case d.reply <- res:
	default:
	}
}

// Bus routes messages between named contexts.
type Bus struct {
	mu        sync.RWMutex
	inboxes   map[string]chan Delivery
	queueSize int
	logger    *logging.Logger
	onDrop    func()
}

// New creates a bus.
func New(logger *logging.Logger) *Bus {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Bus{
		inboxes:   make(map[string]chan Delivery),
		queueSize: DefaultQueueSize,
		logger:    logger,
	}
}

// OnDrop registers a hook invoked whenever a message is dropped because the
// receiver was absent or overflowed. Used for metrics.
func (b *Bus) OnDrop(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onDrop = fn
}

// Attach registers a context under name and returns its handle. Attaching
// an already-registered name replaces the previous inbox: the old context
// is considered dead and anything queued for it is discarded.
func (b *Bus) Attach(name string) *Context {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Delivery, b.queueSize)
	b.inboxes[name] = ch
	return &Context{bus: b, name: name, inbox: ch}
}

// Detach removes a context. Messages sent to it afterwards are dropped.
func (b *Bus) Detach(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.inboxes, name)
}

// Attached reports whether a context is currently registered.
func (b *Bus) Attached(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.inboxes[name]
	return ok
}

func (b *Bus) deliver(to string, d Delivery) error {
	b.mu.RLock()
	ch, ok := b.inboxes[to]
	drop := b.onDrop
	b.mu.RUnlock()

	if !ok {
		if drop != nil {
			drop()
		}
		return ErrNotAttached
	}

	select {
	case ch <- d:
		return nil
	default:
		if drop != nil {
			drop()
		}
		return ErrQueueFull
	}
}

// Context is a named attachment to the bus. Its Post and Call stamp the
// outgoing message's Source with the context's own name, so a sender cannot
// claim to be a different window.
type Context struct {
	bus   *Bus
	name  string
	inbox chan Delivery
}

// Name returns the context name.
func (c *Context) Name() string { return c.name }

// Receive exposes the inbox. Consumers select on it together with their
// own cancellation.
func (c *Context) Receive() <-chan Delivery { return c.inbox }

// Detach removes this context from the bus.
func (c *Context) Detach() { c.bus.Detach(c.name) }

// Post sends fire-and-forget. An absent or overflowed receiver means the
// message is silently gone; that is the contract, not an error the sender
// can act on, so Post only logs it.
func (c *Context) Post(to string, msg types.Message) {
	msg.Source = c.name
	if err := c.bus.deliver(to, Delivery{Msg: msg}); err != nil {
		c.bus.logger.Debug("relay post dropped",
			zap.String("from", c.name),
			zap.String("to", to),
			zap.String("type", msg.Type),
			zap.Error(err))
	}
}

// Call sends and waits for the receiver's reply. Delivery failure is
// returned immediately; a receiver that accepts the message but never
// answers is bounded only by ctx.
func (c *Context) Call(ctx context.Context, to string, msg types.Message) (*types.Result, error) {
	msg.Source = c.name
	reply := make(chan *types.Result, 1)

	if err := c.bus.deliver(to, Delivery{Msg: msg, reply: reply}); err != nil {
		return nil, err
	}

	select {
	case res := <-reply:
		return res, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
