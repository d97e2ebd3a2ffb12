package listen

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// counter is the state shared by a Minter, its Gate, and every live Token.
//
// active and limit are plain atomics. waiter is a single-slot register for
// the one goroutine that may be parked in Gate.HasCapacity; it is guarded by
// mu, which is only ever acquired with TryLock. Contention on mu means the
// other party is inside its (very short) critical section, and every party
// re-reads active/limit after leaving it, so skipping a contended wake is
// safe: nobody goes dormant on stale state.
type counter struct {
	active atomic.Int64
	limit  atomic.Int64

	mu     sync.Mutex
	waiter chan struct{}
}

// wake hands a wakeup to the parked waiter, if there is one. Best-effort: if
// the slot is contended, the contending party re-checks the counters itself.
func (c *counter) wake() {
	if !c.mu.TryLock() {
		return
	}
	w := c.waiter
	c.waiter = nil
	c.mu.Unlock()
	if w != nil {
		select {
		case w <- struct{}{}:
		default:
		}
	}
}

func (c *counter) token() *Token {
	c.active.Add(1)
	return &Token{c: c}
}

// Minter is the producer half of a backpressure pair. It creates tokens,
// adjusts the limit, and reports the number of live tokens for metrics.
//
// A Minter is cheap to share: every copy of the pointer operates on the same
// underlying counter. All methods are safe for concurrent use.
type Minter struct {
	c *counter
}

// Gate is the consumer half of a backpressure pair, used to pause a stream
// of incoming connections while the limit is reached. Unlike Minter, a Gate
// is single-consumer: see HasCapacity.
type Gate struct {
	c *counter
}

// Token holds one unit of admitted capacity. Its lifetime is the occupancy
// it accounts for: create it when a connection is admitted, Release it when
// the connection's work is finished.
type Token struct {
	c        *counter
	released atomic.Bool
}

// New creates a backpressure pair with the given limit on simultaneously
// live tokens.
//
// The Gate pauses once the number of live tokens reaches the limit. The
// Minter mints tokens and may change the limit at any time. Note that
// minting a token always succeeds, even past the limit: only the Gate
// blocks, existing holders are never throttled.
func New(limit int) (*Minter, *Gate) {
	if limit < 0 {
		panic(fmt.Sprintf("listen.New: negative limit %d", limit))
	}
	c := &counter{}
	c.limit.Store(int64(limit))
	return &Minter{c: c}, &Gate{c: c}
}

// Token mints a new token, incrementing the live count.
//
// This always succeeds, even when the live count is already at or beyond
// the limit. Mint the token before handing the connection to another
// goroutine, otherwise the gate may admit more connections in between.
func (m *Minter) Token() *Token {
	return m.c.token()
}

// SetLimit changes the limit for the number of live tokens.
//
// Raising the limit takes effect immediately, waking the gate if it is
// paused. Lowering it never revokes live tokens: the gate simply stays
// paused until enough of them are released, so the new limit is enforced
// eventually rather than instantly.
func (m *Minter) SetLimit(limit int) {
	if limit < 0 {
		panic(fmt.Sprintf("listen: negative limit %d", limit))
	}
	old := m.c.limit.Swap(int64(limit))
	if old < int64(limit) {
		m.c.wake()
	}
}

// ActiveTokens returns the number of currently live tokens.
//
// The value may exceed the limit, since tokens can always be minted. It is
// accurate only at the instant of the call; use it for metrics and
// debugging, never for synchronization.
func (m *Minter) ActiveTokens() int {
	return int(m.c.active.Load())
}

// Limit returns the current limit.
func (m *Minter) Limit() int {
	return int(m.c.limit.Load())
}

// HasCapacity blocks until the number of live tokens is below the limit, or
// until ctx is done, in which case it returns ctx.Err().
//
// Only one goroutine may wait at a time: there is a single parked-waiter
// slot, and a second concurrent waiter displaces the first's registration.
// Gates are meant to be owned by a single accept loop.
//
// Abandoning a wait (via ctx) has no effect on the counter; tokens already
// minted stay valid.
func (g *Gate) HasCapacity(ctx context.Context) error {
	c := g.c
	for {
		if c.active.Load() < c.limit.Load() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !c.mu.TryLock() {
			// Somebody is in the middle of a wake; their decrement or limit
			// change is already visible once we re-read, so just go around.
			continue
		}
		w := make(chan struct{}, 1)
		c.waiter = w
		c.mu.Unlock()
		// Re-check after registering. A release that ran between the check
		// above and the registration found no waiter to wake, so parking
		// now would sleep through it.
		if c.active.Load() < c.limit.Load() {
			return nil
		}
		select {
		case <-w:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// token mints a token from the gate's side of the pair, used by the stream
// adapters that attach a token to each admitted item.
func (g *Gate) token() *Token {
	return g.c.token()
}

// Release returns the token's unit of capacity, waking the gate if this
// release takes the live count below the limit. Calling Release more than
// once is a no-op; the decrement happens exactly once. Release may be
// called from any goroutine, not just the one that minted the token.
func (t *Token) Release() {
	if t.released.Swap(true) {
		return
	}
	old := t.c.active.Add(-1) + 1
	if old == t.c.limit.Load() {
		t.c.wake()
	}
}

func (t *Token) String() string {
	return fmt.Sprintf("<Token %d/%d>", t.c.active.Load(), t.c.limit.Load())
}

func (m *Minter) String() string {
	return fmt.Sprintf("<Minter %d/%d>", m.c.active.Load(), m.c.limit.Load())
}

func (g *Gate) String() string {
	return fmt.Sprintf("<Gate %d/%d>", g.c.active.Load(), g.c.limit.Load())
}
