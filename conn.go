package listen

import (
	"net"
)

// Conn is a net.Conn that owns a backpressure token. Closing the connection
// releases the token, so the connection's lifetime alone governs the
// occupancy it accounts for.
//
// Everything except Close delegates to the wrapped connection; TCP and Unix
// sockets (or anything else implementing net.Conn) are handled alike, and
// the peer's identity is available through the embedded RemoteAddr.
type Conn struct {
	net.Conn
	token *Token
}

// NewConn wraps c so that token is released when c is closed. A nil token
// produces a detached Conn for interfaces that require a *Conn but should
// not count against a limit, such as outgoing client connections.
func NewConn(token *Token, c net.Conn) *Conn {
	return &Conn{Conn: c, token: token}
}

// Close closes the underlying connection and releases the token. Closing
// more than once releases the token only once.
func (c *Conn) Close() error {
	err := c.Conn.Close()
	if c.token != nil {
		c.token.Release()
	}
	return err
}

// Detach returns the connection's token and removes it from the
// connection, for callers that need occupancy to outlive (or end before)
// the connection itself. After Detach the caller is responsible for
// releasing the token; Close no longer does. Returns nil for a detached
// Conn.
func (c *Conn) Detach() *Token {
	t := c.token
	c.token = nil
	return t
}
