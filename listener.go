package listen

import (
	"context"
	"net"
	"time"
)

// listenerSource adapts a net.Listener to Source[net.Conn].
//
// Accept cannot be interrupted by a context; Next checks ctx before
// blocking and otherwise relies on the listener being closed to unblock,
// which surfaces as the terminal net.ErrClosed.
type listenerSource struct {
	l net.Listener
}

// FromListener returns a Source pulling connections from l. The source's
// errors are l's accept errors, so it composes with LogWarnings and
// SleepOnError.
func FromListener(l net.Listener) Source[net.Conn] {
	return &listenerSource{l: l}
}

func (s *listenerSource) Next(ctx context.Context) (net.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.l.Accept()
}

type wrapOptions struct {
	cooldown time.Duration
	warn     func(error)
}

// WrapOption configures WrapListener.
type WrapOption struct{ f func(*wrapOptions) }

// WithCooldown sets how long the listener pauses after a non-transient
// accept error. The default is 500ms.
func WithCooldown(d time.Duration) WrapOption {
	return WrapOption{func(opts *wrapOptions) {
		opts.cooldown = d
	}}
}

// WithWarningLog sets a callback invoked with each non-transient accept
// error, just before the cool-down begins. It runs inline on the accept
// path and must not block materially.
func WithWarningLog(f func(error)) WrapOption {
	return WrapOption{func(opts *wrapOptions) {
		opts.warn = f
	}}
}

// WrapListener turns l into a production accept loop in one call: accept
// errors never surface (transient ones are retried immediately,
// non-transient ones after a cool-down, optionally logged), and
// connections are admitted only while gate has capacity, each one wrapped
// into a token-owning Conn.
//
// Accept on the returned listener fails only once l is closed. Close and
// Addr delegate to l.
func WrapListener(l net.Listener, gate *Gate, options ...WrapOption) net.Listener {
	opts := wrapOptions{
		cooldown: 500 * time.Millisecond,
	}
	for _, option := range options {
		option.f(&opts)
	}

	src := FromListener(l)
	if opts.warn != nil {
		src = LogWarnings(src, opts.warn)
	}
	return &wrappedListener{
		l:   l,
		src: AdmitConns(SleepOnError(src, opts.cooldown), gate),
	}
}

type wrappedListener struct {
	l   net.Listener
	src Source[net.Conn]
}

func (w *wrappedListener) Accept() (net.Conn, error) {
	return w.src.Next(context.Background())
}

func (w *wrappedListener) Close() error {
	return w.l.Close()
}

func (w *wrappedListener) Addr() net.Addr {
	return w.l.Addr()
}
