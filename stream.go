package listen

import (
	"context"
	"net"
)

// Source is a pull-driven, possibly infinite sequence of items — typically
// connections coming out of an accept loop.
//
// Next blocks until the next item is available or ctx is done. A Source is
// single-consumer: call Next from one goroutine at a time.
//
// A fallible Source (a raw listener) may return any error; SleepOnError
// turns it into one whose only errors are terminal, i.e. the sequence has
// ended and Next will never succeed again.
type Source[T any] interface {
	Next(ctx context.Context) (T, error)
}

// Admitted applies backpressure to a source: each Next first waits for the
// gate to have capacity, then advances the underlying source.
//
// This mode yields bare items; the caller must mint a token from the
// paired Minter for each item before doing anything that could yield to
// another goroutine, otherwise the gate can over-admit in the window
// between pulling the item and minting its token. Prefer AdmitConns, which
// cannot be used that way.
type Admitted[T any] struct {
	src  Source[T]
	gate *Gate
}

// Admit wraps src so that items are only produced while gate has capacity.
func Admit[T any](src Source[T], gate *Gate) *Admitted[T] {
	return &Admitted[T]{src: src, gate: gate}
}

func (a *Admitted[T]) Next(ctx context.Context) (T, error) {
	if err := a.gate.HasCapacity(ctx); err != nil {
		var zero T
		return zero, err
	}
	return a.src.Next(ctx)
}

// TokenAdmitted is like Admitted but mints the token itself, yielding it
// alongside the item. The caller owns the token for exactly as long as the
// item's unit of work is alive.
type TokenAdmitted[T any] struct {
	src  Source[T]
	gate *Gate
}

// AdmitTokens wraps src so that items are only produced while gate has
// capacity, pairing each item with a freshly minted token.
func AdmitTokens[T any](src Source[T], gate *Gate) *TokenAdmitted[T] {
	return &TokenAdmitted[T]{src: src, gate: gate}
}

// Next waits for capacity, pulls the next item, and mints a token for it.
// On error the token is not minted and the returned token is nil.
func (a *TokenAdmitted[T]) Next(ctx context.Context) (*Token, T, error) {
	if err := a.gate.HasCapacity(ctx); err != nil {
		var zero T
		return nil, zero, err
	}
	v, err := a.src.Next(ctx)
	if err != nil {
		var zero T
		return nil, zero, err
	}
	return a.gate.token(), v, nil
}

// ConnAdmitted applies backpressure to a source of connections, yielding
// *Conn values that own their token: closing the connection releases it.
//
// This is the preferred composition, because token lifetime is tied to the
// connection's and there is no way to forget to mint or to mint too late.
type ConnAdmitted struct {
	src  Source[net.Conn]
	gate *Gate
}

// AdmitConns wraps src so that connections are only produced while gate has
// capacity, each wrapped into a token-owning Conn.
func AdmitConns(src Source[net.Conn], gate *Gate) *ConnAdmitted {
	return &ConnAdmitted{src: src, gate: gate}
}

func (a *ConnAdmitted) Next(ctx context.Context) (net.Conn, error) {
	if err := a.gate.HasCapacity(ctx); err != nil {
		return nil, err
	}
	c, err := a.src.Next(ctx)
	if err != nil {
		return nil, err
	}
	return NewConn(a.gate.token(), c), nil
}
