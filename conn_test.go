package listen

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// pipeConns returns n connections (the server ends of net.Pipe pairs) and a
// cleanup closing their peers.
func pipeConns(t *testing.T, n int) []net.Conn {
	t.Helper()
	conns := make([]net.Conn, n)
	for i := range conns {
		server, client := net.Pipe()
		conns[i] = server
		t.Cleanup(func() { client.Close() })
	}
	return conns
}

func TestAdmitConns(t *testing.T) {
	minter, gate := New(1)
	conns := pipeConns(t, 2)
	src := AdmitConns(script(ok(conns[0]), ok(conns[1])), gate)

	first, err := src.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, minter.ActiveTokens())

	// At the limit: the second connection is not admitted yet.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = src.Next(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// Closing the admitted connection frees its token and unblocks the
	// stream, no explicit release anywhere.
	require.NoError(t, first.Close())
	require.Equal(t, 0, minter.ActiveTokens())

	second, err := src.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, minter.ActiveTokens())
	second.Close()

	_, err = src.Next(context.Background())
	require.ErrorIs(t, err, io.EOF)
}

func TestConnCloseReleasesOnce(t *testing.T) {
	minter, _ := New(1)
	server, client := net.Pipe()
	defer client.Close()

	conn := NewConn(minter.Token(), server)
	require.Equal(t, 1, minter.ActiveTokens())
	conn.Close()
	conn.Close()
	require.Equal(t, 0, minter.ActiveTokens())
}

func TestConnDetach(t *testing.T) {
	minter, _ := New(1)
	server, client := net.Pipe()
	defer client.Close()

	conn := NewConn(minter.Token(), server)
	token := conn.Detach()
	require.NotNil(t, token)
	require.Nil(t, conn.Detach())

	conn.Close()
	require.Equal(t, 1, minter.ActiveTokens())
	token.Release()
	require.Equal(t, 0, minter.ActiveTokens())
}

func TestConnDelegates(t *testing.T) {
	minter, _ := New(1)
	server, client := net.Pipe()

	conn := NewConn(minter.Token(), server)
	require.Equal(t, server.RemoteAddr(), conn.RemoteAddr())

	go func() {
		io.WriteString(client, "ping")
		client.Close()
	}()
	buf := make([]byte, 4)
	_, err := io.ReadFull(conn, buf)
	require.NoError(t, err)
	require.Equal(t, "ping", string(buf))
	conn.Close()
}

func TestDetachedConnDoesNotCount(t *testing.T) {
	minter, _ := New(1)
	server, client := net.Pipe()
	defer client.Close()

	conn := NewConn(nil, server)
	require.Equal(t, 0, minter.ActiveTokens())
	require.NoError(t, conn.Close())
}

// guard against the Source implementations drifting apart from the
// interface.
var (
	_ Source[int]      = (*Admitted[int])(nil)
	_ Source[int]      = (*Retrier[int])(nil)
	_ Source[int]      = (*Warned[int])(nil)
	_ Source[net.Conn] = (*ConnAdmitted)(nil)
	_ net.Conn         = (*Conn)(nil)
)
