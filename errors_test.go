package listen

import (
	"errors"
	"io"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsTransientError(t *testing.T) {
	for _, tc := range []struct {
		name      string
		err       error
		transient bool
	}{
		{"reset", acceptError(syscall.ECONNRESET), true},
		{"aborted", acceptError(syscall.ECONNABORTED), true},
		{"refused", acceptError(syscall.ECONNREFUSED), true},
		{"bare errno", syscall.ECONNRESET, true},
		{"emfile", acceptError(syscall.EMFILE), false},
		{"enfile", acceptError(syscall.ENFILE), false},
		{"closed", net.ErrClosed, false},
		{"eof", io.EOF, false},
		{"unknown", errors.New("what even is this"), false},
		{"nil is not transient", nil, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.transient, IsTransientError(tc.err))
		})
	}
}

func TestHint(t *testing.T) {
	h := Hint(acceptError(syscall.EMFILE))
	require.False(t, h.IsEmpty())
	require.Equal(t, "Increase per-process open file limit", h.Text())

	h = Hint(acceptError(syscall.ENFILE))
	require.False(t, h.IsEmpty())
	require.Equal(t, "Increase system open file limit", h.Text())

	// Hints format appended to a log line unconditionally, so the empty
	// hint must render as nothing.
	h = Hint(errors.New("other os error"))
	require.True(t, h.IsEmpty())
	require.Equal(t, "", h.String())
}
