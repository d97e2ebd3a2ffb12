package listen

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
)

// IsTransientError reports whether err is an accept() error after which the
// next accept may be attempted immediately, without risking a tight loop.
//
// A transient error is scoped to a single connection attempt: the peer
// resetting or aborting the connection before accept completed says nothing
// about the next connection in the queue.
//
// Everything else — resource exhaustion like EMFILE/ENFILE in particular,
// but also any error this package does not recognize — is treated as
// non-transient, and the retry adapters impose a cool-down before the next
// attempt so that a persistent condition does not spin the CPU.
func IsTransientError(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.ECONNRESET)
}

// isTerminal reports whether err means the source of events is gone for
// good rather than having hiccuped. Terminal errors end the stream; they
// are never retried and never logged as warnings.
func isTerminal(err error) bool {
	return errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

type knownError int

const (
	hintNone knownError = iota
	hintEMFILE
	hintENFILE
)

// ErrorHint is a human-readable remediation hint for well-known
// resource-exhaustion errors. It is purely informational; formatting an
// empty hint produces an empty string, so it can be appended to a log line
// unconditionally:
//
//	log.Printf("accept error: %v. %v", err, listen.Hint(err))
type ErrorHint struct {
	known knownError
}

// Hint returns the remediation hint for err. Only EMFILE ("too many open
// files") and ENFILE ("too many open files in system") currently have one;
// for every other error the returned hint is empty.
func Hint(err error) ErrorHint {
	switch {
	case errors.Is(err, syscall.EMFILE):
		return ErrorHint{known: hintEMFILE}
	case errors.Is(err, syscall.ENFILE):
		return ErrorHint{known: hintENFILE}
	}
	return ErrorHint{}
}

// IsEmpty reports whether there is no hint for the error.
func (h ErrorHint) IsEmpty() bool {
	return h.known == hintNone
}

// Text returns the hint text, or "" if there is none. The text reads as a
// call to action and is meant to be printed after the error message itself.
func (h ErrorHint) Text() string {
	switch h.known {
	case hintEMFILE:
		return "Increase per-process open file limit"
	case hintENFILE:
		return "Increase system open file limit"
	}
	return ""
}

func (h ErrorHint) String() string {
	return h.Text()
}
