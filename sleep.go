package listen

import (
	"context"
	"time"
)

// Retrier consumes a fallible source and produces an infallible one.
//
// Transient errors (see IsTransientError) are swallowed and the source is
// polled again immediately. Any other error pauses the whole stream for
// the configured cool-down before polling resumes; nothing is emitted and
// nothing is pulled while paused. The only errors Next returns are
// terminal ones: the source ended or ctx was done.
//
// The cool-down exists for resource-exhaustion errors like EMFILE. The
// condition persists across attempts, so an immediate retry would spin at
// full CPU making no progress; pausing gives descriptors elsewhere in the
// process time to be released.
type Retrier[T any] struct {
	src      Source[T]
	cooldown time.Duration

	// End of an in-flight cool-down, zero when draining. Kept across calls
	// so that a Next cancelled mid-pause does not shorten the pause.
	pausedUntil time.Time
}

// SleepOnError wraps src, swallowing transient errors and pausing for
// cooldown after any other non-terminal error.
func SleepOnError[T any](src Source[T], cooldown time.Duration) *Retrier[T] {
	return &Retrier[T]{src: src, cooldown: cooldown}
}

func (r *Retrier[T]) Next(ctx context.Context) (T, error) {
	var zero T
	if !r.pausedUntil.IsZero() {
		if err := r.sleepUntil(ctx, r.pausedUntil); err != nil {
			return zero, err
		}
		r.pausedUntil = time.Time{}
	}
	for {
		v, err := r.src.Next(ctx)
		if err == nil {
			return v, nil
		}
		if isTerminal(err) {
			return zero, err
		}
		if IsTransientError(err) {
			continue
		}
		until := time.Now().Add(r.cooldown)
		if err := r.sleepUntil(ctx, until); err != nil {
			r.pausedUntil = until
			return zero, err
		}
	}
}

func (r *Retrier[T]) sleepUntil(ctx context.Context, deadline time.Time) error {
	d := time.Until(deadline)
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Warned is an inspect step that invokes a callback for every error that
// is neither transient nor terminal, before passing it along unchanged.
// Placed upstream of SleepOnError it gives an operator visibility into the
// errors that are about to pause the accept loop:
//
//	src = listen.LogWarnings(src, func(err error) {
//		log.Printf("accept: %v. %v", err, listen.Hint(err))
//	})
//	src = listen.SleepOnError(src, 500*time.Millisecond)
//
// The callback runs inline on the accept path and must not block
// materially.
type Warned[T any] struct {
	src Source[T]
	f   func(error)
}

// LogWarnings wraps src, invoking f with each non-transient, non-terminal
// error before returning it.
func LogWarnings[T any](src Source[T], f func(error)) *Warned[T] {
	return &Warned[T]{src: src, f: f}
}

func (w *Warned[T]) Next(ctx context.Context) (T, error) {
	v, err := w.src.Next(ctx)
	if err != nil && !IsTransientError(err) && !isTerminal(err) {
		w.f(err)
	}
	return v, err
}
