// Package listen contains helpers for writing production-ready accept loops:
// a backpressure primitive that bounds the number of simultaneously live
// connections without ever rejecting one that was admitted, and stream
// adapters that absorb accept() errors so that an accept loop never dies.
//
// The usual composition is log the warnings, sleep on serious errors, and
// bound concurrency with a token per connection:
//
//	_, gate := listen.New(500)
//	lis = listen.WrapListener(lis, gate,
//		listen.WithCooldown(500*time.Millisecond),
//		listen.WithWarningLog(func(err error) {
//			log.Printf("accept: %v. %v", err, listen.Hint(err))
//		}),
//	)
//	for {
//		conn, err := lis.Accept() // never fails until lis is closed
//		if err != nil {
//			break
//		}
//		go handle(conn) // conn.Close releases its admission token
//	}
package listen
