// Package testutil holds helpers shared by SongScope tests.
package testutil

import (
	"testing"

	"go.uber.org/goleak"
)

// VerifyNoLeaks fails t if goroutines other than the test runner's are
// still alive. Defer it first, or register it first with t.Cleanup when
// fixtures shut down in cleanups.
func VerifyNoLeaks(t *testing.T, opts ...goleak.Option) {
	t.Helper()
	goleak.VerifyNone(t, opts...)
}

// IgnoreIdleHTTP tolerates keep-alive connections parked in the shared
// http.Transport pool after a test talks to a local server.
func IgnoreIdleHTTP() []goleak.Option {
	return []goleak.Option{
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	}
}
