package monitoring

import (
	"fmt"
	"testing"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) {
		called = true
	})
	Logf("test message")

	if !called {
		t.Error("Custom logger was not called")
	}

	// nil installs a no-op that must not reach the previous logger
	called = false
	SetLogger(nil)
	Logf("test")
	if called {
		t.Error("No-op logger should not have triggered callback")
	}
}

func TestComponent(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var got string
	SetLogger(func(format string, v ...interface{}) {
		got = fmt.Sprintf(format, v...)
	})

	logf := Component("TunnelEngine")
	logf("state=%s", "idle")

	if want := "[TunnelEngine] state=idle"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestComponent_FollowsLoggerSwap(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	logf := Component("Session")

	calls := 0
	SetLogger(func(string, ...interface{}) { calls++ })
	logf("first")
	SetLogger(nil)
	logf("second")

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
