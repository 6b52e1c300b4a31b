package notification

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short"))

	long := strings.Repeat("ü", 250)
	got := Truncate(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, 203, len([]rune(got)))
}

func TestNotifyDelivers(t *testing.T) {
	type call struct{ title, msg string }
	calls := make(chan call, 1)
	n := New(nil)
	n.notify = func(title, msg string, _ any) error {
		calls <- call{title, msg}
		return nil
	}

	n.Notify("  Translation copied to clipboard.  ")

	select {
	case c := <-calls:
		assert.Equal(t, DefaultTitle, c.title)
		assert.Equal(t, "Translation copied to clipboard.", c.msg)
	case <-time.After(time.Second):
		t.Fatal("notification not delivered")
	}
}

func TestNotifyBlankIsSkipped(t *testing.T) {
	n := New(nil)
	n.notify = func(string, string, any) error {
		t.Error("blank message must not be shown")
		return nil
	}
	n.Notify("   ")
	time.Sleep(10 * time.Millisecond)
}

func TestNotifyFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	n := New(zap.New(core).Sugar())
	n.notify = func(string, string, any) error { return errors.New("no dbus") }

	n.Notify("hello")

	require.Eventually(t, func() bool { return logs.Len() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, "failed to show notification", logs.All()[0].Message)
}

func TestNewUsesDesktopNotifier(t *testing.T) {
	var notify func(title, message string, icon any) error = New(nil).notify
	assert.NotNil(t, notify)
}
