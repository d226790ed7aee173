package eventlog

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestFanoutRespectsLevels(t *testing.T) {
	var debug, warn bytes.Buffer
	log := slog.New(Fanout{
		slog.NewTextHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&warn, &slog.HandlerOptions{Level: slog.LevelWarn}),
	}).With("utterance", "u1")

	log.Debug("quiet")
	log.Warn("loud")

	if !strings.Contains(debug.String(), "quiet") || !strings.Contains(debug.String(), "loud") {
		t.Errorf("debug sink = %q", debug.String())
	}
	if strings.Contains(warn.String(), "quiet") || !strings.Contains(warn.String(), "loud") {
		t.Errorf("warn sink = %q", warn.String())
	}
	if !strings.Contains(warn.String(), "utterance=u1") {
		t.Errorf("attrs not carried: %q", warn.String())
	}
}

type blocking struct {
	release chan struct{}
	handled atomic.Int64
}

func (b *blocking) Enabled(context.Context, slog.Level) bool { return true }
func (b *blocking) Handle(context.Context, slog.Record) error {
	<-b.release
	b.handled.Add(1)
	return nil
}
func (b *blocking) WithAttrs([]slog.Attr) slog.Handler { return b }
func (b *blocking) WithGroup(string) slog.Handler      { return b }

func TestAsyncDropsWhenFull(t *testing.T) {
	inner := &blocking{release: make(chan struct{})}
	a := NewAsync(inner, 1)
	log := slog.New(a)

	const n = 10
	start := time.Now()
	for i := range n {
		log.Info("record", "i", i)
	}
	if time.Since(start) > time.Second {
		t.Fatal("logging blocked on a stuck sink")
	}

	close(inner.release)
	a.Close()

	if a.Dropped() < n-2 {
		t.Errorf("dropped = %d, want at least %d", a.Dropped(), n-2)
	}
	if got := inner.handled.Load() + a.Dropped(); got != n {
		t.Errorf("handled+dropped = %d, want %d", got, n)
	}

	// after Close records are counted, not panicking
	log.Info("late")
	if a.Dropped() < n-1 {
		t.Errorf("late record not counted")
	}
}

func TestBusPublishesLogRecords(t *testing.T) {
	got := make(chan BusMessage, 1)
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var m BusMessage
		if json.Unmarshal(data, &m) == nil {
			got <- m
		}
	}))
	defer srv.Close()

	bus, err := Dial("ws"+strings.TrimPrefix(srv.URL, "http"), "voxd")
	if err != nil {
		t.Fatal(err)
	}
	defer bus.Close()

	slog.New(bus.Handler(slog.LevelInfo)).Info("Command recognized", "command", "mute")

	select {
	case m := <-got:
		if m.Kind != "log" || m.From != "voxd" {
			t.Errorf("message = %+v", m)
		}
		if !strings.Contains(m.Content, `"command":"mute"`) {
			t.Errorf("content = %q", m.Content)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestAsyncCloseFlushes(t *testing.T) {
	var buf bytes.Buffer
	a := NewAsync(slog.NewTextHandler(&buf, nil), 16)
	log := slog.New(a)

	log.Info("first")
	log.Error("Stopped", "err", "boom")
	a.Close()

	out := buf.String()
	if !strings.Contains(out, "first") || !strings.Contains(out, "Stopped") {
		t.Fatalf("records lost on Close: %q", out)
	}
	if a.Dropped() != 0 {
		t.Fatalf("dropped = %d", a.Dropped())
	}
}
