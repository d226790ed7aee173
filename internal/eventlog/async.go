package eventlog

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

type queued struct {
	h slog.Handler
	r slog.Record
}

type queue struct {
	ch      chan queued
	dropped atomic.Int64
	done    chan struct{}
	once    sync.Once
}

// Async hands records to a background goroutine so a slow sink never blocks
// the caller. When the queue is full the record is dropped and counted.
type Async struct {
	q *queue
	h slog.Handler
}

func NewAsync(h slog.Handler, size int) *Async {
	if size <= 0 {
		size = 256
	}
	q := &queue{
		ch:   make(chan queued, size),
		done: make(chan struct{}),
	}
	go q.drain()
	return &Async{q: q, h: h}
}

func (q *queue) drain() {
	defer close(q.done)
	for item := range q.ch {
		_ = item.h.Handle(context.Background(), item.r)
	}
}

func (a *Async) Enabled(ctx context.Context, l slog.Level) bool {
	return a.h.Enabled(ctx, l)
}

func (a *Async) Handle(_ context.Context, r slog.Record) (err error) {
	defer func() {
		// send on a closed queue after Close
		if recover() != nil {
			a.q.dropped.Add(1)
			err = nil
		}
	}()

	select {
	case a.q.ch <- queued{h: a.h, r: r.Clone()}:
	default:
		a.q.dropped.Add(1)
	}
	return nil
}

func (a *Async) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Async{q: a.q, h: a.h.WithAttrs(attrs)}
}

func (a *Async) WithGroup(name string) slog.Handler {
	return &Async{q: a.q, h: a.h.WithGroup(name)}
}

// Dropped reports how many records were discarded.
func (a *Async) Dropped() int64 {
	return a.q.dropped.Load()
}

// Close stops accepting records and waits for the queue to drain.
func (a *Async) Close() {
	a.q.once.Do(func() { close(a.q.ch) })
	<-a.q.done
}
