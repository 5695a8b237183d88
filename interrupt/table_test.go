package interrupt

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/c0deeast/suyuan-vm/board"
	"github.com/pkg/errors"
)

func recv(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for handler")
	}
	return Event{}
}

func forward(ch chan<- Event) Handler {
	return func(_ context.Context, ev Event) error {
		ch <- ev
		return nil
	}
}

func TestAttachDetachState(t *testing.T) {
	tbl := New(4)
	tbl.Attach("4", board.InterruptMode_Rising, forward(nil))
	if !tbl.Registered("4") {
		t.Fatal("pin 4 not registered after attach")
	}
	if !tbl.Detach("4") {
		t.Error("detach did not report the registration")
	}
	if tbl.Registered("4") || tbl.Len() != 0 {
		t.Error("pin 4 still registered after detach")
	}
	if tbl.Detach("4") {
		t.Error("second detach reported a registration")
	}
	if tbl.Detach("13") {
		t.Error("detach of a never-attached pin reported a registration")
	}
}

func TestAttachUndo(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tbl := New(4)
	tbl.Start(ctx)

	first := make(chan Event, 1)
	tbl.Attach("4", board.InterruptMode_Falling, forward(first))
	undo := tbl.Attach("4", board.InterruptMode_Rising, forward(nil))
	undo()
	if mode, ok := tbl.Mode("4"); !ok || mode != board.InterruptMode_Falling {
		t.Fatalf("after undo: %s, %v", mode, ok)
	}
	tbl.Notify("4", false)
	if ev := recv(t, first); ev.Mode != board.InterruptMode_Falling {
		t.Errorf("event = %+v", ev)
	}

	undo = tbl.Attach("2", board.InterruptMode_Change, forward(nil))
	undo()
	if tbl.Registered("2") {
		t.Error("undo of a first attach left a registration")
	}

	undo = tbl.Attach("4", board.InterruptMode_Change, forward(nil))
	tbl.Attach("4", board.InterruptMode_HighLevel, forward(nil))
	undo()
	if mode, _ := tbl.Mode("4"); mode != board.InterruptMode_HighLevel {
		t.Errorf("stale undo replaced a newer registration: %s", mode)
	}
}

func TestReattachReplaces(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tbl := New(4)
	tbl.Start(ctx)

	first := make(chan Event, 1)
	second := make(chan Event, 1)
	tbl.Attach("4", board.InterruptMode_Rising, forward(first))
	tbl.Attach("4", board.InterruptMode_Falling, forward(second))
	if tbl.Len() != 1 {
		t.Fatalf("Len = %d after re-attach", tbl.Len())
	}
	if m, _ := tbl.Mode("4"); m != board.InterruptMode_Falling {
		t.Errorf("mode = %s", m)
	}

	tbl.Notify("4", false)
	ev := recv(t, second)
	if ev.Pin != "4" || ev.Mode != board.InterruptMode_Falling || ev.High {
		t.Errorf("event = %+v", ev)
	}
	select {
	case <-first:
		t.Error("replaced handler ran")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestHandlerFailureKeepsRegistration(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tbl := New(4)
	tbl.Start(ctx)

	var mu sync.Mutex
	calls := 0
	done := make(chan Event, 4)
	tbl.Attach("0", board.InterruptMode_Change, func(_ context.Context, ev Event) error {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		defer func() { done <- ev }()
		if n == 1 {
			panic("boom")
		}
		return errors.New("body failed")
	})

	tbl.Notify("0", true)
	recv(t, done)
	tbl.Notify("0", false)
	recv(t, done)
	if !tbl.Registered("0") {
		t.Error("failing handler unregistered the pin")
	}
}

func TestStaleEventsDiscarded(t *testing.T) {
	tbl := New(4)
	ran := make(chan Event, 1)
	tbl.Attach("2", board.InterruptMode_Rising, forward(ran))
	tbl.Notify("2", true) // queued, worker not started yet
	tbl.Detach("2")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tbl.Start(ctx)
	select {
	case <-ran:
		t.Error("event for a detached pin was delivered")
	case <-time.After(20 * time.Millisecond):
	}

	tbl.Notify("2", true)
	if len(tbl.q) != 0 {
		t.Error("event for an unregistered pin was queued")
	}
}

func TestNotifyNeverBlocks(t *testing.T) {
	tbl := New(2)
	tbl.Attach("2", board.InterruptMode_Rising, forward(nil))
	for i := 0; i < 5; i++ {
		tbl.Notify("2", true)
	}
	if tbl.Drops() != 3 {
		t.Errorf("Drops = %d, want 3", tbl.Drops())
	}
}

func TestReset(t *testing.T) {
	tbl := New(1)
	tbl.Attach("4", board.InterruptMode_Rising, forward(nil))
	tbl.Attach("2", board.InterruptMode_Rising, forward(nil))
	pins := tbl.Reset()
	if len(pins) != 2 || pins[0] != "2" || pins[1] != "4" {
		t.Errorf("Reset = %v", pins)
	}
	if tbl.Len() != 0 {
		t.Error("registrations survived reset")
	}
}

func TestConcurrentAttachDetach(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	tbl := New(16)
	tbl.Start(ctx)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tbl.Attach("4", board.InterruptMode_Change, func(context.Context, Event) error { return nil })
				tbl.Notify("4", j%2 == 0)
				if (i+j)%3 == 0 {
					tbl.Detach("4")
				}
			}
		}(i)
	}
	wg.Wait()
	cancel()
	tbl.Wait()
	if 1 < tbl.Len() {
		t.Errorf("Len = %d", tbl.Len())
	}
}
