package formz

import (
	"context"
	"testing"
	"time"
)

func TestChannelWatcher_Forwards(t *testing.T) {
	src := make(chan []byte, 2)
	src <- []byte("inputs: []")
	src <- []byte("inputs: [{name: a}]")

	out, err := NewChannelWatcher(src).Watch(context.Background())
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	for _, want := range []string{"inputs: []", "inputs: [{name: a}]"} {
		select {
		case got := <-out:
			if string(got) != want {
				t.Errorf("expected %q, got %q", want, got)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("timeout waiting for %q", want)
		}
	}
}

func TestChannelWatcher_ClosesWithSource(t *testing.T) {
	src := make(chan []byte)
	out, err := NewChannelWatcher(src).Watch(context.Background())
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	close(src)

	select {
	case _, ok := <-out:
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for close")
	}
}

func TestChannelWatcher_ClosesOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := make(chan []byte, 1)
	src <- []byte("blocked")

	out, err := NewChannelWatcher(src).Watch(ctx)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	// Nobody reads, so the forwarder is parked on the send until cancel.
	time.Sleep(10 * time.Millisecond)
	cancel()

	deadline := time.After(100 * time.Millisecond)
	for {
		select {
		case _, ok := <-out:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("timeout waiting for close after cancel")
		}
	}
}

func TestSyncChannelWatcher_ReturnsSource(t *testing.T) {
	src := make(chan []byte, 1)
	out, err := NewSyncChannelWatcher(src).Watch(context.Background())
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	src <- []byte("direct")
	select {
	case got := <-out:
		if string(got) != "direct" {
			t.Errorf("expected direct, got %q", got)
		}
	default:
		t.Error("expected the document to be readable without a forwarding goroutine")
	}
}
