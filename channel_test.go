package formz

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestChannel_DeliversInSubscriptionOrder(t *testing.T) {
	ch := NewChannel[int]()
	var got []string

	ch.Subscribe(func(v int) { got = append(got, "a") })
	ch.Subscribe(func(v int) { got = append(got, "b") })
	ch.Subscribe(func(v int) { got = append(got, "c") })

	if err := ch.Next(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := cmp.Diff([]string{"a", "b", "c"}, got); diff != "" {
		t.Errorf("delivery order mismatch (-want +got):\n%s", diff)
	}
}

func TestChannel_UnsubscribeRemovesExactListener(t *testing.T) {
	ch := NewChannel[string]()
	var a, b int

	subA := ch.Subscribe(func(string) { a++ })
	ch.Subscribe(func(string) { b++ })

	subA.Unsubscribe()
	subA.Unsubscribe() // second call is a no-op
	_ = ch.Next("x")

	if a != 0 {
		t.Errorf("expected unsubscribed listener not to run, ran %d times", a)
	}
	if b != 1 {
		t.Errorf("expected remaining listener to run once, ran %d times", b)
	}
	if ch.Len() != 1 {
		t.Errorf("expected 1 listener, got %d", ch.Len())
	}
}

func TestChannel_UnsubscribeAll(t *testing.T) {
	ch := NewChannel[int]()
	calls := 0
	ch.Subscribe(func(int) { calls++ })
	ch.Subscribe(func(int) { calls++ })

	ch.UnsubscribeAll()
	_ = ch.Next(1)

	if calls != 0 {
		t.Errorf("expected no calls, got %d", calls)
	}
	if ch.Len() != 0 {
		t.Errorf("expected 0 listeners, got %d", ch.Len())
	}
}

func TestChannel_SubscribeDuringDispatchSkipsCurrent(t *testing.T) {
	ch := NewChannel[int]()
	late := 0

	ch.Subscribe(func(int) {
		ch.Subscribe(func(int) { late++ })
	})

	_ = ch.Next(1)
	if late != 0 {
		t.Errorf("expected listener added mid-dispatch to miss it, ran %d times", late)
	}

	_ = ch.Next(2)
	if late != 1 {
		t.Errorf("expected late listener to receive next dispatch, ran %d times", late)
	}
}

func TestChannel_UnsubscribeDuringDispatch(t *testing.T) {
	ch := NewChannel[int]()
	var second *Subscription
	secondCalls := 0

	ch.Subscribe(func(int) { second.Unsubscribe() })
	second = ch.Subscribe(func(int) { secondCalls++ })

	_ = ch.Next(1)

	if secondCalls != 0 {
		t.Errorf("expected listener removed mid-dispatch not to run, ran %d times", secondCalls)
	}
}

func TestChannel_PanicDoesNotStopOthers(t *testing.T) {
	ch := NewChannel[int]()
	after := 0

	ch.Subscribe(func(int) { panic("boom") })
	ch.Subscribe(func(int) { after++ })

	err := ch.Next(1)

	if after != 1 {
		t.Errorf("expected listener after the panic to run, ran %d times", after)
	}
	if !errors.Is(err, ErrListenerPanic) {
		t.Errorf("expected ErrListenerPanic, got %v", err)
	}
}

func TestChannel_ConcurrentSubscribe(t *testing.T) {
	ch := NewChannel[int]()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := ch.Subscribe(func(int) {})
			sub.Unsubscribe()
		}()
	}
	wg.Wait()

	if ch.Len() != 0 {
		t.Errorf("expected 0 listeners, got %d", ch.Len())
	}
}
