package transport

import (
	"errors"
	"sync"
	"testing"

	"upmesh/message"
	"upmesh/uri"
)

var testTopic = uri.UUri{Authority: "veh", EntityID: 0xA34B, Version: 0x01, ResourceID: 0x8001}

// recorder is a comparable Listener: two registrations of the same
// pointer are the same listener.
type recorder struct {
	mu   sync.Mutex
	msgs []*message.UMessage
}

func (r *recorder) OnReceive(msg *message.UMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

func TestRegisterAndDispatch(t *testing.T) {
	reg := NewListenerRegistry()
	rec := &recorder{}
	if _, err := reg.Register(testTopic, rec); err != nil {
		t.Fatalf("register: %v", err)
	}
	msg := message.NewPublish(testTopic, message.PayloadFromString("hi"))
	if n := reg.Dispatch(testTopic, msg); n != 1 {
		t.Fatalf("expected 1 invocation, got %d", n)
	}
	if rec.count() != 1 {
		t.Fatalf("listener saw %d messages", rec.count())
	}
	got := rec.msgs[0]
	if got.Source != testTopic || got.Kind != message.KindPublish {
		t.Fatalf("message fields changed in flight: %+v", got)
	}
	if got.ExtractText() != "hi" {
		t.Fatalf("payload changed in flight: %q", got.ExtractText())
	}
}

func TestRegisterInvalidTopic(t *testing.T) {
	reg := NewListenerRegistry()
	_, err := reg.Register(uri.UUri{}, &recorder{})
	if !errors.Is(err, ErrInvalidTopic) {
		t.Fatalf("expected ErrInvalidTopic, got %v", err)
	}
}

func TestDuplicateRegistrationSingleDelivery(t *testing.T) {
	reg := NewListenerRegistry()
	rec := &recorder{}
	h1, err := reg.Register(testTopic, rec)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	h2, err := reg.Register(testTopic, rec)
	if err != nil {
		t.Fatalf("re-register: %v", err)
	}
	if h1 != h2 {
		t.Fatal("re-registering the same listener must return the existing handle")
	}
	if n := reg.Dispatch(testTopic, message.NewPublish(testTopic, nil)); n != 1 {
		t.Fatalf("expected single delivery, got %d", n)
	}
}

func TestUnregisterUnknown(t *testing.T) {
	reg := NewListenerRegistry()
	if err := reg.Unregister(Handle{}); !errors.Is(err, ErrListenerNotFound) {
		t.Fatalf("expected ErrListenerNotFound for zero handle, got %v", err)
	}
	h, err := reg.Register(testTopic, &recorder{})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Unregister(h); err != nil {
		t.Fatalf("unregister: %v", err)
	}
	if err := reg.Unregister(h); !errors.Is(err, ErrListenerNotFound) {
		t.Fatalf("expected ErrListenerNotFound on second unregister, got %v", err)
	}
}

func TestUnregisterLeavesOthers(t *testing.T) {
	reg := NewListenerRegistry()
	keep := &recorder{}
	drop := &recorder{}
	if _, err := reg.Register(testTopic, keep); err != nil {
		t.Fatalf("register keep: %v", err)
	}
	h, err := reg.Register(testTopic, drop)
	if err != nil {
		t.Fatalf("register drop: %v", err)
	}
	if err := reg.Unregister(h); err != nil {
		t.Fatalf("unregister: %v", err)
	}
	reg.Dispatch(testTopic, message.NewPublish(testTopic, nil))
	if keep.count() != 1 {
		t.Fatalf("surviving listener saw %d messages", keep.count())
	}
	if drop.count() != 0 {
		t.Fatalf("unregistered listener saw %d messages", drop.count())
	}
}

func TestDispatchZeroListeners(t *testing.T) {
	reg := NewListenerRegistry()
	if n := reg.Dispatch(testTopic, message.NewPublish(testTopic, nil)); n != 0 {
		t.Fatalf("expected 0 invocations, got %d", n)
	}
}

func TestDispatchTopicsIndependent(t *testing.T) {
	reg := NewListenerRegistry()
	other := testTopic
	other.ResourceID = 0x8002
	rec := &recorder{}
	if _, err := reg.Register(testTopic, rec); err != nil {
		t.Fatalf("register: %v", err)
	}
	reg.Dispatch(other, message.NewPublish(other, nil))
	if rec.count() != 0 {
		t.Fatal("listener received a message for a different topic")
	}
}

func TestConcurrentRegistrationsAllDelivered(t *testing.T) {
	reg := NewListenerRegistry()
	const workers = 50
	recs := make([]*recorder, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		recs[i] = &recorder{}
		wg.Add(1)
		go func(r *recorder) {
			defer wg.Done()
			if _, err := reg.Register(testTopic, r); err != nil {
				t.Errorf("register: %v", err)
			}
		}(recs[i])
	}
	wg.Wait()
	if n := reg.Dispatch(testTopic, message.NewPublish(testTopic, nil)); n != workers {
		t.Fatalf("expected %d invocations, got %d", workers, n)
	}
	for i, r := range recs {
		if r.count() != 1 {
			t.Fatalf("listener %d saw %d messages", i, r.count())
		}
	}
}

func TestReentrantUnregisterDuringDispatch(t *testing.T) {
	reg := NewListenerRegistry()
	var handle Handle
	calls := 0
	self := ListenerFunc(func(msg *message.UMessage) {
		calls++
		if err := reg.Unregister(handle); err != nil {
			t.Errorf("reentrant unregister: %v", err)
		}
	})
	h, err := reg.Register(testTopic, self)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	handle = h
	if n := reg.Dispatch(testTopic, message.NewPublish(testTopic, nil)); n != 1 {
		t.Fatalf("expected 1 invocation, got %d", n)
	}
	if calls != 1 {
		t.Fatalf("listener ran %d times", calls)
	}
	if n := reg.Dispatch(testTopic, message.NewPublish(testTopic, nil)); n != 0 {
		t.Fatalf("listener still registered after reentrant unregister, %d invocations", n)
	}
}

func TestSameListener(t *testing.T) {
	a := &recorder{}
	b := &recorder{}
	if !SameListener(a, a) {
		t.Fatal("identical pointers must match")
	}
	if SameListener(a, b) {
		t.Fatal("distinct pointers must not match")
	}
	f := ListenerFunc(func(msg *message.UMessage) {})
	if SameListener(f, f) {
		t.Fatal("func listeners have no identity and must never match")
	}
	if SameListener(nil, a) || SameListener(a, nil) {
		t.Fatal("nil never matches")
	}
}

func TestCountAndClear(t *testing.T) {
	reg := NewListenerRegistry()
	if _, err := reg.Register(testTopic, &recorder{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := reg.Register(testTopic, &recorder{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if n := reg.Count(testTopic); n != 2 {
		t.Fatalf("expected count 2, got %d", n)
	}
	reg.Clear()
	if n := reg.Count(testTopic); n != 0 {
		t.Fatalf("expected count 0 after clear, got %d", n)
	}
}
