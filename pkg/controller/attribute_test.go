package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/strand-controls/strand-go/pkg/datatypes"
)

func TestAttributeUpdateAndGet(t *testing.T) {
	attr := NewAttrR(datatypes.Int{}, nil)

	if got := attr.Get(); got != int64(0) {
		t.Fatalf("initial value: got %v, want 0", got)
	}

	if err := attr.Update(context.Background(), 42); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := attr.Get(); got != int64(42) {
		t.Fatalf("after update: got %v, want 42", got)
	}
}

func TestAttributeUpdateValidates(t *testing.T) {
	max := int64(10)
	attr := NewAttrR(datatypes.Int{Max: &max}, nil)

	err := attr.Update(context.Background(), 11)
	var validationErr *datatypes.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if got := attr.Get(); got != int64(0) {
		t.Fatalf("value changed after failed update: got %v", got)
	}
}

func TestAttributeUpdateNotReadable(t *testing.T) {
	attr := NewAttrW(datatypes.Int{}, nil)

	if err := attr.Update(context.Background(), 1); !errors.Is(err, ErrAttributeNotReadable) {
		t.Fatalf("expected ErrAttributeNotReadable, got %v", err)
	}
}

func TestAttributePutNotWritable(t *testing.T) {
	attr := NewAttrR(datatypes.Int{}, nil)

	if err := attr.Put(context.Background(), 1, false); !errors.Is(err, ErrAttributeNotWritable) {
		t.Fatalf("expected ErrAttributeNotWritable, got %v", err)
	}
}

func TestAttributeRWSelfEcho(t *testing.T) {
	attr := NewAttrRW(datatypes.Float{}, nil)

	if err := attr.Put(context.Background(), 2.5, false); err != nil {
		t.Fatalf("put: %v", err)
	}
	if got := attr.Get(); got != 2.5 {
		t.Fatalf("put did not echo into value: got %v, want 2.5", got)
	}
}

func TestAttributePutValidationError(t *testing.T) {
	attr := NewAttrRW(datatypes.Enum{Members: []string{"off", "on"}}, nil)

	if err := attr.Put(context.Background(), "broken", false); err == nil {
		t.Fatal("expected validation error for unknown enum member")
	}
	if got := attr.Get(); got != "off" {
		t.Fatalf("value changed after rejected put: got %v", got)
	}
}

func TestAttributePutSwallowsCallbackError(t *testing.T) {
	attr := NewAttrW(datatypes.Int{}, nil)
	if err := attr.SetOnPutCallback(func(ctx context.Context, a *Attribute, setpoint any) error {
		return errors.New("device refused")
	}); err != nil {
		t.Fatalf("set on-put: %v", err)
	}

	// A failed demand does not surface to the caller.
	if err := attr.Put(context.Background(), 7, false); err != nil {
		t.Fatalf("put returned callback error: %v", err)
	}
}

func TestAttributeUpdateJoinsCallbackErrors(t *testing.T) {
	attr := NewAttrR(datatypes.Int{}, nil)

	errA := errors.New("observer a failed")
	errB := errors.New("observer b failed")
	var calls atomic.Int32

	attr.AddOnUpdateCallback(func(ctx context.Context, value any) error {
		calls.Add(1)
		return errA
	})
	attr.AddOnUpdateCallback(func(ctx context.Context, value any) error {
		calls.Add(1)
		return errB
	})
	attr.AddOnUpdateCallback(func(ctx context.Context, value any) error {
		calls.Add(1)
		return nil
	})

	err := attr.Update(context.Background(), 1)
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Fatalf("expected both callback errors joined, got %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected all callbacks to run despite failures, got %d", got)
	}
	// The value is stored before callbacks run.
	if got := attr.Get(); got != int64(1) {
		t.Fatalf("value not stored: got %v", got)
	}
}

func TestAttributeFirstUpdateSyncsSetpoint(t *testing.T) {
	attr := NewAttrRW(datatypes.Int{}, nil)

	var mu sync.Mutex
	var synced []any
	attr.AddSyncSetpointCallback(func(ctx context.Context, setpoint any) error {
		mu.Lock()
		synced = append(synced, setpoint)
		mu.Unlock()
		return nil
	})

	if err := attr.Update(context.Background(), 5); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if err := attr.Update(context.Background(), 6); err != nil {
		t.Fatalf("second update: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(synced) != 1 || synced[0] != int64(5) {
		t.Fatalf("expected exactly the first update to sync the setpoint, got %v", synced)
	}
}

func TestAttributeSetOnPutCallbackTwice(t *testing.T) {
	attr := NewAttrW(datatypes.Bool{}, nil)
	cb := func(ctx context.Context, a *Attribute, setpoint any) error { return nil }

	if err := attr.SetOnPutCallback(cb); err != nil {
		t.Fatalf("first set: %v", err)
	}
	if err := attr.SetOnPutCallback(cb); !errors.Is(err, ErrCallbackAlreadySet) {
		t.Fatalf("expected ErrCallbackAlreadySet, got %v", err)
	}
}

func TestAttributeEchoReplacedBySource(t *testing.T) {
	attr := NewAttrRW(datatypes.Int{}, nil)

	var sent atomic.Int64
	if err := attr.SetOnPutCallback(func(ctx context.Context, a *Attribute, setpoint any) error {
		sent.Store(setpoint.(int64))
		return nil
	}); err != nil {
		t.Fatalf("replacing echo callback: %v", err)
	}

	if err := attr.Put(context.Background(), 9, false); err != nil {
		t.Fatalf("put: %v", err)
	}
	if sent.Load() != 9 {
		t.Fatalf("replacement callback not invoked: got %d", sent.Load())
	}
	// The echo no longer runs; the cached value stays at initial.
	if got := attr.Get(); got != int64(0) {
		t.Fatalf("echo still active: got %v", got)
	}
}

func TestAttributeWaitForValue(t *testing.T) {
	attr := NewAttrR(datatypes.Int{}, nil)

	done := make(chan error, 1)
	go func() {
		done <- attr.WaitForValue(context.Background(), 3, time.Second)
	}()

	// Give the waiter a moment to register, then release it.
	time.Sleep(10 * time.Millisecond)
	if err := attr.Update(context.Background(), 2); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := attr.Update(context.Background(), 3); err != nil {
		t.Fatalf("update: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("wait: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("waiter was not released by the matching update")
	}
}

func TestAttributeWaitForValueImmediate(t *testing.T) {
	attr := NewAttrR(datatypes.Int{}, nil)
	if err := attr.Update(context.Background(), 4); err != nil {
		t.Fatalf("update: %v", err)
	}

	if err := attr.WaitForValue(context.Background(), 4, time.Millisecond); err != nil {
		t.Fatalf("expected immediate return for satisfied predicate, got %v", err)
	}
}

func TestAttributeWaitForValueTimeout(t *testing.T) {
	attr := NewAttrR(datatypes.Int{}, nil)

	err := attr.WaitForValue(context.Background(), 99, 20*time.Millisecond)
	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
	if timeoutErr.Current != int64(0) {
		t.Fatalf("timeout error current value: got %v, want 0", timeoutErr.Current)
	}
}

func TestAttributeWaitForPredicateReadsAttribute(t *testing.T) {
	attr := NewAttrR(datatypes.Int{}, nil)

	// Predicates may read the attribute they wait on.
	pred := func(v any) bool {
		return attr.Get() == v && v.(int64) >= 2
	}

	done := make(chan error, 1)
	go func() {
		done <- attr.WaitForPredicate(context.Background(), pred, time.Second)
	}()

	time.Sleep(10 * time.Millisecond)
	if err := attr.Update(context.Background(), 2); err != nil {
		t.Fatalf("update: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("wait: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("waiter with a reading predicate never returned")
	}

	// The already-satisfied path runs the same predicate at registration.
	if err := attr.WaitForPredicate(context.Background(), pred, 50*time.Millisecond); err != nil {
		t.Fatalf("immediate wait: %v", err)
	}
}

func TestAttributeWaitForPredicateCancelled(t *testing.T) {
	attr := NewAttrR(datatypes.Float{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- attr.WaitForPredicate(ctx, func(v any) bool {
			return v.(float64) > 100
		}, time.Minute)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled waiter did not return")
	}
}

func TestAttributeClone(t *testing.T) {
	template := NewAttrRW(datatypes.Int{Units: "K"}, &AttrConfig{Initial: 273, Group: "thermal"})
	template.AddOnUpdateCallback(func(ctx context.Context, value any) error {
		return errors.New("template callback must not leak into clones")
	})

	clone := template.Clone()

	if clone == template {
		t.Fatal("clone returned the same instance")
	}
	if got := clone.Get(); got != int64(273) {
		t.Fatalf("clone initial value: got %v, want 273", got)
	}
	if clone.Group() != "thermal" {
		t.Fatalf("clone group: got %q", clone.Group())
	}

	// The clone has fresh callbacks and fresh state.
	if err := clone.Update(context.Background(), 300); err != nil {
		t.Fatalf("clone update picked up template callbacks: %v", err)
	}
	if got := template.Get(); got != int64(273) {
		t.Fatalf("updating the clone mutated the template: got %v", got)
	}

	// A source-less read-write clone still echoes puts.
	if err := clone.Put(context.Background(), 310, false); err != nil {
		t.Fatalf("clone put: %v", err)
	}
	if got := clone.Get(); got != int64(310) {
		t.Fatalf("clone echo: got %v, want 310", got)
	}
}

func TestAttributeUpdateDatatype(t *testing.T) {
	attr := NewAttrR(datatypes.Float{Units: "mm"}, nil)

	var notified datatypes.DataType
	attr.AddDatatypeCallback(func(dt datatypes.DataType) { notified = dt })

	if err := attr.UpdateDatatype(datatypes.Int{}); err == nil {
		t.Fatal("expected kind mismatch error")
	}

	replacement := datatypes.Float{Units: "m", Prec: 3}
	if err := attr.UpdateDatatype(replacement); err != nil {
		t.Fatalf("update datatype: %v", err)
	}
	if notified == nil || notified.(datatypes.Float).Units != "m" {
		t.Fatalf("datatype callback not notified with replacement: %v", notified)
	}
}

func TestAttributeUpdateDisplay(t *testing.T) {
	attr := NewAttrRW(datatypes.String{}, nil)

	var shown any
	attr.AddWriteDisplayCallback(func(ctx context.Context, value any) error {
		shown = value
		return nil
	})

	if err := attr.UpdateDisplay(context.Background(), "ready"); err != nil {
		t.Fatalf("update display: %v", err)
	}
	if shown != "ready" {
		t.Fatalf("display callback value: got %v", shown)
	}
	// Display writes bypass the put and update paths.
	if got := attr.Get(); got != "" {
		t.Fatalf("display write mutated the value: got %v", got)
	}
}

func TestAttributeConcurrentUpdates(t *testing.T) {
	attr := NewAttrR(datatypes.Int{}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := attr.Update(context.Background(), i); err != nil {
				t.Errorf("update %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	v, ok := attr.Get().(int64)
	if !ok || v < 0 || v > 49 {
		t.Fatalf("final value out of range: %v", attr.Get())
	}
}

func TestAttributeString(t *testing.T) {
	attr := NewAttrRW(datatypes.Bool{}, nil)
	if err := attr.setName("enabled"); err != nil {
		t.Fatalf("set name: %v", err)
	}
	attr.setPath([]string{"rack", "0"})

	want := fmt.Sprintf("Attribute(rack.0.enabled, RW, %s)", datatypes.KindBool)
	if got := attr.String(); got != want {
		t.Fatalf("String: got %q, want %q", got, want)
	}
}
