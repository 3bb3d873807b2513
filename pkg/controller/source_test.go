package controller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/strand-controls/strand-go/pkg/datatypes"
)

// registerRef is a minimal source descriptor addressing a named register
// inside a fake device.
type registerRef struct {
	register string
	period   Period
}

func (r registerRef) SourceKey() string    { return "register" }
func (r registerRef) UpdatePeriod() Period { return r.period }

// fakeDevice backs registerRef attributes with an in-memory register map.
type fakeDevice struct {
	mu        sync.Mutex
	registers map[string]any
	sendErr   error
	updateErr error
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{registers: make(map[string]any)}
}

func (d *fakeDevice) SourceKey() string { return "register" }

func (d *fakeDevice) Update(ctx context.Context, attr *Attribute) error {
	d.mu.Lock()
	err := d.updateErr
	value, exists := d.registers[attr.SourceRef().(registerRef).register]
	d.mu.Unlock()
	if err != nil {
		return err
	}
	if !exists {
		return errors.New("no such register")
	}
	return attr.Update(ctx, value)
}

func (d *fakeDevice) Send(ctx context.Context, attr *Attribute, value any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sendErr != nil {
		return d.sendErr
	}
	d.registers[attr.SourceRef().(registerRef).register] = value
	return nil
}

func TestConnectSources(t *testing.T) {
	c := New("device")
	device := newFakeDevice()
	device.registers["temp"] = 20.0

	readback := NewAttrR(datatypes.Float{}, &AttrConfig{
		Ref: registerRef{register: "temp", period: Period(100 * time.Millisecond)},
	})
	demand := NewAttrW(datatypes.Float{}, &AttrConfig{
		Ref: registerRef{register: "demand"},
	})
	if err := c.AddAttribute("temperature", readback); err != nil {
		t.Fatalf("add readback: %v", err)
	}
	if err := c.AddAttribute("demand", demand); err != nil {
		t.Fatalf("add demand: %v", err)
	}
	if err := c.RegisterSource(device); err != nil {
		t.Fatalf("register source: %v", err)
	}
	if err := c.ConnectSources(); err != nil {
		t.Fatalf("connect sources: %v", err)
	}

	// The readback got the provider's Update bound as its refresh.
	if !readback.HasUpdateCallback() {
		t.Fatal("readback has no update callback")
	}
	refresh, err := readback.BindUpdateCallback()
	if err != nil {
		t.Fatalf("bind update callback: %v", err)
	}
	if err := refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if got := readback.Get(); got != 20.0 {
		t.Fatalf("refresh value: got %v", got)
	}

	// The demand got the provider's Send bound as its on-put callback.
	if err := demand.Put(context.Background(), 25.0, false); err != nil {
		t.Fatalf("put: %v", err)
	}
	device.mu.Lock()
	got := device.registers["demand"]
	device.mu.Unlock()
	if got != 25.0 {
		t.Fatalf("setpoint not sent to device: got %v", got)
	}
}

func TestConnectSourcesMissingProvider(t *testing.T) {
	c := New("device")
	attr := NewAttrR(datatypes.Int{}, &AttrConfig{Ref: registerRef{register: "x"}})
	if err := c.AddAttribute("orphan", attr); err != nil {
		t.Fatalf("add attribute: %v", err)
	}

	var configErr *ConfigError
	if err := c.ConnectSources(); !errors.As(err, &configErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestRegisterSourceDuplicateKey(t *testing.T) {
	c := New("device")
	if err := c.RegisterSource(newFakeDevice()); err != nil {
		t.Fatalf("first register: %v", err)
	}

	var configErr *ConfigError
	if err := c.RegisterSource(newFakeDevice()); !errors.As(err, &configErr) {
		t.Fatalf("expected ConfigError for duplicate key, got %v", err)
	}
}

func TestConnectSourcesWrapsProviderErrors(t *testing.T) {
	c := New("device")
	device := newFakeDevice()
	device.updateErr = errors.New("bus timeout")

	attr := NewAttrR(datatypes.Int{}, &AttrConfig{
		Ref: registerRef{register: "x", period: Period(time.Second)},
	})
	if err := c.AddAttribute("reading", attr); err != nil {
		t.Fatalf("add attribute: %v", err)
	}
	if err := c.RegisterSource(device); err != nil {
		t.Fatalf("register source: %v", err)
	}
	if err := c.ConnectSources(); err != nil {
		t.Fatalf("connect sources: %v", err)
	}

	refresh, err := attr.BindUpdateCallback()
	if err != nil {
		t.Fatalf("bind update callback: %v", err)
	}

	var sourceErr *SourceError
	if err := refresh(context.Background()); !errors.As(err, &sourceErr) {
		t.Fatalf("expected SourceError from refresh, got %v", err)
	}
	if sourceErr.Attribute != "reading" {
		t.Fatalf("source error attribute: got %q", sourceErr.Attribute)
	}
}

func TestConnectSourcesPerNodeProviders(t *testing.T) {
	root := New("root")
	child := New("child")

	childDevice := newFakeDevice()
	childDevice.registers["v"] = int64(7)

	attr := NewAttrR(datatypes.Int{}, &AttrConfig{Ref: registerRef{register: "v"}})
	if err := child.AddAttribute("value", attr); err != nil {
		t.Fatalf("add attribute: %v", err)
	}
	if err := child.RegisterSource(childDevice); err != nil {
		t.Fatalf("register source: %v", err)
	}
	if err := root.AddChild("child", child); err != nil {
		t.Fatalf("add child: %v", err)
	}

	// The child uses its own provider; the root registers none.
	if err := root.ConnectSources(); err != nil {
		t.Fatalf("connect sources: %v", err)
	}
	refresh, err := attr.BindUpdateCallback()
	if err != nil {
		t.Fatalf("bind update callback: %v", err)
	}
	if err := refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if got := attr.Get(); got != int64(7) {
		t.Fatalf("child refresh value: got %v", got)
	}
}
