package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/strand-controls/strand-go/pkg/datatypes"
	"github.com/strand-controls/strand-go/pkg/log"
)

// Access flags for attributes.
type Access uint8

const (
	// AccessRead allows reading the attribute.
	AccessRead Access = 1 << iota

	// AccessWrite allows writing the attribute.
	AccessWrite

	// AccessReadWrite allows reading and writing.
	AccessReadWrite = AccessRead | AccessWrite
)

// CanRead returns true if reading is allowed.
func (a Access) CanRead() bool { return a&AccessRead != 0 }

// CanWrite returns true if writing is allowed.
func (a Access) CanWrite() bool { return a&AccessWrite != 0 }

// String returns the access flags as a string.
func (a Access) String() string {
	var s string
	if a.CanRead() {
		s += "R"
	}
	if a.CanWrite() {
		s += "W"
	}
	if s == "" {
		return "-"
	}
	return s
}

// Callback signatures for the attribute read/write protocol.

// OnUpdateCallback is called with the new cached value after an update.
type OnUpdateCallback func(ctx context.Context, value any) error

// OnPutCallback actions a change to the setpoint of an attribute,
// typically by forwarding it to an IO sender.
type OnPutCallback func(ctx context.Context, attr *Attribute, setpoint any) error

// SyncSetpointCallback is called with a demanded setpoint so observers can
// reflect it before the source confirms the value.
type SyncSetpointCallback func(ctx context.Context, setpoint any) error

// WriteDisplayCallback is called to present a value without processing it.
type WriteDisplayCallback func(ctx context.Context, value any) error

// UpdateCallback refreshes the cached value of an attribute from its
// source. It is bound by ConnectSources and called periodically by the
// scheduler.
type UpdateCallback func(ctx context.Context, attr *Attribute) error

// AttrConfig holds optional construction parameters for an Attribute.
type AttrConfig struct {
	// Initial overrides the datatype's initial value.
	Initial any

	// Ref links the attribute to an external source provider.
	Ref SourceRef

	// Group is an optional display group for transports.
	Group string

	// Description is a human-readable description.
	Description string
}

// Attribute is a named, typed value slot on a controller node.
//
// Attributes are created as class-level templates and cloned into fresh
// per-instance objects when a controller is bound, so no two nodes ever
// share an Attribute instance. All value mutation and callback dispatch is
// serialised per attribute.
type Attribute struct {
	mu sync.RWMutex

	datatype    datatypes.DataType
	access      Access
	group       string
	description string
	ref         SourceRef

	// Name and path are bound once by the owning controller.
	name  string
	path  []string
	value any

	onUpdate     []OnUpdateCallback
	onPut        OnPutCallback
	syncSetpoint []SyncSetpointCallback
	writeDisplay []WriteDisplayCallback
	update       UpdateCallback

	datatypeCallbacks []func(datatypes.DataType)

	waiters []*predicateWaiter

	// internalEcho marks a read-write attribute with no source ref whose
	// on-put callback echoes into its own update.
	internalEcho        bool
	setpointInitialised bool

	logger log.Logger
}

// predicateWaiter is a one-shot waiter released by the update path when
// its predicate is satisfied.
type predicateWaiter struct {
	pred func(value any) bool
	done chan struct{}
}

func newAttribute(dt datatypes.DataType, access Access, cfg *AttrConfig) *Attribute {
	if cfg == nil {
		cfg = &AttrConfig{}
	}

	value := dt.InitialValue()
	if cfg.Initial != nil {
		if v, err := dt.Validate(cfg.Initial); err == nil {
			value = v
		}
	}

	return &Attribute{
		datatype:    dt,
		access:      access,
		group:       cfg.Group,
		description: cfg.Description,
		ref:         cfg.Ref,
		value:       value,
		logger:      log.NoopLogger{},
	}
}

// NewAttrR creates a read-only attribute.
func NewAttrR(dt datatypes.DataType, cfg *AttrConfig) *Attribute {
	return newAttribute(dt, AccessRead, cfg)
}

// NewAttrW creates a write-only attribute.
func NewAttrW(dt datatypes.DataType, cfg *AttrConfig) *Attribute {
	return newAttribute(dt, AccessWrite, cfg)
}

// NewAttrRW creates a read-write attribute. If the attribute has no source
// ref, its on-put callback is wired to its own Update so that puts echo
// straight back into the cached value.
func NewAttrRW(dt datatypes.DataType, cfg *AttrConfig) *Attribute {
	a := newAttribute(dt, AccessReadWrite, cfg)
	if a.ref == nil {
		a.internalEcho = true
		a.onPut = echoCallback
	}
	return a
}

// echoCallback updates an attribute's own value from a put setpoint.
// Used when a read-write attribute has no external source.
func echoCallback(ctx context.Context, attr *Attribute, setpoint any) error {
	return attr.Update(ctx, setpoint)
}

// Clone produces a fresh unbound Attribute with the same datatype, access
// mode, metadata and initial value, but no name, path, callbacks or
// waiters. Used by Bind to turn templates into per-instance objects.
func (a *Attribute) Clone() *Attribute {
	a.mu.RLock()
	defer a.mu.RUnlock()

	clone := &Attribute{
		datatype:    a.datatype,
		access:      a.access,
		group:       a.group,
		description: a.description,
		ref:         a.ref,
		value:       a.value,
		logger:      log.NoopLogger{},
	}
	if a.internalEcho {
		clone.internalEcho = true
		clone.onPut = echoCallback
	}
	return clone
}

// Name returns the attribute name bound by its owning controller.
func (a *Attribute) Name() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.name
}

// Path returns the owning controller's path.
func (a *Attribute) Path() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]string(nil), a.path...)
}

// FullName returns the dot-joined path and name of the attribute.
func (a *Attribute) FullName() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if len(a.path) == 0 {
		return a.name
	}
	return strings.Join(a.path, ".") + "." + a.name
}

// Datatype returns the attribute's value descriptor.
func (a *Attribute) Datatype() datatypes.DataType {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.datatype
}

// Access returns the attribute's access mode.
func (a *Attribute) Access() Access { return a.access }

// Group returns the optional display group.
func (a *Attribute) Group() string { return a.group }

// Description returns the human-readable description.
func (a *Attribute) Description() string { return a.description }

// SourceRef returns the attribute's source descriptor, or nil.
func (a *Attribute) SourceRef() SourceRef { return a.ref }

// HasSourceRef returns true if the attribute carries a source descriptor.
func (a *Attribute) HasSourceRef() bool { return a.ref != nil }

// SetLogger sets the event logger. Inherited from the owning controller
// when the attribute is registered.
func (a *Attribute) SetLogger(logger log.Logger) {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	a.mu.Lock()
	a.logger = logger
	a.mu.Unlock()
}

// setName binds the attribute name. It may be set exactly once; a second
// bind means two nodes would share the instance.
func (a *Attribute) setName(name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.name != "" {
		return fmt.Errorf("%w as %q", ErrNameAlreadySet, a.name)
	}
	a.name = name
	return nil
}

// setPath records the owning controller's path. The owning controller
// updates it when it is registered under a parent, after which it is fixed.
func (a *Attribute) setPath(path []string) {
	a.mu.Lock()
	a.path = append([]string(nil), path...)
	a.mu.Unlock()
}

// Get returns the cached value. It never blocks and never fails.
func (a *Attribute) Get() any {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.value
}

// Update sets the cached value of the attribute from an underlying source.
//
// The value is validated against the datatype, stored, and every on-update
// callback is invoked concurrently. Callback errors are logged with the
// attribute's identity and joined into the returned error after all
// callbacks have been attempted. Predicate waiters satisfied by the new
// value are released.
//
// To request a change to the setpoint of the attribute use Put, which
// attempts to apply the change to the underlying source instead.
func (a *Attribute) Update(ctx context.Context, value any) error {
	if !a.access.CanRead() {
		return fmt.Errorf("%s: %w", a.FullName(), ErrAttributeNotReadable)
	}

	v, err := a.datatype.Validate(value)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.value = v
	callbacks := append([]OnUpdateCallback(nil), a.onUpdate...)
	waiters := append([]*predicateWaiter(nil), a.waiters...)
	syncFirstSetpoint := a.access.CanWrite() && !a.setpointInitialised
	if syncFirstSetpoint {
		a.setpointInitialised = true
	}
	syncCallbacks := append([]SyncSetpointCallback(nil), a.syncSetpoint...)
	logger := a.logger
	a.mu.Unlock()

	logger.Log(log.Event{
		Timestamp: time.Now(),
		Category:  log.CategoryUpdate,
		Path:      strings.Join(a.Path(), "."),
		Name:      a.Name(),
		Attribute: &log.AttributeEvent{Value: fmt.Sprint(v)},
	})

	// Predicates run outside the lock so they may call back into the
	// attribute. Removal gates the close: whoever removes the waiter
	// owns releasing it.
	for _, w := range waiters {
		if w.pred(v) && a.removeWaiter(w) {
			close(w.done)
		}
	}

	errs := a.runConcurrently(ctx, v, callbacks)
	for _, cbErr := range errs {
		a.logError(cbErr, "on-update callback")
	}

	// The first update of a read-write attribute also syncs the setpoint
	// so displays start out consistent with the readback.
	if syncFirstSetpoint {
		for _, cb := range syncCallbacks {
			if syncErr := cb(ctx, v); syncErr != nil {
				a.logError(syncErr, "sync setpoint callback")
			}
		}
	}

	return errors.Join(errs...)
}

// runConcurrently invokes the on-update callbacks concurrently and collects
// their errors once all have settled.
func (a *Attribute) runConcurrently(ctx context.Context, value any, callbacks []OnUpdateCallback) []error {
	if len(callbacks) == 0 {
		return nil
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, cb := range callbacks {
		wg.Add(1)
		go func(cb OnUpdateCallback) {
			defer wg.Done()
			if err := cb(ctx, value); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(cb)
	}
	wg.Wait()
	return errs
}

// Put sets the setpoint of the attribute on behalf of an external client.
//
// The setpoint is validated against the datatype, then the on-put callback
// is invoked; a callback failure is logged but not returned, because the
// demand simply does not take effect. If syncSetpoint is true the
// sync-setpoint callbacks are additionally invoked so observers can
// reflect the demanded value before the source confirms it.
func (a *Attribute) Put(ctx context.Context, setpoint any, syncSetpoint bool) error {
	if !a.access.CanWrite() {
		return fmt.Errorf("%s: %w", a.FullName(), ErrAttributeNotWritable)
	}

	v, err := a.datatype.Validate(setpoint)
	if err != nil {
		return err
	}

	a.mu.RLock()
	onPut := a.onPut
	syncCallbacks := append([]SyncSetpointCallback(nil), a.syncSetpoint...)
	logger := a.logger
	a.mu.RUnlock()

	logger.Log(log.Event{
		Timestamp: time.Now(),
		Category:  log.CategoryPut,
		Path:      strings.Join(a.Path(), "."),
		Name:      a.Name(),
		Attribute: &log.AttributeEvent{Setpoint: fmt.Sprint(v), SyncSetpoint: syncSetpoint},
	})

	if onPut != nil {
		if putErr := onPut(ctx, a, v); putErr != nil {
			a.logError(putErr, "on-put callback")
		}
	}

	if syncSetpoint {
		for _, cb := range syncCallbacks {
			if syncErr := cb(ctx, v); syncErr != nil {
				a.logError(syncErr, "sync setpoint callback")
			}
		}
	}

	return nil
}

// UpdateDisplay presents a value to write-display callbacks without
// processing it through the put path. Transports use this to reflect a
// setpoint textually.
func (a *Attribute) UpdateDisplay(ctx context.Context, value any) error {
	v, err := a.datatype.Validate(value)
	if err != nil {
		return err
	}

	a.mu.RLock()
	callbacks := append([]WriteDisplayCallback(nil), a.writeDisplay...)
	a.mu.RUnlock()

	for _, cb := range callbacks {
		if cbErr := cb(ctx, v); cbErr != nil {
			a.logError(cbErr, "write-display callback")
		}
	}
	return nil
}

// AddOnUpdateCallback registers a callback fired on every update.
func (a *Attribute) AddOnUpdateCallback(cb OnUpdateCallback) {
	a.mu.Lock()
	a.onUpdate = append(a.onUpdate, cb)
	a.mu.Unlock()
}

// SetOnPutCallback sets the single callback that actions setpoint changes.
// Setting a second callback fails; the internal echo callback of a
// source-less read-write attribute may be replaced once.
func (a *Attribute) SetOnPutCallback(cb OnPutCallback) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.onPut != nil && !a.internalEcho {
		return fmt.Errorf("%s: on-put %w", a.fullNameLocked(), ErrCallbackAlreadySet)
	}
	a.onPut = cb
	a.internalEcho = false
	return nil
}

// AddSyncSetpointCallback registers a callback fired when a put demands a
// setpoint with syncing requested.
func (a *Attribute) AddSyncSetpointCallback(cb SyncSetpointCallback) {
	a.mu.Lock()
	a.syncSetpoint = append(a.syncSetpoint, cb)
	a.mu.Unlock()
}

// AddWriteDisplayCallback registers a callback fired by UpdateDisplay.
func (a *Attribute) AddWriteDisplayCallback(cb WriteDisplayCallback) {
	a.mu.Lock()
	a.writeDisplay = append(a.writeDisplay, cb)
	a.mu.Unlock()
}

// SetUpdateCallback sets the callback that refreshes the cached value from
// the attribute's source. It may be set exactly once.
func (a *Attribute) SetUpdateCallback(cb UpdateCallback) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.update != nil {
		return fmt.Errorf("%s: update %w", a.fullNameLocked(), ErrCallbackAlreadySet)
	}
	a.update = cb
	return nil
}

// HasUpdateCallback returns true if a source refresh callback is bound.
func (a *Attribute) HasUpdateCallback() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.update != nil
}

// UpdatePeriod returns the refresh period declared by the source ref, or
// PeriodNone when the attribute has no ref.
func (a *Attribute) UpdatePeriod() Period {
	if a.ref == nil {
		return PeriodNone
	}
	return a.ref.UpdatePeriod()
}

// BindUpdateCallback closes the bound update callback over this attribute,
// producing the operation the scheduler runs to refresh the value.
func (a *Attribute) BindUpdateCallback() (func(ctx context.Context) error, error) {
	a.mu.RLock()
	update := a.update
	a.mu.RUnlock()
	if update == nil {
		return nil, fmt.Errorf("%s has no update callback", a.FullName())
	}

	return func(ctx context.Context) error {
		if err := update(ctx, a); err != nil {
			a.logError(err, "update loop")
			return err
		}
		return nil
	}, nil
}

// UpdateDatatype replaces the attribute's datatype with one of the same
// kind, for example to change units or bounds, and notifies registered
// datatype callbacks.
func (a *Attribute) UpdateDatatype(dt datatypes.DataType) error {
	a.mu.Lock()
	if dt.Kind() != a.datatype.Kind() {
		kind := a.datatype.Kind()
		a.mu.Unlock()
		return fmt.Errorf("datatype must be of kind %s, got %s", kind, dt.Kind())
	}
	a.datatype = dt
	callbacks := append([]func(datatypes.DataType){}, a.datatypeCallbacks...)
	a.mu.Unlock()

	for _, cb := range callbacks {
		cb(dt)
	}
	return nil
}

// AddDatatypeCallback registers a callback fired when the datatype changes,
// for example so a transport can refresh display metadata.
func (a *Attribute) AddDatatypeCallback(cb func(datatypes.DataType)) {
	a.mu.Lock()
	a.datatypeCallbacks = append(a.datatypeCallbacks, cb)
	a.mu.Unlock()
}

// WaitForPredicate blocks until an update produces a value satisfying the
// predicate, the timeout elapses, or the context is cancelled. If the
// cached value already satisfies the predicate it returns immediately.
// A timeout returns a *TimeoutError carrying the current value.
func (a *Attribute) WaitForPredicate(
	ctx context.Context,
	pred func(value any) bool,
	timeout time.Duration,
) error {
	return a.waitFor(ctx, pred, timeout, "predicate")
}

// WaitForValue blocks until an update produces the target value. The
// target is validated first so comparisons use the coerced form.
func (a *Attribute) WaitForValue(ctx context.Context, target any, timeout time.Duration) error {
	v, err := a.datatype.Validate(target)
	if err != nil {
		return err
	}
	pred := func(value any) bool { return datatypes.Equal(value, v) }
	return a.waitFor(ctx, pred, timeout, fmt.Sprintf("value %v", v))
}

func (a *Attribute) waitFor(
	ctx context.Context,
	pred func(value any) bool,
	timeout time.Duration,
	awaited string,
) error {
	// Register before evaluating so no update between the check and the
	// registration is missed. The predicate itself runs without the lock
	// held, so it may call back into the attribute.
	w := &predicateWaiter{pred: pred, done: make(chan struct{})}
	a.mu.Lock()
	current := a.value
	a.waiters = append(a.waiters, w)
	a.mu.Unlock()

	if pred(current) {
		a.removeWaiter(w)
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-w.done:
		return nil
	case <-timer.C:
		if !a.removeWaiter(w) {
			// Released as the timer fired.
			return nil
		}
		return &TimeoutError{
			Path:      strings.Join(a.Path(), "."),
			Attribute: a.Name(),
			Current:   a.Get(),
			Awaited:   awaited,
		}
	case <-ctx.Done():
		a.removeWaiter(w)
		return ctx.Err()
	}
}

// removeWaiter unregisters the waiter and reports whether it was still
// registered. The remover owns closing the done channel, so concurrent
// updates and timeouts release a waiter exactly once.
func (a *Attribute) removeWaiter(w *predicateWaiter) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, got := range a.waiters {
		if got == w {
			a.waiters = append(a.waiters[:i], a.waiters[i+1:]...)
			return true
		}
	}
	return false
}

func (a *Attribute) fullNameLocked() string {
	if len(a.path) == 0 {
		return a.name
	}
	return strings.Join(a.path, ".") + "." + a.name
}

func (a *Attribute) logError(err error, context string) {
	a.mu.RLock()
	logger := a.logger
	path := strings.Join(a.path, ".")
	name := a.name
	a.mu.RUnlock()

	logger.Log(log.Event{
		Timestamp: time.Now(),
		Category:  log.CategoryError,
		Path:      path,
		Name:      name,
		Error:     &log.ErrorEventData{Message: err.Error(), Context: context},
	})
}

// String returns a diagnostic representation of the attribute.
func (a *Attribute) String() string {
	return fmt.Sprintf("Attribute(%s, %s, %s)", a.FullName(), a.access, a.Datatype().Kind())
}
