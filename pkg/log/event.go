package log

import (
	"time"
)

// Event represents a framework log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// InstanceID uniquely identifies the control system run (UUID).
	InstanceID string `cbor:"2,keyasint,omitempty"`

	// Category classifies the event type.
	Category Category `cbor:"3,keyasint"`

	// Path is the controller path the event relates to, joined with ".".
	// Empty for events on the root controller or the scheduler itself.
	Path string `cbor:"4,keyasint,omitempty"`

	// Name is the attribute, command or scan name the event relates to.
	Name string `cbor:"5,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Attribute *AttributeEvent `cbor:"6,keyasint,omitempty"` // Attribute update/put
	Scan      *ScanEvent      `cbor:"7,keyasint,omitempty"` // Scan or periodic update invocation
	Group     *GroupEvent     `cbor:"8,keyasint,omitempty"` // Scheduler period-group state
	Error     *ErrorEventData `cbor:"9,keyasint,omitempty"` // Errors at any layer
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryUpdate indicates an attribute value update (source-of-truth path).
	CategoryUpdate Category = 0
	// CategoryPut indicates an attribute setpoint put (demand path).
	CategoryPut Category = 1
	// CategoryScan indicates a scan or periodic update invocation.
	CategoryScan Category = 2
	// CategoryScheduler indicates a scheduler lifecycle or group state change.
	CategoryScheduler Category = 3
	// CategoryLifecycle indicates control system startup/shutdown.
	CategoryLifecycle Category = 4
	// CategoryError indicates an error event.
	CategoryError Category = 5
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryUpdate:
		return "UPDATE"
	case CategoryPut:
		return "PUT"
	case CategoryScan:
		return "SCAN"
	case CategoryScheduler:
		return "SCHEDULER"
	case CategoryLifecycle:
		return "LIFECYCLE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// AttributeEvent captures an attribute value update or setpoint put.
// Values are stringified so the log format is stable across value kinds.
type AttributeEvent struct {
	// Value is the updated cached value (update path).
	Value string `cbor:"1,keyasint,omitempty"`

	// Setpoint is the demanded value (put path).
	Setpoint string `cbor:"2,keyasint,omitempty"`

	// SyncSetpoint reports whether the put requested setpoint syncing.
	SyncSetpoint bool `cbor:"3,keyasint,omitempty"`
}

// ScanEvent captures a scan method or periodic attribute update invocation.
type ScanEvent struct {
	// Period is the scan period; negative means run-once at startup.
	Period time.Duration `cbor:"1,keyasint"`

	// Elapsed is how long the invocation took, if recorded.
	Elapsed time.Duration `cbor:"2,keyasint,omitempty"`
}

// GroupEvent captures a scheduler period-group state change.
type GroupEvent struct {
	// Period identifies the group; negative means the run-once bucket.
	Period time.Duration `cbor:"1,keyasint"`

	// OldState is the state before the change.
	OldState string `cbor:"2,keyasint"`

	// NewState is the state after the change.
	NewState string `cbor:"3,keyasint"`

	// Operations is the number of operations in the group.
	Operations int `cbor:"4,keyasint,omitempty"`
}

// ErrorEventData captures error details at any layer.
type ErrorEventData struct {
	// Message describes the error.
	Message string `cbor:"1,keyasint"`

	// Context describes where the error occurred (e.g. "on-update callback").
	Context string `cbor:"2,keyasint,omitempty"`
}
