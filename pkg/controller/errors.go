package controller

import (
	"errors"
	"fmt"
	"strings"
)

// Attribute errors.
var (
	ErrAttributeNotReadable = errors.New("attribute is not readable")
	ErrAttributeNotWritable = errors.New("attribute is not writable")
	ErrCallbackAlreadySet   = errors.New("callback already set")
	ErrNameAlreadySet       = errors.New("attribute is already registered with a controller")
)

// ConfigError reports an invalid controller tree configuration: duplicate
// names, hint mismatches, missing source providers or invalid scan periods.
// Configuration errors are fatal at startup and never retried.
type ConfigError struct {
	// Path is the controller path the error relates to, joined with ".".
	Path string

	// Member is the offending member name, if any.
	Member string

	// Reason describes the problem.
	Reason string
}

// Error returns the configuration failure description.
func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("configuration error")
	if e.Path != "" {
		fmt.Fprintf(&b, " at %q", e.Path)
	}
	if e.Member != "" {
		fmt.Fprintf(&b, " member %q", e.Member)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	return b.String()
}

func configErrorf(path []string, member, format string, args ...any) error {
	return &ConfigError{
		Path:   strings.Join(path, "."),
		Member: member,
		Reason: fmt.Sprintf(format, args...),
	}
}

// SourceError reports a failure of an external source provider.
// On the put path it is logged and swallowed; on the update path it
// propagates and fails the owning scheduler period group.
type SourceError struct {
	// Path is the owning controller path, joined with ".".
	Path string

	// Attribute is the attribute name.
	Attribute string

	// Err is the underlying provider failure.
	Err error
}

// Error returns the source failure description.
func (e *SourceError) Error() string {
	return fmt.Sprintf("source error for %s.%s: %v", e.Path, e.Attribute, e.Err)
}

// Unwrap returns the underlying provider failure.
func (e *SourceError) Unwrap() error { return e.Err }

// TimeoutError reports that a predicate or value wait elapsed before the
// awaited update arrived. It is raised only to the specific waiter.
type TimeoutError struct {
	// Path is the owning controller path, joined with ".".
	Path string

	// Attribute is the attribute name.
	Attribute string

	// Current is the attribute's cached value at the time of the timeout.
	Current any

	// Awaited describes what the waiter was waiting for.
	Awaited string
}

// Error returns the timeout description.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf(
		"timed out waiting for %s on %s.%s (current value %v)",
		e.Awaited, e.Path, e.Attribute, e.Current,
	)
}
