package log

// Logger receives the events a running control system emits. Attribute
// updates, puts, scan ticks and scheduler group changes all flow
// through one Logger.
type Logger interface {
	// Log records one event. Implementations must tolerate concurrent
	// calls and should not block the caller.
	Log(event Event)
}

// NoopLogger drops every event. The zero value is ready to use, so it
// doubles as the default wherever no logger was configured.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

var _ Logger = NoopLogger{}
