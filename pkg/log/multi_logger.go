package log

// MultiLogger fans one event stream out to several sinks, typically a
// FileLogger for the on-disk record plus a SlogAdapter for the
// terminal.
type MultiLogger struct {
	sinks []Logger
}

// NewMultiLogger combines the given loggers into one.
func NewMultiLogger(sinks ...Logger) *MultiLogger {
	return &MultiLogger{sinks: sinks}
}

// Log forwards the event to every sink in registration order.
func (m *MultiLogger) Log(event Event) {
	for _, sink := range m.sinks {
		sink.Log(event)
	}
}

var _ Logger = (*MultiLogger)(nil)
