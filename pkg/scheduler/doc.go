// Package scheduler runs the background work of a control system: scan
// methods and periodic attribute updates collected from a ControllerAPI
// snapshot.
//
// Operations are grouped by exact period. Each distinct period gets one
// group and one goroutine; a tick sleeps for the period, then runs every
// operation in the group concurrently and waits for all of them. Run-once
// operations form a separate bucket that completes before any periodic
// group starts.
//
// A failing operation fails its whole group: the group stops ticking,
// moves to the Failed state and reports on the Failures channel. Other
// groups keep running.
//
//	s := scheduler.New(root)
//	if err := s.Start(ctx); err != nil { ... }
//	defer s.Stop()
//	for failure := range s.Failures() { ... }
package scheduler
