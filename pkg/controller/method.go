package controller

import (
	"context"
)

// CommandFunc is a bound command callback, callable without a controller.
// Commands take no arguments beyond the context; the signature enforces
// the zero-argument contract at compile time.
type CommandFunc func(ctx context.Context) error

// UnboundCommandFunc is a command template callback. It takes the owning
// controller as its argument and is closed over a specific instance when
// the template is bound.
type UnboundCommandFunc func(ctx context.Context, c *Controller) error

// Command is a controller method that performs a single action when
// called. The wrapped function is bound to a specific controller instance.
type Command struct {
	fn          CommandFunc
	description string
}

// NewCommand creates a bound command.
func NewCommand(fn CommandFunc) *Command {
	return &Command{fn: fn}
}

// WithDescription attaches a human-readable description to the command.
func (c *Command) WithDescription(description string) *Command {
	c.description = description
	return c
}

// Description returns the command description.
func (c *Command) Description() string { return c.description }

// Call invokes the command.
func (c *Command) Call(ctx context.Context) error {
	return c.fn(ctx)
}

// UnboundCommand is a command template declared at controller-type level.
// Bind closes it over a controller instance, producing a Command.
type UnboundCommand struct {
	// Func is the template callback.
	Func UnboundCommandFunc

	// Description is a human-readable description.
	Description string
}

// Bind closes the template over the given controller instance.
func (u UnboundCommand) Bind(c *Controller) *Command {
	fn := u.Func
	return &Command{
		fn:          func(ctx context.Context) error { return fn(ctx, c) },
		description: u.Description,
	}
}

// Scan is a controller method invoked periodically in the background, or
// exactly once at startup for the Once sentinel period. The period is
// fixed at definition time and never changes at runtime.
type Scan struct {
	fn     CommandFunc
	period Period
}

// NewScan creates a bound scan. The period must be strictly positive or
// the Once sentinel; anything else is a *ConfigError.
func NewScan(fn CommandFunc, period Period) (*Scan, error) {
	if !period.valid() {
		return nil, configErrorf(nil, "", "scan period must be positive or Once, got %s", period)
	}
	return &Scan{fn: fn, period: period}, nil
}

// Period returns the scan period.
func (s *Scan) Period() Period { return s.period }

// Call invokes the scan body once.
func (s *Scan) Call(ctx context.Context) error {
	return s.fn(ctx)
}

// UnboundScan is a scan template declared at controller-type level.
type UnboundScan struct {
	// Func is the template callback.
	Func UnboundCommandFunc

	// Period is the scan cadence; Once means run exactly once at startup.
	Period Period
}

// Bind closes the template over the given controller instance. An invalid
// period fails with a *ConfigError naming the controller.
func (u UnboundScan) Bind(c *Controller) (*Scan, error) {
	if !u.Period.valid() {
		return nil, configErrorf(c.Path(), "", "scan period must be positive or Once, got %s", u.Period)
	}
	fn := u.Func
	return &Scan{
		fn:     func(ctx context.Context) error { return fn(ctx, c) },
		period: u.Period,
	}, nil
}
