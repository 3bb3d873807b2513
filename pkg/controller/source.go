package controller

import (
	"context"
	"strings"
)

// SourceRef is an opaque, typed descriptor an Attribute carries to match
// it to an external IO provider. The fields needed to distinguish between
// attributes are an implementation detail of the provider; some examples
// are a query string to send over a TCP port, or a URI within an HTTP
// server.
type SourceRef interface {
	// SourceKey identifies the provider type this ref belongs to.
	// A controller node registers at most one Source per key.
	SourceKey() string

	// UpdatePeriod is the cadence at which the attribute's cached value
	// should be refreshed from the source. PeriodNone disables periodic
	// refresh; Once refreshes exactly once at startup.
	UpdatePeriod() Period
}

// Source is an external IO provider matched to attributes by the key of
// their source ref.
type Source interface {
	// SourceKey identifies the ref type this provider handles.
	SourceKey() string

	// Update reads the attribute's value from the source and calls the
	// attribute's Update. Failures should be wrapped in *SourceError.
	Update(ctx context.Context, attr *Attribute) error

	// Send writes a demanded setpoint to the source.
	Send(ctx context.Context, attr *Attribute, value any) error
}

// RegisterSource registers an IO provider on this node. Exactly one
// provider may be registered per ref key; a duplicate is a *ConfigError.
func (c *Controller) RegisterSource(s Source) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := s.SourceKey()
	if _, exists := c.sources[key]; exists {
		return configErrorf(c.path, "", "more than one source provider handles ref key %q", key)
	}
	c.sources[key] = s
	return nil
}

// ConnectSources wires every attribute that carries a source ref to the
// matching provider registered on its node: the provider's Send becomes
// the attribute's on-put callback and its Update becomes the attribute's
// periodic refresh binding. A ref with no matching provider is a
// *ConfigError. The wiring recurses over child controllers, which use
// their own registered providers.
//
// Must run after Initialise, before the ControllerAPI snapshot is built.
func (c *Controller) ConnectSources() error {
	c.mu.RLock()
	attrs := make([]*Attribute, 0, len(c.attrOrder))
	for _, name := range c.attrOrder {
		attrs = append(attrs, c.attributes[name])
	}
	children := make([]*Controller, 0, len(c.childOrder))
	for _, name := range c.childOrder {
		children = append(children, c.children[name])
	}
	c.mu.RUnlock()

	for _, attr := range attrs {
		if err := c.connectAttribute(attr); err != nil {
			return err
		}
	}

	for _, child := range children {
		if err := child.ConnectSources(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) connectAttribute(attr *Attribute) error {
	ref := attr.SourceRef()
	if ref == nil {
		return nil
	}

	c.mu.RLock()
	source, exists := c.sources[ref.SourceKey()]
	c.mu.RUnlock()
	if !exists {
		return configErrorf(c.path, attr.Name(),
			"no source provider registered for ref key %q", ref.SourceKey())
	}

	if attr.Access().CanWrite() {
		send := newSendCallback(source)
		if err := attr.SetOnPutCallback(send); err != nil {
			return err
		}
	}
	if attr.Access().CanRead() {
		update := newUpdateCallback(source)
		if err := attr.SetUpdateCallback(update); err != nil {
			return err
		}
	}
	return nil
}

// newSendCallback wraps a provider's Send as an on-put callback, tagging
// failures with the attribute's identity as a *SourceError.
func newSendCallback(source Source) OnPutCallback {
	return func(ctx context.Context, attr *Attribute, setpoint any) error {
		if err := source.Send(ctx, attr, setpoint); err != nil {
			return sourceError(attr, err)
		}
		return nil
	}
}

// newUpdateCallback wraps a provider's Update as a refresh binding.
func newUpdateCallback(source Source) UpdateCallback {
	return func(ctx context.Context, attr *Attribute) error {
		if err := source.Update(ctx, attr); err != nil {
			return sourceError(attr, err)
		}
		return nil
	}
}

func sourceError(attr *Attribute, err error) error {
	if _, ok := err.(*SourceError); ok {
		return err
	}
	return &SourceError{
		Path:      strings.Join(attr.Path(), "."),
		Attribute: attr.Name(),
		Err:       err,
	}
}
