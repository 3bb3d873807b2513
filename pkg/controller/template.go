package controller

import (
	"context"
	"sort"
)

// Template is a reusable description of a controller's members. Binding a
// template to a node clones every attribute, so two nodes built from the
// same template never share mutable state. Commands and scans are bound
// to the receiving node at bind time.
type Template struct {
	Attributes map[string]*Attribute
	Commands   map[string]UnboundCommand
	Scans      map[string]UnboundScan

	Initialise func(ctx context.Context, c *Controller) error
	Connect    func(ctx context.Context, c *Controller) error
	Disconnect func(ctx context.Context, c *Controller) error
}

// Bind clones the template's members onto the node, registering them in
// sorted name order so two instances of the same type list identically.
// Binding the same template twice is a no-op for members that are
// already bound; a member name that is already taken by a different
// template or by direct registration is a ConfigError.
func Bind(c *Controller, t *Template) error {
	for _, name := range sortedKeys(t.Attributes) {
		attr := t.Attributes[name]
		c.mu.RLock()
		origin, bound := c.boundFrom[name]
		c.mu.RUnlock()
		if bound {
			if origin == attr {
				continue
			}
			return configErrorf(c.Path(), name,
				"attribute is already bound from a different template")
		}

		clone := attr.Clone()
		if err := c.AddAttribute(name, clone); err != nil {
			return err
		}
		c.mu.Lock()
		c.boundFrom[name] = attr
		c.mu.Unlock()
	}

	for _, name := range sortedKeys(t.Commands) {
		if _, exists := c.Command(name); exists {
			continue
		}
		if err := c.AddCommand(name, t.Commands[name].Bind(c)); err != nil {
			return err
		}
	}

	for _, name := range sortedKeys(t.Scans) {
		us := t.Scans[name]
		if _, exists := c.Scan(name); exists {
			continue
		}
		scan, err := us.Bind(c)
		if err != nil {
			return err
		}
		if err := c.AddScan(name, scan); err != nil {
			return err
		}
	}

	if t.Initialise != nil {
		fn := t.Initialise
		c.OnInitialise(func(ctx context.Context) error { return fn(ctx, c) })
	}
	if t.Connect != nil {
		fn := t.Connect
		c.OnConnect(func(ctx context.Context) error { return fn(ctx, c) })
	}
	if t.Disconnect != nil {
		fn := t.Disconnect
		c.OnDisconnect(func(ctx context.Context) error { return fn(ctx, c) })
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
