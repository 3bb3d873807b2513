package controller

import "github.com/strand-controls/strand-go/pkg/datatypes"

type hintKind int

const (
	hintAttribute hintKind = iota
	hintCommand
	hintScan
	hintChild
)

// hint is a declared expectation about a member that the initialise phase
// is supposed to populate. Validation runs once, after initialise.
type hint struct {
	kind     hintKind
	dataKind datatypes.Kind
	access   Access
}

// HintAttribute declares that an attribute of the given name, kind and
// access is expected to exist after the initialise phase. Useful when a
// template relies on members that a dynamic initialise hook discovers at
// runtime.
func (c *Controller) HintAttribute(name string, kind datatypes.Kind, access Access) {
	c.mu.Lock()
	c.hints[name] = hint{kind: hintAttribute, dataKind: kind, access: access}
	c.mu.Unlock()
}

// HintCommand declares that a command of the given name is expected to
// exist after the initialise phase.
func (c *Controller) HintCommand(name string) {
	c.mu.Lock()
	c.hints[name] = hint{kind: hintCommand}
	c.mu.Unlock()
}

// HintScan declares that a scan of the given name is expected to exist
// after the initialise phase.
func (c *Controller) HintScan(name string) {
	c.mu.Lock()
	c.hints[name] = hint{kind: hintScan}
	c.mu.Unlock()
}

// HintChild declares that a child controller of the given name is
// expected to exist after the initialise phase.
func (c *Controller) HintChild(name string) {
	c.mu.Lock()
	c.hints[name] = hint{kind: hintChild}
	c.mu.Unlock()
}

// ValidateHints checks every declared hint on this node and recursively
// on its children. A missing or mismatching member is a ConfigError.
func (c *Controller) ValidateHints() error {
	c.mu.RLock()
	hints := make(map[string]hint, len(c.hints))
	for name, h := range c.hints {
		hints[name] = h
	}
	path := append([]string(nil), c.path...)
	c.mu.RUnlock()

	for name, h := range hints {
		switch h.kind {
		case hintAttribute:
			attr, exists := c.Attribute(name)
			if !exists {
				return configErrorf(path, name, "hinted attribute was never added")
			}
			if got := attr.Datatype().Kind(); got != h.dataKind {
				return configErrorf(path, name,
					"hinted attribute kind %s, got %s", h.dataKind, got)
			}
			if got := attr.Access(); got != h.access {
				return configErrorf(path, name,
					"hinted attribute access %s, got %s", h.access, got)
			}
		case hintCommand:
			if _, exists := c.Command(name); !exists {
				return configErrorf(path, name, "hinted command was never added")
			}
		case hintScan:
			if _, exists := c.Scan(name); !exists {
				return configErrorf(path, name, "hinted scan was never added")
			}
		case hintChild:
			if _, exists := c.Child(name); !exists {
				return configErrorf(path, name, "hinted sub controller was never added")
			}
		}
	}

	for _, name := range c.ChildNames() {
		child, _ := c.Child(name)
		if err := child.ValidateHints(); err != nil {
			return err
		}
	}
	return nil
}
