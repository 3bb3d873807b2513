package api

import (
	"fmt"
	"iter"
	"strings"

	"github.com/strand-controls/strand-go/pkg/controller"
)

// ControllerAPI is an immutable snapshot of one controller node. Member
// sets and ordering are fixed at Build time; the attribute objects stay
// live so reads and writes through the snapshot reach the tree.
type ControllerAPI struct {
	path        []string
	description string

	attributes map[string]*controller.Attribute
	attrOrder  []string

	commands map[string]*controller.Command
	cmdOrder []string

	scans     map[string]*controller.Scan
	scanOrder []string

	subAPIs  map[string]*ControllerAPI
	subOrder []string
}

// Build freezes the tree rooted at c into a ControllerAPI. The tree must
// be fully initialised; members registered afterwards are invisible.
func Build(c *controller.Controller) (*ControllerAPI, error) {
	a := &ControllerAPI{
		path:        c.Path(),
		description: c.Description(),
		attributes:  make(map[string]*controller.Attribute),
		commands:    make(map[string]*controller.Command),
		scans:       make(map[string]*controller.Scan),
		subAPIs:     make(map[string]*ControllerAPI),
	}

	for _, name := range c.AttributeNames() {
		attr, _ := c.Attribute(name)
		a.attributes[name] = attr
		a.attrOrder = append(a.attrOrder, name)
	}
	for _, name := range c.CommandNames() {
		cmd, _ := c.Command(name)
		a.commands[name] = cmd
		a.cmdOrder = append(a.cmdOrder, name)
	}
	for _, name := range c.ScanNames() {
		scan, _ := c.Scan(name)
		a.scans[name] = scan
		a.scanOrder = append(a.scanOrder, name)
	}
	for _, name := range c.ChildNames() {
		child, _ := c.Child(name)
		sub, err := Build(child)
		if err != nil {
			return nil, err
		}
		a.subAPIs[name] = sub
		a.subOrder = append(a.subOrder, name)
	}
	return a, nil
}

// Path returns the node's path from the root (empty at the root).
func (a *ControllerAPI) Path() []string {
	return append([]string(nil), a.path...)
}

// PathString returns the dot-joined path.
func (a *ControllerAPI) PathString() string {
	return strings.Join(a.path, ".")
}

// Description returns the node description.
func (a *ControllerAPI) Description() string { return a.description }

// Attribute returns the named attribute.
func (a *ControllerAPI) Attribute(name string) (*controller.Attribute, bool) {
	attr, exists := a.attributes[name]
	return attr, exists
}

// AttributeNames returns the attribute names in registration order.
func (a *ControllerAPI) AttributeNames() []string {
	return append([]string(nil), a.attrOrder...)
}

// Command returns the named command.
func (a *ControllerAPI) Command(name string) (*controller.Command, bool) {
	cmd, exists := a.commands[name]
	return cmd, exists
}

// CommandNames returns the command names in registration order.
func (a *ControllerAPI) CommandNames() []string {
	return append([]string(nil), a.cmdOrder...)
}

// Scan returns the named scan.
func (a *ControllerAPI) Scan(name string) (*controller.Scan, bool) {
	scan, exists := a.scans[name]
	return scan, exists
}

// ScanNames returns the scan names in registration order.
func (a *ControllerAPI) ScanNames() []string {
	return append([]string(nil), a.scanOrder...)
}

// Sub returns the named child snapshot.
func (a *ControllerAPI) Sub(name string) (*ControllerAPI, bool) {
	sub, exists := a.subAPIs[name]
	return sub, exists
}

// SubNames returns the child names in tree order.
func (a *ControllerAPI) SubNames() []string {
	return append([]string(nil), a.subOrder...)
}

// Walk yields this node and every descendant, depth first, parents
// before children, siblings in tree order.
func (a *ControllerAPI) Walk() iter.Seq[*ControllerAPI] {
	return func(yield func(*ControllerAPI) bool) {
		a.walk(yield)
	}
}

func (a *ControllerAPI) walk(yield func(*ControllerAPI) bool) bool {
	if !yield(a) {
		return false
	}
	for _, name := range a.subOrder {
		if !a.subAPIs[name].walk(yield) {
			return false
		}
	}
	return true
}

// Find resolves a dot-joined path relative to this node. The empty path
// resolves to the node itself.
func (a *ControllerAPI) Find(path string) (*ControllerAPI, error) {
	if path == "" {
		return a, nil
	}
	node := a
	for _, part := range strings.Split(path, ".") {
		sub, exists := node.subAPIs[part]
		if !exists {
			return nil, fmt.Errorf("no sub controller %q under %q", part, node.PathString())
		}
		node = sub
	}
	return node, nil
}
