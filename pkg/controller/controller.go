package controller

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/strand-controls/strand-go/pkg/log"
)

// Controller is a node in the control system tree. It owns attributes,
// commands, scans and child controllers, either named or - for a vector
// node - indexed by integer.
//
// Lifecycle: construct -> bind a Template -> optional Initialise (members
// may be added, never removed) -> path fixed when registered under a
// parent -> frozen into a ControllerAPI snapshot before serving.
type Controller struct {
	mu sync.RWMutex

	description string
	path        []string
	pathSet     bool

	attributes map[string]*Attribute
	attrOrder  []string

	commands map[string]*Command
	cmdOrder []string

	scans     map[string]*Scan
	scanOrder []string

	children   map[string]*Controller
	childOrder []string

	// vector marks a node whose children are indexed by integer.
	vector  bool
	indices []int

	hints map[string]hint

	sources map[string]Source

	// boundFrom tracks which template object produced each attribute, so
	// re-binding the same template is idempotent.
	boundFrom map[string]*Attribute

	initialise func(ctx context.Context) error
	connect    func(ctx context.Context) error
	disconnect func(ctx context.Context) error

	logger log.Logger
}

// New creates a controller node with named children.
func New(description string) *Controller {
	return &Controller{
		description: description,
		attributes:  make(map[string]*Attribute),
		commands:    make(map[string]*Command),
		scans:       make(map[string]*Scan),
		children:    make(map[string]*Controller),
		hints:       make(map[string]hint),
		sources:     make(map[string]Source),
		boundFrom:   make(map[string]*Attribute),
		logger:      log.NoopLogger{},
	}
}

// NewVector creates a controller node whose children are registered under
// sparse non-negative integer indices with SetIndex. The children should
// be instances of the same controller type distinguished only by index.
func NewVector(description string) *Controller {
	c := New(description)
	c.vector = true
	return c
}

// Description returns the human-readable description of the node.
func (c *Controller) Description() string { return c.description }

// IsVector returns true for an integer-indexed node.
func (c *Controller) IsVector() bool { return c.vector }

// Path returns the node's path from the root (empty at the root).
func (c *Controller) Path() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.path...)
}

// SetLogger sets the event logger for this node and everything it owns.
// Children added later inherit the logger at registration.
func (c *Controller) SetLogger(logger log.Logger) {
	if logger == nil {
		logger = log.NoopLogger{}
	}

	c.mu.Lock()
	c.logger = logger
	attrs := make([]*Attribute, 0, len(c.attrOrder))
	for _, name := range c.attrOrder {
		attrs = append(attrs, c.attributes[name])
	}
	children := make([]*Controller, 0, len(c.childOrder))
	for _, name := range c.childOrder {
		children = append(children, c.children[name])
	}
	c.mu.Unlock()

	for _, attr := range attrs {
		attr.SetLogger(logger)
	}
	for _, child := range children {
		child.SetLogger(logger)
	}
}

// Logger returns the node's event logger.
func (c *Controller) Logger() log.Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.logger
}

// setPath fixes the node's path. It may be set exactly once; registration
// under a second parent fails. The path propagates to owned attributes
// and already-registered children.
func (c *Controller) setPath(path []string) error {
	c.mu.Lock()
	if c.pathSet {
		defer c.mu.Unlock()
		return configErrorf(path, "", "controller is already registered under %q", c.pathString())
	}
	c.path = append([]string(nil), path...)
	c.pathSet = true
	attrs := make([]*Attribute, 0, len(c.attrOrder))
	for _, name := range c.attrOrder {
		attrs = append(attrs, c.attributes[name])
	}
	type namedChild struct {
		name  string
		child *Controller
	}
	children := make([]namedChild, 0, len(c.childOrder))
	for _, name := range c.childOrder {
		children = append(children, namedChild{name, c.children[name]})
	}
	c.mu.Unlock()

	for _, attr := range attrs {
		attr.setPath(path)
	}
	for _, nc := range children {
		// Children registered before this node was attached had
		// provisionally empty prefixes; rewrite them now.
		nc.child.repath(append(path, nc.name))
	}
	return nil
}

// repath rewrites the path prefix of an already-registered subtree when an
// ancestor is attached to its parent.
func (c *Controller) repath(path []string) {
	c.mu.Lock()
	c.path = append([]string(nil), path...)
	attrs := make([]*Attribute, 0, len(c.attrOrder))
	for _, name := range c.attrOrder {
		attrs = append(attrs, c.attributes[name])
	}
	type namedChild struct {
		name  string
		child *Controller
	}
	children := make([]namedChild, 0, len(c.childOrder))
	for _, name := range c.childOrder {
		children = append(children, namedChild{name, c.children[name]})
	}
	c.mu.Unlock()

	for _, attr := range attrs {
		attr.setPath(path)
	}
	for _, nc := range children {
		nc.child.repath(append(path, nc.name))
	}
}

func (c *Controller) pathString() string {
	s := ""
	for i, p := range c.path {
		if i > 0 {
			s += "."
		}
		s += p
	}
	return s
}

// nameInUseLocked reports which namespace already holds the name.
// Caller holds c.mu.
func (c *Controller) nameInUseLocked(name string) (string, bool) {
	if _, exists := c.attributes[name]; exists {
		return "attribute", true
	}
	if _, exists := c.commands[name]; exists {
		return "command", true
	}
	if _, exists := c.scans[name]; exists {
		return "scan", true
	}
	if _, exists := c.children[name]; exists {
		return "sub controller", true
	}
	return "", false
}

// AddAttribute registers an attribute under the given name. The name must
// be unused across all of the node's namespaces; the attribute's name and
// path are bound here, exactly once.
func (c *Controller) AddAttribute(name string, attr *Attribute) error {
	c.mu.Lock()
	if kind, used := c.nameInUseLocked(name); used {
		defer c.mu.Unlock()
		return configErrorf(c.path, name, "name already denotes a %s", kind)
	}
	c.attributes[name] = attr
	c.attrOrder = append(c.attrOrder, name)
	path := append([]string(nil), c.path...)
	logger := c.logger
	c.mu.Unlock()

	// An attribute already owned by another node must not stay
	// registered here, so roll the insertion back.
	if err := attr.setName(name); err != nil {
		c.mu.Lock()
		delete(c.attributes, name)
		for i, got := range c.attrOrder {
			if got == name {
				c.attrOrder = append(c.attrOrder[:i], c.attrOrder[i+1:]...)
				break
			}
		}
		c.mu.Unlock()
		return configErrorf(path, name, "%v", err)
	}
	attr.setPath(path)
	attr.SetLogger(logger)
	return nil
}

// AddCommand registers a bound command under the given name.
func (c *Controller) AddCommand(name string, cmd *Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if kind, used := c.nameInUseLocked(name); used {
		return configErrorf(c.path, name, "name already denotes a %s", kind)
	}
	c.commands[name] = cmd
	c.cmdOrder = append(c.cmdOrder, name)
	return nil
}

// AddScan registers a bound scan under the given name.
func (c *Controller) AddScan(name string, scan *Scan) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if kind, used := c.nameInUseLocked(name); used {
		return configErrorf(c.path, name, "name already denotes a %s", kind)
	}
	c.scans[name] = scan
	c.scanOrder = append(c.scanOrder, name)
	return nil
}

// AddChild registers a named child controller. Numeric-only names are
// reserved for vector nodes; registering a child fixes its path.
func (c *Controller) AddChild(name string, child *Controller) error {
	if c.vector {
		return configErrorf(c.Path(), name,
			"cannot add named sub controller to a vector; use SetIndex")
	}
	if isNumeric(name) {
		return configErrorf(c.Path(), name,
			"numeric-only names are reserved for vector sub controllers")
	}
	return c.addChild(name, child)
}

// SetIndex registers a child controller under a non-negative integer
// index on a vector node. Indices do not need to be contiguous.
func (c *Controller) SetIndex(index int, child *Controller) error {
	if !c.vector {
		return configErrorf(c.Path(), strconv.Itoa(index),
			"cannot add indexed sub controller to a non-vector node; use AddChild")
	}
	if index < 0 {
		return configErrorf(c.Path(), strconv.Itoa(index), "index must be non-negative")
	}
	if err := c.addChild(strconv.Itoa(index), child); err != nil {
		return err
	}
	c.mu.Lock()
	c.indices = append(c.indices, index)
	sort.Ints(c.indices)
	c.mu.Unlock()
	return nil
}

func (c *Controller) addChild(name string, child *Controller) error {
	c.mu.Lock()
	if kind, used := c.nameInUseLocked(name); used {
		defer c.mu.Unlock()
		return configErrorf(c.path, name, "name already denotes a %s", kind)
	}
	childPath := append(append([]string(nil), c.path...), name)
	logger := c.logger
	c.mu.Unlock()

	if err := child.setPath(childPath); err != nil {
		return err
	}
	child.SetLogger(logger)

	c.mu.Lock()
	c.children[name] = child
	c.childOrder = append(c.childOrder, name)
	c.mu.Unlock()
	return nil
}

// Attribute returns the named attribute.
func (c *Controller) Attribute(name string) (*Attribute, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	attr, exists := c.attributes[name]
	return attr, exists
}

// AttributeNames returns the attribute names in registration order.
func (c *Controller) AttributeNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.attrOrder...)
}

// Command returns the named command.
func (c *Controller) Command(name string) (*Command, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cmd, exists := c.commands[name]
	return cmd, exists
}

// CommandNames returns the command names in registration order.
func (c *Controller) CommandNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.cmdOrder...)
}

// Scan returns the named scan.
func (c *Controller) Scan(name string) (*Scan, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	scan, exists := c.scans[name]
	return scan, exists
}

// ScanNames returns the scan names in registration order.
func (c *Controller) ScanNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.scanOrder...)
}

// Child returns the named child controller.
func (c *Controller) Child(name string) (*Controller, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	child, exists := c.children[name]
	return child, exists
}

// Index returns the child controller at the given vector index.
func (c *Controller) Index(index int) (*Controller, bool) {
	return c.Child(strconv.Itoa(index))
}

// ChildNames returns the child names: registration order for named nodes,
// ascending index order for vector nodes.
func (c *Controller) ChildNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vector {
		names := make([]string, 0, len(c.indices))
		for _, i := range c.indices {
			names = append(names, strconv.Itoa(i))
		}
		return names
	}
	return append([]string(nil), c.childOrder...)
}

// Indices returns the vector indices in ascending order.
func (c *Controller) Indices() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]int(nil), c.indices...)
}

// OnInitialise sets the hook run during the asynchronous initialise
// phase, before hint validation and the API snapshot. The hook may add
// attributes and children, never remove them.
func (c *Controller) OnInitialise(fn func(ctx context.Context) error) {
	c.mu.Lock()
	c.initialise = fn
	c.mu.Unlock()
}

// OnConnect sets the hook run at scheduler startup, before the run-once
// bucket executes, so the node's external connection is established
// before any operation needs it.
func (c *Controller) OnConnect(fn func(ctx context.Context) error) {
	c.mu.Lock()
	c.connect = fn
	c.mu.Unlock()
}

// OnDisconnect sets the hook run at shutdown.
func (c *Controller) OnDisconnect(fn func(ctx context.Context) error) {
	c.mu.Lock()
	c.disconnect = fn
	c.mu.Unlock()
}

// Initialise runs the node's initialise hook, then recursively the hooks
// of every child, including children added by the hook itself.
func (c *Controller) Initialise(ctx context.Context) error {
	c.mu.RLock()
	fn := c.initialise
	c.mu.RUnlock()

	if fn != nil {
		if err := fn(ctx); err != nil {
			return err
		}
	}

	for _, name := range c.ChildNames() {
		child, _ := c.Child(name)
		if err := child.Initialise(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Connect runs the node's connect hook recursively.
func (c *Controller) Connect(ctx context.Context) error {
	c.mu.RLock()
	fn := c.connect
	c.mu.RUnlock()

	if fn != nil {
		if err := fn(ctx); err != nil {
			return err
		}
	}

	for _, name := range c.ChildNames() {
		child, _ := c.Child(name)
		if err := child.Connect(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Disconnect runs the node's disconnect hook recursively, children first.
func (c *Controller) Disconnect(ctx context.Context) error {
	for _, name := range c.ChildNames() {
		child, _ := c.Child(name)
		if err := child.Disconnect(ctx); err != nil {
			return err
		}
	}

	c.mu.RLock()
	fn := c.disconnect
	c.mu.RUnlock()

	if fn != nil {
		return fn(ctx)
	}
	return nil
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
