package scheduler

import (
	"context"
	"fmt"

	"github.com/strand-controls/strand-go/pkg/api"
	"github.com/strand-controls/strand-go/pkg/controller"
)

// Operation is a single schedulable unit of work: a scan method or the
// periodic refresh of one attribute.
type Operation struct {
	// Path is the owning controller path, joined with ".".
	Path string

	// Name is the scan or attribute name.
	Name string

	// Period is the cadence; Once for the startup bucket.
	Period controller.Period

	// Run executes the operation once.
	Run func(ctx context.Context) error
}

// FullName returns the dot-joined path and name of the operation.
func (o Operation) FullName() string {
	if o.Path == "" {
		return o.Name
	}
	return o.Path + "." + o.Name
}

// Groups holds the collected operations keyed by exact period. Two
// operations share a group only when their periods compare equal.
type Groups struct {
	// Once holds the operations run exactly once at startup.
	Once []Operation

	// Periodic holds one group per distinct period.
	Periodic map[controller.Period][]Operation
}

// Collect walks the snapshot and gathers every scan method and every
// attribute with a bound update callback and a non-zero update period.
// An attribute whose ref declares a period but never got an update
// callback bound is a configuration fault.
func Collect(root *api.ControllerAPI) (*Groups, error) {
	g := &Groups{Periodic: make(map[controller.Period][]Operation)}

	for node := range root.Walk() {
		path := node.PathString()

		for _, name := range node.ScanNames() {
			scan, _ := node.Scan(name)
			g.add(Operation{
				Path:   path,
				Name:   name,
				Period: scan.Period(),
				Run:    scan.Call,
			})
		}

		for _, name := range node.AttributeNames() {
			attr, _ := node.Attribute(name)
			period := attr.UpdatePeriod()
			if period == controller.PeriodNone {
				continue
			}
			if !attr.HasUpdateCallback() {
				return nil, fmt.Errorf(
					"attribute %s declares update period %s but has no update callback; run ConnectSources first",
					attr.FullName(), period,
				)
			}
			run, err := attr.BindUpdateCallback()
			if err != nil {
				return nil, err
			}
			g.add(Operation{Path: path, Name: name, Period: period, Run: run})
		}
	}
	return g, nil
}

func (g *Groups) add(op Operation) {
	if op.Period.IsOnce() {
		g.Once = append(g.Once, op)
		return
	}
	g.Periodic[op.Period] = append(g.Periodic[op.Period], op)
}

// Empty returns true when no operation was collected.
func (g *Groups) Empty() bool {
	return len(g.Once) == 0 && len(g.Periodic) == 0
}
