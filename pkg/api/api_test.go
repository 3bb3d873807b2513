package api

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/strand-controls/strand-go/pkg/controller"
	"github.com/strand-controls/strand-go/pkg/datatypes"
)

func buildTree(t *testing.T) *controller.Controller {
	t.Helper()

	root := controller.New("test rig")
	if err := root.AddAttribute("status", controller.NewAttrR(datatypes.String{}, nil)); err != nil {
		t.Fatalf("add attribute: %v", err)
	}
	if err := root.AddCommand("reset", controller.NewCommand(func(ctx context.Context) error { return nil })); err != nil {
		t.Fatalf("add command: %v", err)
	}

	scan, err := controller.NewScan(func(ctx context.Context) error { return nil }, controller.Period(time.Second))
	if err != nil {
		t.Fatalf("new scan: %v", err)
	}
	if err := root.AddScan("poll", scan); err != nil {
		t.Fatalf("add scan: %v", err)
	}

	rack := controller.NewVector("sensor rack")
	for _, i := range []int{1, 0} {
		sensor := controller.New("sensor")
		if err := sensor.AddAttribute("temperature", controller.NewAttrR(datatypes.Float{}, nil)); err != nil {
			t.Fatalf("add attribute: %v", err)
		}
		if err := rack.SetIndex(i, sensor); err != nil {
			t.Fatalf("set index: %v", err)
		}
	}
	if err := root.AddChild("rack", rack); err != nil {
		t.Fatalf("add rack: %v", err)
	}
	return root
}

func TestBuild(t *testing.T) {
	root := buildTree(t)

	a, err := Build(root)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if got := a.AttributeNames(); !reflect.DeepEqual(got, []string{"status"}) {
		t.Fatalf("attribute names: got %v", got)
	}
	if got := a.CommandNames(); !reflect.DeepEqual(got, []string{"reset"}) {
		t.Fatalf("command names: got %v", got)
	}
	if got := a.ScanNames(); !reflect.DeepEqual(got, []string{"poll"}) {
		t.Fatalf("scan names: got %v", got)
	}
	if got := a.SubNames(); !reflect.DeepEqual(got, []string{"rack"}) {
		t.Fatalf("sub names: got %v", got)
	}

	rack, exists := a.Sub("rack")
	if !exists {
		t.Fatal("rack snapshot missing")
	}
	// Vector children come back in ascending index order.
	if got := rack.SubNames(); !reflect.DeepEqual(got, []string{"0", "1"}) {
		t.Fatalf("vector sub order: got %v", got)
	}
}

func TestBuildFreezesMembers(t *testing.T) {
	root := buildTree(t)
	a, err := Build(root)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if err := root.AddAttribute("late", controller.NewAttrR(datatypes.Int{}, nil)); err != nil {
		t.Fatalf("add late attribute: %v", err)
	}
	if _, exists := a.Attribute("late"); exists {
		t.Fatal("member added after Build visible through the snapshot")
	}
}

func TestSnapshotAttributesAreLive(t *testing.T) {
	root := buildTree(t)
	a, err := Build(root)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	attr, _ := a.Attribute("status")
	if err := attr.Update(context.Background(), "running"); err != nil {
		t.Fatalf("update: %v", err)
	}

	direct, _ := root.Attribute("status")
	if got := direct.Get(); got != "running" {
		t.Fatalf("update through snapshot not visible in tree: got %v", got)
	}
}

func TestWalkOrder(t *testing.T) {
	root := buildTree(t)
	a, err := Build(root)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	var paths []string
	for node := range a.Walk() {
		paths = append(paths, node.PathString())
	}

	want := []string{"", "rack", "rack.0", "rack.1"}
	if !reflect.DeepEqual(paths, want) {
		t.Fatalf("walk order: got %v, want %v", paths, want)
	}
}

func TestWalkEarlyStop(t *testing.T) {
	root := buildTree(t)
	a, err := Build(root)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	count := 0
	for range a.Walk() {
		count++
		if count == 2 {
			break
		}
	}
	if count != 2 {
		t.Fatalf("walk did not stop early: visited %d", count)
	}
}

func TestFind(t *testing.T) {
	root := buildTree(t)
	a, err := Build(root)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	node, err := a.Find("rack.1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got := node.PathString(); got != "rack.1" {
		t.Fatalf("found node path: got %q", got)
	}

	if _, err := a.Find("rack.9"); err == nil {
		t.Fatal("expected error for unknown path")
	}

	self, err := a.Find("")
	if err != nil || self != a {
		t.Fatalf("empty path should resolve to the node itself, got %v, %v", self, err)
	}
}
