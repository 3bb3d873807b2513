// Package api freezes a controller tree into an immutable snapshot that
// transports and the scheduler consume.
//
// Build walks a fully initialised tree and produces a ControllerAPI per
// node. The snapshot fixes the set of members and their order; the
// attributes themselves remain live, so values read through the snapshot
// are current.
//
//	root, _ := api.Build(controllerRoot)
//	for node := range root.Walk() {
//		fmt.Println(strings.Join(node.Path(), "."))
//	}
//
// Build must run after initialise, hint validation and source wiring.
// Members added to a controller after Build are not visible through the
// snapshot.
package api
