// Package launch assembles and runs a control system: it drives the
// startup sequence over a controller tree, starts the scheduler and
// hands the frozen snapshot to transports.
//
// The startup sequence is fixed:
//
//  1. Initialise the tree (controllers may add members)
//  2. Validate declared hints
//  3. Connect source providers to attributes
//  4. Freeze the tree into a ControllerAPI snapshot
//  5. Start the scheduler (run-once bucket, then period groups)
//  6. Connect and serve transports
//
// Transports expose the snapshot to the outside world. They contribute
// named objects to a shared console context; the interactive console
// gives operators direct access to the tree and those objects.
package launch
