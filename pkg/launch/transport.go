package launch

import (
	"context"

	"github.com/strand-controls/strand-go/pkg/api"
)

// Transport exposes a frozen controller tree to the outside world.
// Implementations adapt the snapshot to a concrete surface, for example
// a process-control server or a test double.
type Transport interface {
	// Name identifies the transport in logs and errors.
	Name() string

	// Connect hands the transport the frozen snapshot. Called once,
	// after the scheduler has started.
	Connect(root *api.ControllerAPI) error

	// Serve runs the transport until the context is cancelled.
	Serve(ctx context.Context) error

	// Context contributes named objects to the shared console context.
	// Keys must be unique across all transports.
	Context() map[string]any
}
