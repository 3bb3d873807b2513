package launch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/strand-controls/strand-go/pkg/api"
	"github.com/strand-controls/strand-go/pkg/controller"
	"github.com/strand-controls/strand-go/pkg/log"
	"github.com/strand-controls/strand-go/pkg/scheduler"
)

// Launcher errors.
var (
	ErrAlreadyRunning      = errors.New("launcher already running")
	ErrDuplicateContextKey = errors.New("console context key contributed by more than one transport")
)

// Launcher owns the startup and shutdown of a control system built
// around one controller tree.
type Launcher struct {
	mu sync.Mutex

	cfg  Config
	root *controller.Controller

	transports []Transport
	snapshot   *api.ControllerAPI
	sched      *scheduler.Scheduler

	logger     log.Logger
	fileLogger *log.FileLogger

	running atomic.Bool
}

// New creates a launcher for the given tree.
func New(root *controller.Controller, cfg Config) *Launcher {
	return &Launcher{
		cfg:    cfg,
		root:   root,
		logger: log.NoopLogger{},
	}
}

// AddTransport registers a transport. Must be called before Run.
func (l *Launcher) AddTransport(t Transport) {
	l.mu.Lock()
	l.transports = append(l.transports, t)
	l.mu.Unlock()
}

// Snapshot returns the frozen tree. Nil before Run reaches the freeze
// step.
func (l *Launcher) Snapshot() *api.ControllerAPI {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot
}

// ConsoleContext merges the context maps contributed by all transports.
// A key contributed twice is a configuration fault.
func (l *Launcher) ConsoleContext() (map[string]any, error) {
	l.mu.Lock()
	transports := append([]Transport(nil), l.transports...)
	l.mu.Unlock()

	merged := make(map[string]any)
	for _, t := range transports {
		for key, value := range t.Context() {
			if _, exists := merged[key]; exists {
				return nil, fmt.Errorf("%w: %q (transport %s)", ErrDuplicateContextKey, key, t.Name())
			}
			merged[key] = value
		}
	}
	return merged, nil
}

// Run drives the startup sequence and blocks until the context is
// cancelled, a transport fails or a scan group dies on an operation
// error, then shuts everything down in reverse order. Configuration
// faults surface before any background work starts.
func (l *Launcher) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer l.running.Store(false)

	if err := l.setupLogging(); err != nil {
		return err
	}
	defer l.closeLogging()

	l.root.SetLogger(l.logger)
	l.logLifecycle("starting")

	if err := l.root.Initialise(ctx); err != nil {
		return fmt.Errorf("initialise: %w", err)
	}
	if err := l.root.ValidateHints(); err != nil {
		return fmt.Errorf("hint validation: %w", err)
	}
	if err := l.root.ConnectSources(); err != nil {
		return fmt.Errorf("source wiring: %w", err)
	}

	snapshot, err := api.Build(l.root)
	if err != nil {
		return fmt.Errorf("freeze: %w", err)
	}

	// Transport context collisions are configuration faults; detect them
	// before the scheduler starts doing real work.
	if _, err := l.ConsoleContext(); err != nil {
		return err
	}

	if err := l.root.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	sched := scheduler.New(snapshot)
	sched.SetLogger(l.logger)
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	l.mu.Lock()
	l.snapshot = snapshot
	l.sched = sched
	transports := append([]Transport(nil), l.transports...)
	l.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg        sync.WaitGroup
		errMu     sync.Mutex
		transpErr error
	)
	for _, t := range transports {
		if err := t.Connect(snapshot); err != nil {
			cancel()
			sched.Stop()
			return fmt.Errorf("transport %s: %w", t.Name(), err)
		}
		wg.Add(1)
		go func(t Transport) {
			defer wg.Done()
			// Any transport finishing, cleanly or not, ends the run.
			defer cancel()
			if err := t.Serve(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				errMu.Lock()
				if transpErr == nil {
					transpErr = fmt.Errorf("transport %s: %w", t.Name(), err)
				}
				errMu.Unlock()
			}
		}(t)
	}

	l.logLifecycle("running")

	// A period group that dies on an operation error ends the run the
	// same way a failing transport does.
	var schedErr error
	select {
	case <-runCtx.Done():
	case failure := <-sched.Failures():
		schedErr = failure
		cancel()
	}

	l.logLifecycle("stopping")
	sched.Stop()
	wg.Wait()

	if err := l.root.Disconnect(context.Background()); err != nil {
		l.logger.Log(log.Event{
			Timestamp: time.Now(),
			Category:  log.CategoryError,
			Error:     &log.ErrorEventData{Message: err.Error(), Context: "disconnect"},
		})
	}
	l.logLifecycle("stopped")

	if schedErr != nil {
		return schedErr
	}
	errMu.Lock()
	defer errMu.Unlock()
	return transpErr
}

// Scheduler returns the running scheduler. Nil before Run starts it.
func (l *Launcher) Scheduler() *scheduler.Scheduler {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sched
}

func (l *Launcher) setupLogging() error {
	var loggers []log.Logger

	if l.cfg.LogFile != "" {
		fl, err := log.NewFileLogger(l.cfg.LogFile)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		l.fileLogger = fl
		loggers = append(loggers, fl)
	}

	level := slog.LevelInfo
	switch l.cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	loggers = append(loggers, log.NewSlogAdapter(slog.New(handler)))

	if len(loggers) == 1 {
		l.logger = loggers[0]
	} else {
		l.logger = log.NewMultiLogger(loggers...)
	}
	return nil
}

func (l *Launcher) closeLogging() {
	if l.fileLogger != nil {
		_ = l.fileLogger.Close()
	}
}

func (l *Launcher) logLifecycle(state string) {
	l.logger.Log(log.Event{
		Timestamp: time.Now(),
		Category:  log.CategoryLifecycle,
		Name:      l.cfg.Name,
		Attribute: &log.AttributeEvent{Value: state},
	})
}
