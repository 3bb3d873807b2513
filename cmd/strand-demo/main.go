// Command strand-demo runs a simulated temperature rack to exercise the
// framework end to end: a controller tree with source-backed attributes,
// scan methods, the scheduler and the operator console.
//
// Usage:
//
//	strand-demo [flags]
//
// Flags:
//
//	-config string      Configuration file path (YAML)
//	-name string        Control system name (default "demo-rig")
//	-sensors int        Number of simulated sensors (default 4)
//	-log-file string    Binary event log path
//	-log-level string   Log level: debug, info, warn, error (default "info")
//	-interactive        Enable the operator console
//
// Examples:
//
//	# Run with the console and four sensors
//	strand-demo -interactive
//
//	# Run headless with an event log
//	strand-demo -sensors 8 -log-file /tmp/demo.strandlog
//
// Console Commands:
//
//	ls [path]           - List members of a controller
//	tree                - Print the whole controller tree
//	get <path.attr>     - Read an attribute value
//	put <path.attr> <v> - Write an attribute setpoint
//	run <path.cmd>      - Execute a command
//	quit                - Exit
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/strand-controls/strand-go/pkg/launch"
)

var (
	configFile  string
	name        string
	sensors     int
	logFile     string
	logLevel    string
	interactive bool
)

func init() {
	flag.StringVar(&configFile, "config", "", "Configuration file path (YAML)")
	flag.StringVar(&name, "name", "demo-rig", "Control system name")
	flag.IntVar(&sensors, "sensors", 4, "Number of simulated sensors")
	flag.StringVar(&logFile, "log-file", "", "Binary event log path")
	flag.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.BoolVar(&interactive, "interactive", false, "Enable the operator console")
}

func main() {
	flag.Parse()

	cfg := launch.DefaultConfig()
	if configFile != "" {
		loaded, err := launch.LoadConfig(configFile)
		if err != nil {
			log.Fatalf("Invalid configuration: %v", err)
		}
		cfg = loaded
	}
	// Flags override the file.
	if name != "demo-rig" || cfg.Name == "" {
		cfg.Name = name
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}
	if logLevel != "info" {
		cfg.LogLevel = logLevel
	}
	if interactive {
		cfg.Interactive = true
	}

	log.Printf("Strand demo rig %q with %d sensors", cfg.Name, sensors)

	root, err := buildRig(sensors)
	if err != nil {
		log.Fatalf("Failed to build controller tree: %v", err)
	}

	launcher := launch.New(root, cfg)

	var console *launch.Console
	if cfg.Interactive {
		console, err = launch.NewConsole(cfg.Name)
		if err != nil {
			log.Fatalf("Failed to create console: %v", err)
		}
		launcher.AddTransport(console)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if console != nil {
		// Hand the merged transport context to the console for the env
		// command. Collisions abort inside Run as well.
		if merged, err := launcher.ConsoleContext(); err == nil {
			console.SetExtra(merged)
		}
	}

	if err := launcher.Run(ctx); err != nil {
		log.Fatalf("Run failed: %v", err)
	}
	log.Println("Goodbye!")
}
