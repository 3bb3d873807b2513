// Command strand-log views and analyzes binary event log files written
// by the framework's file logger.
//
// Usage:
//
//	strand-log <command> [flags] <file.strandlog>
//
// Commands:
//
//	view     View log file in human-readable format
//	stats    Show statistics about the log file
//
// Examples:
//
//	# View all events
//	strand-log view demo.strandlog
//
//	# View only attribute updates under one controller
//	strand-log view -category update -path rack.0 demo.strandlog
//
//	# Show per-category counts
//	strand-log stats demo.strandlog
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/strand-controls/strand-go/pkg/log"
)

const usage = `strand-log - Strand Event Log Analyzer

Usage:
  strand-log <command> [flags] <file.strandlog>

Commands:
  view     View log file in human-readable format
  stats    Show statistics about the log file

Use "strand-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	category := fs.String("category", "", "Filter by category (update, put, scan, scheduler, lifecycle, error)")
	pathPrefix := fs.String("path", "", "Filter by controller path prefix")
	name := fs.String("name", "", "Filter by attribute/command/scan name")
	instance := fs.String("instance", "", "Filter by run instance ID")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		os.Exit(1)
	}

	filter := log.Filter{
		InstanceID: *instance,
		PathPrefix: *pathPrefix,
		Name:       *name,
	}
	if *category != "" {
		c, err := parseCategory(*category)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filter.Category = &c
	}

	if err := view(fs.Arg(0), filter, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func view(path string, filter log.Filter, out io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return err
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(out, formatEvent(event))
	}
}

func formatEvent(e log.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %-9s", e.Timestamp.Format("15:04:05.000000"), e.Category)

	target := e.Path
	if e.Name != "" {
		if target != "" {
			target += "."
		}
		target += e.Name
	}
	if target != "" {
		fmt.Fprintf(&b, "  %s", target)
	}

	switch {
	case e.Attribute != nil && e.Attribute.Value != "":
		fmt.Fprintf(&b, "  = %s", e.Attribute.Value)
	case e.Attribute != nil && e.Attribute.Setpoint != "":
		fmt.Fprintf(&b, "  <- %s (sync=%t)", e.Attribute.Setpoint, e.Attribute.SyncSetpoint)
	case e.Scan != nil:
		fmt.Fprintf(&b, "  period=%s elapsed=%s", e.Scan.Period, e.Scan.Elapsed)
	case e.Group != nil:
		fmt.Fprintf(&b, "  period=%s %s->%s (%d ops)",
			e.Group.Period, e.Group.OldState, e.Group.NewState, e.Group.Operations)
	case e.Error != nil:
		fmt.Fprintf(&b, "  %s", e.Error.Message)
		if e.Error.Context != "" {
			fmt.Fprintf(&b, " [%s]", e.Error.Context)
		}
	}
	return b.String()
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		os.Exit(1)
	}

	if err := stats(fs.Arg(0), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func stats(path string, out io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	total := 0
	byCategory := make(map[log.Category]int)
	byPath := make(map[string]int)
	var first, last log.Event

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if total == 0 {
			first = event
		}
		last = event
		total++
		byCategory[event.Category]++
		if event.Path != "" {
			byPath[event.Path]++
		}
	}

	fmt.Fprintf(out, "Events: %d\n", total)
	if total > 0 {
		fmt.Fprintf(out, "Span:   %s .. %s (%s)\n",
			first.Timestamp.Format("15:04:05.000"),
			last.Timestamp.Format("15:04:05.000"),
			last.Timestamp.Sub(first.Timestamp).Round(time.Millisecond))
	}

	fmt.Fprintln(out, "\nBy category:")
	categories := make([]log.Category, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })
	for _, c := range categories {
		fmt.Fprintf(out, "  %-10s %d\n", c, byCategory[c])
	}

	if len(byPath) > 0 {
		fmt.Fprintln(out, "\nBy controller path:")
		paths := make([]string, 0, len(byPath))
		for p := range byPath {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			fmt.Fprintf(out, "  %-30s %d\n", p, byPath[p])
		}
	}
	return nil
}

func parseCategory(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "update":
		return log.CategoryUpdate, nil
	case "put":
		return log.CategoryPut, nil
	case "scan":
		return log.CategoryScan, nil
	case "scheduler":
		return log.CategoryScheduler, nil
	case "lifecycle":
		return log.CategoryLifecycle, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("unknown category %q", s)
	}
}
