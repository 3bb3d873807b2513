package launch

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/strand-controls/strand-go/pkg/api"
	"github.com/strand-controls/strand-go/pkg/inspect"
)

// Console is the interactive operator surface: a readline loop over the
// frozen tree with direct attribute access and command execution.
// It implements Transport so it slots into a Launcher like any other
// surface.
type Console struct {
	prompt    string
	root      *api.ControllerAPI
	rl        *readline.Instance
	formatter *inspect.Formatter
	extra     map[string]any
	timeout   time.Duration
}

// NewConsole creates an operator console. The prompt is usually the
// control system name.
func NewConsole(prompt string) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt + "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Console{
		prompt:    prompt,
		rl:        rl,
		formatter: inspect.NewFormatter(),
		timeout:   5 * time.Second,
	}, nil
}

// Name identifies the console in logs.
func (c *Console) Name() string { return "console" }

// Connect stores the frozen snapshot.
func (c *Console) Connect(root *api.ControllerAPI) error {
	c.root = root
	return nil
}

// Context contributes nothing; the console consumes the merged context.
func (c *Console) Context() map[string]any { return nil }

// SetExtra hands the console the merged transport context so operators
// can list the objects other transports contributed.
func (c *Console) SetExtra(extra map[string]any) {
	c.extra = extra
}

// Stdout returns a writer coordinated with the prompt. Use for output
// that must not garble the input line.
func (c *Console) Stdout() io.Writer { return c.rl.Stdout() }

// Serve runs the command loop until exit or cancellation.
func (c *Console) Serve(ctx context.Context) error {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			// EOF ends the session.
			return nil
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			c.printHelp()

		case "ls":
			c.cmdList(args)

		case "tree":
			c.cmdTree()

		case "get", "g":
			c.cmdGet(ctx, args)

		case "put", "p":
			c.cmdPut(ctx, args)

		case "run":
			c.cmdRun(ctx, args)

		case "env":
			c.cmdEnv()

		case "quit", "exit", "q":
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			return nil

		default:
			fmt.Fprintf(c.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.rl.Stdout(), `
Commands:
  ls [path]            - List members of a controller
  tree                 - Print the whole controller tree
  get <path.attr>      - Read an attribute value
  put <path.attr> <v>  - Write an attribute setpoint
  run <path.cmd>       - Execute a command
  env                  - List objects contributed by transports
  quit                 - Exit the console`)
}

// resolve splits a dot path into a node and a trailing member name.
func (c *Console) resolve(full string) (*api.ControllerAPI, string, error) {
	idx := strings.LastIndex(full, ".")
	if idx < 0 {
		return c.root, full, nil
	}
	node, err := c.root.Find(full[:idx])
	if err != nil {
		return nil, "", err
	}
	return node, full[idx+1:], nil
}

func (c *Console) cmdList(args []string) {
	node := c.root
	if len(args) > 0 {
		found, err := c.root.Find(args[0])
		if err != nil {
			fmt.Fprintln(c.rl.Stdout(), err)
			return
		}
		node = found
	}

	fmt.Fprint(c.rl.Stdout(), c.formatter.FormatNode(node))
}

func (c *Console) cmdTree() {
	fmt.Fprint(c.rl.Stdout(), c.formatter.FormatTree(c.root))
}

func (c *Console) cmdGet(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.rl.Stdout(), "usage: get <path.attr>")
		return
	}
	node, name, err := c.resolve(args[0])
	if err != nil {
		fmt.Fprintln(c.rl.Stdout(), err)
		return
	}
	attr, exists := node.Attribute(name)
	if !exists {
		fmt.Fprintf(c.rl.Stdout(), "no attribute %q under %q\n", name, node.PathString())
		return
	}
	fmt.Fprintln(c.rl.Stdout(), c.formatter.FormatValue(attr.Get(), attr.Datatype()))
}

func (c *Console) cmdPut(ctx context.Context, args []string) {
	if len(args) != 2 {
		fmt.Fprintln(c.rl.Stdout(), "usage: put <path.attr> <value>")
		return
	}
	node, name, err := c.resolve(args[0])
	if err != nil {
		fmt.Fprintln(c.rl.Stdout(), err)
		return
	}
	attr, exists := node.Attribute(name)
	if !exists {
		fmt.Fprintf(c.rl.Stdout(), "no attribute %q under %q\n", name, node.PathString())
		return
	}

	putCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := attr.Put(putCtx, parseValue(args[1]), true); err != nil {
		fmt.Fprintln(c.rl.Stdout(), err)
		return
	}
	fmt.Fprintln(c.rl.Stdout(), "ok")
}

func (c *Console) cmdRun(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.rl.Stdout(), "usage: run <path.cmd>")
		return
	}
	node, name, err := c.resolve(args[0])
	if err != nil {
		fmt.Fprintln(c.rl.Stdout(), err)
		return
	}
	cmd, exists := node.Command(name)
	if !exists {
		fmt.Fprintf(c.rl.Stdout(), "no command %q under %q\n", name, node.PathString())
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	start := time.Now()
	if err := cmd.Call(runCtx); err != nil {
		fmt.Fprintln(c.rl.Stdout(), err)
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "ok (%s)\n", time.Since(start).Round(time.Millisecond))
}

func (c *Console) cmdEnv() {
	if len(c.extra) == 0 {
		fmt.Fprintln(c.rl.Stdout(), "no transport objects")
		return
	}
	keys := make([]string, 0, len(c.extra))
	for key := range c.extra {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(c.rl.Stdout(), "  %-20s %T\n", key, c.extra[key])
	}
}

// parseValue interprets console input as a typed literal: bools and
// numbers by syntax, everything else as a string. Attribute validation
// coerces it from there.
func parseValue(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	var i int64
	if _, err := fmt.Sscanf(s, "%d", &i); err == nil && fmt.Sprint(i) == s {
		return i
	}
	var f float64
	if _, err := fmt.Sscanf(s, "%g", &f); err == nil {
		return f
	}
	return s
}

var _ Transport = (*Console)(nil)
