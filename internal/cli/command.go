// Package cli is a small static command table: each command owns a pflag
// flag set and a Run function, and dispatch is by exact name.
package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

var ErrUsage = errors.New("usage")

// Command is one entry of the table.
type Command struct {
	Name    string
	Summary string
	// Usage is the argument synopsis after the command name.
	Usage string
	// Args is the exact positional argument count, or -1 for any.
	Args int
	// Flags builds the command's flag set. Nil means no flags.
	Flags func() *pflag.FlagSet
	Run   func(flags *pflag.FlagSet, args []string) error
}

// Table maps command names to commands. It is built once at startup.
type Table struct {
	Program  string
	commands map[string]*Command
}

func NewTable(program string, commands ...*Command) (*Table, error) {
	t := &Table{Program: program, commands: make(map[string]*Command, len(commands))}
	for _, c := range commands {
		if c.Name == "" || c.Run == nil {
			return nil, fmt.Errorf("cli: command %q incomplete", c.Name)
		}
		if _, dup := t.commands[c.Name]; dup {
			return nil, fmt.Errorf("cli: duplicate command %q", c.Name)
		}
		t.commands[c.Name] = c
	}
	return t, nil
}

func (t *Table) Lookup(name string) (*Command, bool) {
	c, ok := t.commands[name]
	return c, ok
}

// Names returns command names sorted.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.commands))
	for name := range t.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute dispatches args[0] with the rest of args. Unknown or missing
// commands print usage to stderr and return ErrUsage.
func (t *Table) Execute(args []string, stderr io.Writer) error {
	if len(args) == 0 || isHelp(args[0]) {
		t.PrintUsage(stderr)
		if len(args) == 0 {
			return ErrUsage
		}
		return nil
	}
	cmd, ok := t.Lookup(args[0])
	if !ok {
		t.PrintUsage(stderr)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}

	flags := pflag.NewFlagSet(cmd.Name, pflag.ContinueOnError)
	if cmd.Flags != nil {
		flags = cmd.Flags()
	}
	flags.SetOutput(io.Discard)
	if err := flags.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			t.PrintCommandHelp(stderr, cmd, flags)
			return nil
		}
		return fmt.Errorf("%w: %s: %v", ErrUsage, cmd.Name, err)
	}
	rest := flags.Args()
	if cmd.Args >= 0 && len(rest) != cmd.Args {
		t.PrintCommandHelp(stderr, cmd, flags)
		return fmt.Errorf("%w: %s: invalid number of arguments", ErrUsage, cmd.Name)
	}
	return cmd.Run(flags, rest)
}

func (t *Table) PrintUsage(w io.Writer) {
	fmt.Fprintf(w, "Usage: %s command [options]\n\nAvailable commands:\n", t.Program)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, name := range t.Names() {
		fmt.Fprintf(tw, "  %s\t- %s\n", name, t.commands[name].Summary)
	}
	tw.Flush()
}

func (t *Table) PrintCommandHelp(w io.Writer, cmd *Command, flags *pflag.FlagSet) {
	fmt.Fprintf(w, "Usage: %s %s %s\n\n%s\n", t.Program, cmd.Name, strings.TrimSpace(cmd.Usage), cmd.Summary)
	if flags.HasFlags() {
		fmt.Fprintf(w, "\nOptions:\n%s", flags.FlagUsages())
	}
}

func isHelp(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "help"
}
