package executor

import (
	"strings"
)

// Command is one external program invocation
type Command struct {
	Name string
	Args []string
	// Dir is the working directory; empty inherits ours
	Dir string
}

// NewCommand builds a Command from an argv slice
func NewCommand(argv ...string) Command {
	if len(argv) == 0 {
		return Command{}
	}
	return Command{Name: argv[0], Args: append([]string(nil), argv[1:]...)}
}

// Argv returns the full argument vector
func (c Command) Argv() []string {
	return append([]string{c.Name}, c.Args...)
}

// InDir returns a copy of c that runs in dir
func (c Command) InDir(dir string) Command {
	c.Dir = dir
	c.Args = append([]string(nil), c.Args...)
	return c
}

// Privileged wraps c in the privilege wrapper, e.g. sudo. An empty wrapper
// returns c unchanged.
func Privileged(wrapper string, c Command) Command {
	if wrapper == "" {
		return c
	}
	return Command{
		Name: wrapper,
		Args: append([]string{c.Name}, c.Args...),
		Dir:  c.Dir,
	}
}

// String renders the command the way a user would type it
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	for _, arg := range c.Argv() {
		parts = append(parts, quote(arg))
	}
	return strings.Join(parts, " ")
}

func quote(arg string) string {
	if arg == "" {
		return "''"
	}
	safe := true
	for _, r := range arg {
		if !isSafe(r) {
			safe = false
			break
		}
	}
	if safe {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}

func isSafe(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("-_./:=@%+,", r)
}
