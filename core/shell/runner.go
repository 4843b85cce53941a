// Package shell runs external programs with bounded waits and captured output.
package shell

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// waitDelay bounds how long Run waits for output pipes after the process is killed.
const waitDelay = time.Second

// Command describes one program invocation.
type Command struct {
	Name    string
	Args    []string
	Dir     string
	Timeout time.Duration // zero means no limit beyond ctx
}

// New returns a Command for name with args.
func New(name string, args ...string) Command {
	return Command{Name: name, Args: args}
}

func (c Command) In(dir string) Command {
	c.Dir = dir
	return c
}

func (c Command) WithTimeout(d time.Duration) Command {
	c.Timeout = d
	return c
}

// String renders the command line as a user would type it.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result holds the captured output of a finished command.
type Result struct {
	Command  string
	Stdout   string
	Stderr   string
	ExitCode int
}

func (r *Result) OK() bool { return r != nil && r.ExitCode == 0 }

// Output returns stdout and stderr joined, trimmed.
func (r *Result) Output() string {
	if r == nil {
		return ""
	}
	return strings.TrimSpace(r.Stdout + "\n" + r.Stderr)
}

// Runner executes commands. Run waits for completion; Start launches a
// detached process that is never waited on and returns its pid.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
	Start(cmd Command) (int, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

var _ Runner = ExecRunner{}

func NewRunner() ExecRunner { return ExecRunner{} }

// Run executes cmd. A non-zero exit is reported through Result.ExitCode, not
// as an error; errors mean the program could not be run or timed out.
func (ExecRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.WaitDelay = waitDelay
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	res := &Result{Command: cmd.String(), Stdout: stdout.String(), Stderr: stderr.String()}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return res, nil
	case ctx.Err() != nil:
		res.ExitCode = -1
		return res, errors.Wrapf(ctx.Err(), "running %q", cmd.Name)
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	default:
		res.ExitCode = -1
		return res, errors.Wrapf(err, "running %q", cmd.Name)
	}
}

// Start launches cmd without waiting for it. The child is reaped in the
// background once it exits.
func (ExecRunner) Start(cmd Command) (int, error) {
	c := exec.Command(cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if err := c.Start(); err != nil {
		return 0, errors.Wrapf(err, "starting %q", cmd.Name)
	}
	go func() { _ = c.Wait() }()
	return c.Process.Pid, nil
}
