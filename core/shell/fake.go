package shell

import (
	"context"
	"strings"
	"sync"
)

// FakeRunner is a scripted Runner for tests. Responses are keyed by the
// rendered command line; unknown commands yield a failed Result.
type FakeRunner struct {
	mu        sync.Mutex
	Responses map[string]*Result
	Errors    map[string]error
	Calls     []Command
	Started   []Command
	NextPID   int
}

var _ Runner = (*FakeRunner)(nil)

func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		Responses: make(map[string]*Result),
		Errors:    make(map[string]error),
		NextPID:   4242,
	}
}

// On registers stdout and exit code for the given command line.
func (f *FakeRunner) On(line, stdout string, exitCode int) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Responses[line] = &Result{Command: line, Stdout: stdout, ExitCode: exitCode}
	return f
}

// Fail makes the given command line return err.
func (f *FakeRunner) Fail(line string, err error) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errors[line] = err
	return f
}

func (f *FakeRunner) Run(_ context.Context, cmd Command) (*Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, cmd)

	line := cmd.String()
	if err, ok := f.Errors[line]; ok {
		return &Result{Command: line, ExitCode: -1}, err
	}
	if res, ok := f.Responses[line]; ok {
		cp := *res
		return &cp, nil
	}
	return &Result{Command: line, ExitCode: 1}, nil
}

func (f *FakeRunner) Start(cmd Command) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	line := cmd.String()
	if err, ok := f.Errors[line]; ok {
		return 0, err
	}
	f.Started = append(f.Started, cmd)
	f.NextPID++
	return f.NextPID, nil
}

// Lines returns the command lines passed to Run, in order.
func (f *FakeRunner) Lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines := make([]string, 0, len(f.Calls))
	for _, c := range f.Calls {
		lines = append(lines, c.String())
	}
	return lines
}

// StartedLines returns the command lines passed to Start, in order.
func (f *FakeRunner) StartedLines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines := make([]string, 0, len(f.Started))
	for _, c := range f.Started {
		lines = append(lines, strings.TrimSpace(c.String()))
	}
	return lines
}
