// Package launcher starts lab entries as detached processes and keeps the
// dashboard's suite-level state (chapter expansion, instructor mode).
package launcher

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"

	"github.com/LeoRoessmann/KT-course/core/lab"
	"github.com/LeoRoessmann/KT-course/core/shell"
)

var (
	ErrNotLaunchable = errors.New("document labs cannot be launched")
	ErrNotFound      = errors.New("path does not exist")
)

// Launcher starts scripts and apps from the suite root without supervising them.
type Launcher struct {
	suiteRoot string
	python    string
	runner    shell.Runner
	goos      string
}

func New(suiteRoot, python string, runner shell.Runner) *Launcher {
	return &Launcher{suiteRoot: suiteRoot, python: python, runner: runner, goos: runtime.GOOS}
}

// ForOS returns a copy of l that opens files the way goos does.
func (l *Launcher) ForOS(goos string) *Launcher {
	cp := *l
	cp.goos = goos
	return &cp
}

// Command returns the invocation for e: `python -m <module>` for apps and
// `python <file>` for scripts, run in the suite root.
func (l *Launcher) Command(e lab.Entry) (shell.Command, error) {
	switch e.Kind {
	case lab.KindApp:
		return shell.New(l.python, "-m", e.RunTarget).In(l.suiteRoot), nil
	case lab.KindScript:
		return shell.New(l.python, filepath.FromSlash(e.RunTarget)).In(l.suiteRoot), nil
	default:
		return shell.Command{}, ErrNotLaunchable
	}
}

// Launch starts e and returns the pid of the new process.
func (l *Launcher) Launch(e lab.Entry) (int, error) {
	cmd, err := l.Command(e)
	if err != nil {
		return 0, err
	}
	return l.runner.Start(cmd)
}

// Open shows path with the system's default program.
func (l *Launcher) Open(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(err, "resolving path")
	}
	if _, err := os.Stat(abs); err != nil {
		return ErrNotFound
	}

	var cmd shell.Command
	switch l.goos {
	case "windows":
		cmd = shell.New("cmd", "/c", "start", "", abs)
	case "darwin":
		cmd = shell.New("open", abs)
	default:
		cmd = shell.New("xdg-open", abs)
	}
	_, err = l.runner.Start(cmd)
	return err
}
