package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/LeoRoessmann/KT-course/core"
)

// WriteFile creates path (and its parents) with content.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func Mkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatal(err)
	}
}

// PrepareSuite creates a lab suite root with a labs/ folder containing:
//   - 01_01_Signals:    script lab (two scripts, a helper folder, submissions/)
//   - 01_05_Huffman:    app lab (__main__.py, assignments/user_template.py)
//   - 02_01_Essay:      document lab (only submissions/)
//   - 03Intro:          script lab without separator in its name
//
// It returns the suite root and the labs dir.
func PrepareSuite(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()
	labs := filepath.Join(root, "labs")

	WriteFile(t, filepath.Join(labs, "01_01_Signals", "sine.py"), "print('sine')\n")
	WriteFile(t, filepath.Join(labs, "01_01_Signals", "basics.py"), "print('basics')\n")
	WriteFile(t, filepath.Join(labs, "01_01_Signals", "__init__.py"), "")
	WriteFile(t, filepath.Join(labs, "01_01_Signals", "_core", "helper.py"), "")
	WriteFile(t, filepath.Join(labs, "01_01_Signals", "notes.txt"), "notes")
	Mkdir(t, filepath.Join(labs, "01_01_Signals", "submissions"))

	WriteFile(t, filepath.Join(labs, "01_05_Huffman", "__main__.py"), "")
	WriteFile(t, filepath.Join(labs, "01_05_Huffman", "extra.py"), "")
	WriteFile(t, filepath.Join(labs, "01_05_Huffman", "assignments", "user_template.py"), "")

	Mkdir(t, filepath.Join(labs, "02_01_Essay", "submissions"))

	WriteFile(t, filepath.Join(labs, "03Intro", "intro.py"), "")

	WriteFile(t, filepath.Join(labs, "README.md"), "not a lab")
	Mkdir(t, filepath.Join(labs, ".git"))
	Mkdir(t, filepath.Join(labs, "__pycache__"))
	return root, labs
}

// Logger is a core.Logger that writes to the test log.
type Logger struct {
	T *testing.T
}

var _ core.Logger = Logger{}

func NewLogger(t *testing.T) Logger { return Logger{T: t} }

func (l Logger) log(level, msg string, args []interface{}) {
	l.T.Helper()
	l.T.Logf("%s: %s %v", level, msg, args)
}

func (l Logger) Debug(msg string, args ...interface{}) { l.log("DEBUG", msg, args) }
func (l Logger) Info(msg string, args ...interface{})  { l.log("INFO", msg, args) }
func (l Logger) Warn(msg string, args ...interface{})  { l.log("WARN", msg, args) }
func (l Logger) Error(msg string, args ...interface{}) { l.log("ERROR", msg, args) }
func (l Logger) Fatal(msg string, args ...interface{}) {
	l.T.Helper()
	l.T.Fatalf("FATAL: %s %v", msg, args)
}
