package submission

import (
	"bufio"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/LeoRoessmann/KT-course/core"
	"github.com/LeoRoessmann/KT-course/core/lab"
)

// Sidecar file names inside <lab>/submissions/.
const (
	DeadlineFile   = "deadline.txt"
	DoneFile       = "task_done.txt"
	TaskFile       = "task.md"
	ConsoleLogFile = "console_log.txt"

	// DocFile and the user template live in the lab folder itself.
	DocFile          = "doc.md"
	UserTemplateFile = "assignments/user_template.py"

	donePrefix    = "Abgabe am "
	displayLayout = "02.01.2006"
)

var ErrInvalidName = errors.New("invalid file name")

// FileInfo describes one file in a submissions folder.
type FileInfo struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Store reads and writes the per-lab sidecar files. Reads never fail: problems
// degrade to "absent". Writes report success as a bool.
type Store struct {
	labsDir  string
	validate *validator.Validate
}

func NewStore(labsDir string, validate *validator.Validate) *Store {
	return &Store{labsDir: labsDir, validate: validate}
}

func (s *Store) LabsDir() string { return s.labsDir }

// ValidFolder reports whether folder is a single, non-hidden path segment.
func (s *Store) ValidFolder(folder string) bool {
	return s.validate.Var(folder, "required,labname") == nil
}

// LabDir returns <labs>/<folder>, or "" for an invalid folder name.
func (s *Store) LabDir(folder string) string {
	if !s.ValidFolder(folder) {
		return ""
	}
	return filepath.Join(s.labsDir, folder)
}

// Dir returns <labs>/<folder>/submissions, or "" for an invalid folder name.
func (s *Store) Dir(folder string) string {
	dir := s.LabDir(folder)
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, lab.SubmissionsDir)
}

func (s *Store) path(folder, name string) string {
	dir := s.Dir(folder)
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, name)
}

// EnsureDir creates the submissions folder if needed.
func (s *Store) EnsureDir(folder string) (string, error) {
	dir := s.Dir(folder)
	if dir == "" {
		return "", core.NewValidationError(nil, core.FieldError{Field: "folder", Error: "invalid lab folder"})
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "creating submissions folder")
	}
	return dir, nil
}

// Deadline

// ReadDeadline returns the stored YYYY-MM-DD deadline.
func (s *Store) ReadDeadline(folder string) (string, bool) {
	line, ok := firstLine(s.path(folder, DeadlineFile))
	if !ok || len(line) < 10 || line[4] != '-' || line[7] != '-' {
		return "", false
	}
	return line[:10], true
}

// DeadlineDisplay returns the stored deadline as DD.MM.YYYY.
func (s *Store) DeadlineDisplay(folder string) (string, bool) {
	line, ok := firstLine(s.path(folder, DeadlineFile))
	if !ok {
		return "", false
	}
	parts := strings.Split(line, "-")
	if len(parts) != 3 || len(parts[0]) != 4 || len(parts[1]) != 2 || len(parts[2]) != 2 {
		return "", false
	}
	for _, p := range parts {
		if !isDigits(p) {
			return "", false
		}
	}
	return parts[2] + "." + parts[1] + "." + parts[0], true
}

// WriteDeadline persists iso (truncated to its first 10 characters) after checking
// that it names a real calendar date.
func (s *Store) WriteDeadline(folder, iso string) bool {
	iso = strings.TrimSpace(iso)
	if len(iso) > 10 {
		iso = iso[:10]
	}
	if err := s.validate.Var(iso, "required,isodate"); err != nil {
		return false
	}
	return s.writeLine(folder, DeadlineFile, iso)
}

func (s *Store) ClearDeadline(folder string) bool {
	return removeFile(s.path(folder, DeadlineFile))
}

// Reminder classifies the stored deadline relative to today.
func (s *Store) Reminder(folder string, today time.Time) (Reminder, bool) {
	iso, ok := s.ReadDeadline(folder)
	if !ok {
		return Reminder{}, false
	}
	deadline, err := time.Parse(core.ISODateLayout, iso)
	if err != nil {
		return Reminder{}, false
	}
	return Remind(today, deadline), true
}

// Completion marker

// MarkDone writes "Abgabe am DD.MM.YYYY" for today.
func (s *Store) MarkDone(folder string, today time.Time) bool {
	return s.writeLine(folder, DoneFile, donePrefix+today.Format(displayLayout))
}

// DoneDate returns the DD.MM.YYYY date of the completion marker.
func (s *Store) DoneDate(folder string) (string, bool) {
	line, ok := firstLine(s.path(folder, DoneFile))
	if !ok || !strings.HasPrefix(line, donePrefix) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(line, donePrefix)), true
}

func (s *Store) ClearDone(folder string) bool {
	return removeFile(s.path(folder, DoneFile))
}

// Documents

// TaskMarkdown returns submissions/task.md, or "" when missing.
func (s *Store) TaskMarkdown(folder string) string {
	return readText(s.path(folder, TaskFile))
}

// DocMarkdown returns <lab>/doc.md, or "" when missing.
func (s *Store) DocMarkdown(folder string) string {
	dir := s.LabDir(folder)
	if dir == "" {
		return ""
	}
	return readText(filepath.Join(dir, DocFile))
}

// UserTemplatePath returns the app's assignments/user_template.py if present.
func (s *Store) UserTemplatePath(folder string) (string, bool) {
	dir := s.LabDir(folder)
	if dir == "" {
		return "", false
	}
	p := filepath.Join(dir, filepath.FromSlash(UserTemplateFile))
	return p, isFile(p)
}

func (s *Store) ConsoleLogPath(folder string) (string, bool) {
	p := s.path(folder, ConsoleLogFile)
	return p, p != "" && isFile(p)
}

func (s *Store) HasConsoleLog(folder string) bool {
	_, ok := s.ConsoleLogPath(folder)
	return ok
}

// Listing & upload

// List returns the files directly inside submissions/, sorted by name.
func (s *Store) List(folder string) []FileInfo {
	dir := s.Dir(folder)
	if dir == "" {
		return nil
	}
	items, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var files []FileInfo
	for _, item := range items {
		if !item.Type().IsRegular() {
			continue
		}
		info, err := item.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{Name: item.Name(), Size: info.Size()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files
}

// SaveUpload stores r as submissions/<name> and returns the written path.
func (s *Store) SaveUpload(folder, name string, r io.Reader) (string, error) {
	name = strings.TrimSpace(name)
	if strings.Contains(name, "..") || strings.HasPrefix(name, "/") {
		return "", ErrInvalidName
	}
	name = filepath.Base(filepath.FromSlash(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "uploaded_file"
	}
	dir, err := s.EnsureDir(folder)
	if err != nil {
		return "", err
	}

	dest := filepath.Join(dir, name)
	f, err := os.Create(dest)
	if err != nil {
		return "", errors.Wrap(err, "creating upload file")
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", errors.Wrap(err, "writing upload file")
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrap(err, "closing upload file")
	}
	return dest, nil
}

func (s *Store) writeLine(folder, name, line string) bool {
	dir, err := s.EnsureDir(folder)
	if err != nil {
		return false
	}
	return ioutil.WriteFile(filepath.Join(dir, name), []byte(line+"\n"), 0o644) == nil
}

func firstLine(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			return line, true
		}
	}
	return "", false
}

func readText(path string) string {
	if path == "" {
		return ""
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}

// removeFile deletes path; a file that is already gone counts as removed.
func removeFile(path string) bool {
	if path == "" {
		return false
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return false
	}
	return true
}

func isFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
