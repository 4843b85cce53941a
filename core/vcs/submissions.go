package vcs

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// PushResult reports the steps of PushSubmissions.
type PushResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	Steps   []Step `json:"steps"`
}

// PushSubmissions commits the submissions folder dir of lab folder and
// pushes it. Nothing is pushed when the folder has no changes.
func (r *Repo) PushSubmissions(ctx context.Context, dir, folder string, now time.Time) PushResult {
	rel, err := r.relative(dir)
	if err != nil {
		return PushResult{Message: "Ordner liegt nicht im Git-Repo: " + dir}
	}

	var res PushResult
	message := "Abgabe " + folder + " (" + now.Format("02.01.2006 15:04") + ")"
	hash, err := r.CommitPath(rel, message, now)
	res.Steps = append(res.Steps,
		Step{Command: "git add " + rel, OK: err == nil || errors.Is(err, ErrNothingToCommit)},
	)
	switch {
	case errors.Is(err, ErrNothingToCommit):
		res.Steps = append(res.Steps, Step{Command: `git commit -m "` + message + `"`, Output: "nothing to commit"})
		res.Message = "Keine Änderungen in " + rel + "."
		return res
	case errors.Is(err, ErrUnrelatedStaged):
		res.Steps = append(res.Steps, Step{Command: `git commit -m "` + message + `"`, Output: err.Error()})
		res.Message = "Commit abgebrochen: außerhalb von " + rel + " sind bereits Änderungen vorgemerkt."
		return res
	case err != nil:
		res.Steps = append(res.Steps, Step{Command: `git commit -m "` + message + `"`, Output: err.Error()})
		res.Message = "Commit fehlgeschlagen."
		return res
	}
	res.Steps = append(res.Steps, Step{Command: `git commit -m "` + message + `"`, Output: hash, OK: true})

	step, err := r.Push(ctx)
	res.Steps = append(res.Steps, step)
	if err != nil || !step.OK {
		res.Message = "Push fehlgeschlagen (Commit " + hash + " ist lokal gespeichert)."
		return res
	}
	res.OK = true
	res.Message = "Abgabe gepusht (Commit " + hash + ")."
	return res
}

// relative returns path relative to the repository root using forward slashes.
func (r *Repo) relative(path string) (string, error) {
	root, err := filepath.EvalSymlinks(r.root)
	if err != nil {
		root = r.root
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", err
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.New("path outside repository")
	}
	return filepath.ToSlash(rel), nil
}
