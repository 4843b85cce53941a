// Package vcs backs the dashboard's git panel. Reads and commits go through
// go-git; pull and push shell out to git so the user's credential helpers apply.
package vcs

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/pkg/errors"

	"github.com/LeoRoessmann/KT-course/core/shell"
)

const (
	// UpstreamRemote is the remote the course material is pulled from.
	UpstreamRemote = "upstream"
	DefaultBranch  = "main"
	LogLimit       = 10

	remoteTimeout = 60 * time.Second
	dateLayout    = "2006-01-02"
)

var (
	ErrNotRepository   = errors.New("not a git repository")
	ErrNothingToCommit = errors.New("nothing to commit")
	ErrUnrelatedStaged = errors.New("changes outside the submission are already staged")
)

type (
	Commit struct {
		Hash    string `json:"hash"`
		Date    string `json:"date"`
		Subject string `json:"subject"`
	}

	Remote struct {
		Name string   `json:"name"`
		URLs []string `json:"urls"`
	}

	// Overview is everything the git panel shows at once.
	Overview struct {
		Root    string   `json:"root"`
		Branch  string   `json:"branch"`
		Clean   bool     `json:"clean"`
		Status  string   `json:"status"`
		Log     []Commit `json:"log"`
		Remotes []Remote `json:"remotes"`
	}

	// Step is one executed command and its combined output.
	Step struct {
		Command string `json:"command"`
		Output  string `json:"output"`
		OK      bool   `json:"ok"`
	}
)

// Repo is the git repository containing the lab suite.
type Repo struct {
	root   string
	repo   *git.Repository
	runner shell.Runner
}

// Open finds the repository containing path, walking up parent folders.
func Open(path string, runner shell.Runner) (*Repo, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, ErrNotRepository
		}
		return nil, errors.Wrap(err, "opening repository")
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, errors.Wrap(err, "opening worktree")
	}
	return &Repo{root: wt.Filesystem.Root(), repo: repo, runner: runner}, nil
}

func (r *Repo) Root() string { return r.root }

// Branch returns the checked out branch, "HEAD" when detached and
// DefaultBranch for a repository without commits.
func (r *Repo) Branch() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return r.unbornBranch(), nil
		}
		return "", errors.Wrap(err, "reading HEAD")
	}
	if !head.Name().IsBranch() {
		return "HEAD", nil
	}
	return head.Name().Short(), nil
}

func (r *Repo) unbornBranch() string {
	ref, err := r.repo.Storer.Reference(plumbing.HEAD)
	if err != nil || ref.Type() != plumbing.SymbolicReference {
		return DefaultBranch
	}
	return ref.Target().Short()
}

// Status returns the short status text and whether the worktree is clean.
func (r *Repo) Status() (string, bool, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return "", false, errors.Wrap(err, "opening worktree")
	}
	st, err := wt.Status()
	if err != nil {
		return "", false, errors.Wrap(err, "reading status")
	}
	return st.String(), st.IsClean(), nil
}

// Log returns up to n commits reachable from HEAD, newest first.
func (r *Repo) Log(n int) ([]Commit, error) {
	head, err := r.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return []Commit{}, nil
		}
		return nil, errors.Wrap(err, "reading HEAD")
	}
	iter, err := r.repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, errors.Wrap(err, "reading log")
	}
	defer iter.Close()

	commits := []Commit{}
	err = iter.ForEach(func(c *object.Commit) error {
		if len(commits) >= n {
			return storer.ErrStop
		}
		commits = append(commits, Commit{
			Hash:    c.Hash.String()[:7],
			Date:    c.Author.When.Format(dateLayout),
			Subject: subject(c.Message),
		})
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "iterating log")
	}
	return commits, nil
}

// Remotes returns the configured remotes sorted by name.
func (r *Repo) Remotes() ([]Remote, error) {
	remotes, err := r.repo.Remotes()
	if err != nil {
		return nil, errors.Wrap(err, "reading remotes")
	}
	out := make([]Remote, 0, len(remotes))
	for _, rm := range remotes {
		cfg := rm.Config()
		out = append(out, Remote{Name: cfg.Name, URLs: append([]string(nil), cfg.URLs...)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *Repo) HasRemote(name string) bool {
	_, err := r.repo.Remote(name)
	return err == nil
}

// Overview collects branch, status, the last LogLimit commits and the remotes.
func (r *Repo) Overview() (Overview, error) {
	o := Overview{Root: r.root}
	var err error
	if o.Branch, err = r.Branch(); err != nil {
		return o, err
	}
	if o.Status, o.Clean, err = r.Status(); err != nil {
		return o, err
	}
	if o.Log, err = r.Log(LogLimit); err != nil {
		return o, err
	}
	if o.Remotes, err = r.Remotes(); err != nil {
		return o, err
	}
	return o, nil
}

// Pull runs `git pull <remote> <current branch> --no-edit`.
func (r *Repo) Pull(ctx context.Context, remote string) (Step, error) {
	branch, err := r.Branch()
	if err != nil || branch == "HEAD" {
		branch = DefaultBranch
	}
	return r.git(ctx, "pull", remote, branch, "--no-edit")
}

// Push runs `git push`.
func (r *Repo) Push(ctx context.Context) (Step, error) {
	return r.git(ctx, "push")
}

// CommitPath stages everything below rel (relative to the repository root)
// and commits it. It returns the short hash of the new commit. The commit
// is refused with ErrUnrelatedStaged when the index already holds changes
// outside rel.
func (r *Repo) CommitPath(rel, message string, when time.Time) (string, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return "", errors.Wrap(err, "opening worktree")
	}
	rel = filepath.ToSlash(filepath.Clean(rel))
	if _, err := wt.Filesystem.Stat(rel); err != nil {
		return "", ErrNothingToCommit
	}

	before, err := wt.Status()
	if err != nil {
		return "", errors.Wrap(err, "reading status")
	}
	for path, fs := range before {
		if !strings.HasPrefix(path, rel+"/") && isStaged(fs) {
			return "", errors.Wrap(ErrUnrelatedStaged, path)
		}
	}
	if err := wt.AddWithOptions(&git.AddOptions{Path: rel}); err != nil {
		return "", errors.Wrapf(err, "adding %s", rel)
	}

	st, err := wt.Status()
	if err != nil {
		return "", errors.Wrap(err, "reading status")
	}
	staged := false
	for path, fs := range st {
		if strings.HasPrefix(path, rel+"/") && isStaged(fs) {
			staged = true
			break
		}
	}
	if !staged {
		return "", ErrNothingToCommit
	}

	sig := r.signature(when)
	hash, err := wt.Commit(message, &git.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		return "", errors.Wrap(err, "committing")
	}
	return hash.String()[:7], nil
}

func isStaged(fs *git.FileStatus) bool {
	return fs.Staging != git.Untracked && fs.Staging != git.Unmodified
}

// signature uses the configured user, falling back to a launcher identity.
func (r *Repo) signature(when time.Time) *object.Signature {
	sig := &object.Signature{Name: "KT Lab Launcher", Email: "kt-lab@localhost", When: when}
	for _, scope := range []config.Scope{config.LocalScope, config.GlobalScope} {
		cfg, err := r.repo.ConfigScoped(scope)
		if err != nil {
			continue
		}
		if cfg.User.Name != "" && cfg.User.Email != "" {
			sig.Name, sig.Email = cfg.User.Name, cfg.User.Email
			break
		}
	}
	return sig
}

func (r *Repo) git(ctx context.Context, args ...string) (Step, error) {
	cmd := shell.New("git", args...).In(r.root).WithTimeout(remoteTimeout)
	res, err := r.runner.Run(ctx, cmd)
	if err != nil {
		return Step{Command: cmd.String(), Output: err.Error()}, err
	}
	return Step{Command: cmd.String(), Output: res.Output(), OK: res.OK()}, nil
}

func subject(message string) string {
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		message = message[:i]
	}
	return strings.TrimSpace(message)
}
