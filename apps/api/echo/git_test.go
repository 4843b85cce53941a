package echoapi

import (
	"net/http"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeoRoessmann/KT-course/core/vcs"
	"github.com/LeoRoessmann/KT-course/tests"
)

// withRepo turns the suite root into a git checkout with an origin remote.
func withRepo(t *testing.T) func(f *fixture, deps *ServerDeps) {
	return func(f *fixture, deps *ServerDeps) {
		raw, err := git.PlainInit(f.root, false)
		require.NoError(t, err)
		_, err = raw.CreateRemote(&config.RemoteConfig{Name: "origin", URLs: []string{"https://example.com/me.git"}})
		require.NoError(t, err)

		repo, err := vcs.Open(f.root, f.runner)
		require.NoError(t, err)
		deps.Repo = repo
	}
}

func TestGitApi_NoRepository(t *testing.T) {
	f := setup(t)

	notRepo := marshallObj(t, httpErr{Error: vcs.ErrNotRepository.Error()})
	runHTTPTests(t, f, []httpTest{
		{name: "overview", method: http.MethodGet, path: "/v1/git", wantCode: http.StatusNotFound, wantData: notRepo},
		{name: "pull", method: http.MethodPost, path: "/v1/git/pull", wantCode: http.StatusNotFound, wantData: notRepo},
		{name: "push", method: http.MethodPost, path: "/v1/labs/02_01_Essay/push", wantCode: http.StatusNotFound, wantData: notRepo},
	})
}

func TestGitApi_Overview(t *testing.T) {
	f := setup(t, withRepo(t))

	rec := f.do(newRequest(http.MethodGet, "/v1/git"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var o vcs.Overview
	decode(t, rec, &o)
	assert.Equal(t, "master", o.Branch)
	assert.False(t, o.Clean)
	assert.Empty(t, o.Log)
	require.Len(t, o.Remotes, 1)
	assert.Equal(t, "origin", o.Remotes[0].Name)
}

func TestGitApi_Pull(t *testing.T) {
	f := setup(t, withRepo(t))
	f.runner.On("git pull origin master --no-edit", "Already up to date.", 0)

	runHTTPTests(t, f, []httpTest{
		{
			name:     "unknown remote",
			method:   http.MethodPost,
			path:     "/v1/git/pull",
			body:     []byte(`{"remote":"upstream"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"remote":"unknown remote upstream"}`),
		},
		{
			name:     "origin without upstream",
			method:   http.MethodPost,
			path:     "/v1/git/pull",
			body:     []byte(`{}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"command":"git pull origin master --no-edit","output":"Already up to date.","ok":true,"remote":"origin"}`),
		},
	})
}

func TestGitApi_PushSubmissions(t *testing.T) {
	f := setup(t, withRepo(t))
	testutil.WriteFile(t, filepath.Join(f.labs, "02_01_Essay", "submissions", "essay.md"), "# Essay")
	f.runner.On("git push", "", 0)

	rec := f.do(newRequest(http.MethodPost, "/v1/labs/02_01_Essay/push"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res vcs.PushResult
	decode(t, rec, &res)
	assert.True(t, res.OK, res.Message)
	require.Len(t, res.Steps, 3)
	assert.Equal(t, "git add labs/02_01_Essay/submissions", res.Steps[0].Command)
	assert.Equal(t, `git commit -m "Abgabe 02_01_Essay (10.03.2025 14:30)"`, res.Steps[1].Command)

	rec = f.do(newRequest(http.MethodPost, "/v1/labs/02_01_Essay/push"))
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &res)
	assert.False(t, res.OK)
	assert.Equal(t, "Keine Änderungen in labs/02_01_Essay/submissions.", res.Message)

	rec = f.do(newRequest(http.MethodPost, "/v1/labs/.hidden/push"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	pushes := len(f.runner.Lines())
	rec = f.do(newRequest(http.MethodPost, "/v1/labs/99_Missing/push"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"lab not found"}`, rec.Body.String())
	assert.Len(t, f.runner.Lines(), pushes, "nothing is committed or pushed for a missing lab")
}
