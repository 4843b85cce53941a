package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/LeoRoessmann/KT-course/core"
	"github.com/LeoRoessmann/KT-course/core/vcs"
)

type gitApi struct {
	deps ServerDeps
}

func registerGitAPI(g *echo.Group, deps ServerDeps) {
	api := gitApi{deps: deps}

	gg := g.Group("/git", api.repoMiddleware)
	gg.GET("", api.overview)
	gg.POST("/pull", api.pull)

	g.POST("/labs/:"+folderParam+"/push", api.pushSubmissions, api.repoMiddleware, labMiddleware(deps.Submissions.Store()))
}

func (api *gitApi) repoMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if api.deps.Repo == nil {
			return errNoRepository
		}
		return next(ctx)
	}
}

func (api *gitApi) overview(ctx echo.Context) error {
	o, err := api.deps.Repo.Overview()
	if err != nil {
		return errors.Wrap(err, "reading repository")
	}
	return ctx.JSON(http.StatusOK, o)
}

// pull fetches course updates, from the upstream remote when one is configured.
func (api *gitApi) pull(ctx echo.Context) error {
	var data PullRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PullRequest")
	}
	remote := core.CleanString(data.Remote)
	if remote == "" {
		remote = "origin"
		if api.deps.Repo.HasRemote(vcs.UpstreamRemote) {
			remote = vcs.UpstreamRemote
		}
	}
	if !api.deps.Repo.HasRemote(remote) {
		return core.NewValidationError(nil, core.FieldError{Field: "remote", Error: "unknown remote " + remote})
	}

	step, err := api.deps.Repo.Pull(ctx.Request().Context(), remote)
	if err != nil {
		return errors.Wrap(err, "pulling")
	}
	return ctx.JSON(http.StatusOK, PullResponse{Step: step, Remote: remote})
}

func (api *gitApi) pushSubmissions(ctx echo.Context) error {
	folder := ctx.Param(folderParam)
	dir := api.deps.Submissions.Store().Dir(folder)

	res := api.deps.Repo.PushSubmissions(ctx.Request().Context(), dir, folder, api.deps.Now())
	fields := core.Fields{"folder": folder, "ok": res.OK}
	if res.OK {
		api.deps.Logger.Info(res.Message, fields)
	} else {
		api.deps.Logger.Warn(res.Message, nil, fields)
	}
	return ctx.JSON(http.StatusOK, res)
}
