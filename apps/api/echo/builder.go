package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/LeoRoessmann/KT-course/core"
)

type builderApi struct {
	deps ServerDeps
}

func registerBuilderAPI(g *echo.Group, deps ServerDeps) {
	api := builderApi{deps: deps}

	bg := g.Group("/builder")
	bg.GET("/layout", api.layout)
	bg.GET("/assignment", api.assignment)
	bg.PUT("/assignment", api.setAssignment)

	sg := bg.Group("/sessions")
	sg.POST("", api.createSession)
	sg.GET("/:id", api.retrieveSession)
	sg.DELETE("/:id", api.closeSession)
	sg.POST("/:id/events", api.event)
}

func (api *builderApi) layout(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.deps.Builder.Layout)
}

func (api *builderApi) assignment(ctx echo.Context) error {
	reg := api.deps.Builder.Assignments
	return ctx.JSON(http.StatusOK, AssignmentResponse{Active: reg.ActiveName(""), Available: reg.List()})
}

func (api *builderApi) setAssignment(ctx echo.Context) error {
	var data AssignmentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignmentRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}
	if err := api.deps.Builder.Assignments.SetActive(data.Assignment); err != nil {
		return errors.Wrap(err, "setting active assignment")
	}
	return api.assignment(ctx)
}

func (api *builderApi) createSession(ctx echo.Context) error {
	snap, err := api.deps.Builder.Sessions.Create()
	if err != nil {
		return errors.Wrap(err, "creating session")
	}
	return ctx.JSON(http.StatusCreated, snap)
}

func (api *builderApi) retrieveSession(ctx echo.Context) error {
	snap, err := api.deps.Builder.Sessions.Snapshot(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "retrieving session")
	}
	return ctx.JSON(http.StatusOK, snap)
}

func (api *builderApi) closeSession(ctx echo.Context) error {
	if !api.deps.Builder.Sessions.Close(ctx.Param("id")) {
		return errHttpNotFound
	}
	return ctx.NoContent(http.StatusNoContent)
}

// event applies a widget change. A failing callback still yields the
// resulting session state, with the error reported alongside.
func (api *builderApi) event(ctx echo.Context) error {
	var data EventRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EventRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	id := ctx.Param("id")
	snap, err := api.deps.Builder.Sessions.Event(ctx.Request().Context(), id, data.PathID, data.Value)
	if err != nil && snap.ID == "" {
		return errors.Wrap(err, "applying event")
	}
	res := EventResponse{Snapshot: snap}
	if err != nil {
		api.deps.Logger.Warn("widget callback failed", err, core.Fields{"session": id, "path_id": data.PathID})
		res.Error = err.Error()
	}
	return ctx.JSON(http.StatusOK, res)
}
