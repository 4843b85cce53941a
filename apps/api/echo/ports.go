package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/LeoRoessmann/KT-course/core"
	"github.com/LeoRoessmann/KT-course/core/ports"
)

type portApi struct {
	deps ServerDeps
}

func registerPortAPI(g *echo.Group, deps ServerDeps) {
	api := portApi{deps: deps}

	pg := g.Group("/ports")
	pg.GET("", api.query)
	pg.GET("/:port", api.retrieve)
	pg.DELETE("/:port/:pid", api.kill)
}

func (api *portApi) query(ctx echo.Context) error {
	statuses := make([]ports.Status, 0, len(ports.LabPorts))
	for _, port := range ports.LabPorts {
		statuses = append(statuses, api.deps.Ports.Status(ctx.Request().Context(), port))
	}
	return ctx.JSON(http.StatusOK, statuses)
}

func (api *portApi) retrieve(ctx echo.Context) error {
	port, err := intParam(ctx, "port", 65535)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.deps.Ports.Status(ctx.Request().Context(), port))
}

// kill terminates pid, which must currently hold port.
func (api *portApi) kill(ctx echo.Context) error {
	port, err := intParam(ctx, "port", 65535)
	if err != nil {
		return err
	}
	pid, err := intParam(ctx, "pid", 0)
	if err != nil {
		return err
	}

	c := ctx.Request().Context()
	if !containsInt(api.deps.Ports.PIDsOnPort(c, port), pid) {
		return errHttpNotFound
	}
	if !api.deps.Ports.Kill(c, pid) {
		return errKillFailed
	}
	api.deps.Logger.Info("process terminated", core.Fields{"port": port, "pid": pid})
	return ctx.JSON(http.StatusOK, api.deps.Ports.Status(c, port))
}

// intParam parses a positive path parameter; max 0 means unbounded.
func intParam(ctx echo.Context, name string, max int) (int, error) {
	n, err := strconv.Atoi(ctx.Param(name))
	if err != nil || n <= 0 || (max > 0 && n > max) {
		return 0, core.NewValidationError(nil, core.FieldError{Field: name, Error: name + " must be a positive number"})
	}
	return n, nil
}

func containsInt(list []int, n int) bool {
	for _, v := range list {
		if v == n {
			return true
		}
	}
	return false
}
