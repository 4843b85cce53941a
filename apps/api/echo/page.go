package echoapi

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/LeoRoessmann/KT-course/core"
	"github.com/LeoRoessmann/KT-course/core/dashboard"
	"github.com/LeoRoessmann/KT-course/core/ports"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

type pageData struct {
	AppName  string
	Build    string
	Overview dashboard.Overview
	LabPort  ports.Status
}

// page renders the dashboard for browsers; the JSON API drives its buttons.
func (s *server) page(ctx echo.Context) error {
	data := pageData{
		AppName:  s.deps.Conf.AppName,
		Build:    s.deps.Conf.Build,
		Overview: s.deps.Dashboard.Overview(core.DateOf(s.deps.Now())),
		LabPort:  s.deps.Ports.Status(ctx.Request().Context(), ports.LabPort),
	}

	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, "dashboard.html", data); err != nil {
		return errors.Wrap(err, "rendering dashboard")
	}
	return ctx.HTMLBlob(http.StatusOK, buf.Bytes())
}
