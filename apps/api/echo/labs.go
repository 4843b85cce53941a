package echoapi

import (
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/LeoRoessmann/KT-course/core"
	"github.com/LeoRoessmann/KT-course/core/lab"
	"github.com/LeoRoessmann/KT-course/core/submission"
)

const folderParam = "folder"

type labApi struct {
	deps  ServerDeps
	store *submission.Store
}

func registerLabAPI(g *echo.Group, instructor echo.MiddlewareFunc, deps ServerDeps) {
	api := labApi{deps: deps, store: deps.Submissions.Store()}

	g.GET("/chapters", api.chapters)
	g.PUT("/expansion", api.setExpansion)

	lg := g.Group("/labs/:"+folderParam, labMiddleware(api.store))
	lg.GET("", api.retrieve)
	lg.POST("/launch", api.launch)
	lg.GET("/submissions", api.listSubmissions)
	lg.POST("/submissions", api.upload)
	lg.POST("/submissions/open", api.openSubmissions)
	lg.POST("/zip", api.zip)
	lg.POST("/submit", api.submit)
	lg.GET("/mailto", api.mailto)
	lg.PUT("/done", api.markDone)
	lg.DELETE("/done", api.clearDone)
	lg.GET("/task", api.task)
	lg.GET("/doc", api.doc)
	lg.POST("/questionnaire", api.questionnaire)
	lg.POST("/console-merge", api.mergeConsoleLog)

	// instructor endpoints
	lg.PUT("/deadline", api.setDeadline, instructor)
	lg.DELETE("/deadline", api.clearDeadline, instructor)
}

// labMiddleware rejects folder names that could leave the labs directory and
// folders that do not exist. A vanished labs directory stops the server.
func labMiddleware(store *submission.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			folder := ctx.Param(folderParam)
			if !store.ValidFolder(folder) {
				return core.NewValidationError(nil, core.FieldError{Field: folderParam, Error: "invalid lab folder"})
			}
			if fi, err := os.Stat(store.LabDir(folder)); err != nil || !fi.IsDir() {
				if _, err := os.Stat(store.LabsDir()); os.IsNotExist(err) {
					return core.NewShutdownError("labs directory removed: " + store.LabsDir())
				}
				return errLabNotFound
			}
			return next(ctx)
		}
	}
}

// Handlers

func (api *labApi) chapters(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.deps.Dashboard.Overview(core.DateOf(api.deps.Now())))
}

func (api *labApi) setExpansion(ctx echo.Context) error {
	var data ExpansionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ExpansionRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}
	if !api.deps.Expansion.Set(data.Title, *data.Open) {
		return errWriteFailed
	}
	return ctx.JSON(http.StatusOK, data)
}

func (api *labApi) retrieve(ctx echo.Context) error {
	f, ok := api.deps.Dashboard.Folder(ctx.Param(folderParam), core.DateOf(api.deps.Now()))
	if !ok {
		return errLabNotFound
	}
	return ctx.JSON(http.StatusOK, f)
}

func (api *labApi) launch(ctx echo.Context) error {
	var data LaunchRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LaunchRequest")
	}

	folder := ctx.Param(folderParam)
	entry, ok := lab.Find(api.deps.Dashboard.Scan(), folder, core.CleanString(data.RunTarget))
	if !ok {
		return errHttpNotFound
	}
	pid, err := api.deps.Launcher.Launch(entry)
	if err != nil {
		return errors.Wrapf(err, "launching %s", entry.Label)
	}
	api.deps.Logger.Info("lab launched", core.Fields{"folder": folder, "target": entry.RunTarget, "pid": pid})
	return ctx.JSON(http.StatusOK, LaunchResponse{PID: pid, Label: entry.Label})
}

func (api *labApi) listSubmissions(ctx echo.Context) error {
	files := api.store.List(ctx.Param(folderParam))
	if files == nil {
		files = []submission.FileInfo{}
	}
	return ctx.JSON(http.StatusOK, files)
}

func (api *labApi) upload(ctx echo.Context) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "file", Error: "this field is required"})
	}
	src, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer src.Close()

	path, err := api.store.SaveUpload(ctx.Param(folderParam), fh.Filename, src)
	if err != nil {
		return errors.Wrap(err, "saving upload")
	}
	return ctx.JSON(http.StatusCreated, PathResponse{Path: path})
}

func (api *labApi) openSubmissions(ctx echo.Context) error {
	dir, err := api.store.EnsureDir(ctx.Param(folderParam))
	if err != nil {
		return err
	}
	if err := api.deps.Launcher.Open(dir); err != nil {
		return errors.Wrap(err, "opening submissions folder")
	}
	return ctx.JSON(http.StatusOK, PathResponse{Path: dir})
}

func (api *labApi) zip(ctx echo.Context) error {
	path, err := api.store.CreateZip(ctx.Param(folderParam), api.deps.Now())
	if err != nil {
		return errors.Wrap(err, "creating zip")
	}
	return ctx.JSON(http.StatusCreated, PathResponse{Path: path, Created: true})
}

func (api *labApi) submit(ctx echo.Context) error {
	receipt, err := api.deps.Submissions.Submit(ctx.Param(folderParam), api.deps.Now())
	if err != nil {
		return errors.Wrap(err, "submitting")
	}
	return ctx.JSON(http.StatusOK, receipt)
}

func (api *labApi) mailto(ctx echo.Context) error {
	link := api.deps.Submissions.Mailto(ctx.Param(folderParam))
	if link == "" {
		return submission.ErrNoSubmitEmail
	}
	return ctx.JSON(http.StatusOK, MailtoResponse{Mailto: link})
}

func (api *labApi) markDone(ctx echo.Context) error {
	folder := ctx.Param(folderParam)
	if !api.store.MarkDone(folder, api.deps.Now()) {
		return errWriteFailed
	}
	date, _ := api.store.DoneDate(folder)
	return ctx.JSON(http.StatusOK, DoneResponse{DoneDate: date})
}

func (api *labApi) clearDone(ctx echo.Context) error {
	if !api.store.ClearDone(ctx.Param(folderParam)) {
		return errWriteFailed
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *labApi) task(ctx echo.Context) error {
	return markdown(ctx, api.store.TaskMarkdown(ctx.Param(folderParam)))
}

func (api *labApi) doc(ctx echo.Context) error {
	return markdown(ctx, api.store.DocMarkdown(ctx.Param(folderParam)))
}

func markdown(ctx echo.Context, text string) error {
	if text == "" {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, MarkdownResponse{Markdown: text})
}

func (api *labApi) questionnaire(ctx echo.Context) error {
	path, created, err := api.store.OpenQuestionnaire(ctx.Param(folderParam))
	if err != nil {
		return errors.Wrap(err, "opening questionnaire")
	}
	if err := api.deps.Launcher.Open(path); err != nil {
		api.deps.Logger.Warn("could not open answers file", err, core.Fields{"path": path})
	}
	return ctx.JSON(http.StatusOK, PathResponse{Path: path, Created: created})
}

func (api *labApi) mergeConsoleLog(ctx echo.Context) error {
	if err := api.store.MergeConsoleLog(ctx.Param(folderParam)); err != nil {
		return errors.Wrap(err, "merging console log")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Konsolenausgabe in die Antworten übernommen."})
}

func (api *labApi) setDeadline(ctx echo.Context) error {
	var data DeadlineRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DeadlineRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	folder := ctx.Param(folderParam)
	if !api.store.WriteDeadline(folder, data.Deadline) {
		return errWriteFailed
	}
	display, _ := api.store.DeadlineDisplay(folder)
	return ctx.JSON(http.StatusOK, DeadlineResponse{Deadline: data.Deadline, DeadlineDisplay: display})
}

func (api *labApi) clearDeadline(ctx echo.Context) error {
	if !api.store.ClearDeadline(ctx.Param(folderParam)) {
		return errWriteFailed
	}
	return ctx.NoContent(http.StatusNoContent)
}
