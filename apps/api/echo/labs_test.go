package echoapi

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeoRoessmann/KT-course/core/dashboard"
	"github.com/LeoRoessmann/KT-course/core/launcher"
	"github.com/LeoRoessmann/KT-course/core/submission"
	"github.com/LeoRoessmann/KT-course/tests"
)

func TestServer_HealthAndPage(t *testing.T) {
	f := setup(t)

	rec := f.do(newRequest(http.MethodGet, "/health"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = f.do(newRequest(http.MethodGet, "/"))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Kapitel 01")
	assert.Contains(t, body, "01_05_Huffman")
	assert.Contains(t, body, `data-launch="labs/01_01_Signals/sine.py"`)
	assert.Contains(t, body, "Port 8081:")

	// every control is wired to its endpoint
	assert.Contains(t, body, `data-action="zip" data-method="POST"`)
	assert.Contains(t, body, `data-action="submit" data-method="POST"`)
	assert.Contains(t, body, `data-action="done" data-method="PUT"`)
	assert.Contains(t, body, `call("PUT", "/v1/expansion"`)
	assert.Contains(t, body, `addEventListener("toggle"`)
	assert.Contains(t, body, `base + "/launch"`)
}

func TestServer_PageControls(t *testing.T) {
	f := setup(t)

	rec := f.do(newRequest(http.MethodGet, "/"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-action="done" data-method="PUT"`)

	// the page actions resolve to routes the API serves
	for _, tt := range []struct{ method, action string }{
		{http.MethodPut, "done"},
		{http.MethodPost, "zip"},
		{http.MethodPost, "submissions/open"},
	} {
		rec := f.do(newRequest(tt.method, "/v1/labs/02_01_Essay/"+tt.action))
		assert.Less(t, rec.Code, 300, "%s %s: %s", tt.method, tt.action, rec.Body.String())
	}

	rec = f.do(newRequest(http.MethodGet, "/"))
	assert.Contains(t, rec.Body.String(), `data-action="done" data-method="DELETE"`)

	rec = f.do(newRequest(http.MethodPut, "/v1/expansion", []byte(`{"title":"Kapitel 01","open":false}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = f.do(newRequest(http.MethodGet, "/"))
	assert.Contains(t, rec.Body.String(), `<details data-title="Kapitel 01">`)
}

func TestLabApi_Chapters(t *testing.T) {
	f := setup(t)
	testutil.WriteFile(t, filepath.Join(f.labs, "01_01_Signals", "submissions", submission.DeadlineFile), "2025-03-12\n")

	rec := f.do(newRequest(http.MethodGet, "/v1/chapters"))
	require.Equal(t, http.StatusOK, rec.Code)

	var o dashboard.Overview
	decode(t, rec, &o)
	assert.Equal(t, "10.03.2025", o.Today)
	require.Len(t, o.Chapters, 3)
	assert.Equal(t, "Kapitel 01", o.Chapters[0].Title)

	signals := o.Chapters[0].Folders[0]
	assert.Equal(t, "12.03.2025", signals.DeadlineDisplay)
	require.NotNil(t, signals.Reminder)
	assert.Equal(t, submission.BandWarning, signals.Reminder.Band)
}

func TestLabApi_FolderChecks(t *testing.T) {
	f := setup(t)

	runHTTPTests(t, f, []httpTest{
		{
			name:     "hidden folder",
			method:   http.MethodGet,
			path:     "/v1/labs/.git/task",
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"folder":"invalid lab folder"}`),
		},
		{
			name:     "missing folder",
			method:   http.MethodGet,
			path:     "/v1/labs/99_missing/task",
			wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Error: "lab not found"}),
		},
		{
			name:     "unknown route below a lab",
			method:   http.MethodGet,
			path:     "/v1/labs/01_01_Signals/nope",
			wantCode: http.StatusNotFound,
		},
		{
			name:     "retrieve",
			method:   http.MethodGet,
			path:     "/v1/labs/02_01_Essay",
			wantCode: http.StatusOK,
		},
	})
}

func TestLabApi_Launch(t *testing.T) {
	f := setup(t)

	rec := f.do(newRequest(http.MethodPost, "/v1/labs/01_01_Signals/launch",
		[]byte(`{"run_target":"labs/01_01_Signals/sine.py"}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res LaunchResponse
	decode(t, rec, &res)
	assert.Equal(t, "01_01_Signals / sine.py", res.Label)
	assert.NotZero(t, res.PID)

	rec = f.do(newRequest(http.MethodPost, "/v1/labs/01_05_Huffman/launch", []byte(`{}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, []string{
		"python3 labs/01_01_Signals/sine.py",
		"python3 -m labs.01_05_Huffman",
	}, f.runner.StartedLines())

	runHTTPTests(t, f, []httpTest{
		{
			name:     "document lab",
			method:   http.MethodPost,
			path:     "/v1/labs/02_01_Essay/launch",
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpErr{Error: launcher.ErrNotLaunchable.Error()}),
		},
		{
			name:     "unknown script",
			method:   http.MethodPost,
			path:     "/v1/labs/01_01_Signals/launch",
			body:     []byte(`{"run_target":"labs/01_01_Signals/missing.py"}`),
			wantCode: http.StatusNotFound,
		},
	})
}

func TestLabApi_Done(t *testing.T) {
	f := setup(t)

	rec := f.do(newRequest(http.MethodPut, "/v1/labs/02_01_Essay/done"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"done_date":"10.03.2025"}`, rec.Body.String())
	marker := filepath.Join(f.labs, "02_01_Essay", "submissions", submission.DoneFile)
	assert.Equal(t, "Abgabe am 10.03.2025\n", testutil.ReadFile(t, marker))

	rec = f.do(newRequest(http.MethodDelete, "/v1/labs/02_01_Essay/done"))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NoFileExists(t, marker)
}

func TestLabApi_Deadline(t *testing.T) {
	f := setup(t)
	path := "/v1/labs/01_01_Signals/deadline"
	deadlineFile := filepath.Join(f.labs, "01_01_Signals", "submissions", submission.DeadlineFile)

	runHTTPTests(t, f, []httpTest{
		{
			name:     "missing token",
			method:   http.MethodPut,
			path:     path,
			body:     []byte(`{"deadline":"2025-03-12"}`),
			wantCode: http.StatusUnauthorized,
			wantData: marshallObj(t, errMissingToken),
		},
		{
			name:     "invalid token",
			method:   http.MethodPut,
			path:     path,
			body:     []byte(`{"deadline":"2025-03-12"}`),
			token:    "not-a-jwt",
			wantCode: http.StatusUnauthorized,
		},
	})

	token := f.instructorToken(t)
	runHTTPTests(t, f, []httpTest{
		{
			name:     "invalid date",
			method:   http.MethodPut,
			path:     path,
			body:     []byte(`{"deadline":"2025-02-30"}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"deadline":"deadline must be a calendar date formatted as YYYY-MM-DD"}`),
		},
		{
			name:     "missing date",
			method:   http.MethodPut,
			path:     path,
			body:     []byte(`{}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"deadline":"this field is required"}`),
		},
		{
			name:     "valid date with time suffix",
			method:   http.MethodPut,
			path:     path,
			body:     []byte(`{"deadline":"2025-03-12T23:59"}`),
			token:    token,
			wantCode: http.StatusOK,
			wantData: []byte(`{"deadline":"2025-03-12","deadline_display":"12.03.2025"}`),
		},
	})
	assert.Equal(t, "2025-03-12\n", testutil.ReadFile(t, deadlineFile))

	rec := f.do(newAuthRequest(http.MethodDelete, path, token))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NoFileExists(t, deadlineFile)

	// removing the key file turns instructor mode off for issued tokens too
	require.NoError(t, os.Remove(f.key.Path()))
	rec = f.do(newAuthRequest(http.MethodPut, path, token, []byte(`{"deadline":"2025-03-12"}`)))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestInstructorApi_Login(t *testing.T) {
	f := setup(t)

	rec := f.do(newRequest(http.MethodPost, "/v1/instructor/login", []byte(`{"key":"geheim"}`)))
	assert.Equal(t, http.StatusForbidden, rec.Code, "instructor mode is off")

	require.NoError(t, f.key.Set("geheim"))
	runHTTPTests(t, f, []httpTest{
		{
			name:     "empty key",
			method:   http.MethodPost,
			path:     "/v1/instructor/login",
			body:     []byte(`{"key":"  "}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"key":"this field is required"}`),
		},
		{
			name:     "wrong key",
			method:   http.MethodPost,
			path:     "/v1/instructor/login",
			body:     []byte(`{"key":"falsch"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "status",
			method:   http.MethodGet,
			path:     "/v1/instructor",
			wantCode: http.StatusOK,
			wantData: []byte(`{"enabled":true}`),
		},
	})

	rec = f.do(newRequest(http.MethodPost, "/v1/instructor/login", []byte(`{"key":"geheim"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	var res LoginResponse
	decode(t, rec, &res)
	require.NotEmpty(t, res.Token)

	rec = f.do(newAuthRequest(http.MethodPut, "/v1/labs/02_01_Essay/deadline", res.Token, []byte(`{"deadline":"2025-04-01"}`)))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(newAuthRequest(http.MethodPost, "/v1/instructor/token-refresh", res.Token))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLabApi_Documents(t *testing.T) {
	f := setup(t)
	testutil.WriteFile(t, filepath.Join(f.labs, "01_01_Signals", "submissions", submission.TaskFile), "# Aufgabe 1")
	testutil.WriteFile(t, filepath.Join(f.labs, "01_01_Signals", submission.DocFile), "# Doku")

	runHTTPTests(t, f, []httpTest{
		{
			name:     "task",
			method:   http.MethodGet,
			path:     "/v1/labs/01_01_Signals/task",
			wantCode: http.StatusOK,
			wantData: []byte(`{"markdown":"# Aufgabe 1"}`),
		},
		{
			name:     "doc",
			method:   http.MethodGet,
			path:     "/v1/labs/01_01_Signals/doc",
			wantCode: http.StatusOK,
			wantData: []byte(`{"markdown":"# Doku"}`),
		},
		{
			name:     "missing task",
			method:   http.MethodGet,
			path:     "/v1/labs/02_01_Essay/task",
			wantCode: http.StatusNotFound,
		},
	})
}

func TestLabApi_Questionnaire(t *testing.T) {
	f := setup(t)
	sub := filepath.Join(f.labs, "01_01_Signals", "submissions")

	rec := f.do(newRequest(http.MethodPost, "/v1/labs/01_01_Signals/questionnaire"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, string(marshallObj(t, httpErr{Error: submission.ErrNoQuestionnaire.Error()})), rec.Body.String())

	testutil.WriteFile(t, filepath.Join(sub, "questions.md"), "1. Was ist ein Bit?\n")
	rec = f.do(newRequest(http.MethodPost, "/v1/labs/01_01_Signals/questionnaire"))
	require.Equal(t, http.StatusOK, rec.Code)
	var res PathResponse
	decode(t, rec, &res)
	assert.Equal(t, filepath.Join(sub, "answers.md"), res.Path)
	assert.True(t, res.Created)
	assert.Equal(t, []string{"xdg-open " + res.Path}, f.runner.StartedLines())

	rec = f.do(newRequest(http.MethodPost, "/v1/labs/01_01_Signals/console-merge"))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "no console log yet")

	testutil.WriteFile(t, filepath.Join(sub, submission.ConsoleLogFile), "H = 1.5\n")
	rec = f.do(newRequest(http.MethodPost, "/v1/labs/01_01_Signals/console-merge"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, testutil.ReadFile(t, res.Path), "## Konsolenausgabe\n\n```\nH = 1.5\n```\n")
}

func TestLabApi_SubmissionsUploadAndZip(t *testing.T) {
	f := setup(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "loesung.py")
	require.NoError(t, err)
	_, err = fw.Write([]byte("print('42')\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/labs/02_01_Essay/submissions", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := f.do(req, httptest.NewRecorder())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(newRequest(http.MethodGet, "/v1/labs/02_01_Essay/submissions"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"name":"loesung.py","size":12}]`, rec.Body.String())

	rec = f.do(newRequest(http.MethodGet, "/v1/labs/01_05_Huffman/submissions"))
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = f.do(newRequest(http.MethodPost, "/v1/labs/02_01_Essay/submissions"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(newRequest(http.MethodPost, "/v1/labs/02_01_Essay/zip"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var res PathResponse
	decode(t, rec, &res)
	assert.Equal(t, submission.ZipName("02_01_Essay", testNow), filepath.Base(res.Path))
	assert.FileExists(t, res.Path)
}

func TestLabApi_Submit(t *testing.T) {
	f := setup(t)

	runHTTPTests(t, f, []httpTest{
		{
			name:     "no manifest",
			method:   http.MethodPost,
			path:     "/v1/labs/02_01_Essay/submit",
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpErr{Error: submission.ErrNoSubmitEmail.Error()}),
		},
		{
			name:     "no mailto without manifest",
			method:   http.MethodGet,
			path:     "/v1/labs/02_01_Essay/mailto",
			wantCode: http.StatusBadRequest,
		},
	})

	testutil.WriteFile(t, filepath.Join(f.root, submission.ManifestFile), "submit_to_email = prof@example.com\n")

	rec := f.do(newRequest(http.MethodGet, "/v1/labs/02_01_Essay/mailto"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"mailto":"mailto:prof@example.com?subject=%5Bkt-assignment%5D%20ID%3D02_01_Essay"}`, rec.Body.String())

	rec = f.do(newRequest(http.MethodPost, "/v1/labs/02_01_Essay/submit"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var receipt submission.Receipt
	decode(t, rec, &receipt)
	assert.Equal(t, "prof@example.com", receipt.To)
	assert.Equal(t, "[kt-assignment] ID=02_01_Essay", receipt.Subject)

	sent := f.mail.Sent()
	require.Len(t, sent, 1)
	require.Len(t, sent[0].Attachments, 1)
	assert.True(t, strings.HasPrefix(sent[0].Attachments[0].Filename, "abgabe_02_01_Essay_"))
}

func TestLabApi_Expansion(t *testing.T) {
	f := setup(t)

	runHTTPTests(t, f, []httpTest{
		{
			name:     "missing open",
			method:   http.MethodPut,
			path:     "/v1/expansion",
			body:     []byte(`{"title":"Kapitel 01"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"open":"this field is required"}`),
		},
		{
			name:     "close chapter",
			method:   http.MethodPut,
			path:     "/v1/expansion",
			body:     []byte(`{"title":"Kapitel 01","open":false}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"title":"Kapitel 01","open":false}`),
		},
	})

	rec := f.do(newRequest(http.MethodGet, "/v1/chapters"))
	var o dashboard.Overview
	decode(t, rec, &o)
	assert.False(t, o.Chapters[0].Open)
	assert.True(t, o.Chapters[1].Open)
}

func TestLabApi_LabsDirRemoved(t *testing.T) {
	f := setup(t)
	require.NoError(t, os.RemoveAll(f.labs))

	rec := f.do(newRequest(http.MethodGet, "/v1/labs/01_01_Signals"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, rec.Body.String())

	select {
	case sig := <-f.app.ShutdownSignal():
		assert.Equal(t, syscall.SIGTERM, sig)
	default:
		t.Fatal("server did not ask for shutdown")
	}
}
