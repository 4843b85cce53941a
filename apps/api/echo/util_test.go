package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeoRoessmann/KT-course/core"
	"github.com/LeoRoessmann/KT-course/core/appbuilder"
	"github.com/LeoRoessmann/KT-course/core/appbuilder/assignments"
	"github.com/LeoRoessmann/KT-course/core/dashboard"
	"github.com/LeoRoessmann/KT-course/core/launcher"
	"github.com/LeoRoessmann/KT-course/core/ports"
	"github.com/LeoRoessmann/KT-course/core/shell"
	"github.com/LeoRoessmann/KT-course/core/submission"
	emailsvc "github.com/LeoRoessmann/KT-course/services/email"
	"github.com/LeoRoessmann/KT-course/tests"
)

var (
	testNow = time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

type fixture struct {
	app    Server
	conf   *core.Config
	root   string
	labs   string
	runner *shell.FakeRunner
	mail   *emailsvc.ConsoleServiceMock
	key    *launcher.InstructorKey
}

// setup builds a server over a fresh lab suite. opts may adjust the
// dependencies before the server is created.
func setup(t *testing.T, opts ...func(f *fixture, deps *ServerDeps)) *fixture {
	t.Helper()
	root, labs := testutil.PrepareSuite(t)
	conf := &core.Config{
		TestMode:  true,
		Env:       "TEST",
		Build:     "test",
		AppName:   "KT Lab Launcher",
		SuiteRoot: root,
		LabsDir:   labs,
		Python:    "python3",
		LabPort:   ports.LabPort,
		Server: core.ServerConfig{
			SecretKey:          "test-secret",
			JWTExpirationDelta: time.Hour,
		},
		FromEmail: "noreply@localhost",
	}
	logger := testutil.NewLogger(t)
	validate, translator := core.NewValidator()
	runner := shell.NewFakeRunner()
	mail := emailsvc.NewConsoleServiceMock(conf, logger)

	submissions := submission.NewService(submission.NewStore(labs, validate), root, mail)
	expansion := launcher.NewExpansionStore(root, logger)
	key := launcher.NewInstructorKey(root)

	builderDir := filepath.Join(root, "builder")
	reg := appbuilder.NewAssignmentRegistry(appbuilder.AssignmentsPath(builderDir), logger)
	assignments.Register(reg)
	builder, err := appbuilder.Open(builderDir, assignments.DefaultLayout(), assignments.Callbacks(reg), reg, validate, logger)
	require.NoError(t, err)

	f := &fixture{conf: conf, root: root, labs: labs, runner: runner, mail: mail, key: key}
	deps := ServerDeps{
		Conf:        conf,
		Logger:      logger,
		Validate:    validate,
		Translator:  translator,
		Dashboard:   dashboard.NewService(submissions, expansion, key),
		Submissions: submissions,
		Launcher:    launcher.New(root, conf.Python, runner).ForOS("linux"),
		Expansion:   expansion,
		Key:         key,
		Ports:       ports.NewChecker(runner).ForOS("linux"),
		Builder:     builder,
		Now:         func() time.Time { return testNow },
	}
	for _, opt := range opts {
		opt(f, &deps)
	}

	f.app = NewServer(deps)
	t.Cleanup(func() { _ = f.app.Close() })
	return f
}

// instructorToken enables instructor mode and returns a valid token.
func (f *fixture) instructorToken(t *testing.T) string {
	t.Helper()
	require.NoError(t, f.key.Set("geheim"))
	token, err := GenerateToken(f.conf, NewInstructorClaims(f.conf, time.Now()))
	require.NoError(t, err)
	return token
}

func (f *fixture) do(req *http.Request, rec *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	f.app.ServeHTTP(rec, req)
	return rec
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj(): %v", err)
	}
	return data
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
	if tt.wantData != nil {
		assert.JSONEq(t, string(tt.wantData), rec.Body.String())
	}
}

func runHTTPTests(t *testing.T, f *fixture, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(newAuthRequest(tt.method, tt.path, tt.token, tt.body))
			checkCodeAndData(t, tt, rec)
		})
	}
}
