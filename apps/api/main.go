package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	echoapi "github.com/LeoRoessmann/KT-course/apps/api/echo"
	"github.com/LeoRoessmann/KT-course/core"
	"github.com/LeoRoessmann/KT-course/core/appbuilder"
	"github.com/LeoRoessmann/KT-course/core/appbuilder/assignments"
	"github.com/LeoRoessmann/KT-course/core/dashboard"
	"github.com/LeoRoessmann/KT-course/core/launcher"
	"github.com/LeoRoessmann/KT-course/core/ports"
	"github.com/LeoRoessmann/KT-course/core/shell"
	"github.com/LeoRoessmann/KT-course/core/submission"
	"github.com/LeoRoessmann/KT-course/core/vcs"
	emailsvc "github.com/LeoRoessmann/KT-course/services/email"
	logsvc "github.com/LeoRoessmann/KT-course/services/logger"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	validate, translator := core.NewValidator()
	runner := shell.NewRunner()

	submissions := submission.NewService(submission.NewStore(conf.LabsDir, validate), conf.SuiteRoot, mailSvc)
	expansion := launcher.NewExpansionStore(conf.SuiteRoot, logger)
	key := launcher.NewInstructorKey(conf.SuiteRoot)

	reg := appbuilder.NewAssignmentRegistry(appbuilder.AssignmentsPath(conf.BuilderDir), logger)
	assignments.Register(reg)
	builder, err := appbuilder.Open(conf.BuilderDir, assignments.DefaultLayout(), assignments.Callbacks(reg), reg, validate, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening app builder: %v", err), err)
	}

	repo, err := vcs.Open(conf.SuiteRoot, runner)
	if err != nil {
		logger.Info("git features disabled", core.Fields{"reason": err.Error(), "path": conf.SuiteRoot})
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build), core.Fields{"suiteRoot": conf.SuiteRoot})
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("suiteRoot").Set(conf.SuiteRoot)

	if conf.Server.DebugHost != "" {
		go func() {
			if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
				logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()
	}

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:        conf,
			Logger:      logger,
			Validate:    validate,
			Translator:  translator,
			Dashboard:   dashboard.NewService(submissions, expansion, key),
			Submissions: submissions,
			Launcher:    launcher.New(conf.SuiteRoot, conf.Python, runner),
			Expansion:   expansion,
			Key:         key,
			Ports:       ports.NewChecker(runner),
			Builder:     builder,
			Repo:        repo,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
