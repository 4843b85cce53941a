package main

import (
	"log"
	"os"
	"time"

	"github.com/LeoRoessmann/KT-course/core"
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
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	validate, _ := core.NewValidator()
	runner := shell.NewRunner()
	store := submission.NewStore(conf.LabsDir, validate)
	submissions := submission.NewService(store, conf.SuiteRoot, emailsvc.NewConsoleService(conf, logger))
	key := launcher.NewInstructorKey(conf.SuiteRoot)

	// start CLI
	cli := commandLine{
		out:       os.Stdout,
		dashboard: dashboard.NewService(submissions, launcher.NewExpansionStore(conf.SuiteRoot, logger), key),
		store:     store,
		ports:     ports.NewChecker(runner),
		key:       key,
		now:       time.Now,
		openRepo: func() (*vcs.Repo, error) {
			return vcs.Open(conf.SuiteRoot, runner)
		},
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
			os.Stderr.WriteString("\nerror: " + err.Error() + "\n")
		}
		os.Exit(1)
	}
}
