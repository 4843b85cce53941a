package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/LeoRoessmann/KT-course/core/dashboard"
	"github.com/LeoRoessmann/KT-course/core/launcher"
	"github.com/LeoRoessmann/KT-course/core/ports"
	"github.com/LeoRoessmann/KT-course/core/submission"
	"github.com/LeoRoessmann/KT-course/core/vcs"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp          = errors.New("help provided")
	errKeyMismatch   = errors.New("keys do not match")
	errWriteFailed   = errors.New("could not write lab state")
	errInvalidFolder = errors.New("invalid lab folder")
)

type commandLine struct {
	out       io.Writer
	dashboard *dashboard.Service
	store     *submission.Store
	ports     *ports.Checker
	key       *launcher.InstructorKey
	now       func() time.Time
	openRepo  func() (*vcs.Repo, error)
}

func (cli *commandLine) printUsage() {
	cli.printf("Usage:\n")
	cli.printf("  scan                                         - list chapters, labs and their status\n")
	cli.printf("  ports [-kill] [PORT...]                      - show (or free) the lab ports\n")
	cli.printf("  deadline -lab NAME [-date YYYY-MM-DD|-clear] - show, set or clear a deadline\n")
	cli.printf("  done -lab NAME [-clear]                      - mark a lab as submitted\n")
	cli.printf("  zip -lab NAME                                - archive a lab's submissions\n")
	cli.printf("  push -lab NAME                               - commit and push a lab's submissions\n")
	cli.printf("  git                                          - show branch, status and recent commits\n")
	cli.printf("  instructorkey                                - set the instructor key (prompted)\n")
}

func (cli *commandLine) printf(format string, args ...interface{}) {
	fmt.Fprintf(cli.out, format, args...)
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	portsCmd := flag.NewFlagSet("ports", flag.ContinueOnError)
	portsKill := portsCmd.Bool("kill", false, "Terminate the processes holding the ports.")

	deadlineCmd := flag.NewFlagSet("deadline", flag.ContinueOnError)
	deadlineLab := deadlineCmd.String("lab", "", "The lab folder name.")
	deadlineDate := deadlineCmd.String("date", "", "The new deadline as YYYY-MM-DD.")
	deadlineClear := deadlineCmd.Bool("clear", false, "Remove the deadline.")

	doneCmd := flag.NewFlagSet("done", flag.ContinueOnError)
	doneLab := doneCmd.String("lab", "", "The lab folder name.")
	doneClear := doneCmd.Bool("clear", false, "Remove the completion mark.")

	zipCmd := flag.NewFlagSet("zip", flag.ContinueOnError)
	zipLab := zipCmd.String("lab", "", "The lab folder name.")

	pushCmd := flag.NewFlagSet("push", flag.ContinueOnError)
	pushLab := pushCmd.String("lab", "", "The lab folder name.")

	for _, fs := range []*flag.FlagSet{portsCmd, deadlineCmd, doneCmd, zipCmd, pushCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "scan":
		return cli.scan()
	case "ports":
		if err := portsCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		list, err := parsePorts(portsCmd.Args())
		if err != nil {
			return err
		}
		return cli.showPorts(list, *portsKill)
	case "deadline":
		if err := deadlineCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *deadlineLab == "" || (*deadlineDate != "" && *deadlineClear) {
			deadlineCmd.Usage()
			return errHelp
		}
		return cli.deadline(*deadlineLab, *deadlineDate, *deadlineClear)
	case "done":
		if err := doneCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *doneLab == "" {
			doneCmd.Usage()
			return errHelp
		}
		return cli.done(*doneLab, *doneClear)
	case "zip":
		if err := zipCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *zipLab == "" {
			zipCmd.Usage()
			return errHelp
		}
		return cli.zip(*zipLab)
	case "push":
		if err := pushCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *pushLab == "" {
			pushCmd.Usage()
			return errHelp
		}
		return cli.push(*pushLab)
	case "git":
		return cli.gitStatus()
	case "instructorkey":
		cli.printf("Enter instructor key:")
		first, err := readPasswordFunc(int(syscall.Stdin))
		cli.printf("\n")
		if err != nil {
			return err
		}
		if len(first) == 0 {
			cli.printUsage()
			return errHelp
		}
		cli.printf("Repeat instructor key:")
		second, err := readPasswordFunc(int(syscall.Stdin))
		cli.printf("\n")
		if err != nil {
			return err
		}
		if string(first) != string(second) {
			return errKeyMismatch
		}
		return cli.setInstructorKey(string(first))
	default:
		cli.printUsage()
		return errHelp
	}
}

func parsePorts(args []string) ([]int, error) {
	if len(args) == 0 {
		return ports.LabPorts, nil
	}
	list := make([]int, 0, len(args))
	for _, arg := range args {
		port, err := strconv.Atoi(arg)
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("invalid port %q", arg)
		}
		list = append(list, port)
	}
	return list, nil
}

// checkLab accepts existing lab folders only.
func (cli *commandLine) checkLab(folder string) error {
	if !cli.store.ValidFolder(folder) {
		return errInvalidFolder
	}
	if fi, err := os.Stat(cli.store.LabDir(folder)); err != nil || !fi.IsDir() {
		return fmt.Errorf("lab %q not found", folder)
	}
	return nil
}
