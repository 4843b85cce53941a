package main

import (
	"strings"

	"github.com/LeoRoessmann/KT-course/core"
)

// scan prints every chapter with its labs and their sidecar state.
func (cli *commandLine) scan() error {
	o := cli.dashboard.Overview(core.DateOf(cli.now()))
	if len(o.Chapters) == 0 {
		cli.printf("no labs found in %s\n", cli.store.LabsDir())
		return nil
	}
	for _, ch := range o.Chapters {
		cli.printf("%s\n", ch.Title)
		for _, f := range ch.Folders {
			var status []string
			if f.DoneDate != "" {
				status = append(status, "abgegeben "+f.DoneDate)
			}
			if f.Reminder != nil {
				status = append(status, f.Reminder.Text)
			}
			if f.Progress != nil && *f.Progress >= 1 {
				status = append(status, "Fragebogen unbearbeitet")
			}
			line := "  " + f.FolderName
			if len(status) > 0 {
				line += " [" + strings.Join(status, ", ") + "]"
			}
			cli.printf("%s\n", line)
			for _, e := range f.Entries {
				target := e.RunTarget
				if target == "" {
					target = "-"
				}
				cli.printf("    %-8s %s\n", e.Kind, target)
			}
		}
	}
	return nil
}

func (cli *commandLine) deadline(folder, date string, clear bool) error {
	if err := cli.checkLab(folder); err != nil {
		return err
	}
	switch {
	case clear:
		if !cli.store.ClearDeadline(folder) {
			return errWriteFailed
		}
		cli.printf("deadline of %s removed\n", folder)
	case date != "":
		if !cli.store.WriteDeadline(folder, date) {
			return core.NewValidationError(nil, core.FieldError{Field: "date", Error: "must be a calendar date formatted as YYYY-MM-DD"})
		}
		display, _ := cli.store.DeadlineDisplay(folder)
		cli.printf("deadline of %s set to %s\n", folder, display)
	default:
		display, ok := cli.store.DeadlineDisplay(folder)
		if !ok {
			cli.printf("%s has no deadline\n", folder)
			return nil
		}
		cli.printf("%s: %s\n", folder, display)
	}
	return nil
}

func (cli *commandLine) done(folder string, clear bool) error {
	if err := cli.checkLab(folder); err != nil {
		return err
	}
	if clear {
		if !cli.store.ClearDone(folder) {
			return errWriteFailed
		}
		cli.printf("completion mark of %s removed\n", folder)
		return nil
	}
	if !cli.store.MarkDone(folder, cli.now()) {
		return errWriteFailed
	}
	date, _ := cli.store.DoneDate(folder)
	cli.printf("%s marked as submitted on %s\n", folder, date)
	return nil
}

func (cli *commandLine) zip(folder string) error {
	if err := cli.checkLab(folder); err != nil {
		return err
	}
	path, err := cli.store.CreateZip(folder, cli.now())
	if err != nil {
		return err
	}
	cli.printf("%s\n", path)
	return nil
}

func (cli *commandLine) setInstructorKey(secret string) error {
	if err := cli.key.Set(secret); err != nil {
		return err
	}
	cli.printf("instructor mode enabled (%s)\n", cli.key.Path())
	return nil
}
