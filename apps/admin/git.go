package main

import (
	"context"
	"errors"
)

var errPushFailed = errors.New("push failed")

func (cli *commandLine) gitStatus() error {
	repo, err := cli.openRepo()
	if err != nil {
		return err
	}
	o, err := repo.Overview()
	if err != nil {
		return err
	}

	cli.printf("%s (%s)\n", o.Root, o.Branch)
	if o.Clean {
		cli.printf("working tree clean\n")
	} else {
		cli.printf("%s", o.Status)
	}
	for _, r := range o.Remotes {
		cli.printf("remote %s %v\n", r.Name, r.URLs)
	}
	for _, c := range o.Log {
		cli.printf("%s %s %s\n", c.Hash, c.Date, c.Subject)
	}
	return nil
}

func (cli *commandLine) push(folder string) error {
	if err := cli.checkLab(folder); err != nil {
		return err
	}
	repo, err := cli.openRepo()
	if err != nil {
		return err
	}

	res := repo.PushSubmissions(context.Background(), cli.store.Dir(folder), folder, cli.now())
	for _, step := range res.Steps {
		mark := "ok"
		if !step.OK {
			mark = "!!"
		}
		cli.printf("[%s] %s\n", mark, step.Command)
	}
	cli.printf("%s\n", res.Message)
	if !res.OK {
		return errPushFailed
	}
	return nil
}
