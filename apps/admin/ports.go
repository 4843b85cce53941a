package main

import (
	"context"
	"strconv"
	"strings"
)

// showPorts prints the state of each port and optionally frees it.
func (cli *commandLine) showPorts(list []int, kill bool) error {
	ctx := context.Background()
	for _, port := range list {
		st := cli.ports.Status(ctx, port)
		if !st.Busy {
			cli.printf("%d: frei\n", port)
			continue
		}

		pids := make([]string, 0, len(st.PIDs))
		for _, pid := range st.PIDs {
			pids = append(pids, strconv.Itoa(pid))
		}
		cli.printf("%d: belegt von PID %s", port, strings.Join(pids, ", "))
		if st.Process != "" {
			cli.printf(" (%s)", st.Process)
		}
		cli.printf("\n")

		if !kill {
			continue
		}
		for _, pid := range st.PIDs {
			if cli.ports.Kill(ctx, pid) {
				cli.printf("  PID %d beendet\n", pid)
			} else {
				cli.printf("  PID %d konnte nicht beendet werden\n", pid)
			}
		}
	}
	return nil
}
