// Package ports finds and frees processes that hold a TCP port.
package ports

import (
	"bufio"
	"context"
	"encoding/csv"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/LeoRoessmann/KT-course/core/shell"
)

const (
	// LabPort is the port lab apps bind to; the dashboard only checks this one.
	LabPort      = 8081
	LauncherPort = 8082

	listTimeout = 10 * time.Second
	killTimeout = 10 * time.Second
	nameTimeout = 5 * time.Second
)

// LabPorts are the ports labs and the launcher typically use.
var LabPorts = []int{LabPort, LauncherPort}

// netstat states that mark a port as taken (ABH is the German "LISTENING").
var busyStates = []string{"LISTENING", "ABH", "ESTABLISHED"}

// Status is the state of one port.
type Status struct {
	Port    int    `json:"port"`
	Busy    bool   `json:"busy"`
	PIDs    []int  `json:"pids"`
	PID     int    `json:"pid,omitempty"`
	Process string `json:"process,omitempty"`
}

// Checker queries and frees ports with the platform's tools. Failures never
// surface as errors: lookups degrade to empty results, kills to false.
type Checker struct {
	runner shell.Runner
	goos   string
}

func NewChecker(runner shell.Runner) *Checker {
	return &Checker{runner: runner, goos: runtime.GOOS}
}

// ForOS returns a copy of c that issues the commands of goos.
func (c *Checker) ForOS(goos string) *Checker {
	cp := *c
	cp.goos = goos
	return &cp
}

func (c *Checker) windows() bool { return c.goos == "windows" }

func (c *Checker) run(ctx context.Context, cmd shell.Command) (string, bool) {
	res, err := c.runner.Run(ctx, cmd)
	if err != nil || !res.OK() {
		return "", false
	}
	return res.Stdout, true
}

// PIDsOnPort returns the sorted, distinct pids bound to port.
func (c *Checker) PIDsOnPort(ctx context.Context, port int) []int {
	if c.windows() {
		out, ok := c.run(ctx, shell.New("netstat", "-ano").WithTimeout(listTimeout))
		if !ok {
			return nil
		}
		return ParseNetstat(out, port)
	}

	out, ok := c.run(ctx, shell.New("lsof", "-i", ":"+strconv.Itoa(port), "-t").WithTimeout(listTimeout))
	if !ok {
		return nil
	}
	return ParseLsof(out)
}

// Kill force-terminates pid and reports whether the tool succeeded.
func (c *Checker) Kill(ctx context.Context, pid int) bool {
	if pid <= 0 {
		return false
	}
	cmd := shell.New("kill", "-9", strconv.Itoa(pid))
	if c.windows() {
		cmd = shell.New("taskkill", "/PID", strconv.Itoa(pid), "/F")
	}
	_, ok := c.run(ctx, cmd.WithTimeout(killTimeout))
	return ok
}

// ProcessName returns the executable name of pid, or "".
func (c *Checker) ProcessName(ctx context.Context, pid int) string {
	if c.windows() {
		out, ok := c.run(ctx, shell.New("tasklist", "/FI", "PID eq "+strconv.Itoa(pid), "/FO", "CSV", "/NH").WithTimeout(nameTimeout))
		if !ok {
			return ""
		}
		return ParseTasklist(out)
	}

	out, ok := c.run(ctx, shell.New("ps", "-p", strconv.Itoa(pid), "-o", "comm=").WithTimeout(nameTimeout))
	if !ok {
		return ""
	}
	return strings.TrimSpace(out)
}

// Status reports whether port is busy and, if so, which process holds it.
func (c *Checker) Status(ctx context.Context, port int) Status {
	st := Status{Port: port, PIDs: c.PIDsOnPort(ctx, port)}
	if len(st.PIDs) == 0 {
		st.PIDs = []int{}
		return st
	}
	st.Busy = true
	st.PID = st.PIDs[0]
	st.Process = c.ProcessName(ctx, st.PID)
	return st
}

// ParseLsof reads one pid per line, ignoring anything non-numeric.
func ParseLsof(out string) []int {
	var pids []int
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		if pid, err := strconv.Atoi(strings.TrimSpace(sc.Text())); err == nil && pid > 0 {
			pids = append(pids, pid)
		}
	}
	return uniqueSorted(pids)
}

// ParseNetstat extracts pids from `netstat -ano` lines mentioning :port in a busy state.
func ParseNetstat(out string, port int) []int {
	needle := ":" + strconv.Itoa(port)
	var pids []int
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.Contains(line, needle) || !hasBusyState(line) {
			continue
		}
		fields := strings.Fields(line)
		if pid, err := strconv.Atoi(fields[len(fields)-1]); err == nil && pid >= 0 {
			pids = append(pids, pid)
		}
	}
	return uniqueSorted(pids)
}

// ParseTasklist returns the image name from `tasklist /FO CSV /NH` output.
func ParseTasklist(out string) string {
	out = strings.TrimSpace(out)
	if out == "" || strings.HasPrefix(out, "INFO:") {
		return ""
	}
	r := csv.NewReader(strings.NewReader(out))
	r.FieldsPerRecord = -1
	record, err := r.Read()
	if err != nil || len(record) == 0 {
		return ""
	}
	return strings.TrimSpace(record[0])
}

func hasBusyState(line string) bool {
	for _, s := range busyStates {
		if strings.Contains(line, s) {
			return true
		}
	}
	return false
}

func uniqueSorted(pids []int) []int {
	if len(pids) == 0 {
		return nil
	}
	sort.Ints(pids)
	out := pids[:1]
	for _, p := range pids[1:] {
		if p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	return out
}
