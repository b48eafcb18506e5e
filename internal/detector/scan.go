package detector

import (
	"os"
	"runtime"
	"strings"

	gopsproc "github.com/shirou/gopsutil/v4/process"
)

// FindByPrefix scans the process table for a process owned by the current
// user whose name or command line starts with prefix, and returns its pid.
// Returns 0 when nothing matches. This is the side channel for services that
// write no pid file of their own.
func FindByPrefix(prefix string) (int, error) {
	procs, err := gopsproc.Processes()
	if err != nil {
		return 0, err
	}
	uid := os.Getuid()
	for _, p := range procs {
		if runtime.GOOS != "windows" {
			uids, err := p.Uids()
			if err != nil || len(uids) == 0 || int(uids[0]) != uid {
				continue
			}
		}
		// Process titles longer than the kernel's comm limit only show up in
		// the command line, so check both.
		if name, err := p.Name(); err == nil && strings.HasPrefix(name, prefix) {
			return int(p.Pid), nil
		}
		if cmdline, err := p.Cmdline(); err == nil && strings.HasPrefix(cmdline, prefix) {
			return int(p.Pid), nil
		}
	}
	return 0, nil
}
