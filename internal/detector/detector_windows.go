//go:build windows

package detector

import (
	"os"

	gopsproc "github.com/shirou/gopsutil/v4/process"
)

// Alive reports whether a process with the given pid exists. Windows has no
// signal-0 probe; gopsutil answers via OpenProcess.
func Alive(pid int) (bool, error) {
	if pid <= 0 {
		return false, nil
	}
	return gopsproc.PidExists(int32(pid))
}

// Terminate asks a process to exit. There is no SIGTERM on Windows; Kill is
// the closest available contract.
func Terminate(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Kill()
}

// Kill forcibly ends the process.
func Kill(pid int) error {
	return Terminate(pid)
}
