//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-ps"
)

// ErrAlreadyRunning indicates another daemon instance owns the audio device
// and the alarm schedule.
var ErrAlreadyRunning = errors.New("another instance is already running")

// EnsureSingleInstance scans the process table and fails when another
// process with this executable's name is found. Two daemons would fight over
// the audio device and double-fire escalations.
func EnsureSingleInstance() error {
	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	ownName := filepath.Base(executable)
	ownPID := os.Getpid()

	processList, err := ps.Processes()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	for _, process := range processList {
		if process.Pid() == ownPID {
			continue
		}

		if process.Executable() == ownName {
			return fmt.Errorf("%s (pid %d): %w", process.Executable(), process.Pid(), ErrAlreadyRunning)
		}
	}

	return nil
}
