package camera

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// Camera is the still-image capture collaborator. Any non-success result is
// treated by the caller as "no image" and the escalation aborts silently.
type Camera interface {
	CaptureStillImage(ctx context.Context) ([]byte, error)
}

// ErrNoCamera indicates capture is not configured on this host.
var ErrNoCamera = errors.New("no capture command configured")

// errEmptyCapture indicates the capture command produced no image data.
var errEmptyCapture = errors.New("capture produced no image data")

// Command captures stills by running an external program (fswebcam, ffmpeg,
// imagesnap and the like) that writes a JPEG to the path appended as its
// last argument.
type Command struct {
	// name is the capture executable.
	name string
	// args are passed before the output path.
	args []string
	// timeout bounds a single capture attempt.
	timeout time.Duration
}

// NewCommand creates a command-backed camera.
func NewCommand(name string, args []string, timeout time.Duration) *Command {
	return &Command{
		name:    name,
		args:    args,
		timeout: timeout,
	}
}

// CaptureStillImage runs the capture program and returns the JPEG it wrote.
// The command output goes to a per-call temp file that is removed afterwards.
func (c *Command) CaptureStillImage(ctx context.Context) ([]byte, error) {
	if c == nil || c.name == "" {
		return nil, ErrNoCamera
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	dir, err := os.MkdirTemp("", "wakeup-capture-*")
	if err != nil {
		return nil, fmt.Errorf("create capture dir: %w", err)
	}

	defer func() {
		_ = os.RemoveAll(dir)
	}()

	outputPath := filepath.Join(dir, "capture.jpg")
	args := append(append([]string{}, c.args...), outputPath)

	if output, err := exec.CommandContext(ctx, c.name, args...).CombinedOutput(); err != nil {
		return nil, fmt.Errorf("run capture command: %w (output: %s)", err, output)
	}

	image, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, fmt.Errorf("read captured image: %w", err)
	}

	if len(image) == 0 {
		return nil, errEmptyCapture
	}

	return image, nil
}
