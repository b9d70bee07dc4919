// Package engine wraps the general-purpose multimedia engine (ffmpeg) behind
// a process-wide, lazily initialized runner. Input and output bytes are staged
// in a private directory that plays the role of the engine's virtual
// filesystem; callers choose the staged names, so concurrent jobs must be
// serialized by the caller.
package engine

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
)

// MaxInputSize is the practical memory ceiling of the engine. Files above it
// are rejected before staging.
const MaxInputSize = 50 * 1024 * 1024

const (
	writeAttempts = 3
	writeBackoff  = 100 * time.Millisecond
)

// Engine is the narrow surface both the probe chain and the software encode
// path depend on. Tests inject fakes through it.
type Engine interface {
	// WriteInput stages data under name in the virtual filesystem, retrying
	// transient filesystem failures up to three times with linear backoff.
	WriteInput(name string, data []byte) error
	// ReadOutput reads a staged file back.
	ReadOutput(name string) ([]byte, error)
	// Remove deletes a staged file. It never fails; cleanup errors are logged
	// and swallowed so they cannot mask a primary error.
	Remove(name string)
	// Exec runs the engine with args inside the staging directory. Every log
	// line the engine emits is passed to onLog before Exec returns.
	Exec(ctx context.Context, args []string, onLog func(line string)) error
}

// FFmpeg runs the real ffmpeg binary with a private staging directory.
type FFmpeg struct {
	dir    string
	bin    string
	logger hclog.Logger
}

var (
	defaultOnce   sync.Once
	defaultEngine *FFmpeg
	defaultErr    error
)

// Default returns the process-wide engine, constructing it on first use.
func Default() (*FFmpeg, error) {
	defaultOnce.Do(func() {
		defaultEngine, defaultErr = New(hclog.Default().Named("engine"))
	})
	return defaultEngine, defaultErr
}

// New constructs an engine with a fresh staging directory. Tests use this to
// get an isolated instance instead of the shared default.
func New(logger hclog.Logger) (*FFmpeg, error) {
	bin, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("engine binary not found: %w", err)
	}
	dir, err := os.MkdirTemp("", "recompress-vfs-*")
	if err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &FFmpeg{dir: dir, bin: bin, logger: logger}, nil
}

// Dir exposes the staging directory path.
func (f *FFmpeg) Dir() string { return f.dir }

// Close tears the staging directory down. The default engine normally lives
// for the whole process; Close exists for tests and explicit teardown.
func (f *FFmpeg) Close() error {
	return os.RemoveAll(f.dir)
}

func (f *FFmpeg) WriteInput(name string, data []byte) error {
	path := filepath.Join(f.dir, name)

	var lastErr error
	for attempt := 1; attempt <= writeAttempts; attempt++ {
		// Start clean; a leftover from an aborted job is not an error.
		_ = os.Remove(path)

		lastErr = os.WriteFile(path, data, 0o600)
		if lastErr == nil {
			return nil
		}
		if !isTransientFS(lastErr) {
			return lastErr
		}
		f.logger.Warn("staging write failed, retrying",
			"name", name, "attempt", attempt, "error", lastErr)
		time.Sleep(writeBackoff * time.Duration(attempt))
	}
	return fmt.Errorf("staging write failed after %d attempts: %w", writeAttempts, lastErr)
}

func (f *FFmpeg) ReadOutput(name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(f.dir, name))
}

func (f *FFmpeg) Remove(name string) {
	if err := os.Remove(filepath.Join(f.dir, name)); err != nil && !os.IsNotExist(err) {
		f.logger.Debug("staged file cleanup failed", "name", name, "error", err)
	}
}

func (f *FFmpeg) Exec(ctx context.Context, args []string, onLog func(line string)) error {
	cmd := exec.CommandContext(ctx, f.bin, args...)
	cmd.Dir = f.dir

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("engine stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("engine start: %w", err)
	}

	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	// ffmpeg terminates stats lines with \r; split on both.
	scanner.Split(scanCRLF)
	for scanner.Scan() {
		line := scanner.Text()
		if onLog != nil && line != "" {
			onLog(line)
		}
	}

	return cmd.Wait()
}

func scanCRLF(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// isTransientFS reports whether err looks like a transient filesystem-class
// failure worth retrying. Anything else propagates immediately.
func isTransientFS(err error) bool {
	for _, errno := range []syscall.Errno{
		syscall.EAGAIN, syscall.EBUSY, syscall.EINTR, syscall.ENOENT,
	} {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}
