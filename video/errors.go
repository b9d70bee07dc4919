package video

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions that carry no extra state.
var (
	// ErrMetadataUnavailable means every probe tier failed. The minimal
	// synthesis tier never fails, so this should not be observable.
	ErrMetadataUnavailable = errors.New("video metadata unavailable: all extraction tiers failed")

	// ErrEmptyOutput means an encode completed but produced a zero-byte
	// artifact. Treated as a hard failure, never as success.
	ErrEmptyOutput = errors.New("encoding produced empty output; check codec and profile settings and retry")
)

// DecodeError is a native-decoder failure. Code follows the media error
// classes 1-4 (aborted, network, decode, unsupported source).
type DecodeError struct {
	Code int
	Err  error
}

func (e *DecodeError) Error() string {
	msg := "unknown decoder error"
	switch e.Code {
	case 1:
		msg = "decoding aborted"
	case 2:
		msg = "i/o error while reading the source"
	case 3:
		msg = "stream could not be decoded (codec may be unsupported)"
	case 4:
		msg = "container format not supported"
	}
	if e.Err != nil {
		return fmt.Sprintf("decode error: %s: %v", msg, e.Err)
	}
	return fmt.Sprintf("decode error: %s", msg)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// TimeoutError is a bounded wait that expired.
type TimeoutError struct {
	Op      string
	Seconds float64
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %.0fs", e.Op, e.Seconds)
}

// FilesystemError is a staging (virtual filesystem) failure after retry
// exhaustion.
type FilesystemError struct {
	Op       string
	SizeMB   float64
	Attempts int
	Err      error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("engine filesystem error during %s (%.2fMB file, %d attempts): %v",
		e.Op, e.SizeMB, e.Attempts, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }

// SizeLimitError means a file exceeds a hard architectural ceiling of the
// chosen path. The size thresholds are not transient conditions, so the
// message is specific and actionable.
type SizeLimitError struct {
	Path    string // "hardware" or "software"
	SizeMB  float64
	LimitMB int
}

func (e *SizeLimitError) Error() string {
	if e.Path == "software" {
		return fmt.Sprintf(
			"file too large (%.2fMB) for the software engine (limit %dMB); use a smaller file or native command-line tooling",
			e.SizeMB, e.LimitMB)
	}
	return fmt.Sprintf(
		"%s conversion failed for large file (%.2fMB, limit %dMB); use a smaller file, a hardware-capable environment, or native command-line tooling",
		e.Path, e.SizeMB, e.LimitMB)
}

// CapabilityError means the chosen backend does not support the requested
// codec. Checked via an explicit capability query before configuring an
// encoder.
type CapabilityError struct {
	Codec   Codec
	Backend string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("codec %s is not supported by the %s backend", e.Codec, e.Backend)
}
