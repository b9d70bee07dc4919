package convert

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"recompress/engine"
	"recompress/video"
)

// HardwareMaxInputSize is the routing ceiling for the hardware path. Larger
// files skip hardware entirely since the raw-frame pipeline cost outgrows the
// encoder speedup.
const HardwareMaxInputSize = 200 * 1024 * 1024

// Path is one conversion backend.
type Path interface {
	Run(ctx context.Context, file video.File, opts Options, onProgress video.ProgressFunc) (*video.Result, error)
}

// Router picks a conversion path per job and applies the fallback policy:
// hardware when the host supports the codec and the file is small enough,
// software otherwise, and software again when a hardware attempt fails and
// the file still fits the engine ceiling.
type Router struct {
	capability Capability
	hardware   Path
	software   Path
	logger     hclog.Logger
}

// NewRouter wires the two paths behind the routing policy.
func NewRouter(capability Capability, hardware, software Path, logger hclog.Logger) *Router {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Router{
		capability: capability,
		hardware:   hardware,
		software:   software,
		logger:     logger.Named("router"),
	}
}

// Convert runs the job on the chosen path.
func (r *Router) Convert(ctx context.Context, file video.File, opts Options, onProgress video.ProgressFunc) (*video.Result, error) {
	useHardware := r.capability.HardwareSupported(opts.Codec) && file.Size <= HardwareMaxInputSize

	if !useHardware {
		r.logger.Info("routing to software path",
			"file", file.Name, "codec", opts.Codec,
			"hardware_capable", r.capability.HardwareSupported(opts.Codec),
			"size_mb", fmt.Sprintf("%.2f", file.SizeMB()))
		return r.software.Run(ctx, file, opts, onProgress)
	}

	r.logger.Info("routing to hardware path", "file", file.Name, "codec", opts.Codec)
	result, err := r.hardware.Run(ctx, file, opts, onProgress)
	if err == nil {
		return result, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	if file.Size > engine.MaxInputSize {
		// No path left: hardware failed and the file exceeds the software
		// engine's ceiling.
		r.logger.Error("hardware path failed with no software fallback",
			"file", file.Name, "error", err)
		return nil, &video.SizeLimitError{
			Path:    "software",
			SizeMB:  file.SizeMB(),
			LimitMB: engine.MaxInputSize / 1024 / 1024,
		}
	}

	r.logger.Warn("hardware path failed, falling back to software",
		"file", file.Name, "error", err)
	return r.software.Run(ctx, file, opts, onProgress)
}
