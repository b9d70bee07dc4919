package convert

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"

	"recompress/engine"
	"recompress/video"
)

// SoftwarePath runs conversions through the staged engine. It carries the
// engine's 50MB input ceiling as a hard limit: oversized files are rejected
// before any staging work happens.
type SoftwarePath struct {
	engine engine.Engine
	logger hclog.Logger
}

// NewSoftwarePath builds the software conversion path.
func NewSoftwarePath(eng engine.Engine, logger hclog.Logger) *SoftwarePath {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &SoftwarePath{engine: eng, logger: logger.Named("software")}
}

// Run converts file with opts, emitting progress events as the engine logs
// arrive. Staged input and output files are removed whether or not the
// conversion succeeds.
func (s *SoftwarePath) Run(ctx context.Context, file video.File, opts Options, onProgress video.ProgressFunc) (*video.Result, error) {
	if file.Size > engine.MaxInputSize {
		return nil, &video.SizeLimitError{
			Path:    "software",
			SizeMB:  file.SizeMB(),
			LimitMB: engine.MaxInputSize / 1024 / 1024,
		}
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	tracker := newProgressTracker(onProgress)
	tracker.set(0, "Preparing input")

	data, err := os.ReadFile(file.Path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	safe := engine.SanitizeName(file.Name)
	input := "input_" + engine.TrimExt(safe) + engine.InputExt(file.Name)
	output := "output_" + engine.TrimExt(safe) + opts.Codec.OutputExt()

	if err := s.engine.WriteInput(input, data); err != nil {
		return nil, &video.FilesystemError{Op: "conversion staging", SizeMB: file.SizeMB(), Attempts: 3, Err: err}
	}
	defer s.engine.Remove(input)
	defer s.engine.Remove(output)

	tracker.set(10, "Converting")
	s.logger.Info("software conversion started",
		"file", file.Name, "codec", opts.Codec, "size_mb", fmt.Sprintf("%.2f", file.SizeMB()))

	args := opts.buildArgs(input, output)
	execErr := s.engine.Exec(ctx, args, func(line string) {
		tracker.observe(ParseLogLine(line), "Converting")
	})
	if execErr != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("engine conversion failed: %w", execErr)
	}

	out, err := s.engine.ReadOutput(output)
	if err != nil || len(out) == 0 {
		s.logger.Error("conversion produced no output", "file", file.Name, "error", err)
		return nil, video.ErrEmptyOutput
	}

	tracker.finish("Conversion complete")
	s.logger.Info("software conversion finished",
		"file", file.Name, "output_bytes", len(out))
	return &video.Result{Data: out, MIMEType: opts.Codec.MIMEType()}, nil
}
