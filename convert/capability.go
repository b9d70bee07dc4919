package convert

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/shirou/gopsutil/v4/cpu"

	"recompress/video"
)

// Capability answers whether the host can hardware-encode a given codec and
// which encoder implements it. Tests inject fakes through it.
type Capability interface {
	HardwareSupported(codec video.Codec) bool
	HardwareEncoder(codec video.Codec) (string, bool)
}

const capabilityTTL = 5 * time.Minute

// HostCapability detects the host's hardware acceleration backend and the
// encoders the engine build actually ships. Detection is expensive, so the
// result is cached for a few minutes.
type HostCapability struct {
	logger hclog.Logger

	mu       sync.Mutex
	detected time.Time
	backend  string
	encoders map[string]bool
	cores    int
}

// NewHostCapability builds a detector. Detection runs lazily on first query.
func NewHostCapability(logger hclog.Logger) *HostCapability {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &HostCapability{logger: logger.Named("capability")}
}

// Backend returns the detected acceleration backend name, or "" when the host
// has none.
func (h *HostCapability) Backend() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.refreshLocked()
	return h.backend
}

// Cores returns the logical CPU count, used to size software encoder threads.
func (h *HostCapability) Cores() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.refreshLocked()
	return h.cores
}

func (h *HostCapability) HardwareSupported(codec video.Codec) bool {
	_, ok := h.HardwareEncoder(codec)
	return ok
}

// HardwareEncoder maps a codec family onto the backend's encoder, but only
// when the engine build lists it.
func (h *HostCapability) HardwareEncoder(codec video.Codec) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.refreshLocked()
	if h.backend == "" {
		return "", false
	}

	var family string
	switch codec {
	case video.CodecH264:
		family = "h264"
	case video.CodecH265:
		family = "hevc"
	case video.CodecAV1:
		family = "av1"
	default:
		// No deployed vp9 hardware encoder is reliable enough to route to.
		return "", false
	}

	name := family + "_" + h.backend
	if !h.encoders[name] {
		return "", false
	}
	return name, true
}

func (h *HostCapability) refreshLocked() {
	if time.Since(h.detected) < capabilityTTL && !h.detected.IsZero() {
		return
	}
	h.detected = time.Now()

	h.backend = detectBackend()
	h.encoders = listEncoders()
	h.cores = logicalCores()
	h.logger.Debug("hardware capability detected",
		"backend", h.backend, "encoders", len(h.encoders), "cores", h.cores)
}

// detectBackend probes the host for an acceleration device, most capable
// backend first.
func detectBackend() string {
	if runtime.GOOS == "darwin" {
		return "videotoolbox"
	}
	if _, err := exec.LookPath("nvidia-smi"); err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if exec.CommandContext(ctx, "nvidia-smi", "-L").Run() == nil {
			return "nvenc"
		}
	}
	if hasQSV() {
		return "qsv"
	}
	if _, err := os.Stat("/dev/dri/renderD128"); err == nil {
		return "vaapi"
	}
	return ""
}

func hasQSV() bool {
	if _, err := os.Stat("/dev/dri/renderD128"); err != nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, "lspci").Output()
	if err != nil {
		return false
	}
	lower := strings.ToLower(string(out))
	return strings.Contains(lower, "intel") && strings.Contains(lower, "vga")
}

// listEncoders asks the engine which encoders its build ships. A backend
// device without the matching encoder compiled in is useless.
func listEncoders() map[string]bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, "ffmpeg", "-hide_banner", "-encoders").Output()
	if err != nil {
		return map[string]bool{}
	}
	return parseEncoderList(string(out))
}

func parseEncoderList(out string) map[string]bool {
	encoders := make(map[string]bool)
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		// Encoder rows look like " V....D h264_nvenc   NVIDIA NVENC ...".
		// The legend row " V..... = Video" also starts with V; its second
		// field is "=", never an encoder name.
		if len(fields) >= 2 && strings.HasPrefix(fields[0], "V") && fields[1] != "=" {
			encoders[fields[1]] = true
		}
	}
	return encoders
}

func logicalCores() int {
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}
