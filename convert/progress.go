package convert

import (
	"regexp"
	"strconv"

	"recompress/video"
)

var (
	frameRe = regexp.MustCompile(`frame=\s*(\d+)`)
	timeRe  = regexp.MustCompile(`time=(\d{2}):(\d{2}):(\d{2})\.(\d{2})`)
	speedRe = regexp.MustCompile(`speed=\s*([\d.]+)x`)
)

// Delta is the structured reading of one engine stats line. A field is
// present only when the line carried it.
type Delta struct {
	Frame    int64
	FrameSet bool
	Seconds  float64
	TimeSet  bool
	Speed    float64
	SpeedSet bool
}

// ParseLogLine extracts frame count, output timestamp, and speed multiplier
// from a free-text engine stats line. Lines without any of the three fields
// return a zero Delta.
func ParseLogLine(line string) Delta {
	var d Delta
	if m := frameRe.FindStringSubmatch(line); m != nil {
		if frame, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			d.Frame = frame
			d.FrameSet = true
		}
	}
	if m := timeRe.FindStringSubmatch(line); m != nil {
		h, _ := strconv.Atoi(m[1])
		min, _ := strconv.Atoi(m[2])
		s, _ := strconv.Atoi(m[3])
		cs, _ := strconv.Atoi(m[4])
		d.Seconds = float64(h)*3600 + float64(min)*60 + float64(s) + float64(cs)/100
		d.TimeSet = true
	}
	if m := speedRe.FindStringSubmatch(line); m != nil {
		if speed, err := strconv.ParseFloat(m[1], 64); err == nil {
			d.Speed = speed
			d.SpeedSet = true
		}
	}
	return d
}

// progressTracker folds stats deltas into a non-decreasing progress stream.
// The percentage heuristics never claim more than 95 before completion; only
// the explicit finish call reaches 100.
type progressTracker struct {
	last    video.Progress
	onEvent video.ProgressFunc
}

func newProgressTracker(onEvent video.ProgressFunc) *progressTracker {
	return &progressTracker{onEvent: onEvent}
}

// observe folds one parsed delta in and emits an event when anything changed.
func (t *progressTracker) observe(d Delta, message string) {
	if !d.FrameSet && !d.TimeSet && !d.SpeedSet {
		return
	}

	next := t.last
	next.Message = message

	if d.TimeSet {
		next.Time = d.Seconds
		// Processed output time maps onto percent assuming roughly ten
		// minutes of media; capped so only completion reports 100.
		pct := (d.Seconds / 60) * 10
		if pct < 15 {
			pct = 15
		}
		if pct > 95 {
			pct = 95
		}
		next.Progress = pct
	} else if d.FrameSet {
		pct := 15 + float64(d.Frame)/1000*10
		if pct > 95 {
			pct = 95
		}
		next.Progress = pct
	}
	if d.FrameSet {
		next.FramesEncoded = d.Frame
	}
	if d.SpeedSet {
		next.Speed = strconv.FormatFloat(d.Speed, 'f', -1, 64) + "x"
	}

	// Monotonic: a stats line that decodes to a lower percentage never moves
	// the bar backwards.
	if next.Progress < t.last.Progress {
		next.Progress = t.last.Progress
	}
	t.emit(next)
}

// set reports an absolute percentage, still subject to monotonicity.
func (t *progressTracker) set(pct float64, message string) {
	next := t.last
	next.Message = message
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	if pct > next.Progress {
		next.Progress = pct
	}
	t.emit(next)
}

// frames reports frame-exact progress from a path that counts frames itself.
func (t *progressTracker) frames(encoded, total int64, pct float64, message string) {
	next := t.last
	next.Message = message
	next.FramesEncoded = encoded
	next.TotalFrames = total
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	if pct > next.Progress {
		next.Progress = pct
	}
	t.emit(next)
}

// finish emits the terminal 100% event.
func (t *progressTracker) finish(message string) {
	next := t.last
	next.Progress = 100
	next.Message = message
	t.emit(next)
}

func (t *progressTracker) emit(p video.Progress) {
	t.last = p
	if t.onEvent != nil {
		t.onEvent(p)
	}
}
