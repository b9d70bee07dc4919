package convert

import (
	"math"
	"testing"
	"testing/quick"

	"recompress/video"
)

func TestParseLogLine_Fixtures(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		frame int64
		secs  float64
		speed float64
	}{
		{
			name:  "full stats line",
			line:  "frame=  240 fps= 30 q=28.0 size=    1024kB time=00:00:08.00 bitrate=1048.6kbits/s speed=1.02x",
			frame: 240, secs: 8, speed: 1.02,
		},
		{
			name: "time only",
			line: "size=    2048kB time=00:01:30.50 bitrate= 185.9kbits/s",
			secs: 90.5,
		},
		{
			name:  "frame only",
			line:  "frame= 1200 q=31.0",
			frame: 1200,
		},
		{
			name: "hours",
			line: "time=01:02:03.04",
			secs: 3723.04,
		},
		{
			name: "banner noise",
			line: "Stream #0:0(und): Video: h264 (High), yuv420p, 1920x1080",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := ParseLogLine(tc.line)
			if d.FrameSet != (tc.frame > 0) || d.Frame != tc.frame {
				t.Errorf("frame = %d (set=%v), want %d", d.Frame, d.FrameSet, tc.frame)
			}
			if d.TimeSet != (tc.secs > 0) || math.Abs(d.Seconds-tc.secs) > 1e-9 {
				t.Errorf("seconds = %f (set=%v), want %f", d.Seconds, d.TimeSet, tc.secs)
			}
			if d.SpeedSet != (tc.speed > 0) || math.Abs(d.Speed-tc.speed) > 1e-9 {
				t.Errorf("speed = %f (set=%v), want %f", d.Speed, d.SpeedSet, tc.speed)
			}
		})
	}
}

// Property: the emitted progress stream is non-decreasing and bounded to
// [0, 100] no matter what order stats lines arrive in.
func TestTracker_Monotonic(t *testing.T) {
	f := func(frames []uint16, secs []uint16) bool {
		var events []video.Progress
		tracker := newProgressTracker(func(p video.Progress) {
			events = append(events, p)
		})

		for _, fr := range frames {
			tracker.observe(Delta{Frame: int64(fr), FrameSet: true}, "Converting")
		}
		for _, s := range secs {
			tracker.observe(Delta{Seconds: float64(s), TimeSet: true}, "Converting")
		}
		tracker.finish("Done")

		last := -1.0
		for _, e := range events {
			if e.Progress < last || e.Progress < 0 || e.Progress > 100 {
				return false
			}
			last = e.Progress
		}
		return len(events) > 0 && events[len(events)-1].Progress == 100
	}
	if err := quick.Check(f, &quick.Config{MaxCount: 300}); err != nil {
		t.Error(err)
	}
}

func TestTracker_TimeHeuristic(t *testing.T) {
	var last video.Progress
	tracker := newProgressTracker(func(p video.Progress) { last = p })

	// Early output time still reports the 15% floor.
	tracker.observe(Delta{Seconds: 10, TimeSet: true}, "Converting")
	if last.Progress != 15 {
		t.Errorf("early time progress = %f, want 15", last.Progress)
	}

	// Six minutes of output maps to 60%.
	tracker.observe(Delta{Seconds: 360, TimeSet: true}, "Converting")
	if last.Progress != 60 {
		t.Errorf("mid time progress = %f, want 60", last.Progress)
	}

	// The heuristic never claims completion.
	tracker.observe(Delta{Seconds: 6000, TimeSet: true}, "Converting")
	if last.Progress != 95 {
		t.Errorf("late time progress = %f, want 95", last.Progress)
	}
}

func TestTracker_FrameHeuristic(t *testing.T) {
	var last video.Progress
	tracker := newProgressTracker(func(p video.Progress) { last = p })

	tracker.observe(Delta{Frame: 500, FrameSet: true}, "Converting")
	if last.Progress != 20 {
		t.Errorf("frame progress = %f, want 20", last.Progress)
	}
	if last.FramesEncoded != 500 {
		t.Errorf("frames encoded = %d, want 500", last.FramesEncoded)
	}

	tracker.observe(Delta{Frame: 100000, FrameSet: true}, "Converting")
	if last.Progress != 95 {
		t.Errorf("capped frame progress = %f, want 95", last.Progress)
	}
}

func TestTracker_TimeWinsOverFrames(t *testing.T) {
	var last video.Progress
	tracker := newProgressTracker(func(p video.Progress) { last = p })

	// A line carrying both uses the time mapping.
	tracker.observe(Delta{Frame: 100, FrameSet: true, Seconds: 360, TimeSet: true}, "Converting")
	if last.Progress != 60 {
		t.Errorf("combined line progress = %f, want 60 (time-based)", last.Progress)
	}
	if last.FramesEncoded != 100 {
		t.Errorf("frames encoded = %d, want 100", last.FramesEncoded)
	}
}

func TestTracker_IgnoresEmptyDelta(t *testing.T) {
	calls := 0
	tracker := newProgressTracker(func(video.Progress) { calls++ })
	tracker.observe(Delta{}, "Converting")
	if calls != 0 {
		t.Errorf("empty delta emitted %d events, want 0", calls)
	}
}
