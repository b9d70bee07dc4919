package estimate

import (
	"sort"
	"strings"
	"testing"
	"testing/quick"

	"recompress/config"
	"recompress/video"
)

func sampleMeta() *video.Metadata {
	return &video.Metadata{
		Filename:  "vacation.mp4",
		FileSize:  300 * 1024 * 1024,
		Duration:  600,
		Width:     1920,
		Height:    1080,
		Bitrate:   4_000_000,
		Codec:     "h264",
		CodecName: "H.264",
		Framerate: 30,
	}
}

func TestRecommend_SweepsAllCodecs(t *testing.T) {
	recs := Recommend(sampleMeta())
	if len(recs) != 4 {
		t.Fatalf("Recommend returned %d entries, want 4", len(recs))
	}

	seen := map[video.Codec]bool{}
	for _, r := range recs {
		seen[r.Codec] = true
	}
	for _, c := range video.Codecs() {
		if !seen[c] {
			t.Errorf("sweep missing codec %s", c)
		}
	}
}

func TestRecommend_SortedBySavings(t *testing.T) {
	recs := Recommend(sampleMeta())
	sorted := sort.SliceIsSorted(recs, func(i, j int) bool {
		return recs[i].EstimatedSavingsPercent > recs[j].EstimatedSavingsPercent
	})
	if !sorted {
		t.Error("recommendations not sorted descending by savings percent")
	}
}

// Property: every recommendation carries a non-empty command and explanation
// and exactly one constant-quality value.
func TestRecommend_Complete(t *testing.T) {
	f := func(w, h uint16, dur uint16) bool {
		meta := sampleMeta()
		meta.Width = int(w%3840) + 16
		meta.Height = int(h%2160) + 16
		meta.Duration = float64(dur%7200) + 1
		for _, r := range Recommend(meta) {
			if r.Command == "" || r.Explanation == "" {
				return false
			}
			if r.CRF != nil && r.Quality != nil {
				return false
			}
			if _, ok := r.QualityValue(); !ok {
				return false
			}
			if r.EstimatedSize <= 0 || r.EstimatedTime <= 0 {
				return false
			}
		}
		return true
	}
	if err := quick.Check(f, &quick.Config{MaxCount: 200}); err != nil {
		t.Error(err)
	}
}

func TestRecommend_QualityFieldByFamily(t *testing.T) {
	for _, r := range Recommend(sampleMeta()) {
		switch r.Codec {
		case video.CodecH264, video.CodecH265:
			if r.CRF == nil || r.Quality != nil {
				t.Errorf("%s: want CRF set, Quality nil", r.Codec)
			}
		default:
			if r.Quality == nil || r.CRF != nil {
				t.Errorf("%s: want Quality set, CRF nil", r.Codec)
			}
		}
	}
}

func TestRecommendWithPreset_Prepends(t *testing.T) {
	catalog := config.Catalog()
	preset, ok := config.ByID(catalog, "anime-quality")
	if !ok {
		t.Fatal("anime-quality preset missing from catalog")
	}

	recs := RecommendWithPreset(sampleMeta(), &preset)
	if len(recs) != 5 {
		t.Fatalf("RecommendWithPreset returned %d entries, want 5", len(recs))
	}
	first := recs[0]
	if first.Codec != video.CodecAV1 {
		t.Errorf("preset recommendation codec = %s, want av1", first.Codec)
	}
	if q, ok := first.QualityValue(); !ok || q != 24 {
		t.Errorf("preset recommendation quality = %d, want 24", q)
	}
	if !strings.Contains(first.Explanation, preset.Name) {
		t.Errorf("explanation %q does not name the preset", first.Explanation)
	}
}

func TestRecommendWithPreset_NilPassesThrough(t *testing.T) {
	if got := RecommendWithPreset(sampleMeta(), nil); len(got) != 4 {
		t.Errorf("nil preset returned %d entries, want 4", len(got))
	}
}

func TestFromPreset_HardwareTimeDiscount(t *testing.T) {
	catalog := config.Catalog()
	hw, _ := config.ByID(catalog, "gaming-balanced") // hevc_nvenc
	sw, _ := config.ByID(catalog, "movie-fast")      // software h265
	sw.Speed = hw.Speed
	meta := sampleMeta()

	hwRec := FromPreset(hw, meta)
	swRec := FromPreset(sw, meta)
	if hwRec.EstimatedTime >= swRec.EstimatedTime {
		t.Errorf("hardware preset time %f not faster than software %f",
			hwRec.EstimatedTime, swRec.EstimatedTime)
	}
}
