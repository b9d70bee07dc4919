package estimate

import (
	"fmt"
	"sort"

	"recompress/config"
	"recompress/video"
)

// Recommendation is one re-encoding proposal. Immutable once returned;
// a changed preset selection replaces the whole list, never mutates it.
type Recommendation struct {
	Codec                   video.Codec
	CodecName               string
	Bitrate                 float64 // bps
	CRF                     *int    // h264/h265 scale (~0-51)
	Quality                 *int    // vp9/av1 scale (~0-63)
	Preset                  string
	Resolution              Resolution
	EstimatedSize           float64 // bytes
	EstimatedSavings        float64 // bytes, may be negative
	EstimatedSavingsPercent float64
	EstimatedTime           float64 // seconds
	Command                 string
	Explanation             string
	AudioCodec              string
	AudioBitrate            int // kbps
}

// QualityValue returns whichever constant-quality field is meaningful for the
// codec family.
func (r Recommendation) QualityValue() (int, bool) {
	if r.CRF != nil {
		return *r.CRF, true
	}
	if r.Quality != nil {
		return *r.Quality, true
	}
	return 0, false
}

// Recommend runs the full four-codec sweep over the metadata and returns the
// proposals sorted descending by estimated savings percent; index 0 is the
// best recommendation.
func Recommend(meta *video.Metadata) []Recommendation {
	recs := make([]Recommendation, 0, len(codecTable))
	for _, info := range codecTable {
		recs = append(recs, recommendFor(info, meta))
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].EstimatedSavingsPercent > recs[j].EstimatedSavingsPercent
	})
	return recs
}

// RecommendWithPreset prepends a preset-derived proposal to the sweep. The
// preset's fixed codec/crf/speed values bypass the sweep's heuristic bitrate
// choice entirely.
func RecommendWithPreset(meta *video.Metadata, preset *config.Preset) []Recommendation {
	if preset == nil {
		return Recommend(meta)
	}
	return append([]Recommendation{FromPreset(*preset, meta)}, Recommend(meta)...)
}

func recommendFor(info CodecInfo, meta *video.Metadata) Recommendation {
	bitrate := OptimalBitrate(meta.Width, meta.Height, meta.Framerate, info, meta.Bitrate)
	crf := OptimalCRF(info.Codec)
	preset := OptimalPreset(meta.FileSize)
	resolution := OptimalResolution(meta.Width, meta.Height, info.Codec)

	adjustedBitrate := bitrate * CRFSizeFactor(crf)
	audioBitrate := meta.AudioBitrate
	estimatedSize := EstimateSize(adjustedBitrate, meta.Duration, audioBitrate)
	savings := float64(meta.FileSize) - estimatedSize
	savingsPercent := savings / float64(meta.FileSize) * 100
	estimatedTime := EstimateEncodeTime(meta.Duration, preset, info.EncodingSpeed)

	rec := Recommendation{
		Codec:                   info.Codec,
		CodecName:               info.Name,
		Bitrate:                 bitrate,
		Preset:                  preset,
		Resolution:              resolution,
		EstimatedSize:           estimatedSize,
		EstimatedSavings:        savings,
		EstimatedSavingsPercent: savingsPercent,
		EstimatedTime:           estimatedTime,
		AudioCodec:              defaultAudioCodec(info.Codec, meta.AudioCodec),
		AudioBitrate:            audioKbps(audioBitrate),
	}
	switch info.Codec {
	case video.CodecH264, video.CodecH265:
		rec.CRF = &crf
	default:
		rec.Quality = &crf
	}
	rec.Command = Command(meta.Filename, rec)
	rec.Explanation = explain(info, rec)
	return rec
}

// FromPreset converts a named preset into a recommendation against the given
// metadata, estimating bitrate from the preset's CRF.
func FromPreset(p config.Preset, meta *video.Metadata) Recommendation {
	family := p.Family()
	info, _ := CodecByFamily(family)
	crf := p.CRFValue()
	speed := p.Speed.Normalized()

	bitrate := BitrateFromCRF(meta.Width, meta.Height, meta.Framerate, crf, family)
	estimatedSize := EstimateSize(bitrate, meta.Duration, float64(p.AudioBitrate)*1000)
	savings := float64(meta.FileSize) - estimatedSize
	savingsPercent := savings / float64(meta.FileSize) * 100

	estimatedTime := EstimateEncodeTime(meta.Duration, speed, info.EncodingSpeed)
	if p.Codec == "hevc_nvenc" || p.Codec == "hevc_amf" {
		// Hardware encoders run far faster than the software speed class.
		estimatedTime *= 0.3
	}

	rec := Recommendation{
		Codec:     family,
		CodecName: info.Name,
		Bitrate:   bitrate,
		Preset:    speed,
		Resolution: Resolution{
			Width: meta.Width, Height: meta.Height, Scale: ScaleOriginal,
		},
		EstimatedSize:           estimatedSize,
		EstimatedSavings:        savings,
		EstimatedSavingsPercent: savingsPercent,
		EstimatedTime:           estimatedTime,
		AudioCodec:              p.AudioCodec,
		AudioBitrate:            p.AudioBitrate,
	}
	switch family {
	case video.CodecH264, video.CodecH265:
		rec.CRF = &crf
	default:
		rec.Quality = &crf
	}
	rec.Command = Command(meta.Filename, rec)

	tier := "balanced"
	switch p.Quality {
	case config.QualityMax:
		tier = "maximum quality"
	case config.QualityFast:
		tier = "fast"
	}
	rec.Explanation = fmt.Sprintf(
		"The %s preset targets %s settings for %s content. Actual encoding time depends on the video length.",
		p.Name, tier, config.CategoryName(p.Category))
	return rec
}

func explain(info CodecInfo, rec Recommendation) string {
	s := fmt.Sprintf("Using the %s codec ", info.Name)
	if rec.EstimatedSavingsPercent > 0 {
		s += fmt.Sprintf("you can save roughly %.1f%% of the file size. ", rec.EstimatedSavingsPercent)
	} else {
		s += "you can optimize the file size. "
	}
	if info.Codec == video.CodecH265 || info.Codec == video.CodecAV1 {
		s += "As a modern codec it offers a better compression ratio. "
	}
	if rec.Resolution.Scale == ScaleDownscale {
		s += fmt.Sprintf("A resolution of %dx%d is recommended. ", rec.Resolution.Width, rec.Resolution.Height)
	}
	s += "Encoding time scales with the video duration."
	return s
}

func defaultAudioCodec(codec video.Codec, sourceAudio string) string {
	if codec == video.CodecAV1 || codec == video.CodecVP9 {
		return "libopus"
	}
	if sourceAudio != "" {
		return sourceAudio
	}
	return "aac"
}

func audioKbps(bps float64) int {
	if bps <= 0 {
		return 128
	}
	return int(bps/1000 + 0.5)
}
