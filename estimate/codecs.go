package estimate

import "recompress/video"

// SpeedClass buckets codecs by how expensive their encoders are.
type SpeedClass string

const (
	SpeedFast   SpeedClass = "fast"
	SpeedMedium SpeedClass = "medium"
	SpeedSlow   SpeedClass = "slow"
)

// CodecInfo is the per-codec constant table driving the estimation model.
// CompressionRatio is the assumed efficiency multiplier relative to the H.264
// baseline; it is used for estimation only, never enforced during encoding.
type CodecInfo struct {
	Name             string
	Codec            video.Codec
	CompressionRatio float64
	ExtraFactor      float64 // additional bitrate reduction layered on the ratio
	EncodingSpeed    SpeedClass
	ReferenceCRF     int // equivalent-visual-quality operating point
}

var codecTable = []CodecInfo{
	{
		Name:             "H.264 (AVC)",
		Codec:            video.CodecH264,
		CompressionRatio: 1.0,
		ExtraFactor:      1.1,
		EncodingSpeed:    SpeedFast,
		ReferenceCRF:     26,
	},
	{
		Name:             "H.265 (HEVC)",
		Codec:            video.CodecH265,
		CompressionRatio: 1.5,
		ExtraFactor:      1.2,
		EncodingSpeed:    SpeedMedium,
		ReferenceCRF:     30,
	},
	{
		Name:             "VP9",
		Codec:            video.CodecVP9,
		CompressionRatio: 1.3,
		ExtraFactor:      1.15,
		EncodingSpeed:    SpeedSlow,
		ReferenceCRF:     36,
	},
	{
		Name:             "AV1",
		Codec:            video.CodecAV1,
		CompressionRatio: 1.8,
		ExtraFactor:      1.3,
		EncodingSpeed:    SpeedSlow,
		ReferenceCRF:     40,
	},
}

// Codecs returns the constant table in sweep order.
func Codecs() []CodecInfo {
	return codecTable
}

// CodecByFamily looks a codec family up in the table.
func CodecByFamily(c video.Codec) (CodecInfo, bool) {
	for _, info := range codecTable {
		if info.Codec == c {
			return info, true
		}
	}
	return CodecInfo{}, false
}
