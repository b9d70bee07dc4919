// Package config holds the static catalog of named compression presets and
// the optional YAML overlay that lets users extend or override it.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"recompress/video"
)

// Category groups presets by the kind of source material.
type Category string

const (
	CategoryMovie    Category = "movie"
	CategoryAnime    Category = "anime"
	CategoryTutorial Category = "tutorial"
	CategoryGaming   Category = "gaming"
	CategoryWebcam   Category = "webcam"
	CategoryVHS      Category = "vhs"
	CategoryNature   Category = "nature"
)

// Categories returns all preset categories in display order.
func Categories() []Category {
	return []Category{
		CategoryMovie, CategoryAnime, CategoryTutorial, CategoryGaming,
		CategoryWebcam, CategoryVHS, CategoryNature,
	}
}

// CategoryName returns a human-readable category label.
func CategoryName(c Category) string {
	switch c {
	case CategoryMovie:
		return "Movies / Series"
	case CategoryAnime:
		return "Anime / Cartoon"
	case CategoryTutorial:
		return "Tutorial / Screen capture"
	case CategoryGaming:
		return "Gaming"
	case CategoryWebcam:
		return "Webcam / Talking head"
	case CategoryVHS:
		return "Old video / VHS"
	case CategoryNature:
		return "Nature / 4K-8K"
	default:
		return string(c)
	}
}

// Quality is the speed/quality tier within a category.
type Quality string

const (
	QualityBalanced Quality = "balanced"
	QualityMax      Quality = "quality"
	QualityFast     Quality = "fast"
)

// Preset is one named speed/quality tradeoff. Read-only input to the
// estimation model; the catalog owns the data, not the logic.
type Preset struct {
	ID           string   `yaml:"id"`
	Category     Category `yaml:"category"`
	Quality      Quality  `yaml:"quality"`
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description,omitempty"`
	Codec        string   `yaml:"codec"` // av1|h265|h264|vp9|hevc_nvenc|hevc_amf
	CRF          int      `yaml:"crf,omitempty"`
	CQ           int      `yaml:"cq,omitempty"` // NVENC/AMF rate control
	Speed        Speed    `yaml:"speed,omitempty"`
	PixelFormat  string   `yaml:"pixel_format"`
	AudioCodec   string   `yaml:"audio_codec"`
	AudioBitrate int      `yaml:"audio_bitrate"` // kbps
	VideoFilters string   `yaml:"video_filters,omitempty"`
}

// Family maps the preset's encoder-level codec onto the supported codec
// families. Hardware HEVC variants fold into h265.
func (p Preset) Family() video.Codec {
	switch p.Codec {
	case "h264":
		return video.CodecH264
	case "vp9":
		return video.CodecVP9
	case "av1":
		return video.CodecAV1
	default: // h265, hevc_nvenc, hevc_amf
		return video.CodecH265
	}
}

// CRFValue returns the constant-quality value, whichever field carries it.
func (p Preset) CRFValue() int {
	if p.CRF > 0 {
		return p.CRF
	}
	if p.CQ > 0 {
		return p.CQ
	}
	return 26
}

// Speed is a preset speed token. AV1 presets use numeric levels (0-8, higher
// is faster), x264/x265 use named tokens; YAML accepts either form.
type Speed struct {
	Token string
	Level int
	IsNum bool
}

func (s *Speed) UnmarshalYAML(value *yaml.Node) error {
	var level int
	if err := value.Decode(&level); err == nil {
		*s = Speed{Level: level, IsNum: true}
		return nil
	}
	var token string
	if err := value.Decode(&token); err != nil {
		return fmt.Errorf("speed must be a number or a token: %w", err)
	}
	*s = Speed{Token: token}
	return nil
}

func (s Speed) MarshalYAML() (interface{}, error) {
	if s.IsNum {
		return s.Level, nil
	}
	return s.Token, nil
}

var namedSpeeds = map[string]bool{
	"ultrafast": true, "superfast": true, "veryfast": true, "faster": true,
	"fast": true, "medium": true, "slow": true, "slower": true, "veryslow": true,
}

// Normalized converts the token to the x264-style scale used by the
// estimation model and command renderer. Numeric AV1 levels map onto the
// named scale; unrecognized tokens fall back to medium.
func (s Speed) Normalized() string {
	if s.IsNum {
		switch {
		case s.Level <= 2:
			return "veryslow"
		case s.Level <= 3:
			return "slower"
		case s.Level <= 4:
			return "slow"
		case s.Level <= 5:
			return "medium"
		case s.Level <= 6:
			return "fast"
		default:
			return "veryfast"
		}
	}
	if namedSpeeds[s.Token] {
		return s.Token
	}
	return "medium"
}

func num(level int) Speed { return Speed{Level: level, IsNum: true} }
func tok(token string) Speed { return Speed{Token: token} }

// Catalog returns the built-in preset table.
func Catalog() []Preset {
	return []Preset{
		{ID: "movie-balanced", Category: CategoryMovie, Quality: QualityBalanced,
			Name: "Movie - Balanced", Description: "Live action, dark scenes, high detail",
			Codec: "av1", CRF: 26, Speed: num(5), PixelFormat: "yuv420p10le",
			AudioCodec: "libopus", AudioBitrate: 128},
		{ID: "movie-quality", Category: CategoryMovie, Quality: QualityMax,
			Name: "Movie - Max quality", Description: "Near archive quality",
			Codec: "av1", CRF: 22, Speed: num(3), PixelFormat: "yuv420p10le",
			AudioCodec: "libopus", AudioBitrate: 128},
		{ID: "movie-fast", Category: CategoryMovie, Quality: QualityFast,
			Name: "Movie - Fast", Description: "HEVC when AV1 is too slow",
			Codec: "h265", CRF: 24, Speed: tok("medium"), PixelFormat: "yuv420p10le",
			AudioCodec: "libopus", AudioBitrate: 128},

		{ID: "anime-balanced", Category: CategoryAnime, Quality: QualityBalanced,
			Name: "Anime - Balanced", Description: "Flat colors and lineart compress best with AV1 10-bit",
			Codec: "av1", CRF: 28, Speed: num(5), PixelFormat: "yuv420p10le",
			AudioCodec: "libopus", AudioBitrate: 128},
		{ID: "anime-quality", Category: CategoryAnime, Quality: QualityMax,
			Name: "Anime - Max quality",
			Codec: "av1", CRF: 24, Speed: num(3), PixelFormat: "yuv420p10le",
			AudioCodec: "libopus", AudioBitrate: 128},
		{ID: "anime-fast", Category: CategoryAnime, Quality: QualityFast,
			Name: "Anime - Fast", Description: "HEVC 10-bit; H.264 causes banding here",
			Codec: "h265", CRF: 26, Speed: tok("medium"), PixelFormat: "yuv420p10le",
			AudioCodec: "libopus", AudioBitrate: 128},

		{ID: "tutorial-balanced", Category: CategoryTutorial, Quality: QualityBalanced,
			Name: "Tutorial - Balanced", Description: "High-sharpness screen content",
			Codec: "av1", CRF: 30, Speed: num(5), PixelFormat: "yuv420p",
			AudioCodec: "libopus", AudioBitrate: 96},
		{ID: "tutorial-quality", Category: CategoryTutorial, Quality: QualityMax,
			Name: "Tutorial - Max quality",
			Codec: "av1", CRF: 26, Speed: num(3), PixelFormat: "yuv420p",
			AudioCodec: "libopus", AudioBitrate: 96},
		{ID: "tutorial-fast", Category: CategoryTutorial, Quality: QualityFast,
			Name: "Tutorial - Fast",
			Codec: "h265", CRF: 28, Speed: tok("fast"), PixelFormat: "yuv420p",
			AudioCodec: "libopus", AudioBitrate: 96},

		{ID: "gaming-balanced", Category: CategoryGaming, Quality: QualityBalanced,
			Name: "Gaming - Balanced", Description: "Hardware HEVC for fast turnaround",
			Codec: "hevc_nvenc", CQ: 23, Speed: tok("p5"), PixelFormat: "p010le",
			AudioCodec: "libopus", AudioBitrate: 128},
		{ID: "gaming-quality", Category: CategoryGaming, Quality: QualityMax,
			Name: "Gaming - Max quality", Description: "AV1, can be very slow",
			Codec: "av1", CRF: 26, Speed: num(4), PixelFormat: "yuv420p10le",
			AudioCodec: "libopus", AudioBitrate: 128},
		{ID: "gaming-fast", Category: CategoryGaming, Quality: QualityFast,
			Name: "Gaming - Fast",
			Codec: "hevc_nvenc", CQ: 25, Speed: tok("p4"), PixelFormat: "p010le",
			AudioCodec: "libopus", AudioBitrate: 128},

		{ID: "webcam-balanced", Category: CategoryWebcam, Quality: QualityBalanced,
			Name: "Webcam - Balanced", Description: "Low-motion content compresses easily",
			Codec: "av1", CRF: 28, Speed: num(5), PixelFormat: "yuv420p",
			AudioCodec: "libopus", AudioBitrate: 96},
		{ID: "webcam-quality", Category: CategoryWebcam, Quality: QualityMax,
			Name: "Webcam - Max quality",
			Codec: "av1", CRF: 24, Speed: num(3), PixelFormat: "yuv420p10le",
			AudioCodec: "libopus", AudioBitrate: 96},
		{ID: "webcam-fast", Category: CategoryWebcam, Quality: QualityFast,
			Name: "Webcam - Fast",
			Codec: "h265", CRF: 26, Speed: tok("fast"), PixelFormat: "yuv420p",
			AudioCodec: "libopus", AudioBitrate: 96},

		{ID: "vhs-balanced", Category: CategoryVHS, Quality: QualityBalanced,
			Name: "VHS - Balanced", Description: "HEVC handles noisy sources well",
			Codec: "h265", CRF: 27, Speed: tok("medium"), PixelFormat: "yuv420p",
			AudioCodec: "aac", AudioBitrate: 128},
		{ID: "vhs-quality", Category: CategoryVHS, Quality: QualityMax,
			Name: "VHS - Max quality", Description: "Denoise plus AV1",
			Codec: "av1", CRF: 26, Speed: num(4), PixelFormat: "yuv420p10le",
			AudioCodec: "aac", AudioBitrate: 128, VideoFilters: "hqdn3d=1.5:1.5:6:6"},
		{ID: "vhs-fast", Category: CategoryVHS, Quality: QualityFast,
			Name: "VHS - Fast",
			Codec: "h265", CRF: 30, Speed: tok("fast"), PixelFormat: "yuv420p",
			AudioCodec: "aac", AudioBitrate: 128},

		{ID: "nature-balanced", Category: CategoryNature, Quality: QualityBalanced,
			Name: "Nature - Balanced", Description: "Highly detailed 4K/8K footage",
			Codec: "av1", CRF: 28, Speed: num(5), PixelFormat: "yuv420p10le",
			AudioCodec: "libopus", AudioBitrate: 128},
		{ID: "nature-quality", Category: CategoryNature, Quality: QualityMax,
			Name: "Nature - Max quality",
			Codec: "av1", CRF: 24, Speed: num(3), PixelFormat: "yuv420p10le",
			AudioCodec: "libopus", AudioBitrate: 128},
		{ID: "nature-fast", Category: CategoryNature, Quality: QualityFast,
			Name: "Nature - Fast",
			Codec: "h265", CRF: 26, Speed: tok("medium"), PixelFormat: "yuv420p10le",
			AudioCodec: "libopus", AudioBitrate: 128},
	}
}

// ByID finds a preset by ID in the given catalog.
func ByID(presets []Preset, id string) (Preset, bool) {
	for _, p := range presets {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

// ByCategory filters presets by category, preserving order.
func ByCategory(presets []Preset, c Category) []Preset {
	var out []Preset
	for _, p := range presets {
		if p.Category == c {
			out = append(out, p)
		}
	}
	return out
}

// Find returns the preset for a category/quality pair.
func Find(presets []Preset, c Category, q Quality) (Preset, bool) {
	for _, p := range presets {
		if p.Category == c && p.Quality == q {
			return p, true
		}
	}
	return Preset{}, false
}

// LoadOverlay reads a YAML preset file and merges it over the built-in
// catalog: same-ID entries replace, new entries append.
func LoadOverlay(path string) ([]Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read preset overlay: %w", err)
	}

	var overlay struct {
		Presets []Preset `yaml:"presets"`
	}
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("parse preset overlay: %w", err)
	}

	catalog := Catalog()
	for _, p := range overlay.Presets {
		if p.ID == "" {
			return nil, fmt.Errorf("preset overlay entry missing id")
		}
		replaced := false
		for i := range catalog {
			if catalog[i].ID == p.ID {
				catalog[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			catalog = append(catalog, p)
		}
	}
	return catalog, nil
}
