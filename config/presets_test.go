package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"recompress/video"
)

func TestCatalog_Complete(t *testing.T) {
	catalog := Catalog()
	assert.Len(t, catalog, 21, "seven categories, three tiers each")

	seen := map[string]bool{}
	for _, p := range catalog {
		assert.NotEmpty(t, p.ID)
		assert.NotEmpty(t, p.Name)
		assert.False(t, seen[p.ID], "duplicate preset id %s", p.ID)
		seen[p.ID] = true
		assert.Greater(t, p.CRFValue(), 0)
		assert.NotEmpty(t, p.AudioCodec)
	}

	for _, cat := range Categories() {
		for _, q := range []Quality{QualityBalanced, QualityMax, QualityFast} {
			_, ok := Find(catalog, cat, q)
			assert.True(t, ok, "missing %s/%s", cat, q)
		}
	}
}

func TestPresetFamily(t *testing.T) {
	tests := []struct {
		codec string
		want  video.Codec
	}{
		{"av1", video.CodecAV1},
		{"h265", video.CodecH265},
		{"hevc_nvenc", video.CodecH265},
		{"hevc_amf", video.CodecH265},
		{"h264", video.CodecH264},
		{"vp9", video.CodecVP9},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Preset{Codec: tc.codec}.Family(), "Family(%s)", tc.codec)
	}
}

func TestSpeedNormalized(t *testing.T) {
	tests := []struct {
		speed Speed
		want  string
	}{
		{Speed{Level: 2, IsNum: true}, "veryslow"},
		{Speed{Level: 3, IsNum: true}, "slower"},
		{Speed{Level: 4, IsNum: true}, "slow"},
		{Speed{Level: 5, IsNum: true}, "medium"},
		{Speed{Level: 6, IsNum: true}, "fast"},
		{Speed{Level: 8, IsNum: true}, "veryfast"},
		{Speed{Token: "slow"}, "slow"},
		{Speed{Token: "p5"}, "medium"},
		{Speed{Token: ""}, "medium"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, tc.speed.Normalized())
	}
}

func TestSpeedYAML_RoundTrip(t *testing.T) {
	for _, s := range []Speed{{Level: 4, IsNum: true}, {Token: "medium"}} {
		data, err := yaml.Marshal(s)
		require.NoError(t, err)

		var back Speed
		require.NoError(t, yaml.Unmarshal(data, &back))
		assert.Equal(t, s, back)
	}
}

const overlayYAML = `
presets:
  - id: movie-balanced
    category: movie
    quality: balanced
    name: Movie - Balanced (tweaked)
    codec: h265
    crf: 22
    speed: slow
    pixel_format: yuv420p10le
    audio_codec: libopus
    audio_bitrate: 160
  - id: drone-footage
    category: nature
    quality: balanced
    name: Drone footage
    codec: av1
    crf: 27
    speed: 5
    pixel_format: yuv420p10le
    audio_codec: libopus
    audio_bitrate: 96
`

func TestLoadOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(overlayYAML), 0o600))

	catalog, err := LoadOverlay(path)
	require.NoError(t, err)
	assert.Len(t, catalog, 22, "one replaced, one appended")

	replaced, ok := ByID(catalog, "movie-balanced")
	require.True(t, ok)
	assert.Equal(t, "h265", replaced.Codec)
	assert.Equal(t, 22, replaced.CRF)
	assert.Equal(t, 160, replaced.AudioBitrate)
	assert.Equal(t, "slow", replaced.Speed.Normalized())

	added, ok := ByID(catalog, "drone-footage")
	require.True(t, ok)
	assert.Equal(t, video.CodecAV1, added.Family())
	assert.True(t, added.Speed.IsNum)
	assert.Equal(t, "medium", added.Speed.Normalized())
}

func TestLoadOverlay_MissingID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("presets:\n  - name: nameless\n    codec: av1\n"), 0o600))

	_, err := LoadOverlay(path)
	assert.ErrorContains(t, err, "missing id")
}

func TestLoadOverlay_BadFile(t *testing.T) {
	_, err := LoadOverlay(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("presets: {not a list"), 0o600))
	_, err = LoadOverlay(path)
	assert.Error(t, err)
}
