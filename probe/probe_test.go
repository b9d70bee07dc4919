package probe

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recompress/engine"
	"recompress/video"
)

// fakeEngine emits a canned banner for probe exec calls and fails thumbnail
// reads, keeping the chain on its metadata tiers.
type fakeEngine struct {
	banner  []string
	writes  []string
	removes []string
}

func (f *fakeEngine) WriteInput(name string, data []byte) error {
	f.writes = append(f.writes, name)
	return nil
}

func (f *fakeEngine) ReadOutput(name string) ([]byte, error) {
	return nil, os.ErrNotExist
}

func (f *fakeEngine) Remove(name string) {
	f.removes = append(f.removes, name)
}

func (f *fakeEngine) Exec(ctx context.Context, args []string, onLog func(string)) error {
	if onLog != nil {
		for _, line := range f.banner {
			onLog(line)
		}
	}
	return nil
}

func tempFile(t *testing.T, name string, size int) video.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o600))
	return video.File{Path: path, Name: name, Size: int64(size), MIME: "video/mp4"}
}

// The temp file is not a real video, so the native tier fails and the chain
// falls through to the engine banner.
func TestProbe_EngineTierFallback(t *testing.T) {
	eng := &fakeEngine{banner: bannerLines}
	chain := NewChain(eng, nil)

	file := tempFile(t, "input.mp4", 4096)
	meta, err := chain.Probe(context.Background(), file)
	require.NoError(t, err)

	assert.Equal(t, 1920, meta.Width)
	assert.InDelta(t, 630.5, meta.Duration, 1e-9)
	// Every staged file, probe input and thumbnail alike, was cleaned up.
	require.NotEmpty(t, eng.writes)
	for _, staged := range eng.writes {
		assert.Contains(t, eng.removes, staged)
	}
}

// An engine that emits nothing means tier 2 fails too; synthesis still
// delivers usable metadata.
func TestProbe_SynthesisFallback(t *testing.T) {
	eng := &fakeEngine{banner: nil}
	chain := NewChain(eng, nil)

	file := tempFile(t, "clip_720p.mp4", 2_000_000)
	meta, err := chain.Probe(context.Background(), file)
	require.NoError(t, err)

	assert.Equal(t, 1280, meta.Width)
	assert.Equal(t, 720, meta.Height)
	assert.True(t, meta.Usable())
}

// A banner without resolution fails tier 2 the same way as no banner.
func TestProbe_BadBannerSynthesizes(t *testing.T) {
	eng := &fakeEngine{banner: []string{"  Duration: 00:01:00.00, bitrate: 900 kb/s"}}
	chain := NewChain(eng, nil)

	file := tempFile(t, "clip.mp4", 1_000_000)
	meta, err := chain.Probe(context.Background(), file)
	require.NoError(t, err)
	assert.Equal(t, 1920, meta.Width)
}

// Oversize files skip the engine tier entirely.
func TestProbe_OversizeSkipsEngine(t *testing.T) {
	eng := &fakeEngine{banner: bannerLines}
	chain := NewChain(eng, nil)

	file := video.File{
		Path: "/nonexistent/big.mp4",
		Name: "big_1080p.mp4",
		Size: engine.MaxInputSize + 1,
	}
	meta, err := chain.Probe(context.Background(), file)
	require.NoError(t, err)

	assert.Empty(t, eng.writes, "engine must not be touched for oversize input")
	assert.Equal(t, 1920, meta.Width)
	assert.True(t, meta.Usable())
}

func TestFacts_FailsWithoutNativeTier(t *testing.T) {
	chain := NewChain(&fakeEngine{}, nil)
	file := tempFile(t, "input.mp4", 4096)
	_, err := chain.Facts(context.Background(), file)
	assert.Error(t, err, "Facts has no fallback tiers")
}
