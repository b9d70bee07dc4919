package engine

import (
	"regexp"
	"strings"
	"syscall"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"video.mp4", "video.mp4"},
		{"My Holiday Video.mp4", "My_Holiday_Video.mp4"},
		{"weird@#$chars!.mkv", "weird_chars_.mkv"},
		{"a___b.mp4", "a_b.mp4"},
		{"../../etc/passwd", "passwd"},
		{"tabs\tand\nnewlines.mp4", "tabs_and_newlines.mp4"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, SanitizeName(tc.in), "SanitizeName(%q)", tc.in)
	}
}

// Property: the sanitized name only ever contains safe characters and fits
// the length cap.
func TestSanitizeName_Safe(t *testing.T) {
	safe := regexp.MustCompile(`^[A-Za-z0-9._-]*$`)
	f := func(name string) bool {
		out := SanitizeName(name)
		return safe.MatchString(out) && len(out) <= 50
	}
	if err := quick.Check(f, &quick.Config{MaxCount: 1000}); err != nil {
		t.Error(err)
	}
}

func TestSanitizeName_Truncates(t *testing.T) {
	long := strings.Repeat("a", 80) + ".mp4"
	out := SanitizeName(long)
	assert.Len(t, out, 50)
}

func TestInputExt(t *testing.T) {
	assert.Equal(t, ".mkv", InputExt("movie.mkv"))
	assert.Equal(t, ".mp4", InputExt("noextension"))
}

func TestTrimExt(t *testing.T) {
	assert.Equal(t, "movie", TrimExt("movie.mkv"))
	assert.Equal(t, "archive.tar", TrimExt("archive.tar.gz"))
	assert.Equal(t, "plain", TrimExt("plain"))
}

func TestIsTransientFS(t *testing.T) {
	assert.True(t, isTransientFS(syscall.EAGAIN))
	assert.True(t, isTransientFS(syscall.EBUSY))
	assert.True(t, isTransientFS(syscall.EINTR))
	assert.True(t, isTransientFS(syscall.ENOENT))
	assert.False(t, isTransientFS(syscall.EACCES))
	assert.False(t, isTransientFS(assert.AnError))
}
