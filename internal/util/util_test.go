package util

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestWriteFileAtomicReplacesContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.json")

	require.NoError(t, WriteFileAtomic(path, []byte("first"), 0o644))
	require.NoError(t, WriteFileAtomic(path, []byte("second"), 0o644))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "second", string(got))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
}

func TestUniformDurationStaysInRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		d := UniformDuration(10*time.Millisecond, 20*time.Millisecond)
		require.GreaterOrEqual(t, d, 10*time.Millisecond)
		require.LessOrEqual(t, d, 20*time.Millisecond)
	}

	require.Equal(t, 5*time.Millisecond, UniformDuration(5*time.Millisecond, 5*time.Millisecond))

	swapped := UniformDuration(20*time.Millisecond, 10*time.Millisecond)
	require.GreaterOrEqual(t, swapped, 10*time.Millisecond)
	require.LessOrEqual(t, swapped, 20*time.Millisecond)
}

func TestSleepContextHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := SleepContext(ctx, time.Minute)

	require.ErrorIs(t, err, context.Canceled)
	require.Less(t, time.Since(start), time.Second)
}

func TestDedupe(t *testing.T) {
	got := Dedupe([]string{"a", "b", "a", "c", "b"}, func(s string) string { return s })
	require.Equal(t, []string{"a", "b", "c"}, got)
}

func TestHostMatches(t *testing.T) {
	require.True(t, HostMatches("fr.wikipedia.org", "wikipedia.org"))
	require.True(t, HostMatches("wikipedia.org", "wikipedia.org"))
	require.True(t, HostMatches("EN.Wikipedia.org.", "wikipedia.org"))
	require.False(t, HostMatches("wikipedia.org.evil.com", "wikipedia.org"))
	require.False(t, HostMatches("notwikipedia.org", "wikipedia.org"))
}

func TestTruncateString(t *testing.T) {
	require.Equal(t, "abc", TruncateString("abc", 5))
	require.Equal(t, "ab...", TruncateString("abcdef", 2))
	require.Equal(t, "ʒa...", TruncateString("ʒan doe", 2))
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	require.Equal(t, zapcore.WarnLevel, ParseLevel("warning"))
	require.Equal(t, zapcore.InfoLevel, ParseLevel("bogus"))
}
