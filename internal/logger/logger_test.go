package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func initFile(t *testing.T, level string, cfg FileConfig) string {
	t.Helper()
	require.NoError(t, InitWithFileConfig(level, cfg, false))
	t.Cleanup(Sync)
	return cfg.Path
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	Sync()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestRotatesLargeFiles(t *testing.T) {
	dir := t.TempDir()
	initFile(t, "debug", FileConfig{Path: filepath.Join(dir, "render.log"), MaxSizeMB: 1, MaxBackups: 2})

	// ~3 MB of frames forces lumberjack past MaxSizeMB at least twice.
	frame := strings.Repeat("v", 200)
	for i := range 15000 {
		Sugar.Debugf("frame %d path=vertexarray %s", i, frame)
	}
	Sync()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var backups []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "render-") {
			backups = append(backups, e.Name())
		}
	}
	assert.NotEmpty(t, backups, "rotated files in %v", entries)
}

func TestLevelFiltering(t *testing.T) {
	dir := t.TempDir()
	all := []string{"DEBUG", "INFO", "WARN", "ERROR"}
	for i, level := range []string{"debug", "info", "warn", "error"} {
		t.Run(level, func(t *testing.T) {
			path := initFile(t, level, FileConfig{Path: filepath.Join(dir, level+".log"), MaxSizeMB: 10})

			Debug("culled by bbox")
			Info("style changed")
			Warn("unknown binding")
			Error("shader link failed")

			out := readLog(t, path)
			for j, name := range all {
				if j >= i {
					assert.Contains(t, out, name)
				} else {
					assert.NotContains(t, out, name)
				}
			}
		})
	}
}

func TestNamedLogger(t *testing.T) {
	path := initFile(t, "info", FileConfig{Path: filepath.Join(t.TempDir(), "named.log"), MaxSizeMB: 1})

	Named("bigtexture").Info("tile uploaded")

	out := readLog(t, path)
	assert.Contains(t, out, "bigtexture")
	assert.Contains(t, out, "tile uploaded")
	assert.Contains(t, out, "logger_test.go", "caller names the test, not the helper")
}

func TestDefaultFileConfig(t *testing.T) {
	cfg := DefaultFileConfig("shapes.log")
	want := FileConfig{Path: "shapes.log", MaxSizeMB: 50, MaxBackups: 3, MaxAgeDays: 7, Compress: true}
	if cfg != want {
		t.Errorf("DefaultFileConfig = %+v, want %+v", cfg, want)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{" WARN ", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseLevel(tt.in); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSyncReportsSuppressed(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "sync.log")
	if err := InitWithFileConfig("debug", FileConfig{Path: logFile, MaxSizeMB: 1}, false); err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}
	ResetOnce()
	defer ResetOnce()

	for i := 0; i < 3; i++ {
		DebugOnce("markerset.index", "marker index out of range")
	}
	if got := suppressed(); got != 2 {
		t.Errorf("suppressed = %d, want 2", got)
	}
	Sync()

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), "repeated diagnostics suppressed") {
		t.Errorf("expected suppression summary in %q", content)
	}
}

func TestWarnOnce(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "once.log")
	if err := InitWithFileConfig("debug", FileConfig{Path: logFile, MaxSizeMB: 1}, false); err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}
	ResetOnce()

	for i := 0; i < 5; i++ {
		written := WarnOnce("faceset.start", "erroneous start index")
		if written != (i == 0) {
			t.Errorf("iteration %d: WarnOnce returned %v", i, written)
		}
	}
	Sync()

	if got := OnceCount("faceset.start"); got != 5 {
		t.Errorf("expected count 5, got %d", got)
	}

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if n := strings.Count(string(content), "erroneous start index"); n != 1 {
		t.Errorf("expected message once in log, found %d times", n)
	}

	ResetOnce()
	if got := OnceCount("faceset.start"); got != 0 {
		t.Errorf("expected count 0 after reset, got %d", got)
	}
}
