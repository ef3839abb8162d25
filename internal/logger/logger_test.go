package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T, level string, format OutputFormat, fn func()) string {
	t.Helper()
	buf := &bytes.Buffer{}
	SetTestOutput(buf)
	defer UnsetTestOutput()

	InitLogger(level, format)
	fn()
	return buf.String()
}

func TestLogger(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		logFn    func()
		contains []string
		excludes []string
	}{
		{
			name:     "info",
			level:    "info",
			logFn:    func() { Info("retrieving sources") },
			contains: []string{"retrieving sources", "level=INFO"},
		},
		{
			name:     "debug enabled",
			level:    "debug",
			logFn:    func() { Debug("spawn", Fields{"argv": "git fetch"}) },
			contains: []string{"spawn", "level=DEBUG", `argv="git fetch"`},
		},
		{
			name:     "debug filtered at info",
			level:    "info",
			logFn:    func() { Debug("spawn") },
			excludes: []string{"spawn"},
		},
		{
			name:     "warning alias",
			level:    "warning",
			logFn:    func() { Info("hidden"); Warnf("%d sources skipped", 2) },
			contains: []string{"2 sources skipped", "level=WARN"},
			excludes: []string{"hidden"},
		},
		{
			name:     "error",
			level:    "error",
			logFn:    func() { Errorf("build failed: %s", "exit 2") },
			contains: []string{"build failed: exit 2", "level=ERROR"},
		},
		{
			name:     "success",
			level:    "info",
			logFn:    func() { Success("package built", Fields{"pkg": "foo"}) },
			contains: []string{"package built", "status=success", "pkg=foo"},
		},
		{
			name:     "formatted debug with fields",
			level:    "debug",
			logFn:    func() { DebugfWithFields(Fields{"session": 3}, "progress %d%%", 50) },
			contains: []string{"progress 50%", "session=3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := captureOutput(t, tt.level, FormatText, tt.logFn)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
			for _, notWant := range tt.excludes {
				assert.NotContains(t, out, notWant)
			}
		})
	}
}

func TestJSONFormat(t *testing.T) {
	out := captureOutput(t, "info", FormatJSON, func() {
		Info("download complete", Fields{"file": "a.tar.gz", "bytes": 1024, "resumed": false})
	})

	assert.Contains(t, out, `"msg":"download complete"`)
	assert.Contains(t, out, `"level":"INFO"`)
	assert.Contains(t, out, `"file":"a.tar.gz"`)
	assert.Contains(t, out, `"bytes":1024`)
	assert.Contains(t, out, `"resumed":false`)
}

func TestSetOutputFormatKeepsLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	SetTestOutput(buf)
	defer UnsetTestOutput()

	InitLogger("debug", FormatText)
	SetOutputFormat(FormatJSON)
	Debug("still visible")

	assert.Contains(t, buf.String(), `"msg":"still visible"`)
	assert.Contains(t, buf.String(), `"level":"DEBUG"`)
}

func TestGetLoggerInitialises(t *testing.T) {
	mu.Lock()
	logger = nil
	mu.Unlock()

	assert.NotNil(t, GetLogger())
}

func TestMergeFields(t *testing.T) {
	attrs := mergeFields(Fields{"a": 1, "b": "x"}, Fields{"a": 2})
	got := make(map[string]interface{})
	for i := 0; i < len(attrs); i += 2 {
		got[attrs[i].(string)] = attrs[i+1]
	}
	assert.Equal(t, map[string]interface{}{"a": 2, "b": "x"}, got)
}
