package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-lynx/cute/beans"
	"github.com/go-lynx/cute/conf"
)

func TestInit_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("svc", conf.Log{Level: "info"}, &buf)
	t.Cleanup(func() { SetLogger(nil); SetLevel(InfoLevel) })

	Debugf("hidden %d", 1)
	Infow("msg", "bean loaded", "bean", "compA")
	Errorw("msg", "failed", "error", errors.New("boom"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "info", first["level"])
	assert.Equal(t, "bean loaded", first["message"])
	assert.Equal(t, "compA", first["bean"])
	assert.Equal(t, "svc", first["service"])

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "boom", second["error"])
}

func TestInit_StackOnError(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("svc", conf.Log{Level: "debug", Stack: true}, &buf)
	t.Cleanup(func() { SetLogger(nil); SetLevel(InfoLevel) })

	Error("bad")
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	stack, ok := entry["stack"].(string)
	require.True(t, ok)
	assert.Contains(t, stack, "testing.tRunner")
}

func TestFallback(t *testing.T) {
	SetLogger(nil)
	var buf bytes.Buffer
	SetFallbackOutput(&buf)
	t.Cleanup(func() { SetFallbackOutput(nil) })

	Warnf("no logger %s", "installed")
	Debugf("filtered")
	Fallback("ERROR", "direct")

	out := buf.String()
	assert.Contains(t, out, "[WARN] [cute-log-fallback] no logger installed")
	assert.NotContains(t, out, "filtered")
	assert.Contains(t, out, "[ERROR] [cute-log-fallback] direct")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("debug"))
	assert.Equal(t, WarnLevel, ParseLevel("warn"))
	assert.Equal(t, ErrorLevel, ParseLevel("error"))
	assert.Equal(t, InfoLevel, ParseLevel("whatever"))
}

func TestInit_RotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cute.log")
	var buf bytes.Buffer
	InitWithWriter("svc", conf.Log{Level: "info", File: &conf.LogFile{Path: path, MaxSizeMB: 1}}, &buf)
	t.Cleanup(func() { SetLogger(nil); SetLevel(InfoLevel) })

	Infow("msg", "to both", "bean", "compA")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"bean":"compA"`)
	assert.Contains(t, buf.String(), `"bean":"compA"`)
}

func TestInit_BeanErrorFields(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("svc", conf.Log{Level: "info"}, &buf)
	t.Cleanup(func() { SetLogger(nil); SetLevel(InfoLevel) })

	err := fmt.Errorf("wrapped: %w", &beans.Error{
		Kind:     beans.KindResolver,
		Bean:     "compA",
		Resolver: "auditResolver",
		Cause:    errors.New("boom"),
	})
	Errorw("msg", "resolver failed", "error", err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, beans.KindResolver.String(), entry["kind"])
	assert.Equal(t, "compA", entry["bean"])
	assert.Equal(t, "auditResolver", entry["resolver"])
	assert.NotContains(t, entry, "method")
	assert.Equal(t, err.Error(), entry["error"])
}
