package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cute.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
cute:
  namespaces:
    - example.com/app
  locale: zh
  log:
    level: debug
  events:
    workers: 2
  plugins: [audit]
`)
	c, b, err := Load(path)
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, []string{"example.com/app"}, b.Namespaces)
	assert.Equal(t, "zh", b.Locale)
	assert.Equal(t, "debug", b.Log.Level)
	assert.True(t, b.Log.Console, "unset fields keep defaults")
	assert.Equal(t, 2, b.Events.Workers)
	assert.Equal(t, 64, b.Events.MaxBlocking)
	assert.Equal(t, []string{"audit"}, b.Plugins)
}

func TestLoad_MissingSection(t *testing.T) {
	path := writeConfig(t, "other:\n  key: value\n")
	c, b, err := Load(path)
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, Defaults(), *b)
}

func TestLoad_InvalidLevel(t *testing.T) {
	path := writeConfig(t, "cute:\n  log:\n    level: loud\n")
	_, _, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `log.level "loud" must be one of: debug info warn error`)
}

func TestLoad_EmptyPath(t *testing.T) {
	_, _, err := Load("")
	assert.Error(t, err)
}

func TestScan_NilConfig(t *testing.T) {
	b, err := Scan(nil)
	require.NoError(t, err)
	assert.Equal(t, "en", b.Locale)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		edit func(b *Bootstrap)
		want string
	}{
		{
			name: "empty namespace",
			edit: func(b *Bootstrap) { b.Namespaces = []string{"example.com/app", ""} },
			want: "namespaces[1] must not be empty",
		},
		{
			name: "bad endpoint",
			edit: func(b *Bootstrap) { b.Tracing.Endpoint = "collector" },
			want: `tracing.endpoint "collector" must be host:port`,
		},
		{
			name: "log file without path",
			edit: func(b *Bootstrap) { b.Log.File = &LogFile{MaxSizeMB: 10} },
			want: "log.file.path must not be empty",
		},
		{
			name: "negative backups",
			edit: func(b *Bootstrap) { b.Log.File = &LogFile{Path: "cute.log", MaxBackups: -1} },
			want: "log.file.max_backups must be at least 0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Defaults()
			tt.edit(&b)
			err := b.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_Defaults(t *testing.T) {
	b := Defaults()
	b.Tracing.Endpoint = "localhost:4317"
	b.Log.File = &LogFile{Path: "cute.log"}
	assert.NoError(t, b.Validate())
}
