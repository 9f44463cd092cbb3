package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/reactor/internal/errors"
)

func TestNew(t *testing.T) {
	cfg := New()

	assert.Equal(t, DefaultMaxDepth, cfg.Engine.MaxDepth)
	assert.Equal(t, DefaultMaxRunsPerTick, cfg.Engine.MaxRunsPerTick)
	assert.False(t, cfg.Engine.OwnerCheck)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, DefaultAddr, cfg.Serve.Addr)
	assert.Equal(t, DefaultMetricsPath, cfg.Serve.MetricsPath)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, DefaultTracerName, cfg.Tracing.TracerName)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, ConfigFileName)

	content := `engine:
  max_depth: 64
  owner_check: true
log:
  level: DEBUG
  format: json
serve:
  addr: "127.0.0.1:9000"
tracing:
  enabled: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 64, cfg.Engine.MaxDepth)
	assert.Equal(t, DefaultMaxRunsPerTick, cfg.Engine.MaxRunsPerTick)
	assert.True(t, cfg.Engine.OwnerCheck)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "127.0.0.1:9000", cfg.Serve.Addr)
	assert.Equal(t, DefaultMetricsPath, cfg.Serve.MetricsPath)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, DefaultTracerName, cfg.Tracing.TracerName)
	assert.Equal(t, path, cfg.Path())
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	assert.False(t, Exists(tmpDir))

	_, err := Load(tmpDir)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeConfigRead))
	assert.True(t, os.IsNotExist(unwrapAll(err)))

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte("log:\n  level: warn\n"), 0644))
	assert.True(t, Exists(tmpDir))

	cfg, err := Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, cfg.SlogLevel())
}

func unwrapAll(err error) error {
	for {
		u, ok := err.(interface{ Unwrap() error })
		if !ok || u.Unwrap() == nil {
			return err
		}
		err = u.Unwrap()
	}
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, New(), cfg)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"malformed", "engine: [unclosed"},
		{"unknown key", "engine:\n  max_dept: 3\n"},
		{"zero depth", "engine:\n  max_depth: 0\n"},
		{"negative budget", "engine:\n  max_runs_per_tick: -1\n"},
		{"bad level", "log:\n  level: loud\n"},
		{"bad format", "log:\n  format: xml\n"},
		{"empty addr", "serve:\n  addr: \"\"\n"},
		{"relative metrics path", "serve:\n  metrics_path: metrics\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.CodeConfigInvalid), "got %v", err)
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := New()
	cfg.Engine.MaxRunsPerTick = 0
	cfg.Log.Level = "error"

	data, err := cfg.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "max_runs_per_tick: 0")

	back, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestWatchReloads(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: info\n"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, slog.New(slog.DiscardHandler), func(cfg *Config) {
			changes <- cfg
		})
	}()

	// Keep writing until the watcher is registered and reports a change.
	var got *Config
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("log:\n  level: debug\n"), 0644)
		select {
		case got = <-changes:
			return true
		default:
			return false
		}
	}, 5*time.Second, 4*DefaultDebounce)
	assert.Equal(t, "debug", got.Log.Level)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not return after cancel")
	}
}

func TestWatchIgnoresPartialWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reactor.yaml")
	body := []byte("log:\n  level: debug\n")
	require.NoError(t, os.WriteFile(path, body, 0644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan string, 64)
	go func() {
		_ = Watch(ctx, path, slog.New(slog.DiscardHandler), func(cfg *Config) {
			changes <- cfg.Log.Level
		})
	}()

	// Each rewrite truncates before writing; a reader that catches the empty
	// file would see the default level.
	require.Eventually(t, func() bool {
		for range 20 {
			_ = os.WriteFile(path, body, 0644)
		}
		return len(changes) > 0
	}, 5*time.Second, 4*DefaultDebounce)

	time.Sleep(4 * DefaultDebounce)
	cancel()

	n := len(changes)
	require.Positive(t, n)
	for range n {
		assert.Equal(t, "debug", <-changes, "reload must never deliver a half-written file")
	}
}

func TestReloadRejectsEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reactor.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	_, err := reload(path)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeConfigInvalid))

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: warn\n"), 0644))
	cfg, err := reload(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, path, cfg.Path())
}

func TestWatchMissingFile(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"), nil, func(*Config) {})
	assert.Error(t, err)
}
