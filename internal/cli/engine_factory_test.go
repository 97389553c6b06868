package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/storyline/internal/config"
	"github.com/aretw0/storyline/internal/logging"
	"github.com/aretw0/storyline/pkg/domain"
	"github.com/aretw0/storyline/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const caveStory = `:: StoryTitle
Cave Story

:: Start
Welcome! [[Go north->Forest]] or [[Go south->Cave]]

:: Forest
A dark forest. [[Return->Start]]

:: Cave
A damp cave. The end.
`

// writeStory creates a story file in a temp dir and returns its path.
func writeStory(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "story.twee")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.StoryFile = writeStory(t, caveStory)
	return cfg
}

func openApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	app, err := Open(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, app.Close()) })
	return app
}

func TestLoadStory(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		story, err := LoadStory(writeStory(t, caveStory))
		require.NoError(t, err)
		assert.Equal(t, "Cave Story", story.Title())
	})

	t.Run("No Path", func(t *testing.T) {
		_, err := LoadStory("")
		assert.Error(t, err)
	})

	t.Run("Missing File", func(t *testing.T) {
		_, err := LoadStory(filepath.Join(t.TempDir(), "nope.twee"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := LoadStory(writeStory(t, ":: Start [broken\nHi"))
		var malformed *domain.MalformedStoryError
		assert.ErrorAs(t, err, &malformed)
	})
}

func TestNewLogger(t *testing.T) {
	cfg := config.Default()
	logger, err := NewLogger(cfg, true)
	require.NoError(t, err)
	assert.True(t, logger.Enabled(context.Background(), -4))

	cfg.Log.Level = "loud"
	_, err = NewLogger(cfg, false)
	assert.Error(t, err)
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name string
		cfg  config.StoreConfig
	}{
		{"Memory", config.StoreConfig{Driver: config.DriverMemory}},
		{"File", config.StoreConfig{Driver: config.DriverFile, File: config.FileConfig{Path: filepath.Join(dir, "progress.json")}}},
		{"SQLite", config.StoreConfig{Driver: config.DriverSQLite, SQLite: config.SQLiteConfig{Path: filepath.Join(dir, "progress.db")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, locker, closer, err := OpenStore(ctx, tt.cfg)
			require.NoError(t, err)
			defer func() { assert.NoError(t, closer()) }()
			assert.Nil(t, locker)

			require.NoError(t, store.Set(ctx, 1, "Forest"))
			got, err := store.Get(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, "Forest", got)
		})
	}

	t.Run("Redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		store, locker, closer, err := OpenStore(ctx, config.StoreConfig{
			Driver: config.DriverRedis,
			Redis:  config.RedisConfig{Addr: mr.Addr(), Prefix: "test:"},
		})
		require.NoError(t, err)
		defer closer()
		require.NotNil(t, locker)

		require.NoError(t, store.Set(ctx, 2, "Cave"))
		assert.True(t, mr.Exists("test:2"))
	})

	t.Run("Redis Unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()
		_, _, _, err := OpenStore(ctx, config.StoreConfig{Driver: config.DriverRedis, Redis: config.RedisConfig{Addr: addr}})
		assert.Error(t, err)
	})

	t.Run("Unknown Driver", func(t *testing.T) {
		_, _, _, err := OpenStore(ctx, config.StoreConfig{Driver: "etcd"})
		assert.ErrorContains(t, err, "etcd")
	})
}

func TestOpen_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Timeout = 0
	_, err := Open(context.Background(), cfg, logging.NewNop())
	assert.Error(t, err)
}

func TestRunSession_Text(t *testing.T) {
	cfg := testConfig(t)
	cfg.Locking = true
	app := openApp(t, cfg)

	var out bytes.Buffer
	err := RunSession(context.Background(), app, PlayOptions{
		Reader: 5,
		In:     strings.NewReader("1\n2\n"),
		Out:    &out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "A damp cave. The end.")

	got, err := app.Store().Get(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "Cave", got)

	families, err := app.Registry.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "storyline_sessions_started_total")
	assert.Contains(t, names, "storyline_store_operation_duration_seconds")
}

func TestRunSession_EndOfInput(t *testing.T) {
	app := openApp(t, testConfig(t))

	var out bytes.Buffer
	err := RunSession(context.Background(), app, PlayOptions{
		Reader: 8,
		In:     strings.NewReader("1\n"),
		Out:    &out,
	})
	require.NoError(t, err)
	assert.NotContains(t, out.String(), domain.FailureText)

	got, err := app.Store().Get(context.Background(), 8)
	require.NoError(t, err)
	assert.Equal(t, "Start", got)
}

func TestRunSession_JSON(t *testing.T) {
	app := openApp(t, testConfig(t))
	require.NoError(t, app.Store().Set(context.Background(), 6, "Forest"))

	var out bytes.Buffer
	err := RunSession(context.Background(), app, PlayOptions{
		Reader: 6,
		JSON:   true,
		In:     strings.NewReader(`"6-0|Start"` + "\n" + `{"token":"6-1|Cave"}` + "\n"),
		Out:    &out,
	})
	require.NoError(t, err)

	dec := json.NewDecoder(&out)
	var texts []string
	for dec.More() {
		var f runner.Frame
		require.NoError(t, dec.Decode(&f))
		if f.Type == "message" {
			texts = append(texts, f.Text)
		}
	}
	assert.Equal(t, []string{
		"A dark forest. [[Return]]",
		"Welcome! [[Go north]] or [[Go south]]",
		"A damp cave. The end.",
	}, texts)
}

func TestRunServe(t *testing.T) {
	app := openApp(t, testConfig(t))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- RunServe(ctx, app, ln) }()

	url := "http://" + ln.Addr().String()
	require.Eventually(t, func() bool {
		resp, err := http.Get(url + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Post(url+"/readers/8/play", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.False(t, app.Sessions.Active(8))
}
