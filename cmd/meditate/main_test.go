package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/meditate/internal/config"
	"github.com/jmylchreest/meditate/internal/model"
	"github.com/jmylchreest/meditate/internal/session"
	"github.com/jmylchreest/meditate/internal/store"
)

func execute(t *testing.T, args ...string) (int, string) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		globalOpts.configPath = ""
		configOpts.force = false
		historyOpts.json = false
		historyOpts.olderThan = ""
	})

	return Execute(), out.String()
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	code, out := execute(t, "--config", path, "config", "init")
	require.Equal(t, exitOK, code)
	assert.Equal(t, path+"\n", out)
	assert.FileExists(t, path)

	code, _ = execute(t, "--config", path, "config", "init")
	assert.Equal(t, exitError, code, "existing file is kept without --force")

	code, _ = execute(t, "--config", path, "config", "init", "--force")
	assert.Equal(t, exitOK, code)
}

func TestConfigShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("session_duration = \"30m\"\n"), 0644))

	code, out := execute(t, "--config", path, "config", "show")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "session_duration = '30m'")
	assert.Contains(t, out, "interval_duration = '400s'")
}

func TestConfigPath(t *testing.T) {
	code, out := execute(t, "--config", "/tmp/meditate-test.toml", "config", "path")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "/tmp/meditate-test.toml\n", out)
}

func TestPreviewSound(t *testing.T) {
	dir := t.TempDir()
	sound := filepath.Join(dir, "gong.wav")
	require.NoError(t, os.WriteFile(sound, []byte("RIFF"), 0644))

	cfg = config.DefaultConfig()
	cfg.IntervalSoundPath = sound
	t.Cleanup(func() { cfg = nil })

	ref, err := previewSound("start")
	require.NoError(t, err)
	assert.True(t, ref.IsBuiltin())

	ref, err = previewSound("interval")
	require.NoError(t, err)
	assert.Equal(t, sound, ref.Path())

	_, err = previewSound(filepath.Join(dir, "missing.wav"))
	assert.ErrorIs(t, err, model.ErrSoundFileNotFound)
}

func TestHistory(t *testing.T) {
	dataHome := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataHome)

	code, out := execute(t, "history")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "No sessions in history\n", out)

	journal, err := store.Open("", nil)
	require.NoError(t, err)
	started := time.Now().Add(-time.Hour)
	observe := journal.Recorder(session.NewPlan(20*time.Minute, 5*time.Minute))
	observe(session.Event{Kind: session.EventSessionStarting, SessionID: "01JTEST", Time: started})
	observe(session.Event{Kind: session.EventSessionEnded, Time: started.Add(20 * time.Minute), Elapsed: 20 * time.Minute})

	code, out = execute(t, "history")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "20m of 20m")
	assert.Contains(t, out, "1 session(s), 1 completed, 20m in total")

	code, out = execute(t, "history", "--json")
	require.Equal(t, exitOK, code)
	var records []model.SessionRecord
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "01JTEST", records[0].ID)

	code, out = execute(t, "history", "prune", "--older-than", "30m")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "Removed 1 session(s)\n", out)
}

func TestExecute_InvalidSessionExitsBeforePlaying(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	code, out := execute(t, "--config", path, "--silent", "--interval-duration", "0")
	assert.Equal(t, exitError, code)
	assert.Empty(t, out)

	code, _ = execute(t, "--config", path, "--silent", "--interval-duration", "5x")
	assert.Equal(t, exitError, code)
}

func TestFlagOverrides_ExplicitFalse(t *testing.T) {
	saved := sessionOpts
	t.Cleanup(func() { sessionOpts = saved })

	cmd := &cobra.Command{}
	cmd.Flags().BoolVar(&sessionOpts.notify, "notify", false, "")
	cmd.Flags().BoolVar(&sessionOpts.noHistory, "no-history", false, "")

	o := flagOverrides(cmd)
	assert.Nil(t, o.Notify.Enabled, "unset flags leave earlier layers alone")
	assert.Nil(t, o.History.Disabled)

	require.NoError(t, cmd.Flags().Parse([]string{"--notify=false", "--no-history"}))
	o = flagOverrides(cmd)
	require.NotNil(t, o.Notify.Enabled)
	assert.False(t, *o.Notify.Enabled)
	assert.True(t, o.History.IsDisabled())
}
