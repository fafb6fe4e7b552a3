package system

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSupply(t *testing.T, dir, name string, attrs map[string]string) {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(p, 0o755))
	for k, v := range attrs {
		require.NoError(t, os.WriteFile(filepath.Join(p, k), []byte(v+"\n"), 0o644))
	}
}

func TestOnBattery(t *testing.T) {
	t.Run("discharging without adapter", func(t *testing.T) {
		dir := t.TempDir()
		writeSupply(t, dir, "AC", map[string]string{"type": "Mains", "online": "0"})
		writeSupply(t, dir, "BAT0", map[string]string{"type": "Battery", "status": "Discharging"})

		on, err := OnBattery(dir)
		require.NoError(t, err)
		assert.True(t, on)
	})

	t.Run("adapter online", func(t *testing.T) {
		dir := t.TempDir()
		writeSupply(t, dir, "AC", map[string]string{"type": "Mains", "online": "1"})
		writeSupply(t, dir, "BAT0", map[string]string{"type": "Battery", "status": "Discharging"})

		on, err := OnBattery(dir)
		require.NoError(t, err)
		assert.False(t, on)
	})

	t.Run("desktop", func(t *testing.T) {
		on, err := OnBattery(t.TempDir())
		require.NoError(t, err)
		assert.False(t, on)
	})

	t.Run("missing class", func(t *testing.T) {
		_, err := OnBattery(filepath.Join(t.TempDir(), "nope"))
		assert.ErrorIs(t, err, ErrNoPowerSupply)
		assert.False(t, DetectOnBattery(filepath.Join(t.TempDir(), "nope")))
	})
}

func TestRebooter_RetriesAfterFailure(t *testing.T) {
	var calls atomic.Int32
	var got []string
	r := NewRebooter([]string{"systemctl", "reboot"}, false)
	r.run = func(_ context.Context, name string, args ...string) error {
		calls.Add(1)
		got = append([]string{name}, args...)
		return errors.New("not permitted")
	}

	r.Reboot()
	r.Wait()
	r.Reboot()
	r.Wait()

	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, []string{"systemctl", "reboot"}, got)
}

func TestRebooter_RunsOnceAfterSuccess(t *testing.T) {
	var calls atomic.Int32
	r := NewRebooter([]string{"systemctl", "reboot"}, false)
	r.run = func(context.Context, string, ...string) error {
		calls.Add(1)
		return nil
	}

	r.Reboot()
	r.Wait()
	r.Reboot()
	r.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestRebooter_JoinsRunningCommand(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	r := NewRebooter([]string{"systemctl", "reboot"}, false)
	r.run = func(context.Context, string, ...string) error {
		calls.Add(1)
		<-release
		return errors.New("not permitted")
	}

	r.Reboot()
	r.Reboot()
	close(release)
	r.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestRebooter_DryRun(t *testing.T) {
	r := NewRebooter([]string{"systemctl", "reboot"}, true)
	r.run = func(context.Context, string, ...string) error {
		t.Fatal("dry run must not execute")
		return nil
	}
	r.Reboot()
	r.Wait()
}
