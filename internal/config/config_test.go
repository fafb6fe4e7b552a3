package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "none", cfg.Worker.Transport)
	assert.True(t, cfg.Backends.Fwupd)
	assert.True(t, cfg.Backends.System76)
	assert.Equal(t, time.Second, cfg.HideDelay())
	assert.Equal(t, []string{"systemctl", "reboot"}, cfg.System.RebootCommand)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen_addr: ":9000"
backends:
  fwupd: false
ui:
  hide_delay_ms: 250
worker:
  transport: mqtt
  mqtt:
    host: broker.local
`), 0o600))

	t.Setenv("FWM_LISTEN_ADDR", ":9100")
	t.Setenv("FWM_MQTT_PORT", "8883")
	t.Setenv("FWM_MQTT_QOS", "not-a-number")
	t.Setenv("FWM_REBOOT_COMMAND", "shutdown -r now")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.ListenAddr)
	assert.False(t, cfg.Backends.Fwupd)
	assert.True(t, cfg.Backends.System76)
	assert.Equal(t, 250*time.Millisecond, cfg.HideDelay())
	assert.Equal(t, "mqtt", cfg.Worker.Transport)
	assert.Equal(t, "broker.local", cfg.Worker.MQTT.Host)
	assert.Equal(t, 8883, cfg.Worker.MQTT.Port)
	assert.Equal(t, 1, cfg.Worker.MQTT.QoS)
	assert.Equal(t, []string{"shutdown", "-r", "now"}, cfg.System.RebootCommand)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("FWM_WORKER_TRANSPORT", "carrier-pigeon")
	_, err := Load("")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLoad_NoBackends(t *testing.T) {
	t.Setenv("FWM_BACKEND_FWUPD", "false")
	t.Setenv("FWM_BACKEND_SYSTEM76", "0")
	_, err := Load("")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("FWM_TEST_DOTENV=loaded\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("FWM_TEST_DOTENV") })

	path, err := LoadDotEnv(nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, ".env"), path)
	assert.Equal(t, "loaded", os.Getenv("FWM_TEST_DOTENV"))
}
