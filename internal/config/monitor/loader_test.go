package monitor_config

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

	assert.Equal(t, DriverFile, cfg.Store.Driver)
	assert.Equal(t, NotifierLog, cfg.Notifier.Kind)
	assert.Equal(t, 60*time.Second, cfg.Sched.ProbeInterval)
	assert.Equal(t, 24*time.Hour, cfg.Sched.RotateInterval)
	assert.Equal(t, 32, cfg.Sched.Concurrency)
	assert.Equal(t, 2*time.Second, cfg.Store.DB.QueryTimeout)
	assert.True(t, cfg.HTTP.VerifyTLS)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "monitor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  driver: redis
  redis:
    url: redis://cache:6379/1
sched:
  probe_interval: 5s
  concurrency: 0
notifier:
  kind: twilio
  twilio:
    account_sid: AC123
    auth_token: secret
    from: "+15005550006"
`), 0o600))

	t.Setenv("SCHED_ROTATE_INTERVAL", "1h")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DriverRedis, cfg.Store.Driver)
	assert.Equal(t, "redis://cache:6379/1", cfg.Store.Redis.URL)
	assert.Equal(t, 5*time.Second, cfg.Sched.ProbeInterval)
	assert.Equal(t, time.Hour, cfg.Sched.RotateInterval)
	assert.Equal(t, 0, cfg.Sched.Concurrency)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "AC123", cfg.Notifier.Twilio.AccountSID)
}

func TestLoad_Rejects(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown driver":   {"STORE_DRIVER": "mongo"},
		"unknown notifier": {"NOTIFIER_KIND": "pigeon"},
		"twilio missing":   {"NOTIFIER_KIND": "twilio"},
		"negative fanout":  {"SCHED_CONCURRENCY": "-1"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			var cerr ErrConfig
			require.ErrorAs(t, err, &cerr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
