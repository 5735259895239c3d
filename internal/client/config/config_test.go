package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "127.0.0.1:50051", c.ServerEndpointAddr)
	assert.Equal(t, 5*time.Second, c.RequestTimeout)
	assert.Equal(t, "credctl.db", c.SessionFile)
}

func TestLoad_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server_endpoint_addr":"file:1","request_timeout":"2s","session_file":"file.db"}`), 0o600))

	cfg, err := Load([]string{"-c", path, "-f", "flag.db"}, map[string]string{"CREDCTL_SERVER_ENDPOINT_ADDR": "env:2"})
	require.NoError(t, err)

	assert.Equal(t, "env:2", cfg.ServerEndpointAddr)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "flag.db", cfg.SessionFile)

	cfg, err = Load([]string{"-a", "flag:3", "-t", "9"}, map[string]string{"CREDCTL_SERVER_ENDPOINT_ADDR": "env:2"})
	require.NoError(t, err)
	assert.Equal(t, "flag:3", cfg.ServerEndpointAddr)
	assert.Equal(t, 9*time.Second, cfg.RequestTimeout)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load([]string{"-c", filepath.Join(t.TempDir(), "nope.json")}, map[string]string{})
	assert.Error(t, err)

	_, err = Load([]string{"-t", "0"}, map[string]string{})
	assert.Error(t, err)

	_, err = Load(nil, map[string]string{"CREDCTL_REQUEST_TIMEOUT": "later"})
	assert.Error(t, err)
}
