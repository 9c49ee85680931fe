package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tx2tx/tx2tx/config"
	"github.com/tx2tx/tx2tx/types"
)

const sampleYAML = `
server:
  host: 0.0.0.0
  port: 24800
  edge_threshold: 1
  velocity_threshold: 1500
  max_clients: 4
  stop_on_last_disconnect: true
  jump_hotkey:
    enabled: true
    prefix_key: 47
    prefix_modifiers: [1]
    west_key: 25
    east_key: 26

clients:
  - name: laptop
    position: west
  - name: tablet
    position: east

client:
  server_address: 192.168.1.10:24800
  reconnect:
    enabled: true
    delay_seconds: 2

protocol:
  version: "1.0.0"
  buffer_size: 65536
  keepalive_interval: 5

logging:
  level: debug
  format: json
`

func writeSample(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "tx2tx.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0600))
	return path
}

func TestLoadParsesServerAndClientBlocks(t *testing.T) {
	f, err := config.Load(writeSample(t))
	require.NoError(t, err)

	assert.Equal(t, 24800, f.Server.Port)
	assert.Equal(t, 1500.0, f.Server.VelocityThreshold)
	assert.True(t, f.Server.StopOnDisconnect)
	assert.True(t, f.Server.JumpHotkey.Enabled)
	assert.Equal(t, 25, f.Server.JumpHotkey.WestKey)
	assert.Equal(t, "192.168.1.10:24800", f.Client.ServerAddress)
	assert.Equal(t, "json", f.Logging.Format)
	assert.Equal(t, "debug", f.Logging.Level)
}

func TestLoadAppliesDefaultsWhenFieldsAreOmitted(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tx2tx.yaml")
	minimal := "clients:\n  - name: laptop\n    position: west\n"
	require.NoError(t, os.WriteFile(path, []byte(minimal), 0600))

	f, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 24800, f.Server.Port)
	assert.Equal(t, "1.0.0", f.Protocol.Version)
	assert.Equal(t, "info", f.Logging.Level)
}

func TestContextMapBuildsFromClientsList(t *testing.T) {
	f, err := config.Load(writeSample(t))
	require.NoError(t, err)

	cm, err := f.ContextMap()
	require.NoError(t, err)

	assert.Equal(t, "laptop", cm[types.West])
	assert.Equal(t, "tablet", cm[types.East])
}

func TestToEngineConfigWiresStopOnDisconnect(t *testing.T) {
	f, err := config.Load(writeSample(t))
	require.NoError(t, err)

	engCfg, err := f.ToEngineConfig(0, 0)
	require.NoError(t, err)
	assert.True(t, engCfg.StopOnLastClientDisconnect)
}

func TestValidateServerRejectsMissingClients(t *testing.T) {
	f := &config.File{Server: config.Server{Port: 24800, VelocityThreshold: 100, MaxClients: 4}}
	assert.Error(t, f.ValidateServer())
}

func TestValidateServerRejectsUnknownPosition(t *testing.T) {
	f := &config.File{
		Server:  config.Server{Port: 24800, VelocityThreshold: 100, MaxClients: 4},
		Clients: []config.ClientEntry{{Name: "laptop", Position: "northwest"}},
	}
	assert.Error(t, f.ValidateServer())
}

func TestValidateClientRequiresServerAddress(t *testing.T) {
	f := &config.File{}
	assert.Error(t, f.ValidateClient())
}
