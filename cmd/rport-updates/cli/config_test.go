package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chclient "github.com/openrport/rport-updates/client"
	"github.com/openrport/rport-updates/share/logger"
)

const testConfig = `
[logging]
  log_file = "/var/log/rport-updates.log"
  log_level = "debug"

[updates]
  backend = "yum"
  root = "/mnt/sysimage"
  workers = 2

[output]
  pretty = true
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rport-updates.conf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func parseFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	pFlags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	SetPFlags(pFlags)
	require.NoError(t, pFlags.Parse(args))
	return pFlags
}

func TestDecodeConfig(t *testing.T) {
	testCases := []struct {
		Name     string
		Config   string
		Args     []string
		Expected chclient.Config
	}{
		{
			Name: "defaults",
			Expected: chclient.Config{
				Logging: chclient.LogConfig{LogOutput: logger.NewLogOutput(""), LogLevel: logger.LogLevelError},
				Updates: chclient.UpdatesConfig{Backend: "auto", Root: "/", Workers: 1},
			},
		},
		{
			Name:   "config file",
			Config: testConfig,
			Expected: chclient.Config{
				Logging: chclient.LogConfig{LogOutput: logger.NewLogOutput("/var/log/rport-updates.log"), LogLevel: logger.LogLevelDebug},
				Updates: chclient.UpdatesConfig{Backend: "yum", Root: "/mnt/sysimage", Workers: 2},
				Output:  chclient.OutputConfig{Pretty: true},
			},
		},
		{
			Name:   "flags override config file",
			Config: testConfig,
			Args:   []string{"--backend", "dnf", "--workers", "8", "-v", "info", "--debug", "--releasever", "34"},
			Expected: chclient.Config{
				Logging: chclient.LogConfig{LogOutput: logger.NewLogOutput("/var/log/rport-updates.log"), LogLevel: logger.LogLevelInfo},
				Updates: chclient.UpdatesConfig{Backend: "dnf", Root: "/mnt/sysimage", ReleaseVer: "34", Workers: 8},
				Output:  chclient.OutputConfig{Pretty: true, Debug: true},
			},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.Name, func(t *testing.T) {
			t.Parallel()

			cfgPath := ""
			if tc.Config != "" {
				cfgPath = writeConfig(t, tc.Config)
			}

			config, err := DecodeConfig(cfgPath, parseFlags(t, tc.Args...), logger.NewMemLogger())
			require.NoError(t, err)
			assert.Equal(t, tc.Expected, *config)
		})
	}
}

func TestDecodeConfigFromEnv(t *testing.T) {
	t.Setenv("RPORT_UPDATES_UPDATES_RELEASEVER", "9")
	t.Setenv("RPORT_UPDATES_LOGGING_LOG_LEVEL", "info")

	config, err := DecodeConfig(writeConfig(t, testConfig), parseFlags(t), logger.NewMemLogger())

	require.NoError(t, err)
	assert.Equal(t, "9", config.Updates.ReleaseVer)
	assert.Equal(t, logger.LogLevelInfo, config.Logging.LogLevel)
	assert.Equal(t, "yum", config.Updates.Backend)
}

func TestDecodeConfigErrors(t *testing.T) {
	_, err := DecodeConfig(filepath.Join(t.TempDir(), "missing.conf"), nil, logger.NewMemLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")

	_, err = DecodeConfig(writeConfig(t, "[logging]\nlog_level = \"loud\"\n"), nil, logger.NewMemLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid log level: "loud"`)
}
