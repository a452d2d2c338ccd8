package chclient

import (
	"fmt"
	"path/filepath"

	"github.com/openrport/rport-updates/client/updates"
	"github.com/openrport/rport-updates/share/logger"
)

const (
	DefaultRoot    = "/"
	DefaultWorkers = 1
	MaxWorkers     = 64
)

var backends = []string{"auto", "dnf", "yum"}

type LogConfig struct {
	LogOutput logger.LogOutput `mapstructure:"log_file"`
	LogLevel  logger.LogLevel  `mapstructure:"log_level"`
}

type UpdatesConfig struct {
	Backend    string `mapstructure:"backend"`
	Root       string `mapstructure:"root"`
	ReleaseVer string `mapstructure:"releasever"`
	BaseArch   string `mapstructure:"basearch"`
	Workers    int    `mapstructure:"workers"`
}

type OutputConfig struct {
	Pretty bool `mapstructure:"pretty"`
	// Debug logs timing and memory diagnostics, the report is unchanged.
	Debug bool `mapstructure:"debug"`
}

type Config struct {
	Logging LogConfig     `mapstructure:"logging"`
	Updates UpdatesConfig `mapstructure:"updates"`
	Output  OutputConfig  `mapstructure:"output"`
}

func (c *Config) ParseAndValidate() error {
	if c.Updates.Backend == "" {
		c.Updates.Backend = "auto"
	}
	if !isValidBackend(c.Updates.Backend) {
		return fmt.Errorf("invalid backend %q, expected one of %v", c.Updates.Backend, backends)
	}

	if c.Updates.Root == "" {
		c.Updates.Root = DefaultRoot
	}
	if !filepath.IsAbs(c.Updates.Root) {
		return fmt.Errorf("root must be an absolute path: %q", c.Updates.Root)
	}
	c.Updates.Root = filepath.Clean(c.Updates.Root)

	if c.Updates.Workers == 0 {
		c.Updates.Workers = DefaultWorkers
	}
	if c.Updates.Workers < 0 || c.Updates.Workers > MaxWorkers {
		return fmt.Errorf("workers must be between 1 and %d: %d", MaxWorkers, c.Updates.Workers)
	}

	return nil
}

func (c *Config) Options() updates.Options {
	return updates.Options{
		Root:       c.Updates.Root,
		ReleaseVer: c.Updates.ReleaseVer,
		BaseArch:   c.Updates.BaseArch,
	}
}

func (c *Config) Settings() updates.Settings {
	return updates.Settings{
		Debug:   c.Output.Debug,
		Workers: c.Updates.Workers,
	}
}

func isValidBackend(backend string) bool {
	for _, b := range backends {
		if b == backend {
			return true
		}
	}
	return false
}
