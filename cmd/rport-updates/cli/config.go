package cli

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	chclient "github.com/openrport/rport-updates/client"
	chshare "github.com/openrport/rport-updates/share"
	"github.com/openrport/rport-updates/share/logger"
)

const (
	DefaultConfigName = "rport-updates.conf"
	EnvPrefix         = "RPORT_UPDATES"
)

// DecodeConfig reads the config file, RPORT_UPDATES_* env variables and,
// when pFlags is set, the command line, in increasing priority. Messages are
// kept in ml until the logger is configured.
func DecodeConfig(cfgPath string, pFlags *pflag.FlagSet, ml *logger.MemLogger) (*chclient.Config, error) {
	viperCfg := preconfigureViperReader(cfgPath)

	if pFlags != nil {
		BindPFlagsToViperConfig(pFlags, viperCfg)
	}

	config := &chclient.Config{}
	if err := chshare.DecodeViperConfig(viperCfg, config); err != nil {
		return nil, err
	}

	if used := viperCfg.ConfigFileUsed(); used != "" {
		ml.Infof("Using config file %s", used)
	} else {
		ml.Debugf("No config file found, looked for ./%s", DefaultConfigName)
	}

	return config, nil
}

func preconfigureViperReader(cfgPath string) *viper.Viper {
	viperCfg := viper.New()
	viperCfg.SetConfigType("toml")

	SetViperConfigDefaults(viperCfg)

	viperCfg.SetEnvPrefix(EnvPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperCfg.AutomaticEnv()

	if cfgPath != "" {
		viperCfg.SetConfigFile(cfgPath)
	} else {
		viperCfg.AddConfigPath(".")
		viperCfg.SetConfigName(DefaultConfigName)
	}
	return viperCfg
}
