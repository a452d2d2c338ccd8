package cli

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	chclient "github.com/openrport/rport-updates/client"
)

func BindPFlagsToViperConfig(pFlags *pflag.FlagSet, viperCfg *viper.Viper) {
	// map config fields to CLI args:
	_ = viperCfg.BindPFlag("logging.log_file", pFlags.Lookup("log-file"))
	_ = viperCfg.BindPFlag("logging.log_level", pFlags.Lookup("verbose"))

	_ = viperCfg.BindPFlag("updates.backend", pFlags.Lookup("backend"))
	_ = viperCfg.BindPFlag("updates.root", pFlags.Lookup("root"))
	_ = viperCfg.BindPFlag("updates.releasever", pFlags.Lookup("releasever"))
	_ = viperCfg.BindPFlag("updates.basearch", pFlags.Lookup("basearch"))
	_ = viperCfg.BindPFlag("updates.workers", pFlags.Lookup("workers"))

	_ = viperCfg.BindPFlag("output.pretty", pFlags.Lookup("pretty"))
	_ = viperCfg.BindPFlag("output.debug", pFlags.Lookup("debug"))
}

func SetPFlags(pFlags *pflag.FlagSet) {
	pFlags.StringP("config", "c", "", "")

	// present in config file
	pFlags.StringP("log-file", "l", "", "")
	pFlags.StringP("verbose", "v", "", "")
	pFlags.String("backend", "", "")
	pFlags.String("root", "", "")
	pFlags.String("releasever", "", "")
	pFlags.String("basearch", "", "")
	pFlags.Int("workers", 0, "")
	pFlags.Bool("pretty", false, "")
	pFlags.Bool("debug", false, "")
}

func SetViperConfigDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("logging.log_file", "")
	viperCfg.SetDefault("logging.log_level", "error")

	viperCfg.SetDefault("updates.backend", "auto")
	viperCfg.SetDefault("updates.root", chclient.DefaultRoot)
	viperCfg.SetDefault("updates.releasever", "")
	viperCfg.SetDefault("updates.basearch", "")
	viperCfg.SetDefault("updates.workers", chclient.DefaultWorkers)

	viperCfg.SetDefault("output.pretty", false)
	viperCfg.SetDefault("output.debug", false)
}
