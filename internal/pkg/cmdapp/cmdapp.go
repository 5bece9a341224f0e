package cmdapp

import (
	"os"
	"strings"

	"github.com/heirko/go-contrib/logrusHelper"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// configFile is set by the --config flag; without it only defaults and
// environment variables are used.
var configFile = ""

// InitApplication binds the environment and the --config flag to Config.
// MODEL_HIDDENSIZE is then found under the key model.hiddenSize.
func InitApplication(rootCommand *cobra.Command) {
	Config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	Config.AutomaticEnv()
	cobra.OnInitialize(func() {
		CheckOrPanic(loadConfig(), "can't init app")
	})
	rootCommand.PersistentFlags().StringVarP(&configFile, "config", "c", "", "yaml config file")
}

func loadConfig() error {
	if configFile != "" {
		Config.SetConfigFile(configFile)
		if err := Config.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "can't read %s", configFile)
		}
	}
	Config.SetDefault("logger", map[string]interface{}{
		"level":                              "info",
		"formatter.name":                     "text",
		"formatter.options.full_timestamp":   true,
		"formatter.options.timestamp_format": "2006-01-02T15:04:05.000",
	})
	if err := logrusHelper.SetConfig(Log, logrusHelper.UnmarshalConfiguration(Config.Sub("logger"))); err != nil {
		return errors.Wrap(err, "can't init log")
	}
	if f := Config.ConfigFileUsed(); f != "" {
		Log.Infof("Config loaded from %s", f)
	}
	return nil
}

//Execute runs cmd, a panic or an error ends the process with code 1
func Execute(cmd *cobra.Command) {
	defer func() {
		if r := recover(); r != nil {
			Log.Error(r)
			os.Exit(1)
		}
	}()
	CheckOrPanic(cmd.Execute(), "")
}

//CheckOrPanic panics if err != nil
func CheckOrPanic(err error, msg string) {
	if err == nil {
		return
	}
	if msg != "" {
		err = errors.Wrap(err, msg)
	}
	panic(err)
}
