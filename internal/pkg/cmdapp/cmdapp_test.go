package cmdapp

import (
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "test",
		Run:   func(cmd *cobra.Command, args []string) {},
	}
}

func TestReadEnvironmentVariable(t *testing.T) {
	os.Setenv("MODEL_HIDDENSIZE", "17")
	defer os.Unsetenv("MODEL_HIDDENSIZE")
	InitApplication(newRootCmd())

	assert.Equal(t, 17, Config.GetInt("model.hiddenSize"))
}

func TestReadConfig(t *testing.T) {
	initAppFromTempFile(t, "model:\n    cell: gru\n")

	assert.Equal(t, "gru", Config.GetString("model.cell"))
}

func TestEnvBeatsConfig(t *testing.T) {
	os.Setenv("MODEL_CELL", "lstm")
	defer os.Unsetenv("MODEL_CELL")
	initAppFromTempFile(t, "model:\n    cell: gru\n")

	assert.Equal(t, "lstm", Config.GetString("model.cell"))
}

func TestDefaultLogger(t *testing.T) {
	Log.SetLevel(logrus.ErrorLevel)
	initAppFromTempFile(t, "")

	assert.Equal(t, "info", Log.GetLevel().String())
}

func TestLoggerInitFromConfig(t *testing.T) {
	Log.SetLevel(logrus.ErrorLevel)
	initAppFromTempFile(t, "logger:\n    level: trace\n")

	assert.Equal(t, "trace", Log.GetLevel().String())
}

func TestCheckOrPanic(t *testing.T) {
	assert.NotPanics(t, func() { CheckOrPanic(nil, "msg") })
	assert.Panics(t, func() { CheckOrPanic(errors.New("olia"), "msg") })
	assert.Panics(t, func() { CheckOrPanic(errors.New("olia"), "") })
}

func TestLoadConfig_MissingFile(t *testing.T) {
	defer func() { configFile = "" }()
	configFile = "/non/existing/config.yml"
	assert.NotNil(t, loadConfig())

	configFile = ""
	assert.Nil(t, loadConfig())
}

func initAppFromTempFile(t *testing.T, data string) {
	f, err := os.CreateTemp("", "test.*.yml")
	assert.Nil(t, err)
	f.WriteString(data)
	f.Sync()
	defer os.Remove(f.Name())

	rootCmd := newRootCmd()
	InitApplication(rootCmd)
	configFile = f.Name()
	rootCmd.SetArgs([]string{})
	rootCmd.Execute()
}
