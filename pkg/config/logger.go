package config

import (
	"github.com/pydist/pydist/pkg/logging"
	"github.com/spf13/viper"
)

const (
	DefaultLoggingFormat        = "text"
	DefaultLoggingLevel         = "INFO"
	DefaultLoggingOutput        = "-"
	DefaultLoggingFileMaxSizeMB = 100
	DefaultLoggingFilesKeep     = 7
)

func setupLogger() {
	logging.SetOutputFormat(viper.GetString(LoggingFormatKey))
	logging.SetOutputs(viper.GetStringSlice(LoggingOutputKey),
		viper.GetInt(LoggingFileMaxSizeMBKey), viper.GetInt(LoggingFilesKeepKey))
	logging.SetLevel(viper.GetString(LoggingLevelKey))
}
