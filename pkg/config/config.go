package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pydist/pydist/pkg/block"
	"github.com/pydist/pydist/pkg/block/local"
	"github.com/pydist/pydist/pkg/block/mem"
	dbparams "github.com/pydist/pydist/pkg/db/params"
	"github.com/spf13/viper"
)

const (
	BlockstoreTypeLocal = "local"
	BlockstoreTypeMem   = "mem"

	DefaultDatabaseDriver           = "pgx"
	DefaultDatabaseConnectionString = "postgres://localhost:5432/postgres?search_path=pydist&sslmode=disable"
	DefaultDatabaseMaxOpenConns     = 25
	DefaultDatabaseMaxIdleConns     = 25
	DefaultDatabaseConnMaxLifetime  = 5 * time.Minute

	DefaultBlockStoreType      = BlockstoreTypeLocal
	DefaultBlockStoreLocalPath = "~/pydist/data"

	DefaultListenAddr = "0.0.0.0:8080"

	DefaultUploadAllowOverwrite = false
)

// Default flag keys
const (
	ListenAddressKey = "api.listen_address"

	LoggingFormatKey        = "logging.format"
	LoggingLevelKey         = "logging.level"
	LoggingOutputKey        = "logging.output"
	LoggingFileMaxSizeMBKey = "logging.file_max_size_mb"
	LoggingFilesKeepKey     = "logging.files_keep"

	DatabaseConnectionStringKey = "database.connection_string"
	DatabaseMaxOpenConnsKey     = "database.max_open_connections"
	DatabaseMaxIdleConnsKey     = "database.max_idle_connections"
	DatabaseConnMaxLifetimeKey  = "database.connection_max_lifetime"

	BlockstoreTypeKey      = "blockstore.type"
	BlockstoreLocalPathKey = "blockstore.local.path"

	UploadAllowOverwriteKey = "upload.allow_overwrite"
)

type Config struct{}

func NewConfig() *Config {
	setDefaults()
	setupLogger()
	return &Config{}
}

func setDefaults() {
	viper.SetDefault(LoggingFormatKey, DefaultLoggingFormat)
	viper.SetDefault(LoggingLevelKey, DefaultLoggingLevel)
	viper.SetDefault(LoggingOutputKey, DefaultLoggingOutput)
	viper.SetDefault(LoggingFileMaxSizeMBKey, DefaultLoggingFileMaxSizeMB)
	viper.SetDefault(LoggingFilesKeepKey, DefaultLoggingFilesKeep)

	viper.SetDefault(DatabaseConnectionStringKey, DefaultDatabaseConnectionString)
	viper.SetDefault(DatabaseMaxOpenConnsKey, DefaultDatabaseMaxOpenConns)
	viper.SetDefault(DatabaseMaxIdleConnsKey, DefaultDatabaseMaxIdleConns)
	viper.SetDefault(DatabaseConnMaxLifetimeKey, DefaultDatabaseConnMaxLifetime)

	viper.SetDefault(BlockstoreTypeKey, DefaultBlockStoreType)
	viper.SetDefault(BlockstoreLocalPathKey, DefaultBlockStoreLocalPath)

	viper.SetDefault(ListenAddressKey, DefaultListenAddr)

	viper.SetDefault(UploadAllowOverwriteKey, DefaultUploadAllowOverwrite)
}

func (c *Config) GetDatabaseParams() dbparams.Database {
	return dbparams.Database{
		Driver:                DefaultDatabaseDriver,
		ConnectionString:      viper.GetString(DatabaseConnectionStringKey),
		MaxOpenConnections:    viper.GetInt32(DatabaseMaxOpenConnsKey),
		MaxIdleConnections:    viper.GetInt32(DatabaseMaxIdleConnsKey),
		ConnectionMaxLifetime: viper.GetDuration(DatabaseConnMaxLifetimeKey),
	}
}

func (c *Config) GetListenAddress() string {
	return viper.GetString(ListenAddressKey)
}

func (c *Config) GetUploadAllowOverwrite() bool {
	return viper.GetBool(UploadAllowOverwriteKey)
}

// BuildBlockAdapter returns a block adapter for the configured blockstore
// type.
func (c *Config) BuildBlockAdapter() (block.Adapter, error) {
	blockstore := viper.GetString(BlockstoreTypeKey)
	switch blockstore {
	case BlockstoreTypeLocal:
		location, err := homedir.Expand(viper.GetString(BlockstoreLocalPathKey))
		if err != nil {
			return nil, fmt.Errorf("expand blockstore local path: %w", err)
		}
		return local.NewAdapter(location)
	case BlockstoreTypeMem:
		return mem.New(), nil
	default:
		return nil, fmt.Errorf("%w: unknown blockstore type %q", ErrBadConfiguration, blockstore)
	}
}
