package providers

import (
	"chatpulse/internal/structures"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	filename := filepath.Base(flags.ConfigPath)
	viper.AddConfigPath(filepath.Dir(flags.ConfigPath))
	viper.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	viper.SetConfigType("yaml")

	viper.SetDefault("webServer.host", "0.0.0.0")
	viper.SetDefault("webServer.port", 8080)
	viper.SetDefault("persistence.dataDir", "/var/lib/chatpulse")
	viper.SetDefault("persistence.backupDir", "/var/lib/chatpulse/backups")
	viper.SetDefault("persistence.flushInterval", "5s")
	viper.SetDefault("persistence.backupRetention", "300s")
	viper.SetDefault("persistence.sweepInterval", "60s")
	viper.SetDefault("tracker.metadataTTL", "30s")
	viper.SetDefault("transport.apiBase", "")
	viper.SetDefault("transport.token", "")
	viper.SetDefault("transport.timeout", "10s")
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.mode", 0o644)
	viper.SetDefault("logger.dir", "/var/log/chatpulse")
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.size", 16)
	viper.SetDefault("metrics.enabled", true)

	viper.BindEnv("logger.level", "CHATPULSE_LOG_LEVEL")
	viper.BindEnv("persistence.dataDir", "CHATPULSE_DATA_DIR")
	viper.BindEnv("persistence.backupDir", "CHATPULSE_BACKUP_DIR")
	viper.BindEnv("persistence.flushInterval", "CHATPULSE_FLUSH_INTERVAL")
	viper.BindEnv("persistence.backupRetention", "CHATPULSE_BACKUP_RETENTION")
	viper.BindEnv("persistence.sweepInterval", "CHATPULSE_BACKUP_SWEEP_INTERVAL")
	viper.BindEnv("tracker.metadataTTL", "CHATPULSE_METADATA_TTL")
	viper.BindEnv("transport.apiBase", "CHATPULSE_TRANSPORT_API")
	viper.BindEnv("transport.token", "CHATPULSE_TRANSPORT_TOKEN")
	viper.BindEnv("cache.enabled", "CHATPULSE_CACHE_ENABLED")
	viper.BindEnv("cache.size", "CHATPULSE_CACHE_SIZE")

	// The config file is optional: defaults plus env overrides are enough
	// to run, so only a present-but-broken file is fatal.
	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	err = viper.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "ChatPulse"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
