package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type PersistenceConfig struct {
	DataDir         string        `yaml:"dataDir" validate:"required|unixPath"`
	BackupDir       string        `yaml:"backupDir" validate:"required|unixPath"`
	FlushInterval   time.Duration `yaml:"flushInterval" validate:"required|min:1"`
	BackupRetention time.Duration `yaml:"backupRetention" validate:"required|min:1"`
	SweepInterval   time.Duration `yaml:"sweepInterval" validate:"required|min:1"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type TrackerConfig struct {
	MetadataTTL time.Duration `yaml:"metadataTTL" validate:"required|min:1"`
}

type TransportConfig struct {
	APIBase string        `yaml:"apiBase"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	Size    int  `yaml:"size"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName     string
	Debug       bool
	Path        string
	Tracker     TrackerConfig     `yaml:"tracker"`
	WebServer   Server            `yaml:"webServer"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Transport   TransportConfig   `yaml:"transport"`
	Logger      LoggerConfig      `yaml:"logger"`
	Cache       CacheConfig       `yaml:"cache"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}
