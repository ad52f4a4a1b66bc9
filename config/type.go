package config

type Config struct {
	DB         DBConfig         `json:"db"  yaml:"db"`
	Logger     LoggerConfig     `json:"logger"  yaml:"logger"`
	Server     ServerConfig     `json:"server"  yaml:"server"`
	Queue      QueueConfig      `json:"queue"  yaml:"queue"`
	Scanner    ScannerConfig    `json:"scanner"  yaml:"scanner"`
	Encryption EncryptionConfig `json:"encryption"  yaml:"encryption"`
	Artifacts  ArtifactsConfig  `json:"artifacts"  yaml:"artifacts"`
}

type DBConfig struct {
	Host     string `json:"host"  yaml:"host"`
	Port     uint   `json:"port"  yaml:"port"`
	Username string `json:"username"  yaml:"username"`
	Password string `json:"password"  yaml:"password"`
	Database string `json:"database"  yaml:"database"`
}

type ServerConfig struct {
	HttpPort          uint   `json:"httpPort"  yaml:"httpPort"`
	Secret            string `json:"secret"  yaml:"secret"`
	SslEnabled        bool   `json:"sslEnabled"  yaml:"sslEnabled"`
	Key               string `json:"key"  yaml:"key"`
	Cert              string `json:"cert"  yaml:"cert"`
	AuthExpMinute     uint   `json:"authExpMin"  yaml:"authExpMin"`
	AuthRefreshMinute uint   `json:"authRefreshMin"  yaml:"authRefreshMin"`
}

type LoggerConfig struct {
	Level  string `json:"level"  yaml:"level"`
	Output string `json:"output"  yaml:"output"`
	Path   string `json:"path"  yaml:"path"`
}

// QueueConfig controls the scan job queue and its worker pool.
type QueueConfig struct {
	WorkerCount          uint `json:"workerCount"  yaml:"workerCount"`
	PollIntervalSeconds  uint `json:"pollIntervalSec"  yaml:"pollIntervalSec"`
	MaxAttempts          uint `json:"maxAttempts"  yaml:"maxAttempts"`
	BackoffBaseSeconds   uint `json:"backoffBaseSec"  yaml:"backoffBaseSec"`
	BackoffMaxSeconds    uint `json:"backoffMaxSec"  yaml:"backoffMaxSec"`
	RetentionHours       uint `json:"retentionHours"  yaml:"retentionHours"`
	StaleInFlightMinutes uint `json:"staleInFlightMin"  yaml:"staleInFlightMin"`
}

// ScannerConfig holds settings shared by all scanner adapters.
type ScannerConfig struct {
	OutputDir      string `json:"outputDir"  yaml:"outputDir"`
	TimeoutMinutes uint   `json:"timeoutMin"  yaml:"timeoutMin"`
}

type EncryptionConfig struct {
	// 32-byte key for AES-256-GCM credential payload encryption.
	Key string `json:"key"  yaml:"key"`
}

// ArtifactsConfig configures the optional MinIO raw-output store.
type ArtifactsConfig struct {
	Enabled   bool   `json:"enabled"  yaml:"enabled"`
	Endpoint  string `json:"endpoint"  yaml:"endpoint"`
	Region    string `json:"region"  yaml:"region"`
	Bucket    string `json:"bucket"  yaml:"bucket"`
	AccessKey string `json:"accessKey"  yaml:"accessKey"`
	SecretKey string `json:"secretKey"  yaml:"secretKey"`
	UseSSL    bool   `json:"useSSL"  yaml:"useSSL"`
}
