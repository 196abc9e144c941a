package config

import "os"

type AppConfig struct {
	DebugMode      bool
	PostgresConfig *PostgresConfig
	RedisConfig    *RedisConfig
	SandboxConfig  *SandboxConfig
	DispatchConfig *DispatchConfig
	HTTPConfig     *HTTPConfig
}

func NewSystemConfig() *AppConfig {
	return &AppConfig{
		DebugMode:      os.Getenv("DEBUG_MODE") == "true",
		PostgresConfig: NewPostgresConfig(),
		RedisConfig:    NewRedisConfig(),
		SandboxConfig:  NewSandboxConfig(),
		DispatchConfig: NewDispatchConfig(),
		HTTPConfig:     NewHTTPConfig(),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
