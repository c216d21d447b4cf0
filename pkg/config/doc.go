// Package config loads application configuration from environment variables.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11 behind a
// small generic API: declare a struct with env tags and call Load. Each
// configuration type is parsed once per process and cached; LoadEnv pulls in
// explicit .env files before parsing, and ForceReloadConfig and ResetCache
// exist for tests that mutate the environment.
//
//	type RedisConfig struct {
//		ConnectionURL string `env:"REDIS_URL,required"`
//	}
//
//	var cfg RedisConfig
//	config.MustLoad(&cfg)
package config
