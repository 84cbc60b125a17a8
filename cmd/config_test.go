package main

import (
	"testing"

	"github.com/fantasyee/fantasyee/config"
	"github.com/stretchr/testify/assert"
)

func TestRedactConfig(t *testing.T) {
	cfg := config.Configuration{
		ProjectName: "Fantasyee",
		Server:      config.ServerConfig{JWTSecret: "s3cret", Port: "5001"},
		DataSource:  config.DataSourceConfig{Dns: "postgres://u:p@db:5432/fantasyee"},
		Redis:       config.RedisConfig{Dns: "redis://:p@cache:6379"},
	}

	out := redactConfig(cfg)
	assert.Equal(t, redacted, out.Server.JWTSecret)
	assert.Empty(t, out.Server.SecretKey)
	assert.Equal(t, redacted, out.DataSource.Dns)
	assert.Equal(t, redacted, out.Redis.Dns)
	assert.Equal(t, "5001", out.Server.Port)
	assert.Equal(t, "s3cret", cfg.Server.JWTSecret)
}
