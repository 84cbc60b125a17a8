/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT            = "5001"
	DEFAULT_MONITORING_PORT = "5004"
	DEFAULT_METRICS_PORT    = "5005"
	DEFAULT_UNIT_QUEUE      = "units"
	DEFAULT_MIN_APP_VERSION = "1.0"
)

type Environment string

const (
	Develop    Environment = "develop"
	Release    Environment = "release"
	Production Environment = "production"
)

var ConfigStore atomic.Value

type ServerConfig struct {
	SSL                bool   `json:"ssl" envconfig:"FANTASYEE_SERVER_SSL"`
	SecretKey          string `json:"secret_key" envconfig:"FANTASYEE_SERVER_SECRET_KEY"`
	JWTSecret          string `json:"jwt_secret" envconfig:"FANTASYEE_SERVER_JWT_SECRET"`
	Domain             string `json:"domain" envconfig:"FANTASYEE_SERVER_SSL_DOMAIN"`
	Email              string `json:"ssl_email" envconfig:"FANTASYEE_SERVER_SSL_EMAIL"`
	Port               string `json:"port" envconfig:"FANTASYEE_SERVER_PORT"`
	MinAppVersion      string `json:"min_app_version" envconfig:"FANTASYEE_SERVER_MIN_APP_VERSION"`
	AccessTokenTTLSec  int    `json:"access_token_ttl_sec" envconfig:"FANTASYEE_SERVER_ACCESS_TOKEN_TTL_SEC"`
	RefreshTokenTTLSec int    `json:"refresh_token_ttl_sec" envconfig:"FANTASYEE_SERVER_REFRESH_TOKEN_TTL_SEC"`
}

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"FANTASYEE_DATA_SOURCE_DNS"`
}

type RedisConfig struct {
	Dns           string `json:"dns" envconfig:"FANTASYEE_REDIS_DNS"`
	SkipTLSVerify bool   `json:"skip_tls_verify" envconfig:"FANTASYEE_REDIS_SKIP_TLS_VERIFY"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"FANTASYEE_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"FANTASYEE_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"FANTASYEE_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url" envconfig:"FANTASYEE_SLACK_WEBHOOK_URL"`
}

type Notification struct {
	Slack SlackWebhook `json:"slack"`
}

// AuthConfig controls the login throttle and which address lists are
// re-read from the database on every login instead of served from cache.
type AuthConfig struct {
	ForceUpdateBlacklist bool `json:"force_update_blacklist" envconfig:"FANTASYEE_AUTH_FORCE_UPDATE_BLACKLIST"`
	ForceUpdateWhitelist bool `json:"force_update_whitelist" envconfig:"FANTASYEE_AUTH_FORCE_UPDATE_WHITELIST"`
	AttemptLimit         int  `json:"attempt_limit" envconfig:"FANTASYEE_AUTH_ATTEMPT_LIMIT"`
	AttemptWindowSec     int  `json:"attempt_window_sec" envconfig:"FANTASYEE_AUTH_ATTEMPT_WINDOW_SEC"`
}

func (a AuthConfig) AttemptWindow() time.Duration {
	return time.Duration(a.AttemptWindowSec) * time.Second
}

type LockConfig struct {
	RequestMs      int `json:"request_ms" envconfig:"FANTASYEE_LOCK_REQUEST_MS"`
	CooldownSec    int `json:"cooldown_sec" envconfig:"FANTASYEE_LOCK_COOLDOWN_SEC"`
	GamePlayingSec int `json:"game_playing_sec" envconfig:"FANTASYEE_LOCK_GAME_PLAYING_SEC"`
}

func (l LockConfig) Request() time.Duration {
	return time.Duration(l.RequestMs) * time.Millisecond
}

func (l LockConfig) Cooldown() time.Duration {
	return time.Duration(l.CooldownSec) * time.Second
}

func (l LockConfig) GamePlaying() time.Duration {
	return time.Duration(l.GamePlayingSec) * time.Second
}

type AddressListConfig struct {
	WhitelistTTLSec int `json:"whitelist_ttl_sec" envconfig:"FANTASYEE_WHITELIST_TTL_SEC"`
	BlacklistTTLSec int `json:"blacklist_ttl_sec" envconfig:"FANTASYEE_BLACKLIST_TTL_SEC"`
}

func (a AddressListConfig) WhitelistTTL() time.Duration {
	return time.Duration(a.WhitelistTTLSec) * time.Second
}

func (a AddressListConfig) BlacklistTTL() time.Duration {
	return time.Duration(a.BlacklistTTLSec) * time.Second
}

type QueueConfig struct {
	PollTimeoutSec    int    `json:"poll_timeout_sec" envconfig:"FANTASYEE_QUEUE_POLL_TIMEOUT_SEC"`
	IdlePolls         int    `json:"idle_polls" envconfig:"FANTASYEE_QUEUE_IDLE_POLLS"`
	UnitQueue         string `json:"unit_queue" envconfig:"FANTASYEE_QUEUE_UNIT_QUEUE"`
	MonitoringPort    string `json:"monitoring_port" envconfig:"FANTASYEE_QUEUE_MONITORING_PORT"`
	WorkerConcurrency int    `json:"worker_concurrency" envconfig:"FANTASYEE_QUEUE_WORKER_CONCURRENCY"`
}

func (q QueueConfig) PollTimeout() time.Duration {
	return time.Duration(q.PollTimeoutSec) * time.Second
}

type RecorderConfig struct {
	BufferSize int `json:"buffer_size" envconfig:"FANTASYEE_RECORDER_BUFFER_SIZE"`
	Workers    int `json:"workers" envconfig:"FANTASYEE_RECORDER_WORKERS"`
}

type Configuration struct {
	ProjectName     string            `json:"project_name" envconfig:"FANTASYEE_PROJECT_NAME"`
	Environment     Environment       `json:"environment" envconfig:"FANTASYEE_ENVIRONMENT"`
	Server          ServerConfig      `json:"server"`
	DataSource      DataSourceConfig  `json:"data_source"`
	Redis           RedisConfig       `json:"redis"`
	Notification    Notification      `json:"notification"`
	RateLimit       RateLimitConfig   `json:"rate_limit"`
	Auth            AuthConfig        `json:"auth"`
	Locks           LockConfig        `json:"locks"`
	AddressList     AddressListConfig `json:"address_list"`
	Queue           QueueConfig       `json:"queue"`
	Recorder        RecorderConfig    `json:"recorder"`
	EnableTelemetry bool              `json:"enable_telemetry" envconfig:"FANTASYEE_ENABLE_TELEMETRY"`
	OtelEndpoint    string            `json:"otel_endpoint" envconfig:"FANTASYEE_OTEL_ENDPOINT"`
	MetricsPort     string            `json:"metrics_port" envconfig:"FANTASYEE_METRICS_PORT"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		defer f.Close()
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}
	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	err = envconfig.Process("fantasyee", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return nil
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called fantasyee.json with your config")
	}
	return c, nil
}

func setDefaultInt(v *int, def int, name string) {
	if *v <= 0 {
		*v = def
		log.Printf("Warning: %s not specified. Setting default value: %d", name, def)
	}
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		cnf.ProjectName = "Fantasyee"
	}

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	if cnf.Redis.Dns == "" {
		log.Println("Error: Redis DNS is empty. It's a required field.")
		return errors.New("redis DNS is required")
	}

	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)

	switch cnf.Environment {
	case "":
		cnf.Environment = Production
	case Develop, Release, Production:
	default:
		return fmt.Errorf("unknown environment: %s", cnf.Environment)
	}

	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}
	if cnf.Server.MinAppVersion == "" {
		cnf.Server.MinAppVersion = DEFAULT_MIN_APP_VERSION
	}
	if cnf.Server.JWTSecret == "" {
		if cnf.Environment == Production {
			return errors.New("server jwt secret is required in production")
		}
		cnf.Server.JWTSecret = "fantasyee-" + string(cnf.Environment)
		log.Println("Warning: JWT secret not specified. Using an insecure development secret.")
	}
	setDefaultInt(&cnf.Server.AccessTokenTTLSec, 3600, "access token ttl")
	setDefaultInt(&cnf.Server.RefreshTokenTTLSec, 7*24*3600, "refresh token ttl")

	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		defaultBurst := 2 * int(*cnf.RateLimit.RequestsPerSecond)
		cnf.RateLimit.Burst = &defaultBurst
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", defaultBurst)
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		defaultRPS := float64(*cnf.RateLimit.Burst) / 2
		cnf.RateLimit.RequestsPerSecond = &defaultRPS
		log.Printf("Warning: Rate limit RPS not specified. Setting default value: %.2f", defaultRPS)
	}
	if cnf.RateLimit.CleanupIntervalSec == nil {
		defaultCleanup := 10800
		cnf.RateLimit.CleanupIntervalSec = &defaultCleanup
	}

	setDefaultInt(&cnf.Auth.AttemptLimit, 5, "auth attempt limit")
	setDefaultInt(&cnf.Auth.AttemptWindowSec, 5, "auth attempt window")

	setDefaultInt(&cnf.Locks.RequestMs, 1000, "request lock ttl")
	setDefaultInt(&cnf.Locks.CooldownSec, 10, "cooldown lock ttl")
	setDefaultInt(&cnf.Locks.GamePlayingSec, 180, "game playing lock ttl")

	setDefaultInt(&cnf.AddressList.WhitelistTTLSec, 300, "whitelist ttl")
	setDefaultInt(&cnf.AddressList.BlacklistTTLSec, 600, "blacklist ttl")

	setDefaultInt(&cnf.Queue.PollTimeoutSec, 10, "queue poll timeout")
	setDefaultInt(&cnf.Queue.IdlePolls, 3, "queue idle polls")
	setDefaultInt(&cnf.Queue.WorkerConcurrency, 1, "worker concurrency")
	if cnf.Queue.UnitQueue == "" {
		cnf.Queue.UnitQueue = DEFAULT_UNIT_QUEUE
	}
	if cnf.Queue.MonitoringPort == "" {
		cnf.Queue.MonitoringPort = DEFAULT_MONITORING_PORT
	}

	setDefaultInt(&cnf.Recorder.BufferSize, 1024, "recorder buffer size")
	setDefaultInt(&cnf.Recorder.Workers, 2, "recorder workers")

	if cnf.MetricsPort == "" {
		cnf.MetricsPort = DEFAULT_METRICS_PORT
	}

	return nil
}

// MockConfig sets a mock configuration for testing purposes. Defaults are
// applied when the required sources are present.
func MockConfig(mockConfig *Configuration) {
	if mockConfig.DataSource.Dns != "" && mockConfig.Redis.Dns != "" {
		_ = mockConfig.validateAndAddDefaults()
	}
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
