package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/jiaming2012/backtest-workspace/src/utils"
)

const (
	envPrefix          = "WORKSPACE_"
	defaultServiceName = "backtest-workspace"
)

// Example workspace.yaml:
//
//	server:
//	  port: 8080
//	log:
//	  level: info
//	  json: false
//	simulator:
//	  baseURL: http://localhost:9000
//	  timeout: 2m
//	  cacheTTL: 10m
//	stream:
//	  writeTimeout: 10s
//	telemetry:
//	  serviceName: backtest-workspace
//	  endpoint: localhost:4318
//	  insecure: true
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Simulator SimulatorConfig `yaml:"simulator"`
	Stream    StreamConfig    `yaml:"stream"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type SimulatorConfig struct {
	BaseURL  string        `yaml:"baseURL"`
	Timeout  time.Duration `yaml:"timeout"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

type StreamConfig struct {
	WriteTimeout time.Duration `yaml:"writeTimeout"`
}

// TelemetryConfig points traces at an OTLP/HTTP collector. An empty Endpoint leaves tracing off.
type TelemetryConfig struct {
	ServiceName string `yaml:"serviceName"`
	Endpoint    string `yaml:"endpoint"`
	Insecure    bool   `yaml:"insecure"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{Port: 8080},
		Log:    LogConfig{Level: "info"},
		Simulator: SimulatorConfig{
			BaseURL:  "http://localhost:9000",
			Timeout:  2 * time.Minute,
			CacheTTL: 10 * time.Minute,
		},
		Stream:    StreamConfig{WriteTimeout: 10 * time.Second},
		Telemetry: TelemetryConfig{ServiceName: defaultServiceName},
	}
}

// Load reads the optional .env file, then the yaml file at path (if any), then applies
// WORKSPACE_* overrides and validates the result.
func Load(path string) (*Config, error) {
	if err := utils.InitEnvironmentVariables("."); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	c := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: failed to read %s: %w", path, err)
		}

		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config.Load: failed to parse %s: %w", path, err)
		}

		log.Infof("using config file %s", path)
	}

	c.applyEnv(envPrefix)

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config.Validate: invalid server.port %d", c.Server.Port)
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config.Validate: invalid log.level: %w", err)
	}

	if c.Simulator.BaseURL == "" {
		return errors.New("config.Validate: simulator.baseURL is required")
	}

	if _, err := url.ParseRequestURI(c.Simulator.BaseURL); err != nil {
		return fmt.Errorf("config.Validate: invalid simulator.baseURL: %w", err)
	}

	if c.Simulator.Timeout <= 0 {
		return errors.New("config.Validate: simulator.timeout must be positive")
	}

	if c.Simulator.CacheTTL < 0 {
		return errors.New("config.Validate: simulator.cacheTTL must not be negative")
	}

	if c.Stream.WriteTimeout <= 0 {
		c.Stream.WriteTimeout = 10 * time.Second
	}

	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = defaultServiceName
	}

	return nil
}

func (c *Config) applyEnv(prefix string) {
	c.Server.Port = pickInt(os.Getenv(prefix+"SERVER_PORT"), c.Server.Port)

	c.Log.Level = pickStr(os.Getenv(prefix+"LOG_LEVEL"), c.Log.Level)
	c.Log.JSON = pickBool(os.Getenv(prefix+"LOG_JSON"), c.Log.JSON)

	c.Simulator.BaseURL = pickStr(os.Getenv(prefix+"SIMULATOR_BASE_URL"), c.Simulator.BaseURL)
	c.Simulator.Timeout = pickDuration(os.Getenv(prefix+"SIMULATOR_TIMEOUT"), c.Simulator.Timeout)
	c.Simulator.CacheTTL = pickDuration(os.Getenv(prefix+"SIMULATOR_CACHE_TTL"), c.Simulator.CacheTTL)

	c.Stream.WriteTimeout = pickDuration(os.Getenv(prefix+"STREAM_WRITE_TIMEOUT"), c.Stream.WriteTimeout)

	c.Telemetry.ServiceName = pickStr(os.Getenv(prefix+"TELEMETRY_SERVICE_NAME"), c.Telemetry.ServiceName)
	c.Telemetry.Endpoint = pickStr(os.Getenv(prefix+"TELEMETRY_ENDPOINT"), c.Telemetry.Endpoint)
	c.Telemetry.Insecure = pickBool(os.Getenv(prefix+"TELEMETRY_INSECURE"), c.Telemetry.Insecure)
}

func pickStr(env, cur string) string {
	if v := strings.TrimSpace(env); v != "" {
		return v
	}
	return cur
}

func pickInt(env string, cur int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(env)); err == nil {
		return v
	}
	return cur
}

func pickBool(env string, cur bool) bool {
	if v, err := strconv.ParseBool(strings.TrimSpace(env)); err == nil {
		return v
	}
	return cur
}

func pickDuration(env string, cur time.Duration) time.Duration {
	if v, err := time.ParseDuration(strings.TrimSpace(env)); err == nil {
		return v
	}
	return cur
}
