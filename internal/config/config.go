package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Default channels a dashboard subscribes to.
var DefaultChannels = []string{"workflows", "agents", "tasks", "suggestions"}

// Config is the effective flowdash configuration.
type Config struct {
	API       APIConfig       `mapstructure:"api" yaml:"api" json:"api"`
	WS        WSConfig        `mapstructure:"ws" yaml:"ws" json:"ws"`
	Live      LiveConfig      `mapstructure:"live" yaml:"live" json:"live"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging" json:"logging"`
	DevServer DevServerConfig `mapstructure:"devserver" yaml:"devserver" json:"devserver"`

	file string
}

// APIConfig configures the REST boundary.
type APIConfig struct {
	URL     string        `mapstructure:"url" yaml:"url" json:"url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
}

// WSConfig configures the push boundary.
type WSConfig struct {
	URL string `mapstructure:"url" yaml:"url" json:"url"`
}

// LiveConfig configures live channel behaviour.
type LiveConfig struct {
	Channels  []string        `mapstructure:"channels" yaml:"channels" json:"channels"`
	Reconnect ReconnectConfig `mapstructure:"reconnect" yaml:"reconnect" json:"reconnect"`
}

// ReconnectConfig bounds automatic reconnection. MaxAttempts 0 disables it.
type ReconnectConfig struct {
	MaxAttempts     int           `mapstructure:"max_attempts" yaml:"max_attempts" json:"max_attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval" yaml:"initial_interval" json:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval" yaml:"max_interval" json:"max_interval"`
}

// LoggingConfig configures logrus.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// DevServerConfig configures the fixture backend.
type DevServerConfig struct {
	Addr             string        `mapstructure:"addr" yaml:"addr" json:"addr"`
	SimulateInterval time.Duration `mapstructure:"simulate_interval" yaml:"simulate_interval" json:"simulate_interval"`
}

// Default returns the configuration with no file or environment applied.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// defaults are static, a failure here is a programming error
		panic(fmt.Sprintf("config: unmarshal defaults: %v", err))
	}
	return &cfg
}

// Load reads configuration from defaults, an optional config file, a .env
// file and FLOWDASH_* environment variables, in increasing precedence.
func Load(configFile string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	setupViper(v, configFile)
	bindEnvironmentVariables(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, "error reading config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "error unmarshaling config")
	}
	cfg.file = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadEnvFile loads .env from the working directory when present.
func loadEnvFile() {
	if err := gotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("Error loading .env file")
	}
}

func setupViper(v *viper.Viper, configFile string) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "flowdash"))
	}
	if len(configFile) > 0 {
		v.SetConfigFile(configFile)
	}

	setDefaults(v)

	v.SetEnvPrefix("FLOWDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// bindEnvironmentVariables binds keys that also accept unprefixed names.
func bindEnvironmentVariables(v *viper.Viper) {
	v.BindEnv("api.url", "FLOWDASH_API_URL", "API_URL")
	v.BindEnv("ws.url", "FLOWDASH_WS_URL", "WS_URL")
	v.BindEnv("logging.level", "FLOWDASH_LOGGING_LEVEL", "LOG_LEVEL")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.url", "http://localhost:8000")
	v.SetDefault("api.timeout", "15s")
	v.SetDefault("ws.url", "ws://localhost:8000")

	v.SetDefault("live.channels", DefaultChannels)
	v.SetDefault("live.reconnect.max_attempts", 0)
	v.SetDefault("live.reconnect.initial_interval", "500ms")
	v.SetDefault("live.reconnect.max_interval", "30s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("devserver.addr", ":8000")
	v.SetDefault("devserver.simulate_interval", "0s")
}

// Validate checks URLs and logging settings.
func (c *Config) Validate() error {
	if err := checkURL(c.API.URL, "http", "https"); err != nil {
		return errors.Wrap(err, "api.url")
	}
	if err := checkURL(c.WS.URL, "ws", "wss"); err != nil {
		return errors.Wrap(err, "ws.url")
	}
	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		return errors.Wrap(err, "logging.level")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format: unsupported format %q", c.Logging.Format)
	}
	if c.Live.Reconnect.MaxAttempts < 0 {
		return fmt.Errorf("live.reconnect.max_attempts: must not be negative")
	}
	return nil
}

func checkURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("%q must be an absolute %s URL", raw, strings.Join(schemes, "/"))
}

// APIBase returns the REST base URL without a trailing slash.
func (c *Config) APIBase() string {
	return strings.TrimRight(c.API.URL, "/")
}

// WSEndpoint returns the push connection URL.
func (c *Config) WSEndpoint() string {
	return strings.TrimRight(c.WS.URL, "/") + "/ws"
}

// File returns the config file that was read, or "" when none was found.
func (c *Config) File() string {
	return c.file
}

// SetupLogging applies the logging section to the global logrus logger.
func SetupLogging(c *Config) error {
	level, err := logrus.ParseLevel(c.Logging.Level)
	if err != nil {
		return errors.Wrap(err, "error parsing log level")
	}
	logrus.SetLevel(level)

	switch strings.ToLower(c.Logging.Format) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
	return nil
}
