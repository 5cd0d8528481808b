// Package config loads the layered YAML configuration shared by the
// engine, gateway and persistor processes: a base file overlaid by an
// environment-specific file, overridable by environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Settings is the full configuration surface. Every process loads the
// whole struct and reads only the sections it needs.
type Settings struct {
	Application ApplicationSettings `mapstructure:"application"`
	Engine      EngineSettings      `mapstructure:"engine"`
	AMQP        AMQPSettings        `mapstructure:"amqp"`
	Database    DatabaseSettings    `mapstructure:"database"`
}

// ApplicationSettings is the gateway's own HTTP listener.
type ApplicationSettings struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// EngineSettings is the matching engine's TCP listener plus the static
// instrument it trades: base/quote currency are per-process config, not
// per-order, since the engine is single-instrument.
type EngineSettings struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	BaseCurrency  string `mapstructure:"base_currency"`
	QuoteCurrency string `mapstructure:"quote_currency"`
}

// AMQPSettings addresses the broker engine and persistor share.
type AMQPSettings struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	Channel     string `mapstructure:"channel"`
	ConsumerTag string `mapstructure:"consumer_tag"`
}

// ConnectionString builds the amqp091-go dial URL.
func (a AMQPSettings) ConnectionString() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d", a.Username, a.Password, a.Host, a.Port)
}

// DatabaseSettings names the persistor's SQLite file, relative to the
// process's working directory.
type DatabaseSettings struct {
	File string `mapstructure:"file"`
}

// defaultEnvironment is used when APP_ENVIRONMENT is unset.
const defaultEnvironment = "local"

// Load reads configDir/base.yaml, then layers configDir/<environment>.yaml
// on top (environment from APP_ENVIRONMENT, default "local"), then applies
// APP_-prefixed environment variables with "__" as the section separator
// (e.g. APP_APPLICATION__PORT overrides application.port).
func Load(configDir string) (*Settings, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetConfigName("base")
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read base config: %w", err)
	}

	environment := os.Getenv("APP_ENVIRONMENT")
	if environment == "" {
		environment = defaultEnvironment
	}

	envViper := viper.New()
	envViper.SetConfigType("yaml")
	envViper.SetConfigName(environment)
	envViper.AddConfigPath(configDir)
	if err := envViper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s config: %w", environment, err)
	}
	if err := v.MergeConfigMap(envViper.AllSettings()); err != nil {
		return nil, fmt.Errorf("config: merge %s config: %w", environment, err)
	}

	v.SetEnvPrefix("app")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	v.AutomaticEnv()

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &settings, nil
}
