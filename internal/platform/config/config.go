package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config es un value object inmutable: se construye una vez en main
// y se inyecta a los módulos que lo necesitan. Nada de singletons globales.
type Config struct {
	AppName string
	Addr    string

	// Base de datos (vacío = repos in-memory, modo dev)
	DBDSN string

	// Credenciales (HS256)
	TokenSecret string
	TokenTTL    time.Duration

	LogLevel  string
	LogFormat string
}

// Load lee config desde env (prefijo FINCA_) y, opcionalmente, un
// config.yaml en el working dir. Env gana sobre archivo.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("app_name", "finca-manager")
	v.SetDefault("addr", ":8080")
	v.SetDefault("db_dsn", "")
	v.SetDefault("token_secret", "")
	v.SetDefault("token_ttl", "30m")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FINCA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// El archivo es opcional; cualquier otro error sí corta.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
	}

	cfg := Config{
		AppName:     strings.TrimSpace(v.GetString("app_name")),
		Addr:        strings.TrimSpace(v.GetString("addr")),
		DBDSN:       strings.TrimSpace(v.GetString("db_dsn")),
		TokenSecret: v.GetString("token_secret"),
		TokenTTL:    v.GetDuration("token_ttl"),
		LogLevel:    strings.TrimSpace(v.GetString("log_level")),
		LogFormat:   strings.TrimSpace(v.GetString("log_format")),
	}

	if cfg.Addr == "" {
		return Config{}, ErrInvalidConfig
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 30 * time.Minute
	}

	return cfg, nil
}
