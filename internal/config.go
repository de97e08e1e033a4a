package internal

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "MINIDB"

type Config struct {
	AppName string `mapstructure:"app_name"`

	Storage struct {
		DataFile string `mapstructure:"data_file"`

		History struct {
			Enabled bool   `mapstructure:"enabled"`
			Dir     string `mapstructure:"dir"`
			Author  string `mapstructure:"author"`
			Email   string `mapstructure:"email"`
		} `mapstructure:"history"`
	} `mapstructure:"storage"`

	Engine struct {
		AtomicUpdate bool `mapstructure:"atomic_update"`
	} `mapstructure:"engine"`

	Server struct {
		Addr  string `mapstructure:"addr"`
		Debug bool   `mapstructure:"debug"`

		Auth struct {
			Enabled   bool   `mapstructure:"enabled"`
			JWTSecret string `mapstructure:"jwt_secret"`
			Issuer    string `mapstructure:"issuer"`
			Audience  string `mapstructure:"audience"`
		} `mapstructure:"auth"`
	} `mapstructure:"server"`

	Client struct {
		HistoryFile string `mapstructure:"history_file"`
		HistoryMax  int    `mapstructure:"history_max"`
	} `mapstructure:"client"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "minidb")

	v.SetDefault("storage.data_file", "minidb.db")
	v.SetDefault("storage.history.enabled", false)
	v.SetDefault("storage.history.dir", ".minidb-history")
	v.SetDefault("storage.history.author", "minidb")
	v.SetDefault("storage.history.email", "minidb@localhost")

	v.SetDefault("engine.atomic_update", false)

	v.SetDefault("server.addr", "127.0.0.1:8866")
	v.SetDefault("server.debug", false)
	v.SetDefault("server.auth.enabled", false)
	v.SetDefault("server.auth.jwt_secret", "")
	v.SetDefault("server.auth.issuer", "")
	v.SetDefault("server.auth.audience", "")

	v.SetDefault("client.history_file", ".minidb_history")
	v.SetDefault("client.history_max", 1000)

	v.SetDefault("log.level", "info")
}

// LoadConfig reads the YAML file at path on top of the defaults. An empty
// path skips the file. MINIDB_* environment variables override both, with
// '.' in a key written as '_' (MINIDB_STORAGE_DATA_FILE).
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LogLevel maps log.level to a slog level. Unknown names mean info.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// InstallLogger makes a text handler on stderr at log.level the default
// slog logger.
func (c *Config) InstallLogger() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: c.LogLevel()})))
}
