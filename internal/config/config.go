package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

const (
	DriverJSON     = "json"
	DriverPostgres = "postgres"
)

type Config struct {
	App struct {
		Env string
	} `mapstructure:"app"`

	Telegram struct {
		Token       string
		AdminID     int64 `mapstructure:"admin_id"`
		PollTimeout int   `mapstructure:"poll_timeout"`
	} `mapstructure:"telegram"`

	Order struct {
		Cooldown  time.Duration
		MinAmount int `mapstructure:"min_amount"`
	} `mapstructure:"order"`

	Broadcast struct {
		Delay time.Duration
	} `mapstructure:"broadcast"`

	Directory struct {
		Driver string
		Path   string
	} `mapstructure:"directory"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	Postgres struct {
		DSN string
	} `mapstructure:"postgres"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`
}

// Load собирает конфиг: .env -> YAML (если есть) -> переменные окружения.
// BOT_TOKEN и ADMIN_ID обязательны.
func Load(path string) (Config, error) {
	var c Config

	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return c, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("telegram.token", "BOT_TOKEN")
	_ = v.BindEnv("telegram.admin_id", "ADMIN_ID")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return c, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	if strings.TrimSpace(v.GetString("telegram.token")) == "" {
		return c, errors.New("config: BOT_TOKEN is required")
	}
	rawAdmin := strings.TrimSpace(v.GetString("telegram.admin_id"))
	if rawAdmin == "" {
		return c, errors.New("config: ADMIN_ID is required")
	}
	if _, err := strconv.ParseInt(rawAdmin, 10, 64); err != nil {
		return c, fmt.Errorf("config: ADMIN_ID must be an integer, got %q", rawAdmin)
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("config: %w", err)
	}
	if err := c.validate(); err != nil {
		return c, err
	}
	return c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "prod")
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_id", "")
	v.SetDefault("telegram.poll_timeout", 60)
	// в разных версиях бота окно было 3ч и 6ч, поэтому это настройка
	v.SetDefault("order.cooldown", "6h")
	v.SetDefault("order.min_amount", 10)
	v.SetDefault("broadcast.delay", "50ms")
	v.SetDefault("directory.driver", DriverJSON)
	v.SetDefault("directory.path", "users.json")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("metrics.enabled", true)
}

func (c Config) validate() error {
	if c.Order.Cooldown <= 0 {
		return fmt.Errorf("config: order.cooldown must be positive, got %s", c.Order.Cooldown)
	}
	if c.Order.MinAmount < 1 {
		return fmt.Errorf("config: order.min_amount must be >= 1, got %d", c.Order.MinAmount)
	}
	if c.Broadcast.Delay < 0 {
		return fmt.Errorf("config: broadcast.delay must not be negative")
	}
	switch c.Directory.Driver {
	case DriverJSON:
		if c.Directory.Path == "" {
			return errors.New("config: directory.path is required for json driver")
		}
	case DriverPostgres:
		if c.Postgres.DSN == "" {
			return errors.New("config: postgres.dsn is required for postgres driver")
		}
	default:
		return fmt.Errorf("config: unknown directory.driver %q", c.Directory.Driver)
	}
	return nil
}
