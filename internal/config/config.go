package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"dealwatch/internal/domain"
	"dealwatch/pkg/errcodes"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type Config struct {
	App         App
	ThreeCommas ThreeCommas
	Bot         Bot
	Poller      Poller
	Tracker     Tracker
	Stats       Stats
	Storage     Storage
	Postgres    Postgres
	Redis       Redis
	Servers     Servers
	Relay       Relay
	Log         Log
}

type App struct {
	Name     string `env:"APP_NAME" envDefault:"dealwatch"`
	Version  string `env:"APP_VERSION" envDefault:"dev"`
	IPifyURL string `env:"IPIFY_URL" envDefault:"https://api.ipify.org" validate:"omitempty,url"`
}

type Bot struct {
	Token   string `env:"BOT_TOKEN,required" json:"-" validate:"required"`
	ChatID  int64  `env:"BOT_CHAT_ID,required" validate:"required"`
	AdminID int64  `env:"BOT_ADMIN_ID"`
}

type Poller struct {
	Interval time.Duration `env:"POLL_INTERVAL" envDefault:"20s" validate:"gt=0"`
	Scopes   []string      `env:"POLL_SCOPES" envDefault:"active,finished" envSeparator:"," validate:"min=1,dive,oneof=active finished"`
}

type Tracker struct {
	AnnounceColdEntries bool `env:"TRACKER_ANNOUNCE_COLD_ENTRIES" envDefault:"true"`
}

type Stats struct {
	TTL time.Duration `env:"STATS_TTL" envDefault:"30s"`
}

type Storage struct {
	Backend   string        `env:"STATE_BACKEND" envDefault:"memory" validate:"oneof=memory redis postgres"`
	Retention time.Duration `env:"STATE_RETENTION" envDefault:"0s" validate:"gte=0"`
}

type Log struct {
	Format string `env:"LOG_FORMAT" envDefault:"text" validate:"oneof=text json"`
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	// FieldMaxLen caps HTTP dumps in the status API logs; 0 turns them off.
	FieldMaxLen int `env:"LOG_FIELD_MAX_LEN" envDefault:"0" validate:"gte=0"`
}

// Load reads .env when present, then the environment. Any problem is
// reported as a ConfigError.
func Load() (Config, error) {
	_ = godotenv.Load()

	return Parse(env.Options{})
}

// Parse reads the configuration with the given env options and validates it.
func Parse(opts env.Options) (Config, error) {
	var config Config

	if err := env.ParseWithOptions(&config, opts); err != nil {
		return Config{}, domain.WrapError(err, errcodes.ConfigError, "parse environment")
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return domain.WrapError(err, errcodes.ConfigError, "invalid configuration")
	}

	if c.Storage.Backend == BackendPostgres && c.Postgres.DSN == "" {
		return domain.NewError(errcodes.ConfigError, "PG_DSN is required for the postgres state backend")
	}

	return nil
}

// LogLevel parses Log.Level, falling back to info.
func (l Log) LogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}

	return lvl
}

func correctNewlines(s string) string {
	return strings.NewReplacer(`"`, "", `\n`, "\n").Replace(s)
}
