package config

import "time"

type ThreeCommas struct {
	BaseURL   string        `env:"TC_BASE_URL" envDefault:"https://api.3commas.io" validate:"url"`
	APIKey    string        `env:"TC_API_KEY,required" json:"-" validate:"required"`
	APISecret string        `env:"TC_API_SECRET,required" json:"-" validate:"required"`
	PageLimit int           `env:"TC_PAGE_LIMIT" envDefault:"100" validate:"gt=0,lte=1000"`
	BotID     string        `env:"TC_BOT_ID"`
	AccountID string        `env:"TC_ACCOUNT_ID"`
	Timeout   time.Duration `env:"TC_TIMEOUT" envDefault:"15s" validate:"gt=0"`
	// LogLevel is the level of request and response dumps.
	LogLevel string `env:"TC_LOG_LEVEL" envDefault:"debug"`
}

// Secret returns the API secret with escaped newlines restored, so a PEM
// style value can be kept on one line in .env.
func (t ThreeCommas) Secret() string {
	return correctNewlines(t.APISecret)
}
