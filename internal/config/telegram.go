package config

// Relay configures the MTProto user session that forwards messages from the
// 3Commas notifications bot.
type Relay struct {
	Enabled      bool   `env:"RELAY_ENABLED" envDefault:"false"`
	APIID        int    `env:"TG_API_ID" validate:"required_if=Enabled true"`
	APIHash      string `env:"TG_API_HASH" validate:"required_if=Enabled true" json:"-"`
	Phone        string `env:"TG_PHONE" validate:"required_if=Enabled true" json:"-"`
	Password     string `env:"TG_PASSWORD" json:"-"`
	FromUsername string `env:"RELAY_FROM_USERNAME" envDefault:"3commas_notifications_bot"`
	SessionPath  string `env:"RELAY_SESSION_PATH" envDefault:"session.json"`
}
