package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Config struct {
	App struct {
		Env     string
		LogFile string `mapstructure:"log_file"`
	} `mapstructure:"app"`

	Postgres struct {
		DSN string
	} `mapstructure:"postgres"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	Station struct {
		// Хэш bcrypt имеет приоритет над паролем в открытом виде.
		ReopenPasswordHash string `mapstructure:"reopen_password_hash"`
		ReopenPassword     string `mapstructure:"reopen_password"`
		OutputDir          string `mapstructure:"output_dir"`
		TemplatePath       string `mapstructure:"template_path"`
		Printer            string
		NoPrint            bool `mapstructure:"no_print"`
		ChromeNoSandbox    bool `mapstructure:"chrome_no_sandbox"`
	} `mapstructure:"station"`

	Telegram struct {
		Token       string
		AdminChatID int64 `mapstructure:"admin_chat_id"`
	} `mapstructure:"telegram"`
}

var defaults = map[string]any{
	"app.env":                      "prod",
	"app.log_file":                 "",
	"postgres.dsn":                 "",
	"http.addr":                    ":8080",
	"metrics.enabled":              true,
	"station.reopen_password_hash": "",
	"station.reopen_password":      "",
	"station.output_dir":           "labels",
	"station.template_path":        "config/label_template.json",
	"station.printer":              "",
	"station.no_print":             false,
	"station.chrome_no_sandbox":    false,
	"telegram.token":               "",
	"telegram.admin_chat_id":       0,
}

// Load читает YAML и переопределяет значения из окружения (APP_STATION_PRINTER и т.п.).
// .env рядом с бинарником подхватывается, если он есть.
func Load(path string) (Config, error) {
	var c Config
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return c, err
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetConfigFile(path)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return c, err
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}
