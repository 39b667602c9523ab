package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/UkralStul/graphql-userlist-service/internal/domain"
	"github.com/UkralStul/graphql-userlist-service/internal/logging"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "USERLIST"

// Config - параметры процесса. Читаются один раз при старте.
type Config struct {
	Port            int           `mapstructure:"port"`
	GraphQLPath     string        `mapstructure:"graphql_path"`
	Playground      bool          `mapstructure:"playground"`
	Introspection   bool          `mapstructure:"introspection"`
	ComplexityLimit int           `mapstructure:"complexity_limit"`
	MaxDepth        int           `mapstructure:"max_depth"`
	MaxParallelism  int           `mapstructure:"max_parallelism"`
	KeepAlive       time.Duration `mapstructure:"keepalive"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Log             Log           `mapstructure:"log"`
	Topics          Topics        `mapstructure:"topics"`
	Seed            Seed          `mapstructure:"seed"`
}

type Log struct {
	Level string `mapstructure:"level"`
}

// Topics - имена фиксированных широковещательных топиков.
type Topics struct {
	Users       string `mapstructure:"users"`
	MailingList string `mapstructure:"mailing_list"`
}

// Seed - начальное содержимое списков.
type Seed struct {
	Users  []string `mapstructure:"users"`
	Emails []string `mapstructure:"emails"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 3000)
	v.SetDefault("graphql_path", "/graphql")
	v.SetDefault("playground", true)
	v.SetDefault("introspection", true)
	v.SetDefault("complexity_limit", 0)
	v.SetDefault("max_depth", 0)
	v.SetDefault("max_parallelism", 10)
	v.SetDefault("keepalive", 10*time.Second)
	v.SetDefault("shutdown_timeout", 5*time.Second)
	v.SetDefault("log.level", logging.DefaultLevel)
	v.SetDefault("topics.users", "USER_LIST_CHANGED")
	v.SetDefault("topics.mailing_list", "MAILING_LIST_CHANGED")
	v.SetDefault("seed.users", []string{"John", "Jane"})
	v.SetDefault("seed.emails", []string{})
}

// BindFlags регистрирует флаги командной строки и связывает их с ключами viper.
func BindFlags(fs *pflag.FlagSet, v *viper.Viper) error {
	fs.Int("port", 3000, "HTTP listen port")
	fs.String("log-level", logging.DefaultLevel, "log level (debug, info, warn, error)")
	fs.Bool("playground", true, "serve the GraphQL playground on /")
	fs.StringSlice("seed-users", []string{"John", "Jane"}, "initial user list")

	for key, flag := range map[string]string{
		"port":       "port",
		"log.level":  "log-level",
		"playground": "playground",
		"seed.users": "seed-users",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// Load собирает конфигурацию: значения по умолчанию < файл < окружение < флаги.
func Load(v *viper.Viper, file string) (*Config, error) {
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d is out of range", c.Port))
	}
	if !strings.HasPrefix(c.GraphQLPath, "/") {
		errs = append(errs, fmt.Errorf("graphql_path %q must start with /", c.GraphQLPath))
	}
	if c.Topics.Users == "" || c.Topics.MailingList == "" {
		errs = append(errs, errors.New("topic names cannot be empty"))
	}
	if c.Topics.Users == c.Topics.MailingList {
		errs = append(errs, fmt.Errorf("topics.users and topics.mailing_list must differ, both are %q", c.Topics.Users))
	}
	if c.MaxParallelism <= 0 {
		errs = append(errs, fmt.Errorf("max_parallelism must be positive, got %d", c.MaxParallelism))
	}
	// Все, что попадает в список рассылки, проходит проверку формата, включая seed.
	for _, e := range c.Seed.Emails {
		if _, err := domain.ParseEmail(e); err != nil {
			errs = append(errs, fmt.Errorf("seed.emails: %w", err))
		}
	}
	return errors.Join(errs...)
}
