package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configFileEnvName = "STOREFRONT_CONFIG_FILE"
	envPrefix         = "STOREFRONT"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"

	// SeedBundled selects the catalog compiled into the binary.
	SeedBundled = "bundled"
)

type remote struct {
	URL         string        `mapstructure:"url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxAttempts int           `mapstructure:"max_attempts"`
}

type tlsFiles struct {
	CA   string `mapstructure:"ca"`
	Cert string `mapstructure:"cert"`
	Key  string `mapstructure:"key"`
}

func (t tlsFiles) Enabled() bool {
	return t.CA != "" || t.Cert != "" || t.Key != ""
}

type topics struct {
	Checkouts string `mapstructure:"checkouts"`
}

type broker struct {
	SeedBrokers        []string `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string `mapstructure:"schema_registry_urls"`
	TLS                tlsFiles `mapstructure:"tls"`
	Topics             topics   `mapstructure:"topics"`
}

// Enabled reports whether checkouts are published.
func (b broker) Enabled() bool {
	return len(b.SeedBrokers) != 0
}

type Config struct {
	LogLevel           slog.Level    `mapstructure:"log_level"`
	HTTPServerAddr     string        `mapstructure:"http_server_addr"`
	HTTPHandlerTimeout time.Duration `mapstructure:"http_handler_timeout"`
	Storage            string        `mapstructure:"storage"`
	SQLDB              string        `mapstructure:"sql_db"`
	// SeedAsset is a file path, [SeedBundled] or empty for no seed asset.
	SeedAsset string `mapstructure:"seed_asset"`
	Remote    remote `mapstructure:"remote"`
	Broker    broker `mapstructure:"broker"`
}

// Load reads the config file named by STOREFRONT_CONFIG_FILE or the
// --config flag. It exits the process on failure.
func Load() Config {
	cfg, err := LoadFile(getConfigFilepath())
	if err != nil {
		die(err)
	}
	return cfg
}

// LoadFile reads path over the defaults. STOREFRONT_* variables override
// the file, e.g. STOREFRONT_REMOTE_URL for remote.url.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	err := v.UnmarshalExact(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("http_server_addr", ":8080")
	v.SetDefault("http_handler_timeout", "30s")
	v.SetDefault("storage", StorageMemory)
	v.SetDefault("sql_db", "")
	v.SetDefault("seed_asset", SeedBundled)
	v.SetDefault("remote.url", "")
	v.SetDefault("remote.timeout", "10s")
	v.SetDefault("remote.max_attempts", 3)
	v.SetDefault("broker.seed_brokers", []string{})
	v.SetDefault("broker.schema_registry_urls", []string{})
	v.SetDefault("broker.tls.ca", "")
	v.SetDefault("broker.tls.cert", "")
	v.SetDefault("broker.tls.key", "")
	v.SetDefault("broker.topics.checkouts", "storefront-checkouts")
}

func (c Config) validate() error {
	var errs []error

	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if c.SQLDB == "" {
			errs = append(errs, errors.New("sql_db: required for postgres storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage: unknown value %q", c.Storage))
	}

	if c.HTTPHandlerTimeout <= 0 {
		errs = append(errs, errors.New("http_handler_timeout: must be positive"))
	}

	if c.Remote.URL != "" {
		if c.Remote.Timeout <= 0 {
			errs = append(errs, errors.New("remote.timeout: must be positive"))
		}
		if c.Remote.MaxAttempts <= 0 {
			errs = append(errs, errors.New("remote.max_attempts: must be positive"))
		}
	}

	if c.Broker.Enabled() {
		if len(c.Broker.SchemaRegistryURLs) == 0 {
			errs = append(errs, errors.New("broker.schema_registry_urls: required with seed_brokers"))
		}
		if c.Broker.Topics.Checkouts == "" {
			errs = append(errs, errors.New("broker.topics.checkouts: required with seed_brokers"))
		}
	}

	return errors.Join(errs...)
}

func getConfigFilepath() string {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	arg := cmdLine.String("config", "", "config file")
	_ = cmdLine.Parse(os.Args[1:])
	env, ok := os.LookupEnv(configFileEnvName)
	if ok {
		return env
	}
	return *arg
}

func die(err error) {
	fmt.Printf("failed to load config file: %v\n", err)
	os.Exit(2)
}

func (c Config) Print() {
	tamplate := `
	General:
	LogLevel=%q
	HTTPServerAddr=%q
	HTTPHandlerTimeout=%q
	Storage=%q
	SQLDB=%q
	SeedAsset=%q

	Remote:
	URL=%q
	Timeout=%q
	MaxAttempts=%d

	BrokerConfig:
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	TLS=%t
	Topics:
		Checkouts=%q

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(tamplate, "\n"),
		c.LogLevel,
		c.HTTPServerAddr,
		c.HTTPHandlerTimeout,
		c.Storage,
		maskDSN(c.SQLDB),
		c.SeedAsset,
		c.Remote.URL,
		c.Remote.Timeout,
		c.Remote.MaxAttempts,
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.Broker.TLS.Enabled(),
		c.Broker.Topics.Checkouts,
	)
}

// maskDSN hides the password of a URL DSN.
func maskDSN(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	userinfo, host, ok := strings.Cut(rest, "@")
	if !ok {
		return dsn
	}
	user, _, hasPass := strings.Cut(userinfo, ":")
	if !hasPass {
		return dsn
	}
	return scheme + "://" + user + ":***@" + host
}
