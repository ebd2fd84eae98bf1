package config

import (
	"reflect"
	"strings"

	"log-reconciler/core/database"
	"log-reconciler/core/logger"
	"log-reconciler/core/rpc"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the reconciler. Scan parameters sit at
// the top level so their environment variables keep the short names the
// operators already use (PROVIDER, START, RANGE, ...); infrastructure
// concerns are nested and prefixed (DATABASE_HOST, RPC_RETRY_MAX, ...).
type Config struct {
	// Provider is the RPC endpoint the fetch scan writes ranges for.
	Provider string `mapstructure:"provider" default:""`
	// RefProvider is the reference endpoint whose counts are trusted.
	RefProvider string `mapstructure:"ref_provider" default:""`
	// TestProvider is the endpoint under verification.
	TestProvider string `mapstructure:"test_provider" default:""`
	// Contract is the address whose emitted logs are counted.
	Contract string `mapstructure:"contract" default:"0xe91D153E0b41518A2Ce8Dd3D7944Fa863463a97d"`
	// Topic is the event-topic hash used to filter logs.
	Topic string `mapstructure:"topic" default:"0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"`
	// Start is the first block of the fetch scan.
	Start uint64 `mapstructure:"start" default:"6306357"`
	// End is the last block of the fetch scan.
	End uint64 `mapstructure:"end" default:"42618965"`
	// Range is the chunk width fetched per stored row.
	Range uint64 `mapstructure:"range" default:"1000"`
	// Step is the distance between consecutive chunk starts.
	Step uint64 `mapstructure:"step" default:"10000"`
	// MinRange is the smallest width a failing range may be bisected to.
	MinRange uint64 `mapstructure:"min_range" default:"500"`
	// SplitOnErrors enables bisection of failing ranges.
	SplitOnErrors bool `mapstructure:"split_on_errors" default:"true"`
	// FromBlock is an optional approximate lower bound for verification
	// windows; -1 means unset. It snaps to the nearest stored boundary.
	FromBlock int64 `mapstructure:"from_block" default:"-1"`
	// ToBlock is the matching optional upper bound; -1 means unset.
	ToBlock int64 `mapstructure:"to_block" default:"-1"`

	// RPC holds transport configuration.
	RPC rpc.Config `mapstructure:"rpc"`
	// Database holds configuration for the reconciliation database.
	Database database.Config `mapstructure:"database"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
}

// LoadConfig loads configuration from environment variables and a .env file.
func LoadConfig(path string) (*Config, error) {
	// Load .env first so AutomaticEnv sees its values; missing files are fine.
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}
	_ = godotenv.Load(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. DATABASE_HOST -> database.host)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues uses reflection to iterate over the struct and set default values
// in Viper based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}

// OptionalBlock converts the -1-means-unset convention into a nil-able bound.
func OptionalBlock(v int64) *uint64 {
	if v < 0 {
		return nil
	}
	u := uint64(v)
	return &u
}
