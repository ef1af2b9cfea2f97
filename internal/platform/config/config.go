package config

import (
	"os"
	"strconv"
	"strings"
)

// Default commission rate applied when seeding a fresh policy store: 2.5%.
const defaultCommissionRateBps = 250

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string
	HTTPPort     string
	StoreDriver  string
	PostgresDSN  string
	BoltPath     string
	KafkaBrokers []string

	OwnerAddress             string
	TreasuryAddress          string
	DefaultCommissionRateBps uint64
	SeedCurrencies           []string
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "tessera"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	driver := strings.ToLower(strings.TrimSpace(os.Getenv("STORE_DRIVER")))
	if driver == "" {
		driver = "memory"
	}

	boltPath := os.Getenv("BOLT_PATH")
	if boltPath == "" {
		boltPath = "tessera.db"
	}

	owner := strings.TrimSpace(os.Getenv("OWNER_ADDRESS"))
	if owner == "" {
		owner = "owner"
	}
	treasury := strings.TrimSpace(os.Getenv("TREASURY_ADDRESS"))
	if treasury == "" {
		treasury = owner
	}

	return Config{
		ServiceName:  service,
		HTTPPort:     port,
		StoreDriver:  driver,
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		BoltPath:     boltPath,
		KafkaBrokers: envList("KAFKA_BROKERS", []string{"localhost:9092"}),

		OwnerAddress:             owner,
		TreasuryAddress:          treasury,
		DefaultCommissionRateBps: envUint("DEFAULT_COMMISSION_RATE_BPS", defaultCommissionRateBps),
		SeedCurrencies:           envList("SEED_CURRENCIES", nil),
	}, nil
}

func envList(name string, fallback []string) []string {
	var values []string
	for _, value := range strings.Split(os.Getenv(name), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			values = append(values, value)
		}
	}
	if len(values) == 0 {
		return fallback
	}
	return values
}

func envUint(name string, fallback uint64) uint64 {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return value
}
