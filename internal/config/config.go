package config

import (
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds settings shared by every binary. Each binary reads only the
// fields it needs.
type Config struct {
	Port             string
	PostgresURL      string
	PostgresSchema   string
	KafkaBrokers     []string
	CreatedTopic     string
	UpdatedTopic     string
	ConsumerGroup    string
	OrdersServiceURL string
	EmailServiceURL  string
	OTLPEndpoint     string
	MigrationsPath   string
}

// Load reads the environment, first merging a .env file when present.
// Variables already set in the environment win over the file.
func Load(defaultPort string) Config {
	_ = godotenv.Load()

	return Config{
		Port:             getenv("PORT", defaultPort),
		PostgresURL:      os.Getenv("POSTGRES_URL"),
		PostgresSchema:   getenv("POSTGRES_SCHEMA", "orders"),
		KafkaBrokers:     splitList(os.Getenv("KAFKA_BROKERS")),
		CreatedTopic:     getenv("ORDER_CREATED_TOPIC", "OrderCreated"),
		UpdatedTopic:     getenv("ORDER_UPDATED_TOPIC", "OrderUpdated"),
		ConsumerGroup:    getenv("KAFKA_CONSUMER_GROUP", "notification-worker"),
		OrdersServiceURL: os.Getenv("ORDERS_SERVICE_URL"),
		EmailServiceURL:  os.Getenv("EMAIL_SERVICE_URL"),
		OTLPEndpoint:     getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		MigrationsPath:   getenv("MIGRATIONS_PATH", "file://migrations"),
	}
}

// WithSearchPath returns dsn with search_path set to schema. lib/pq sends
// unknown URL parameters as run-time parameters, so every pooled connection
// gets the same path.
func WithSearchPath(dsn, schema string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("search_path", schema)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
