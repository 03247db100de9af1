package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

func init() {
	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()
}

// Common contains artifact-tree parameters shared by every service.
type Common struct {
	DataDir     string
	Category    string
	FXPair      string
	ReferenceTZ string
}

// Pipeline holds configuration for the single-date staged pipeline.
type Pipeline struct {
	Common
	FetchCommand       []string
	ElasticsearchAddr  string
	ElasticsearchIndex string
	IndexEnabled       bool
}

// Backfill configures the date-range gap engine.
type Backfill struct {
	Common
}

// API describes the read-only HTTP layer.
type API struct {
	Common
	BindAddr           string
	ElasticsearchAddr  string
	ElasticsearchIndex string
	SearchEnabled      bool
	DefaultPage        int
	MaxPage            int
}

// Ingest holds configuration for the Kafka -> artifact-tree consumer.
type Ingest struct {
	Common
	KafkaBrokers   []string
	KafkaTopic     string
	KafkaConsumer  string
	DedupeCapacity int
	DedupeTTL      time.Duration
}

// Retention configures the search-index cleanup loop.
type Retention struct {
	ElasticsearchAddr  string
	ElasticsearchIndex string
	Interval           time.Duration
	MaxAge             time.Duration
	BatchSize          int
}

func loadCommon() (Common, error) {
	c := Common{
		DataDir:     getEnv("DATA_DIR", "./data"),
		Category:    getEnv("NEWS_CATEGORY", "world_politics"),
		FXPair:      strings.ToLower(getEnv("FX_PAIR", "usdjpy")),
		ReferenceTZ: getEnv("REFERENCE_TZ", "UTC"),
	}
	if _, err := time.LoadLocation(c.ReferenceTZ); err != nil {
		return c, fmt.Errorf("REFERENCE_TZ %q is not a valid IANA zone: %w", c.ReferenceTZ, err)
	}
	return c, nil
}

// Location resolves the reference timezone. Load* validated the name.
func (c Common) Location() *time.Location {
	loc, err := time.LoadLocation(c.ReferenceTZ)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LoadPipeline builds a Pipeline config from environment variables.
func LoadPipeline() (*Pipeline, error) {
	common, err := loadCommon()
	if err != nil {
		return nil, err
	}

	c := &Pipeline{
		Common:             common,
		FetchCommand:       strings.Fields(getEnv("FETCH_COMMAND", "")),
		ElasticsearchAddr:  getEnv("ELASTICSEARCH_ADDR", "http://elasticsearch:9200"),
		ElasticsearchIndex: getEnv("ELASTICSEARCH_INDEX", "articles"),
		IndexEnabled:       getBool("PIPELINE_INDEX_ENABLED", false),
	}
	return c, nil
}

// LoadBackfill builds a Backfill config from environment variables.
func LoadBackfill() (*Backfill, error) {
	common, err := loadCommon()
	if err != nil {
		return nil, err
	}
	return &Backfill{Common: common}, nil
}

// LoadAPI builds an API config from environment variables.
func LoadAPI() (*API, error) {
	common, err := loadCommon()
	if err != nil {
		return nil, err
	}

	c := &API{
		Common:             common,
		BindAddr:           getEnv("API_BIND_ADDR", "0.0.0.0:8080"),
		ElasticsearchAddr:  getEnv("ELASTICSEARCH_ADDR", "http://elasticsearch:9200"),
		ElasticsearchIndex: getEnv("ELASTICSEARCH_INDEX", "articles"),
		SearchEnabled:      getBool("API_SEARCH_ENABLED", false),
		DefaultPage:        getInt("API_PAGE_SIZE", 20),
		MaxPage:            getInt("API_MAX_PAGE_SIZE", 100),
	}

	if c.DefaultPage <= 0 {
		return nil, fmt.Errorf("API_PAGE_SIZE must be positive")
	}
	if c.MaxPage <= 0 {
		return nil, fmt.Errorf("API_MAX_PAGE_SIZE must be positive")
	}
	if c.DefaultPage > c.MaxPage {
		return nil, fmt.Errorf("API_PAGE_SIZE cannot exceed API_MAX_PAGE_SIZE")
	}
	return c, nil
}

// LoadIngest builds an Ingest config from environment variables.
func LoadIngest() (*Ingest, error) {
	common, err := loadCommon()
	if err != nil {
		return nil, err
	}

	c := &Ingest{
		Common:         common,
		KafkaBrokers:   splitAndTrim(getEnv("KAFKA_BROKERS", "kafka:9092")),
		KafkaTopic:     getEnv("KAFKA_TOPIC", "raw_snapshots"),
		KafkaConsumer:  getEnv("KAFKA_CONSUMER_GROUP", "snapshot-ingest"),
		DedupeCapacity: getInt("INGEST_DEDUPE_CAPACITY", 20000),
		DedupeTTL:      getDuration("INGEST_DEDUPE_TTL", "24h"),
	}

	if len(c.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must contain at least one broker")
	}
	if c.DedupeCapacity <= 0 {
		return nil, fmt.Errorf("INGEST_DEDUPE_CAPACITY must be positive")
	}
	return c, nil
}

// LoadRetention builds a Retention config from environment variables.
func LoadRetention() (*Retention, error) {
	c := &Retention{
		ElasticsearchAddr:  getEnv("ELASTICSEARCH_ADDR", "http://elasticsearch:9200"),
		ElasticsearchIndex: getEnv("ELASTICSEARCH_INDEX", "articles"),
		Interval:           getDuration("RETENTION_CRON", "24h"),
		MaxAge:             getDuration("RETENTION_MAX_AGE", "2160h"),
		BatchSize:          getInt("RETENTION_BATCH_SIZE", 500),
	}

	if c.MaxAge <= 0 {
		return nil, fmt.Errorf("RETENTION_MAX_AGE must be positive")
	}
	if c.Interval <= 0 {
		return nil, fmt.Errorf("RETENTION_CRON must be positive")
	}
	if c.BatchSize <= 0 {
		return nil, fmt.Errorf("RETENTION_BATCH_SIZE must be positive")
	}
	return c, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
